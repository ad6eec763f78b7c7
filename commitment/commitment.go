/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package commitment computes the commitment and reveal value for a JWK, per the canonicalize-then
// -multihash rule shared by every operation type that rotates a recovery or update key.
package commitment

import (
	"fmt"

	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/jws"
)

// GetCommitment returns the commitment value for jwk: base64url(multihash(canonicalize(jwk))).
func GetCommitment(jwk *jws.JWK, multihashCode uint) (string, error) {
	if jwk == nil {
		return "", fmt.Errorf("unable to calculate commitment, key is nil")
	}

	return hashing.CalculateModelMultihash(jwk, multihashCode)
}

// GetRevealValue is an alias for GetCommitment: the reveal value of an operation is the
// commitment of the key that authenticates it, computed identically. They are distinct
// vocabulary for the same bytes depending on whether the value is being published (commitment) or
// consumed (reveal).
func GetRevealValue(jwk *jws.JWK, multihashCode uint) (string, error) {
	return GetCommitment(jwk, multihashCode)
}
