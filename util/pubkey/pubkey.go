/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pubkey converts Go standard library public keys into the JWK representation operation
// requests carry.
package pubkey

import (
	"crypto/ecdsa"
	"fmt"

	gojose "github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/sidetree-node/jws"
)

// GetPublicKeyJWK builds a jws.JWK from an ECDSA public key (P-256 or secp256k1).
func GetPublicKeyJWK(pub *ecdsa.PublicKey) (*jws.JWK, error) {
	if pub == nil {
		return nil, fmt.Errorf("public key is required")
	}

	if pub.Curve.Params().Name == "secp256k1" {
		return &jws.JWK{
			JSONWebKey: gojose.JSONWebKey{Key: pub},
			Kty:        "EC",
			Crv:        "secp256k1",
		}, nil
	}

	return &jws.JWK{
		JSONWebKey: gojose.JSONWebKey{Key: pub},
		Kty:        "EC",
		Crv:        pub.Curve.Params().Name,
	}, nil
}
