/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hashing computes and validates the self-describing multihash digests used for
// commitments, DID unique suffixes, and delta/content integrity checks.
package hashing

import (
	"fmt"

	"github.com/multiformats/go-multihash"

	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/encoder"
)

// sha2_256 is the SHA2-256 multihash code. Nothing in this package restricts hashing to it:
// ComputeMultihash accepts any valid multihash code.
const sha2_256 = multihash.SHA2_256

// ComputeMultihash hashes data with the given multihash code and returns the multihash bytes.
func ComputeMultihash(code uint, data []byte) ([]byte, error) {
	if !multihash.ValidCode(uint64(code)) {
		return nil, fmt.Errorf("algorithm not supported, unable to compute hash")
	}

	mh, err := multihash.Sum(data, int(code), -1)
	if err != nil {
		return nil, err
	}

	return mh, nil
}

// CalculateModelMultihash canonicalizes model and returns the base64url-encoded multihash.
func CalculateModelMultihash(model interface{}, code uint) (string, error) {
	data, err := canonicalizer.MarshalCanonical(model)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize: %s", err.Error())
	}

	mh, err := ComputeMultihash(code, data)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(mh), nil
}

// IsValidModelMultihash verifies that the base64url-encoded multihash contained in mhStr is the
// multihash of the canonical JSON of model.
func IsValidModelMultihash(model interface{}, mhStr string) error {
	code, err := GetMultihashCode(mhStr)
	if err != nil {
		return err
	}

	computed, err := CalculateModelMultihash(model, uint(code))
	if err != nil {
		return err
	}

	if computed != mhStr {
		return fmt.Errorf("hash of model doesn't match the provided multihash value")
	}

	return nil
}

// GetMultihashCode inspects the base64url-encoded multihash value and returns its code.
func GetMultihashCode(mhStr string) (uint64, error) {
	mhBytes, err := encoder.DecodeString(mhStr)
	if err != nil {
		return 0, fmt.Errorf("unable to decode multihash string: %s", err.Error())
	}

	dm, err := multihash.Decode(mhBytes)
	if err != nil {
		return 0, fmt.Errorf("unable to decode multihash: %s", err.Error())
	}

	return uint64(dm.Code), nil
}

// IsSupportedMultihash reports whether the algorithm code of the given encoded multihash is
// present in the protocol's list of advertised algorithms. Used to allow verification against
// retired algorithms while still minting only sha2-256 commitments.
func IsSupportedMultihash(mhStr string, supported []uint) bool {
	code, err := GetMultihashCode(mhStr)
	if err != nil {
		return false
	}

	for _, s := range supported {
		if uint64(s) == code {
			return true
		}
	}

	return false
}
