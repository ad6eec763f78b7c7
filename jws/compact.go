/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trustbloc/sidetree-node/encoder"
)

// Headers is the decoded protected header of a compact JWS.
type Headers map[string]interface{}

// Algorithm returns the "alg" header value.
func (h Headers) Algorithm() (string, bool) {
	v, ok := h[HeaderAlgorithm]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// KeyID returns the "kid" header value, if present.
func (h Headers) KeyID() (string, bool) {
	v, ok := h[HeaderKeyID]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// JSONWebSignature is a parsed compact JWS: protected headers plus the raw (not yet
// schema-validated) payload bytes.
type JSONWebSignature struct {
	ProtectedHeaders Headers
	Payload          []byte
	Signature        []byte

	protectedRaw string
	payloadRaw   string
}

// ParseJWS parses a compact-serialized JWS of the form "header.payload.signature" without
// verifying the signature; signature verification is a separate step once the signing key is
// known.
func ParseJWS(compactJWS string) (*JSONWebSignature, error) {
	parts := strings.Split(compactJWS, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWS compact format, expected three parts, got %d", len(parts))
	}

	headerBytes, err := encoder.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWS protected header encoding: %s", err.Error())
	}

	var headers Headers

	if err := json.Unmarshal(headerBytes, &headers); err != nil {
		return nil, fmt.Errorf("invalid JWS protected header JSON: %s", err.Error())
	}

	payload, err := encoder.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWS payload encoding: %s", err.Error())
	}

	sig, err := encoder.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid JWS signature encoding: %s", err.Error())
	}

	return &JSONWebSignature{
		ProtectedHeaders: headers,
		Payload:          payload,
		Signature:        sig,
		protectedRaw:     parts[0],
		payloadRaw:       parts[1],
	}, nil
}

// SigningInput returns the bytes that were signed: "<protected>.<payload>".
func (s *JSONWebSignature) SigningInput() []byte {
	return []byte(s.protectedRaw + "." + s.payloadRaw)
}
