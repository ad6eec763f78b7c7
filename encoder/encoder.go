/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package encoder provides the base64url encoding used throughout the protocol for operation
// requests, deltas, and file payloads.
package encoder

import (
	"encoding/base64"
	"fmt"
)

// EncodeToString encodes bytes into an unpadded base64url string.
func EncodeToString(content []byte) string {
	return base64.RawURLEncoding.EncodeToString(content)
}

// DecodeString decodes an unpadded base64url string. Any character outside the base64url
// alphabet (including '=' padding) is rejected rather than silently ignored.
func DecodeString(content string) ([]byte, error) {
	for i := 0; i < len(content); i++ {
		if !isBase64URLChar(content[i]) {
			return nil, fmt.Errorf("invalid base64url character at position %d", i)
		}
	}

	return base64.RawURLEncoding.DecodeString(content)
}

func isBase64URLChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
