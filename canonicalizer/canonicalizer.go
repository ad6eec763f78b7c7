/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonicalizer implements RFC 8785 JSON Canonicalization Scheme (JCS) marshaling: object
// keys sorted lexicographically by their UTF-16 code units, no insignificant whitespace, and
// numbers in shortest round-trip form. Canonical encoding is what every commitment, delta hash, and
// long-form DID round-trip check is computed over, so any divergence from the published algorithm
// breaks interoperability silently.
package canonicalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"
)

// MarshalCanonical marshals model to its canonical JSON form.
func MarshalCanonical(model interface{}) ([]byte, error) {
	raw, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model for canonicalization: %s", err.Error())
	}

	var generic interface{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode marshaled model for canonicalization: %s", err.Error())
	}

	var buf bytes.Buffer

	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool, json.Number, string:
		return encodeScalar(buf, v)
	case []interface{}:
		return encodeArray(buf, v)
	case map[string]interface{}:
		return encodeObject(buf, v)
	default:
		return fmt.Errorf("canonicalizer: unsupported value type %T", v)
	}

	return nil
}

func encodeScalar(buf *bytes.Buffer, value interface{}) error {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("canonicalizer: invalid number %s: %s", n, err.Error())
		}

		value = f
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("canonicalizer: failed to encode scalar: %s", err.Error())
	}

	buf.Write(raw)

	return nil
}

func encodeArray(buf *bytes.Buffer, arr []interface{}) error {
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := encodeCanonical(buf, elem); err != nil {
			return err
		}
	}

	buf.WriteByte(']')

	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := utf16.Encode([]rune(keys[i])), utf16.Encode([]rune(keys[j]))
		for n := 0; n < len(a) && n < len(b); n++ {
			if a[n] != b[n] {
				return a[n] < b[n]
			}
		}

		return len(a) < len(b)
	})

	buf.WriteByte('{')

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("canonicalizer: failed to encode object key: %s", err.Error())
		}

		buf.Write(keyBytes)
		buf.WriteByte(':')

		if err := encodeCanonical(buf, obj[k]); err != nil {
			return err
		}
	}

	buf.WriteByte('}')

	return nil
}
