/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jws implements the compact JWS encoding used to authenticate Recover, Update, and
// Deactivate payloads, along with a JWK type that additionally supports secp256k1 (ES256K), which
// go-jose does not model natively.
package jws

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	josejson "github.com/go-jose/go-jose/v3/json"
	"golang.org/x/crypto/ed25519"

	gojose "github.com/go-jose/go-jose/v3"
)

// Header names recognized in a protected JWS header. No other header key is permitted.
const (
	HeaderAlgorithm = "alg"
	HeaderKeyID     = "kid"
)

const (
	secp256k1Crv  = "secp256k1"
	secp256k1Kty  = "EC"
	secp256k1Size = 32
	bitsPerByte   = 8
)

// ErrInvalidKey is returned when a JWK fails structural validation.
var ErrInvalidKey = errors.New("invalid JWK")

// JWK (JSON Web Key) represents a cryptographic key, with direct support for secp256k1 keys that
// go-jose's own JSONWebKey cannot round-trip.
type JWK struct {
	gojose.JSONWebKey

	Kty   string
	Crv   string
	Nonce string
}

// Validate checks that the JWK carries the mandatory fields for its declared key type.
func (j *JWK) Validate() error {
	if j == nil || j.Key == nil {
		return ErrInvalidKey
	}

	if j.Kty == "" {
		return fmt.Errorf("%w: missing kty", ErrInvalidKey)
	}

	return nil
}

// PublicKeyBytes converts the public portion of the key to its compressed/PKIX byte form.
func (j *JWK) PublicKeyBytes() ([]byte, error) {
	if isSecp256k1(j.Kty, j.Crv) {
		ecPubKey, ok := j.Key.(*ecdsa.PublicKey)
		if !ok {
			priv, ok := j.Key.(*ecdsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("unsupported secp256k1 key representation")
			}

			ecPubKey = &priv.PublicKey
		}

		pubKey := &btcec.PublicKey{Curve: btcec.S256(), X: ecPubKey.X, Y: ecPubKey.Y}

		return pubKey.SerializeCompressed(), nil
	}

	switch pubKey := j.Public().Key.(type) {
	case *ecdsa.PublicKey, ed25519.PublicKey:
		pubKBytes, err := x509.MarshalPKIXPublicKey(pubKey)
		if err != nil {
			return nil, errors.New("failed to read public key bytes")
		}

		return pubKBytes, nil
	default:
		return nil, fmt.Errorf("unsupported public key type in kid '%s'", j.KeyID)
	}
}

// UnmarshalJSON reads a key from its JSON representation, dispatching to the secp256k1 path when
// the key type/curve pair names it.
func (j *JWK) UnmarshalJSON(jwkBytes []byte) error {
	var raw rawJWK

	if err := json.Unmarshal(jwkBytes, &raw); err != nil {
		return fmt.Errorf("unable to read JWK: %w", err)
	}

	if isSecp256k1(raw.Kty, raw.Crv) {
		jwk, err := unmarshalSecp256k1(&raw)
		if err != nil {
			return fmt.Errorf("unable to read JWK: %w", err)
		}

		*j = *jwk
	} else {
		var joseJWK gojose.JSONWebKey

		if err := json.Unmarshal(jwkBytes, &joseJWK); err != nil {
			return fmt.Errorf("unable to read jose JWK: %w", err)
		}

		j.JSONWebKey = joseJWK
	}

	j.Kty = raw.Kty
	j.Crv = raw.Crv
	j.Nonce = raw.Nonce

	return nil
}

// MarshalJSON serializes the key to its JSON representation.
func (j *JWK) MarshalJSON() ([]byte, error) {
	if isSecp256k1(j.Kty, j.Crv) {
		return marshalSecp256k1(j)
	}

	return (&j.JSONWebKey).MarshalJSON()
}

func isSecp256k1(kty, crv string) bool {
	return strings.EqualFold(kty, secp256k1Kty) && strings.EqualFold(crv, secp256k1Crv)
}

type rawJWK struct {
	Use   string `json:"use,omitempty"`
	Kty   string `json:"kty,omitempty"`
	Kid   string `json:"kid,omitempty"`
	Crv   string `json:"crv,omitempty"`
	Alg   string `json:"alg,omitempty"`
	Nonce string `json:"nonce,omitempty"`

	X *byteBuffer `json:"x,omitempty"`
	Y *byteBuffer `json:"y,omitempty"`
	D *byteBuffer `json:"d,omitempty"`
}

func unmarshalSecp256k1(raw *rawJWK) (*JWK, error) {
	if raw.X == nil || raw.Y == nil {
		return nil, ErrInvalidKey
	}

	curve := btcec.S256()

	if curveSize(curve) != len(raw.X.data) || curveSize(curve) != len(raw.Y.data) {
		return nil, ErrInvalidKey
	}

	if raw.D != nil && dSize(curve) != len(raw.D.data) {
		return nil, ErrInvalidKey
	}

	x, y := raw.X.bigInt(), raw.Y.bigInt()

	if !curve.IsOnCurve(x, y) {
		return nil, ErrInvalidKey
	}

	var key interface{}

	if raw.D != nil {
		key = &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
			D:         raw.D.bigInt(),
		}
	} else {
		key = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	}

	return &JWK{
		JSONWebKey: gojose.JSONWebKey{Key: key, KeyID: raw.Kid, Algorithm: raw.Alg, Use: raw.Use},
		Nonce:      raw.Nonce,
	}, nil
}

func marshalSecp256k1(jwk *JWK) ([]byte, error) {
	var raw rawJWK

	switch key := jwk.Key.(type) {
	case *ecdsa.PublicKey:
		raw = rawJWK{
			Kty: secp256k1Kty, Crv: secp256k1Crv,
			X: newFixedSizeBuffer(key.X.Bytes(), secp256k1Size),
			Y: newFixedSizeBuffer(key.Y.Bytes(), secp256k1Size),
		}
	case *ecdsa.PrivateKey:
		raw = rawJWK{
			Kty: secp256k1Kty, Crv: secp256k1Crv,
			X: newFixedSizeBuffer(key.X.Bytes(), secp256k1Size),
			Y: newFixedSizeBuffer(key.Y.Bytes(), secp256k1Size),
			D: newFixedSizeBuffer(key.D.Bytes(), dSize(key.Curve)),
		}
	default:
		return nil, fmt.Errorf("unsupported secp256k1 key representation for marshaling")
	}

	raw.Kid, raw.Alg, raw.Use, raw.Nonce = jwk.KeyID, jwk.Algorithm, jwk.Use, jwk.Nonce

	return josejson.Marshal(raw)
}

func curveSize(crv elliptic.Curve) int {
	bits := crv.Params().BitSize

	div, mod := bits/bitsPerByte, bits%bitsPerByte
	if mod == 0 {
		return div
	}

	return div + 1
}

func dSize(curve elliptic.Curve) int {
	bitLen := curve.Params().P.BitLen()
	size := bitLen / bitsPerByte

	if bitLen%bitsPerByte != 0 {
		size++
	}

	return size
}

// byteBuffer is a fixed-width big-endian integer serialized as base64url.
type byteBuffer struct {
	data []byte
}

func (b *byteBuffer) UnmarshalJSON(data []byte) error {
	var encoded string

	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}

	if encoded == "" {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}

	*b = byteBuffer{data: decoded}

	return nil
}

func (b *byteBuffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(b.data))
}

func (b byteBuffer) bigInt() *big.Int {
	return new(big.Int).SetBytes(b.data)
}

func newFixedSizeBuffer(data []byte, length int) *byteBuffer {
	padded := make([]byte, length-len(data))

	return &byteBuffer{data: append(padded, data...)}
}
