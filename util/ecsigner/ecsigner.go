/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ecsigner implements a minimal compact-JWS signer over an ECDSA private key, used by
// operation request builders (and their tests) to produce the signedData member of Recover,
// Update, and Deactivate requests.
package ecsigner

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/sidetree-node/encoder"
)

// Signer signs a JWS payload with alg using an in-memory ECDSA private key.
type Signer struct {
	key   *ecdsa.PrivateKey
	alg   string
	keyID string
}

// New creates a signer for the given key, JWS algorithm, and optional key ID header.
func New(key *ecdsa.PrivateKey, alg, keyID string) *Signer {
	return &Signer{key: key, alg: alg, keyID: keyID}
}

// Headers returns the protected header set this signer will produce.
func (s *Signer) Headers() map[string]interface{} {
	headers := map[string]interface{}{"alg": s.alg}

	if s.keyID != "" {
		headers["kid"] = s.keyID
	}

	return headers
}

// Sign signs payload and returns the compact JWS.
func (s *Signer) Sign(payload []byte) (string, error) {
	headerBytes, err := marshalCanonicalHeaders(s.Headers())
	if err != nil {
		return "", err
	}

	protected := encoder.EncodeToString(headerBytes)
	encodedPayload := encoder.EncodeToString(payload)
	signingInput := protected + "." + encodedPayload

	digest := sha256.Sum256([]byte(signingInput))

	var sig []byte

	if s.alg == "ES256K" {
		sig, err = signSecp256k1(s.key, digest[:])
	} else {
		sig, err = signP256(s.key, digest[:])
	}

	if err != nil {
		return "", fmt.Errorf("failed to sign: %s", err.Error())
	}

	return signingInput + "." + encoder.EncodeToString(sig), nil
}

func signSecp256k1(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	priv := &btcec.PrivateKey{PrivateKey: ecdsa.PrivateKey{
		PublicKey: key.PublicKey, D: key.D,
	}}

	return signFixedLength(&priv.PrivateKey, digest)
}

func signP256(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	return signFixedLength(key, digest)
}

// signFixedLength produces the IEEE P1363 fixed-width r||s signature format JWS requires, rather
// than ECDSA's ASN.1 DER encoding.
func signFixedLength(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, digest)
	if err != nil {
		return nil, err
	}

	curveBytes := (key.Curve.Params().BitSize + 7) / 8

	return append(leftPad(r, curveBytes), leftPad(s, curveBytes)...), nil
}

func leftPad(v *big.Int, size int) []byte {
	raw := v.Bytes()
	if len(raw) >= size {
		return raw
	}

	out := make([]byte, size-len(raw))

	return append(out, raw...)
}

func marshalCanonicalHeaders(headers map[string]interface{}) ([]byte, error) {
	// Protected headers for these payloads only ever carry "alg" and optionally "kid"; a
	// hand-rolled deterministic encoding avoids pulling in the full canonicalizer for two keys.
	if kid, ok := headers["kid"]; ok {
		return []byte(fmt.Sprintf(`{"alg":%q,"kid":%q}`, headers["alg"], kid)), nil
	}

	return []byte(fmt.Sprintf(`{"alg":%q}`, headers["alg"])), nil
}
