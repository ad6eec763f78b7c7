/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client builds well-formed operation request payloads for each of the four operation
// types. It is the inverse of operationparser: given key material and a signer, it produces the
// bytes a parser would accept.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/jws"
	"github.com/trustbloc/sidetree-node/patch"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

// Signer produces a compact JWS over a payload. util/ecsigner.Signer satisfies this.
type Signer interface {
	Sign(payload []byte) (string, error)
	Headers() map[string]interface{}
}

// CreateRequestInfo bundles the inputs needed to build a create request.
type CreateRequestInfo struct {
	OpaqueDocument     string
	RecoveryCommitment string
	UpdateCommitment   string
	MultihashCode      uint
	AnchorOrigin       interface{}
}

// NewCreateRequest builds a create operation request.
func NewCreateRequest(info *CreateRequestInfo) ([]byte, error) {
	if info.RecoveryCommitment == "" {
		return nil, fmt.Errorf("missing recovery commitment")
	}

	if info.UpdateCommitment == "" {
		return nil, fmt.Errorf("missing update commitment")
	}

	replacePatch, err := patch.NewReplacePatch(info.OpaqueDocument)
	if err != nil {
		return nil, err
	}

	delta := &model.DeltaModel{
		UpdateCommitment: info.UpdateCommitment,
		Patches:          []patch.Patch{replacePatch},
	}

	deltaHash, err := hashing.CalculateModelMultihash(delta, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	suffixData := &model.SuffixDataModel{
		DeltaHash:          deltaHash,
		RecoveryCommitment: info.RecoveryCommitment,
		AnchorOrigin:       info.AnchorOrigin,
	}

	req := &model.CreateRequest{
		Operation:  operation.TypeCreate,
		SuffixData: suffixData,
		Delta:      delta,
	}

	return canonicalizer.MarshalCanonical(req)
}

// UpdateRequestInfo bundles the inputs needed to build an update request.
type UpdateRequestInfo struct {
	DidSuffix        string
	RevealValue      string
	UpdateKey        *jws.JWK
	UpdateCommitment string
	Patches          []patch.Patch
	MultihashCode    uint
	Signer           Signer
}

// NewUpdateRequest builds an update operation request.
func NewUpdateRequest(info *UpdateRequestInfo) ([]byte, error) {
	delta := &model.DeltaModel{
		UpdateCommitment: info.UpdateCommitment,
		Patches:          info.Patches,
	}

	deltaHash, err := hashing.CalculateModelMultihash(delta, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	signedModel := model.UpdateSignedDataModel{
		UpdateKey: info.UpdateKey,
		DeltaHash: deltaHash,
	}

	signedJWS, err := signModel(info.Signer, signedModel)
	if err != nil {
		return nil, err
	}

	req := &model.UpdateRequest{
		Operation:   operation.TypeUpdate,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		Delta:       delta,
		SignedData:  signedJWS,
	}

	return json.Marshal(req)
}

// RecoverRequestInfo bundles the inputs needed to build a recover request.
type RecoverRequestInfo struct {
	DidSuffix          string
	RevealValue        string
	OpaqueDocument     string
	RecoveryKey        *jws.JWK
	RecoveryCommitment string
	UpdateCommitment   string
	MultihashCode      uint
	AnchorOrigin       interface{}
	Signer             Signer
}

// NewRecoverRequest builds a recover operation request.
func NewRecoverRequest(info *RecoverRequestInfo) ([]byte, error) {
	replacePatch, err := patch.NewReplacePatch(info.OpaqueDocument)
	if err != nil {
		return nil, err
	}

	delta := &model.DeltaModel{
		UpdateCommitment: info.UpdateCommitment,
		Patches:          []patch.Patch{replacePatch},
	}

	deltaHash, err := hashing.CalculateModelMultihash(delta, info.MultihashCode)
	if err != nil {
		return nil, err
	}

	signedModel := model.RecoverSignedDataModel{
		RecoveryKey:        info.RecoveryKey,
		RecoveryCommitment: info.RecoveryCommitment,
		DeltaHash:          deltaHash,
		AnchorOrigin:       info.AnchorOrigin,
	}

	signedJWS, err := signModel(info.Signer, signedModel)
	if err != nil {
		return nil, err
	}

	req := &model.RecoverRequest{
		Operation:   operation.TypeRecover,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		Delta:       delta,
		SignedData:  signedJWS,
	}

	return json.Marshal(req)
}

// DeactivateRequestInfo bundles the inputs needed to build a deactivate request.
type DeactivateRequestInfo struct {
	DidSuffix   string
	RevealValue string
	RecoveryKey *jws.JWK
	Signer      Signer
}

// NewDeactivateRequest builds a deactivate operation request.
func NewDeactivateRequest(info *DeactivateRequestInfo) ([]byte, error) {
	signedModel := model.DeactivateSignedDataModel{
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		RecoveryKey: info.RecoveryKey,
	}

	signedJWS, err := signModel(info.Signer, signedModel)
	if err != nil {
		return nil, err
	}

	req := &model.DeactivateRequest{
		Operation:   operation.TypeDeactivate,
		DidSuffix:   info.DidSuffix,
		RevealValue: info.RevealValue,
		SignedData:  signedJWS,
	}

	return json.Marshal(req)
}

func signModel(signer Signer, value interface{}) (string, error) {
	payload, err := canonicalizer.MarshalCanonical(value)
	if err != nil {
		return "", err
	}

	return signer.Sign(payload)
}
