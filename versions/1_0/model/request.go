/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package model defines the wire-format request and signed-data shapes for all four operation
// types, shared by the request builders (client), the parser (operationparser), and tests.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/jws"
	"github.com/trustbloc/sidetree-node/patch"
)

// CreateRequest is the wire shape of a create operation request.
type CreateRequest struct {
	Operation  operation.Type   `json:"type,omitempty"`
	SuffixData *SuffixDataModel `json:"suffixData,omitempty"`
	Delta      *DeltaModel      `json:"delta,omitempty"`
}

// SuffixDataModel is the suffixData member of a create request: the hash of delta plus the
// initial recovery commitment, from which the DID unique suffix is derived.
type SuffixDataModel struct {
	DeltaHash          string      `json:"deltaHash,omitempty"`
	RecoveryCommitment string      `json:"recoveryCommitment,omitempty"`
	AnchorOrigin       interface{} `json:"anchorOrigin,omitempty"`
	Type               string      `json:"type,omitempty"`
}

// DeltaModel carries the patches and next update commitment common to Create, Update, and Recover.
type DeltaModel struct {
	UpdateCommitment string        `json:"updateCommitment,omitempty"`
	Patches          []patch.Patch `json:"patches,omitempty"`
}

// UpdateRequest is the wire shape of an update operation request.
type UpdateRequest struct {
	Operation   operation.Type `json:"type"`
	DidSuffix   string         `json:"didSuffix"`
	RevealValue string         `json:"revealValue"`
	SignedData  string         `json:"signedData"`
	Delta       *DeltaModel    `json:"delta"`
}

// UpdateSignedDataModel is the payload signed by the update key.
type UpdateSignedDataModel struct {
	UpdateKey   *jws.JWK `json:"updateKey"`
	DeltaHash   string   `json:"deltaHash"`
	AnchorFrom  int64    `json:"anchorFrom,omitempty"`
	AnchorUntil int64    `json:"anchorUntil,omitempty"`
}

// RecoverRequest is the wire shape of a recover operation request.
type RecoverRequest struct {
	Operation   operation.Type `json:"type"`
	DidSuffix   string         `json:"didSuffix"`
	RevealValue string         `json:"revealValue"`
	SignedData  string         `json:"signedData"`
	Delta       *DeltaModel    `json:"delta"`
}

// RecoverSignedDataModel is the payload signed by the recovery key.
type RecoverSignedDataModel struct {
	DeltaHash          string      `json:"deltaHash"`
	RecoveryKey        *jws.JWK    `json:"recoveryKey"`
	RecoveryCommitment string      `json:"recoveryCommitment"`
	AnchorOrigin       interface{} `json:"anchorOrigin,omitempty"`
	AnchorFrom         int64       `json:"anchorFrom,omitempty"`
	AnchorUntil        int64       `json:"anchorUntil,omitempty"`
}

// DeactivateRequest is the wire shape of a deactivate operation request.
type DeactivateRequest struct {
	Operation   operation.Type `json:"type"`
	DidSuffix   string         `json:"didSuffix"`
	RevealValue string         `json:"revealValue"`
	SignedData  string         `json:"signedData"`
}

// DeactivateSignedDataModel is the payload signed by the (current) recovery key.
type DeactivateSignedDataModel struct {
	DidSuffix   string   `json:"didSuffix"`
	RevealValue string   `json:"revealValue"`
	RecoveryKey *jws.JWK `json:"recoveryKey"`
	AnchorFrom  int64    `json:"anchorFrom,omitempty"`
	AnchorUntil int64    `json:"anchorUntil,omitempty"`
}

// Operation is the parsed, type-unified view of any one of the four request shapes, as produced
// by the operationparser and consumed by the operation applier.
type Operation struct {
	Type             operation.Type
	Namespace        string
	ID               string
	UniqueSuffix     string
	OperationRequest []byte
	SignedData       string
	RevealValue      string
	Delta            *DeltaModel
	SuffixData       *SuffixDataModel
	AnchorOrigin     interface{}
}

// GetAnchoredOperation builds the AnchoredOperation wire record for a parsed Operation, marshaling
// the type-appropriate request so the result round-trips through the operation parser exactly as
// a resolved transaction's chunk/proof files would.
func GetAnchoredOperation(op *Operation) (*operation.AnchoredOperation, error) {
	var (
		req []byte
		err error
	)

	switch op.Type {
	case operation.TypeCreate:
		req, err = json.Marshal(&CreateRequest{
			Operation:  operation.TypeCreate,
			SuffixData: op.SuffixData,
			Delta:      op.Delta,
		})
	case operation.TypeUpdate:
		req, err = json.Marshal(&UpdateRequest{
			Operation:   operation.TypeUpdate,
			DidSuffix:   op.UniqueSuffix,
			RevealValue: op.RevealValue,
			SignedData:  op.SignedData,
			Delta:       op.Delta,
		})
	case operation.TypeRecover:
		req, err = json.Marshal(&RecoverRequest{
			Operation:   operation.TypeRecover,
			DidSuffix:   op.UniqueSuffix,
			RevealValue: op.RevealValue,
			SignedData:  op.SignedData,
			Delta:       op.Delta,
		})
	case operation.TypeDeactivate:
		req, err = json.Marshal(&DeactivateRequest{
			Operation:   operation.TypeDeactivate,
			DidSuffix:   op.UniqueSuffix,
			RevealValue: op.RevealValue,
			SignedData:  op.SignedData,
		})
	default:
		return nil, fmt.Errorf("operation type %s not supported", op.Type)
	}

	if err != nil {
		return nil, err
	}

	return &operation.AnchoredOperation{
		Type:             op.Type,
		UniqueSuffix:     op.UniqueSuffix,
		OperationRequest: req,
	}, nil
}
