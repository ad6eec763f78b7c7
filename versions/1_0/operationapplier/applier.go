/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operationapplier folds a single anchored operation into a DID's resolution model. An
// operation that fails its reveal-value or commitment check is not an error: it is ineffective,
// and Apply returns the model unchanged (§4.4/§7 of the protocol this implements).
package operationapplier

import (
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/commitment"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/jws"
	"github.com/trustbloc/sidetree-node/patch"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

// OperationParser is the subset of operationparser.Parser the applier depends on: re-parsing an
// already-anchored operation's request bytes and decoding the signed data of the three operation
// types that carry a JWS.
type OperationParser interface {
	ParseOperation(namespace string, operationBuffer []byte, batch bool) (*model.Operation, error)
	ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error)
	ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error)
	ParseSignedDataForDeactivate(compactJWS, didSuffix string) (*model.DeactivateSignedDataModel, error)
}

// DocumentComposer applies a delta's patches to a document.
type DocumentComposer interface {
	ApplyPatches(doc document.Document, patches []patch.Patch) (document.Document, error)
}

// Applier applies anchored operations for one protocol version.
type Applier struct {
	protocol.Protocol

	parser   OperationParser
	composer DocumentComposer
}

// New creates an Applier bound to p, using parser to re-derive signed-data payloads and composer
// to apply patches.
func New(p protocol.Protocol, parser OperationParser, composer DocumentComposer) *Applier {
	return &Applier{Protocol: p, parser: parser, composer: composer}
}

// Apply applies op to rm and returns the resulting model. rm is nil only for the first operation
// applied to a suffix, which must be a create.
func (a *Applier) Apply(op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	switch op.Type {
	case operation.TypeCreate:
		return a.applyCreate(op, rm)
	case operation.TypeRecover:
		return a.applyRecover(op, rm)
	case operation.TypeUpdate:
		return a.applyUpdate(op, rm)
	case operation.TypeDeactivate:
		return a.applyDeactivate(op, rm)
	default:
		return nil, fmt.Errorf("operation type '%s' not supported for applying operation", op.Type)
	}
}

// matchesCommitment reports whether jwk is the pre-image of commitmentValue, recomputing with
// whatever multihash algorithm commitmentValue itself was minted under (which may be an algorithm
// the current protocol version no longer mints new commitments with, but still accepts).
func matchesCommitment(jwk *jws.JWK, commitmentValue string) bool {
	code, err := hashing.GetMultihashCode(commitmentValue)
	if err != nil {
		return false
	}

	c, err := commitment.GetCommitment(jwk, uint(code))
	if err != nil {
		return false
	}

	return c == commitmentValue
}
