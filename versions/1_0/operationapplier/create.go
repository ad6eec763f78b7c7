/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationapplier

import (
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
)

// applyCreate applies the first operation for a suffix. A create arriving for a suffix that
// already has a resolution model is ineffective: only the first create applied for a suffix counts.
func (a *Applier) applyCreate(op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	if rm != nil {
		return rm, nil
	}

	opModel, err := a.parser.ParseOperation("", op.OperationRequest, true)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	newRM := &protocol.ResolutionModel{
		Doc:                 make(document.Document),
		RecoveryCommitment:  opModel.SuffixData.RecoveryCommitment,
		AnchorOrigin:        opModel.SuffixData.AnchorOrigin,
		CreatedTime:         op.TransactionTime,
		UpdatedTime:         op.TransactionTime,
		LastOperationTxnNum: op.TransactionNumber,
	}

	if opModel.Delta == nil {
		// Chunk file missing or unparseable: the control-plane effect of the create (the recovery
		// commitment it establishes) still applies, but there is no delta to build the document
		// body from, and the update commitment is never set.
		return newRM, nil
	}

	doc, err := a.composer.ApplyPatches(newRM.Doc, opModel.Delta.Patches)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	newRM.Doc = doc
	newRM.UpdateCommitment = opModel.Delta.UpdateCommitment

	return newRM, nil
}
