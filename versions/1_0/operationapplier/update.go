/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationapplier

import (
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/hashing"
)

// applyUpdate applies an update operation: it patches the document and rotates the update
// commitment, but only if it reveals the key behind the currently published update commitment.
func (a *Applier) applyUpdate(op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	if rm == nil || rm.Deactivated {
		return rm, nil
	}

	opModel, err := a.parser.ParseOperation("", op.OperationRequest, true)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	signedData, err := a.parser.ParseSignedDataForUpdate(opModel.SignedData)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	if err := hashing.IsValidModelMultihash(signedData.UpdateKey, opModel.RevealValue); err != nil {
		return rm, nil //nolint:nilerr
	}

	if !matchesCommitment(signedData.UpdateKey, rm.UpdateCommitment) {
		return rm, nil
	}

	newRM := *rm
	newRM.UpdatedTime = op.TransactionTime
	newRM.LastOperationTxnNum = op.TransactionNumber

	if opModel.Delta == nil {
		// Chunk file missing: the reveal checks out, but there is no delta to apply, so the
		// document and update commitment are left as-is; only the update time and last
		// transaction number advance.
		return &newRM, nil
	}

	doc, err := a.composer.ApplyPatches(rm.Doc, opModel.Delta.Patches)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	newRM.Doc = doc
	newRM.UpdateCommitment = opModel.Delta.UpdateCommitment

	return &newRM, nil
}
