/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationapplier

import (
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/hashing"
)

// applyRecover applies a recover operation: it rotates both the recovery and update commitments
// and replaces the document wholesale, but only if it reveals the key behind the currently
// published recovery commitment and the DID has not been deactivated.
func (a *Applier) applyRecover(op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	if rm == nil || rm.Deactivated {
		return rm, nil
	}

	opModel, err := a.parser.ParseOperation("", op.OperationRequest, true)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	signedData, err := a.parser.ParseSignedDataForRecover(opModel.SignedData)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	if err := hashing.IsValidModelMultihash(signedData.RecoveryKey, opModel.RevealValue); err != nil {
		return rm, nil //nolint:nilerr
	}

	if !matchesCommitment(signedData.RecoveryKey, rm.RecoveryCommitment) {
		return rm, nil
	}

	newRM := &protocol.ResolutionModel{
		Doc:                 make(document.Document),
		RecoveryCommitment:  signedData.RecoveryCommitment,
		AnchorOrigin:        signedData.AnchorOrigin,
		CreatedTime:         rm.CreatedTime,
		UpdatedTime:         op.TransactionTime,
		LastOperationTxnNum: op.TransactionNumber,
	}

	if opModel.Delta == nil {
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
