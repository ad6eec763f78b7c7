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

// applyDeactivate applies a deactivate operation: a terminal state transition. Once applied, no
// further operation for the suffix is ever effective again.
func (a *Applier) applyDeactivate(op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	if rm == nil || rm.Deactivated {
		return rm, nil
	}

	opModel, err := a.parser.ParseOperation("", op.OperationRequest, true)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	signedData, err := a.parser.ParseSignedDataForDeactivate(opModel.SignedData, opModel.UniqueSuffix)
	if err != nil {
		return rm, nil //nolint:nilerr
	}

	if err := hashing.IsValidModelMultihash(signedData.RecoveryKey, opModel.RevealValue); err != nil {
		return rm, nil //nolint:nilerr
	}

	if !matchesCommitment(signedData.RecoveryKey, rm.RecoveryCommitment) {
		return rm, nil
	}

	newRM := *rm
	newRM.Deactivated = true
	newRM.UpdatedTime = op.TransactionTime
	newRM.LastOperationTxnNum = op.TransactionNumber
	newRM.RecoveryCommitment = ""
	newRM.UpdateCommitment = ""

	return &newRM, nil
}
