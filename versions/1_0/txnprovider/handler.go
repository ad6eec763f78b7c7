/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/compression"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider/models"
)

// OperationHandler builds and stores the ledger-anchored files for one drained batch.
type OperationHandler struct {
	cas cas.Client
	p   protocol.Protocol
}

// NewOperationHandler creates an OperationHandler bound to one protocol version.
func NewOperationHandler(p protocol.Protocol, casClient cas.Client) *OperationHandler {
	return &OperationHandler{cas: casClient, p: p}
}

// PrepareTxnFiles builds the Chunk File, the Core/Provisional Proof Files (if needed), and the
// Core/Provisional Index Files for ops, writes every file the batch requires to the content
// store, and returns the anchor string the Batch Writer submits to the ledger.
func (h *OperationHandler) PrepareTxnFiles(writerLockID string, ops []*models.QueuedOperation) (string, error) {
	if len(ops) == 0 {
		return "", errors.New("no operations to prepare txn files for")
	}

	var provisionalIndexURI string

	nonDeactivate := countNonDeactivate(ops)

	if nonDeactivate > 0 {
		chunkURI, err := h.writeFile(compression.Gzip, models.CreateChunkFile(ops), h.p.MaxChunkFileSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to write chunk file")
		}

		provisionalProofURI, err := h.writeProofFile(models.CreateProvisionalProofFile(ops), h.p.MaxProofFileSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to write provisional proof file")
		}

		provisionalIndexURI, err = h.writeFile(
			compression.Gzip, models.CreateProvisionalIndexFile(chunkURI, provisionalProofURI, ops), h.p.MaxProvisionalIndexFileSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to write provisional index file")
		}
	}

	coreProofURI, err := h.writeProofFile(models.CreateCoreProofFile(ops), h.p.MaxProofFileSize)
	if err != nil {
		return "", errors.Wrap(err, "failed to write core proof file")
	}

	coreIndexFile := models.CreateCoreIndexFile(writerLockID, coreProofURI, provisionalIndexURI, ops)

	coreIndexURI, err := h.writeFile(compression.Gzip, coreIndexFile, h.p.MaxCoreIndexFileSize)
	if err != nil {
		return "", errors.Wrap(err, "failed to write core index file")
	}

	return BuildAnchorString(len(ops), coreIndexURI), nil
}

func countNonDeactivate(ops []*models.QueuedOperation) int {
	n := 0

	for _, op := range ops {
		if op.Type != "deactivate" {
			n++
		}
	}

	return n
}

// writeProofFile marshals and writes a proof file, which may legitimately be nil (no proofs of
// that kind in this batch); nil is left unwritten and its uri left empty.
func (h *OperationHandler) writeProofFile(file interface{}, maxSize uint) (string, error) {
	if isNilProofFile(file) {
		return "", nil
	}

	return h.writeFile(compression.Gzip, file, maxSize)
}

func isNilProofFile(file interface{}) bool {
	switch f := file.(type) {
	case *models.CoreProofFile:
		return f == nil
	case *models.ProvisionalProofFile:
		return f == nil
	default:
		return file == nil
	}
}

func (h *OperationHandler) writeFile(alg string, file interface{}, maxSize uint) (string, error) {
	content, err := json.Marshal(file)
	if err != nil {
		return "", err
	}

	if uint(len(content)) > maxSize {
		return "", errors.Errorf("file size %d exceeds maximum %d before compression", len(content), maxSize)
	}

	compressed, err := compression.Compress(alg, content)
	if err != nil {
		return "", err
	}

	return h.cas.Write(compressed)
}
