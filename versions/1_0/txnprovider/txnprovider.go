/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txnprovider builds the five ledger-anchored files for a drained batch and, on the
// resolving side, fetches and parses them back into anchored operations.
package txnprovider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/api/txn"
	"github.com/trustbloc/sidetree-node/compression"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider/models"
)

const anchorStringSeparator = "."

// BuildAnchorString formats the on-ledger anchor string: operation count, then the Core Index
// File's content address. ParseAnchorString reads back only the address; the count is not used
// when the files are fetched.
func BuildAnchorString(numOps int, coreIndexFileURI string) string {
	return strconv.Itoa(numOps) + anchorStringSeparator + coreIndexFileURI
}

// ParseAnchorString extracts the Core Index File URI from an anchor string.
func ParseAnchorString(anchorString string) (string, error) {
	parts := strings.SplitN(anchorString, anchorStringSeparator, 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid anchor string format: %s", anchorString)
	}

	return parts[1], nil
}

// OperationProvider fetches and parses a transaction's anchored files back into operations.
type OperationProvider struct {
	cas cas.Client
	p   protocol.Protocol
}

// New creates an OperationProvider bound to one protocol version.
func New(p protocol.Protocol, casClient cas.Client) *OperationProvider {
	return &OperationProvider{cas: casClient, p: p}
}

// GetTxnOperations resolves sidetreeTxn's anchored files into anchored operations, in the order
// Create, Recover, Deactivate, Update, with operation indices assigned in that order. A missing or
// invalid Chunk File does not fail the transaction: every reference still yields an operation, it
// is just left with no delta in its operation request.
func (h *OperationProvider) GetTxnOperations(sidetreeTxn *txn.SidetreeTxn) ([]*operation.AnchoredOperation, error) {
	coreIndexURI, err := ParseAnchorString(sidetreeTxn.AnchorString)
	if err != nil {
		return nil, err
	}

	coreIndexFile, err := h.getCoreIndexFile(coreIndexURI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve core index file")
	}

	var coreProofFile *models.CoreProofFile

	if coreIndexFile.Operations != nil &&
		(len(coreIndexFile.Operations.Recover) > 0 || len(coreIndexFile.Operations.Deactivate) > 0) {
		if coreIndexFile.CoreProofFileURI == "" {
			return nil, errors.New("core index file: missing core proof file uri despite recover/deactivate references")
		}

		coreProofFile, err = h.getCoreProofFile(coreIndexFile.CoreProofFileURI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to retrieve core proof file")
		}

		if err := validateProofCount(
			len(coreIndexFile.Operations.Recover), len(coreProofFile.Operations.Recover), "recover"); err != nil {
			return nil, err
		}

		if err := validateProofCount(
			len(coreIndexFile.Operations.Deactivate), len(coreProofFile.Operations.Deactivate), "deactivate"); err != nil {
			return nil, err
		}
	}

	var provisionalIndexFile *models.ProvisionalIndexFile

	var provisionalProofFile *models.ProvisionalProofFile

	if coreIndexFile.ProvisionalIndexFileURI != "" {
		provisionalIndexFile, err = h.getProvisionalIndexFile(coreIndexFile.ProvisionalIndexFileURI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to retrieve provisional index file")
		}

		if provisionalIndexFile.Operations != nil && len(provisionalIndexFile.Operations.Update) > 0 {
			if provisionalIndexFile.ProvisionalProofFileURI == "" {
				return nil, errors.New("provisional index file: missing provisional proof file uri despite update references")
			}

			provisionalProofFile, err = h.getProvisionalProofFile(provisionalIndexFile.ProvisionalProofFileURI)
			if err != nil {
				return nil, errors.Wrap(err, "failed to retrieve provisional proof file")
			}

			if err := validateProofCount(
				len(provisionalIndexFile.Operations.Update), len(provisionalProofFile.Operations.Update), "update"); err != nil {
				return nil, err
			}
		}
	}

	// The chunk file is fetched best-effort: its absence or corruption does not fail the
	// transaction, it only means every operation's delta is treated as absent.
	var chunkFile *models.ChunkFile

	if provisionalIndexFile != nil && len(provisionalIndexFile.Chunks) == 1 {
		chunkFile, _ = h.getChunkFile(provisionalIndexFile.Chunks[0].ChunkFileURI) //nolint:errcheck
	}

	return h.assembleAnchoredOperations(sidetreeTxn, coreIndexFile, coreProofFile, provisionalIndexFile, provisionalProofFile, chunkFile)
}

func validateProofCount(refCount, proofCount int, name string) error {
	if refCount != proofCount {
		return fmt.Errorf("number of %s references (%d) doesn't match number of proofs (%d)", name, refCount, proofCount)
	}

	return nil
}

func (h *OperationProvider) getCoreIndexFile(uri string) (*models.CoreIndexFile, error) {
	content, err := h.readAndDecompress(uri, h.p.MaxCoreIndexFileSize)
	if err != nil {
		return nil, err
	}

	return models.ParseCoreIndexFile(content)
}

func (h *OperationProvider) getCoreProofFile(uri string) (*models.CoreProofFile, error) {
	content, err := h.readAndDecompress(uri, h.p.MaxProofFileSize)
	if err != nil {
		return nil, err
	}

	return models.ParseCoreProofFile(content)
}

func (h *OperationProvider) getProvisionalIndexFile(uri string) (*models.ProvisionalIndexFile, error) {
	content, err := h.readAndDecompress(uri, h.p.MaxProvisionalIndexFileSize)
	if err != nil {
		return nil, err
	}

	return models.ParseProvisionalIndexFile(content)
}

func (h *OperationProvider) getProvisionalProofFile(uri string) (*models.ProvisionalProofFile, error) {
	content, err := h.readAndDecompress(uri, h.p.MaxProofFileSize)
	if err != nil {
		return nil, err
	}

	return models.ParseProvisionalProofFile(content)
}

func (h *OperationProvider) getChunkFile(uri string) (*models.ChunkFile, error) {
	content, err := h.readAndDecompress(uri, h.p.MaxChunkFileSize)
	if err != nil {
		return nil, err
	}

	return models.ParseChunkFile(content)
}

func (h *OperationProvider) readAndDecompress(uri string, maxSize uint) ([]byte, error) {
	content, err := h.cas.Read(uri)
	if err != nil {
		return nil, err
	}

	return compression.Decompress(h.p.CompressionAlgorithm, content, maxSize)
}

// deltaFeed pops deltas off chunk file's concatenated list in Create, Recover, Update order; a
// feed for a kind with no chunk file available always yields nil, leaving that operation's delta
// absent.
type deltaFeed struct {
	deltas []*model.DeltaModel
	pos    int
}

func (f *deltaFeed) next() *model.DeltaModel {
	if f == nil || f.pos >= len(f.deltas) {
		return nil
	}

	d := f.deltas[f.pos]
	f.pos++

	return d
}

func (h *OperationProvider) assembleAnchoredOperations(
	sidetreeTxn *txn.SidetreeTxn,
	coreIndexFile *models.CoreIndexFile,
	coreProofFile *models.CoreProofFile,
	provisionalIndexFile *models.ProvisionalIndexFile,
	provisionalProofFile *models.ProvisionalProofFile,
	chunkFile *models.ChunkFile) ([]*operation.AnchoredOperation, error) {
	var ops []*operation.AnchoredOperation

	var index uint

	createCount, recoverCount := 0, 0
	if coreIndexFile.Operations != nil {
		createCount = len(coreIndexFile.Operations.Create)
		recoverCount = len(coreIndexFile.Operations.Recover)
	}

	var feed *deltaFeed

	if chunkFile != nil {
		feed = &deltaFeed{deltas: chunkFile.Deltas}
	}

	createDeltas := splitDeltas(feed, createCount)
	recoverDeltas := splitDeltas(feed, recoverCount)

	if coreIndexFile.Operations != nil {
		for i, ref := range coreIndexFile.Operations.Create {
			req := &model.CreateRequest{Operation: operation.TypeCreate, SuffixData: ref.SuffixData, Delta: createDeltas[i]}

			bytes, err := json.Marshal(req)
			if err != nil {
				return nil, err
			}

			suffix, err := hashing.CalculateModelMultihash(ref.SuffixData, h.p.MultihashAlgorithms[0])
			if err != nil {
				return nil, errors.Wrap(err, "failed to calculate unique suffix for create reference")
			}

			ops = append(ops, anchoredOp(sidetreeTxn, index, operation.TypeCreate, suffix, bytes))
			index++
		}

		for i, ref := range coreIndexFile.Operations.Recover {
			signedData := proofAt(coreProofFile, true, i)

			req := &model.RecoverRequest{
				Operation: operation.TypeRecover, DidSuffix: ref.DidSuffix, RevealValue: ref.RevealValue,
				SignedData: signedData, Delta: recoverDeltas[i],
			}

			bytes, err := json.Marshal(req)
			if err != nil {
				return nil, err
			}

			ops = append(ops, anchoredOp(sidetreeTxn, index, operation.TypeRecover, ref.DidSuffix, bytes))
			index++
		}

		for i, ref := range coreIndexFile.Operations.Deactivate {
			signedData := proofAt(coreProofFile, false, i)

			req := &model.DeactivateRequest{
				Operation: operation.TypeDeactivate, DidSuffix: ref.DidSuffix, RevealValue: ref.RevealValue,
				SignedData: signedData,
			}

			bytes, err := json.Marshal(req)
			if err != nil {
				return nil, err
			}

			ops = append(ops, anchoredOp(sidetreeTxn, index, operation.TypeDeactivate, ref.DidSuffix, bytes))
			index++
		}
	}

	if provisionalIndexFile != nil && provisionalIndexFile.Operations != nil {
		for i, ref := range provisionalIndexFile.Operations.Update {
			signedData := ""
			if provisionalProofFile != nil && i < len(provisionalProofFile.Operations.Update) {
				signedData = provisionalProofFile.Operations.Update[i]
			}

			req := &model.UpdateRequest{
				Operation: operation.TypeUpdate, DidSuffix: ref.DidSuffix, RevealValue: ref.RevealValue,
				SignedData: signedData, Delta: feed.next(),
			}

			bytes, err := json.Marshal(req)
			if err != nil {
				return nil, err
			}

			ops = append(ops, anchoredOp(sidetreeTxn, index, operation.TypeUpdate, ref.DidSuffix, bytes))
			index++
		}
	}

	return ops, nil
}

// splitDeltas pulls the next n deltas off feed, in chunk-file order, tolerating a feed shorter
// than n (the remainder is nil, i.e. absent) when the chunk file was missing or truncated.
func splitDeltas(feed *deltaFeed, n int) []*model.DeltaModel {
	out := make([]*model.DeltaModel, n)

	for i := 0; i < n; i++ {
		out[i] = feed.next()
	}

	return out
}

func proofAt(file *models.CoreProofFile, recover bool, i int) string {
	if file == nil || file.Operations == nil {
		return ""
	}

	if recover {
		if i < len(file.Operations.Recover) {
			return file.Operations.Recover[i]
		}

		return ""
	}

	if i < len(file.Operations.Deactivate) {
		return file.Operations.Deactivate[i]
	}

	return ""
}

func anchoredOp(
	sidetreeTxn *txn.SidetreeTxn, index uint, opType operation.Type, suffix string, request []byte) *operation.AnchoredOperation {
	return &operation.AnchoredOperation{
		Type:              opType,
		UniqueSuffix:      suffix,
		OperationRequest:  request,
		TransactionTime:   sidetreeTxn.TransactionTime,
		TransactionNumber: sidetreeTxn.TransactionNumber,
		ProtocolVersion:   sidetreeTxn.ProtocolVersion,
		OperationIndex:    index,
	}
}
