/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/api/txn"
	"github.com/trustbloc/sidetree-node/compression"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider/models"
)

type memCAS struct {
	store map[string][]byte
}

func newMemCAS() *memCAS {
	return &memCAS{store: make(map[string][]byte)}
}

func (m *memCAS) Read(address string) ([]byte, error) {
	content, ok := m.store[address]
	if !ok {
		return nil, cas.ErrContentNotFound
	}

	return content, nil
}

func (m *memCAS) Write(content []byte) (string, error) {
	address := "uri-" + string(rune(len(m.store)+'a'))
	m.store[address] = content

	return address, nil
}

func testProtocol() protocol.Protocol {
	return protocol.Protocol{
		MultihashAlgorithms:         []uint{18},
		MaxCoreIndexFileSize:        100000,
		MaxProvisionalIndexFileSize: 100000,
		MaxProofFileSize:            100000,
		MaxChunkFileSize:            100000,
		CompressionAlgorithm:        "GZIP",
	}
}

func TestAnchorString(t *testing.T) {
	s := BuildAnchorString(3, "coreUri")
	require.Equal(t, "3.coreUri", s)

	uri, err := ParseAnchorString(s)
	require.NoError(t, err)
	require.Equal(t, "coreUri", uri)

	_, err = ParseAnchorString("noseparator")
	require.Error(t, err)
}

func TestPrepareAndGetTxnOperations(t *testing.T) {
	p := testProtocol()
	store := newMemCAS()

	handler := NewOperationHandler(p, store)
	provider := New(p, store)

	ops := []*models.QueuedOperation{
		{
			Type:         operation.TypeCreate,
			UniqueSuffix: "create1",
			SuffixData:   &model.SuffixDataModel{DeltaHash: "h1", RecoveryCommitment: "rc1"},
			Delta:        &model.DeltaModel{UpdateCommitment: "uc1"},
		},
		{
			Type:         operation.TypeUpdate,
			UniqueSuffix: "update1",
			RevealValue:  "rv1",
			SignedData:   "sd1",
			Delta:        &model.DeltaModel{UpdateCommitment: "uc2"},
		},
		{
			Type:         operation.TypeDeactivate,
			UniqueSuffix: "deactivate1",
			RevealValue:  "rv2",
			SignedData:   "sd2",
		},
	}

	anchorString, err := handler.PrepareTxnFiles("lock1", ops)
	require.NoError(t, err)
	require.Contains(t, anchorString, "3.")

	sidetreeTxn := &txn.SidetreeTxn{
		TransactionTime:   100,
		TransactionNumber: 1,
		AnchorString:      anchorString,
	}

	anchored, err := provider.GetTxnOperations(sidetreeTxn)
	require.NoError(t, err)
	require.Len(t, anchored, 3)

	types := make(map[operation.Type]int)
	for _, op := range anchored {
		types[op.Type]++
		require.Equal(t, uint64(100), op.TransactionTime)
	}

	require.Equal(t, 1, types[operation.TypeCreate])
	require.Equal(t, 1, types[operation.TypeUpdate])
	require.Equal(t, 1, types[operation.TypeDeactivate])
}

func TestGetTxnOperations_MissingChunkFile(t *testing.T) {
	p := testProtocol()
	store := newMemCAS()

	handler := NewOperationHandler(p, store)
	provider := New(p, store)

	ops := []*models.QueuedOperation{
		{
			Type:         operation.TypeCreate,
			UniqueSuffix: "create1",
			SuffixData:   &model.SuffixDataModel{DeltaHash: "h1", RecoveryCommitment: "rc1"},
			Delta:        &model.DeltaModel{UpdateCommitment: "uc1"},
		},
	}

	anchorString, err := handler.PrepareTxnFiles("", ops)
	require.NoError(t, err)

	coreIndexURI, err := ParseAnchorString(anchorString)
	require.NoError(t, err)

	coreIndexContent, err := store.Read(coreIndexURI)
	require.NoError(t, err)

	decompressed, err := compression.Decompress(p.CompressionAlgorithm, coreIndexContent, p.MaxCoreIndexFileSize)
	require.NoError(t, err)

	file, err := models.ParseCoreIndexFile(decompressed)
	require.NoError(t, err)

	provisionalContent, err := store.Read(file.ProvisionalIndexFileURI)
	require.NoError(t, err)

	provisionalDecompressed, err := compression.Decompress(
		p.CompressionAlgorithm, provisionalContent, p.MaxProvisionalIndexFileSize)
	require.NoError(t, err)

	provisionalFile, err := models.ParseProvisionalIndexFile(provisionalDecompressed)
	require.NoError(t, err)

	delete(store.store, provisionalFile.Chunks[0].ChunkFileURI)

	sidetreeTxn := &txn.SidetreeTxn{TransactionTime: 1, TransactionNumber: 1, AnchorString: anchorString}

	anchored, err := provider.GetTxnOperations(sidetreeTxn)
	require.NoError(t, err)
	require.Len(t, anchored, 1)

	var req model.CreateRequest

	require.NoError(t, json.Unmarshal(anchored[0].OperationRequest, &req))
	require.Nil(t, req.Delta)
}
