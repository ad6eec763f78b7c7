/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dochandler_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/commitment"
	"github.com/trustbloc/sidetree-node/dochandler"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/encoder"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/mocks"
	"github.com/trustbloc/sidetree-node/patch"
	"github.com/trustbloc/sidetree-node/util/ecsigner"
	"github.com/trustbloc/sidetree-node/util/pubkey"
	"github.com/trustbloc/sidetree-node/versions/1_0/docvalidator"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
	"github.com/trustbloc/sidetree-node/versions/1_0/processor"
)

const (
	namespace     = "did:sidetree"
	multihashCode = 18
)

type mockBatchWriter struct {
	added []*operation.QueuedOperation
	err   error
}

func (m *mockBatchWriter) Add(op *operation.QueuedOperation) error {
	if m.err != nil {
		return m.err
	}

	m.added = append(m.added, op)

	return nil
}

func TestProcessOperation_Create(t *testing.T) {
	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	h := dochandler.New(namespace, client, proc, writer)

	createReq, _, _ := newCreateRequest(t)

	result, err := h.ProcessOperation(createReq)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, writer.added, 1)
	require.Equal(t, operation.TypeCreate, writer.added[0].Type)
	require.Contains(t, result.Document["id"], namespace)
}

func TestProcessOperation_Create_TransformerFailurePropagates(t *testing.T) {
	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	transformer := mocks.NewDocumentTransformer()
	transformer.Err = errors.New("transformer unavailable")

	h := dochandler.New(namespace, client, proc, writer, dochandler.WithDocumentTransformer(transformer))

	createReq, _, _ := newCreateRequest(t)

	_, err := h.ProcessOperation(createReq)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transformer unavailable")

	// The operation was still queued: the transformer only affects the immediate resolution result.
	require.Len(t, writer.added, 1)
}

func TestProcessOperation_InvalidCreate(t *testing.T) {
	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	h := dochandler.New(namespace, client, proc, writer)

	_, err := h.ProcessOperation([]byte(`{"type":"create"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad request")
	require.Empty(t, writer.added)
}

func TestProcessOperation_UpdateAgainstDeactivatedDocument(t *testing.T) {
	recoveryKey := generateKey(t)
	updateKey := generateKey(t)

	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	createOp, suffix := anchoredCreate(t, recoveryKey, updateKey)
	deactivateOp := anchoredDeactivate(t, recoveryKey, suffix)

	require.NoError(t, store.Put([]*operation.AnchoredOperation{createOp, deactivateOp}))

	h := dochandler.New(namespace, client, proc, writer)

	updateReq := updateRequest(t, updateKey, suffix, "value")

	_, err := h.ProcessOperation(updateReq)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deactivated")
	require.Empty(t, writer.added)
}

func TestProcessOperation_UpdateIsQueued(t *testing.T) {
	recoveryKey := generateKey(t)
	updateKey := generateKey(t)

	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	createOp, suffix := anchoredCreate(t, recoveryKey, updateKey)
	require.NoError(t, store.Put([]*operation.AnchoredOperation{createOp}))

	h := dochandler.New(namespace, client, proc, writer)

	updateReq := updateRequest(t, updateKey, suffix, "value")

	result, err := h.ProcessOperation(updateReq)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Len(t, writer.added, 1)
	require.Equal(t, operation.TypeUpdate, writer.added[0].Type)
}

func TestResolveDocument(t *testing.T) {
	recoveryKey := generateKey(t)
	updateKey := generateKey(t)

	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	createOp, suffix := anchoredCreate(t, recoveryKey, updateKey)
	require.NoError(t, store.Put([]*operation.AnchoredOperation{createOp}))

	h := dochandler.New(namespace, client, proc, writer)

	t.Run("short form", func(t *testing.T) {
		result, err := h.ResolveDocument(namespace + ":" + suffix)
		require.NoError(t, err)
		require.NotNil(t, result)

		methodMetadata, ok := result.DocumentMetadata[document.MethodProperty].(document.Metadata)
		require.True(t, ok)
		require.Equal(t, true, methodMetadata[document.PublishedProperty])
	})

	t.Run("wrong namespace", func(t *testing.T) {
		_, err := h.ResolveDocument("did:other:abc")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must start with supported namespace")
	})

	t.Run("not found, no initial state", func(t *testing.T) {
		_, err := h.ResolveDocument(namespace + ":missing")
		require.Error(t, err)
	})
}

func TestResolveDocument_LongForm(t *testing.T) {
	store := mocks.NewMockOperationStore(nil)
	client := newProtocolClient(store)
	proc := processor.New(namespace, store, client)
	writer := &mockBatchWriter{}

	h := dochandler.New(namespace, client, proc, writer)

	_, did, longFormDID := newCreateRequest(t)

	t.Run("resolved from initial state", func(t *testing.T) {
		result, err := h.ResolveDocument(longFormDID)
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Equal(t, did, result.Document["id"])
	})
}

func newProtocolClient(store *mocks.MockOperationStore) *mocks.MockProtocolClient {
	client := mocks.NewMockProtocolClient()

	for _, v := range client.Versions {
		mv, ok := v.(*mocks.MockProtocolVersion)
		if ok {
			mv.Validator = docvalidator.New(store)
		}
	}

	return client
}

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return key
}

func mustCommitment(t *testing.T, key *ecdsa.PrivateKey) string {
	t.Helper()

	jwk, err := pubkey.GetPublicKeyJWK(&key.PublicKey)
	require.NoError(t, err)

	c, err := commitment.GetCommitment(jwk, multihashCode)
	require.NoError(t, err)

	return c
}

// newCreateRequest builds a create operation's wire-format request, its resulting short-form DID,
// and the equivalent long-form DID built from the same request's initial state encoding.
func newCreateRequest(t *testing.T) (createReq []byte, did, longFormDID string) {
	t.Helper()

	recoveryKey := generateKey(t)
	updateKey := generateKey(t)

	op := createModel(t, recoveryKey, updateKey)

	anchoredOp, err := model.GetAnchoredOperation(op)
	require.NoError(t, err)

	did = namespace + ":" + anchoredOp.UniqueSuffix

	createRequest := model.CreateRequest{
		Operation:  operation.TypeCreate,
		SuffixData: op.SuffixData,
		Delta:      op.Delta,
	}

	initialState, err := canonicalizer.MarshalCanonical(createRequest)
	require.NoError(t, err)

	longFormDID = did + ":" + encoder.EncodeToString(initialState)

	return anchoredOp.OperationRequest, did, longFormDID
}

func createModel(t *testing.T, recoveryKey, updateKey *ecdsa.PrivateKey) *model.Operation {
	t.Helper()

	updateCommitment := mustCommitment(t, updateKey)
	recoveryCommitment := mustCommitment(t, recoveryKey)

	replacePatch, err := patch.NewReplacePatch(
		`{"publicKeys":[{"id":"key1","type":"JsonWebKey2020","publicKeyJwk":{"kty":"EC"}}]}`)
	require.NoError(t, err)

	delta := &model.DeltaModel{UpdateCommitment: updateCommitment, Patches: []patch.Patch{replacePatch}}

	deltaHash, err := hashing.CalculateModelMultihash(delta, multihashCode)
	require.NoError(t, err)

	suffixData := &model.SuffixDataModel{DeltaHash: deltaHash, RecoveryCommitment: recoveryCommitment}

	suffix, err := hashing.CalculateModelMultihash(suffixData, multihashCode)
	require.NoError(t, err)

	return &model.Operation{
		Type:         operation.TypeCreate,
		UniqueSuffix: suffix,
		Delta:        delta,
		SuffixData:   suffixData,
	}
}

func anchoredCreate(
	t *testing.T, recoveryKey, updateKey *ecdsa.PrivateKey) (*operation.AnchoredOperation, string) {
	t.Helper()

	op := createModel(t, recoveryKey, updateKey)

	anchoredOp, err := model.GetAnchoredOperation(op)
	require.NoError(t, err)

	anchoredOp.CanonicalReference = "create-ref"

	return anchoredOp, anchoredOp.UniqueSuffix
}

func anchoredDeactivate(t *testing.T, recoveryKey *ecdsa.PrivateKey, suffix string) *operation.AnchoredOperation {
	t.Helper()

	recoveryPubKey, err := pubkey.GetPublicKeyJWK(&recoveryKey.PublicKey)
	require.NoError(t, err)

	signedData := &model.DeactivateSignedDataModel{DidSuffix: suffix, RecoveryKey: recoveryPubKey}

	signer := ecsigner.New(recoveryKey, "ES256", "")

	payload, err := canonicalizer.MarshalCanonical(signedData)
	require.NoError(t, err)

	jws, err := signer.Sign(payload)
	require.NoError(t, err)

	rv, err := commitment.GetRevealValue(recoveryPubKey, multihashCode)
	require.NoError(t, err)

	op := &model.Operation{
		Type:         operation.TypeDeactivate,
		UniqueSuffix: suffix,
		SignedData:   jws,
		RevealValue:  rv,
	}

	anchoredOp, err := model.GetAnchoredOperation(op)
	require.NoError(t, err)

	anchoredOp.CanonicalReference = "deactivate-ref"
	anchoredOp.TransactionTime = 1
	anchoredOp.TransactionNumber = 1

	return anchoredOp
}

func updateRequest(t *testing.T, updateKey *ecdsa.PrivateKey, suffix, value string) []byte {
	t.Helper()

	nextUpdateKey := generateKey(t)

	replacePatch, err := patch.NewReplacePatch(
		`{"publicKeys":[{"id":"` + value + `","type":"JsonWebKey2020","publicKeyJwk":{"kty":"EC"}}]}`)
	require.NoError(t, err)

	delta := &model.DeltaModel{UpdateCommitment: mustCommitment(t, nextUpdateKey), Patches: []patch.Patch{replacePatch}}

	deltaHash, err := hashing.CalculateModelMultihash(delta, multihashCode)
	require.NoError(t, err)

	updatePubKey, err := pubkey.GetPublicKeyJWK(&updateKey.PublicKey)
	require.NoError(t, err)

	signedData := &model.UpdateSignedDataModel{DeltaHash: deltaHash, UpdateKey: updatePubKey}

	signer := ecsigner.New(updateKey, "ES256", "")

	payload, err := canonicalizer.MarshalCanonical(signedData)
	require.NoError(t, err)

	jws, err := signer.Sign(payload)
	require.NoError(t, err)

	rv, err := commitment.GetRevealValue(updatePubKey, multihashCode)
	require.NoError(t, err)

	op := &model.Operation{
		Type:         operation.TypeUpdate,
		UniqueSuffix: suffix,
		Delta:        delta,
		SignedData:   jws,
		RevealValue:  rv,
	}

	anchoredOp, err := model.GetAnchoredOperation(op)
	require.NoError(t, err)

	return anchoredOp.OperationRequest
}
