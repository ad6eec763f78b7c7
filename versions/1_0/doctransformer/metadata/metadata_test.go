/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/versions/1_0/doctransformer/metadata"
)

func TestCreateDocumentMetadata_RequiresResolutionModel(t *testing.T) {
	m := metadata.New()

	_, err := m.CreateDocumentMetadata(nil, protocol.TransformationInfo{document.PublishedProperty: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolution model is required")
}

func TestCreateDocumentMetadata_RequiresTransformationInfo(t *testing.T) {
	m := metadata.New()

	_, err := m.CreateDocumentMetadata(&protocol.ResolutionModel{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transformation info is required")
}

func TestCreateDocumentMetadata_RequiresPublished(t *testing.T) {
	m := metadata.New()

	_, err := m.CreateDocumentMetadata(&protocol.ResolutionModel{}, protocol.TransformationInfo{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "published is required")
}

func TestCreateDocumentMetadata_Published(t *testing.T) {
	m := metadata.New()

	rm := &protocol.ResolutionModel{
		RecoveryCommitment: "recovery-commitment",
		UpdateCommitment:   "update-commitment",
		CreatedTime:        1000,
	}

	docMetadata, err := m.CreateDocumentMetadata(rm, protocol.TransformationInfo{document.PublishedProperty: true})
	require.NoError(t, err)

	require.NotContains(t, docMetadata, document.DeactivatedProperty)
	require.Equal(t, "1970-01-01T00:16:40Z", docMetadata[document.CreatedProperty])
	require.NotContains(t, docMetadata, document.UpdatedProperty)

	methodMetadata, ok := docMetadata[document.MethodProperty].(document.Metadata)
	require.True(t, ok)
	require.Equal(t, true, methodMetadata[document.PublishedProperty])
	require.Equal(t, "recovery-commitment", methodMetadata[document.RecoveryCommitmentProperty])
	require.Equal(t, "update-commitment", methodMetadata[document.UpdateCommitmentProperty])
}

func TestCreateDocumentMetadata_Deactivated(t *testing.T) {
	m := metadata.New()

	rm := &protocol.ResolutionModel{
		Deactivated:        true,
		RecoveryCommitment: "recovery-commitment",
		UpdateCommitment:   "update-commitment",
	}

	docMetadata, err := m.CreateDocumentMetadata(rm, protocol.TransformationInfo{document.PublishedProperty: true})
	require.NoError(t, err)

	require.Equal(t, true, docMetadata[document.DeactivatedProperty])

	methodMetadata, ok := docMetadata[document.MethodProperty].(document.Metadata)
	require.True(t, ok)
	require.NotContains(t, methodMetadata, document.RecoveryCommitmentProperty)
	require.NotContains(t, methodMetadata, document.UpdateCommitmentProperty)
}

func TestCreateDocumentMetadata_VersionIDAddsUpdatedTime(t *testing.T) {
	m := metadata.New()

	rm := &protocol.ResolutionModel{VersionID: "some-txn-ref", UpdatedTime: 2000}

	docMetadata, err := m.CreateDocumentMetadata(rm, protocol.TransformationInfo{document.PublishedProperty: true})
	require.NoError(t, err)
	require.Equal(t, "1970-01-01T00:33:20Z", docMetadata[document.UpdatedProperty])
}

func TestCreateDocumentMetadata_CanonicalAndEquivalentIDPassThrough(t *testing.T) {
	m := metadata.New()

	info := protocol.TransformationInfo{
		document.PublishedProperty:    true,
		document.CanonicalIDProperty:  "did:sidetree:ref:abc",
		document.EquivalentIDProperty: []string{"did:sidetree:ref:abc"},
		document.AnchorOriginProperty: "https://origin.example",
	}

	docMetadata, err := m.CreateDocumentMetadata(&protocol.ResolutionModel{}, info)
	require.NoError(t, err)
	require.Equal(t, "did:sidetree:ref:abc", docMetadata[document.CanonicalIDProperty])
	require.Equal(t, []string{"did:sidetree:ref:abc"}, docMetadata[document.EquivalentIDProperty])
	require.Equal(t, "https://origin.example", docMetadata[document.AnchorOriginProperty])
}

func TestCreateDocumentMetadata_IncludesOperationHistoryWhenConfigured(t *testing.T) {
	m := metadata.New(
		metadata.WithIncludePublishedOperations(true),
		metadata.WithIncludeUnpublishedOperations(true),
	)

	rm := &protocol.ResolutionModel{
		PublishedOperations: []*operation.AnchoredOperation{
			{Type: operation.TypeCreate, CanonicalReference: "create-ref"},
			{Type: operation.TypeCreate, CanonicalReference: "create-ref"}, // duplicate reference, deduped
		},
		UnpublishedOperations: []*operation.AnchoredOperation{
			{Type: operation.TypeUpdate},
		},
	}

	docMetadata, err := m.CreateDocumentMetadata(rm, protocol.TransformationInfo{document.PublishedProperty: true})
	require.NoError(t, err)

	methodMetadata, ok := docMetadata[document.MethodProperty].(document.Metadata)
	require.True(t, ok)

	published, ok := methodMetadata[document.PublishedOperationsProperty].([]*metadata.PublishedOperation)
	require.True(t, ok)
	require.Len(t, published, 1)

	unpublished, ok := methodMetadata[document.UnpublishedOperationsProperty].([]*metadata.UnpublishedOperation)
	require.True(t, ok)
	require.Len(t, unpublished, 1)
}
