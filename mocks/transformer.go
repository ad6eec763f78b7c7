/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
)

// MockDocumentTransformer is a dochandler.DocumentTransformer double that either fails every call
// with Err or echoes a minimal projection, for tests exercising the transformer-override path
// without pulling in the real doctransformer/metadata packages.
type MockDocumentTransformer struct {
	Err error
}

// NewDocumentTransformer creates a MockDocumentTransformer.
func NewDocumentTransformer() *MockDocumentTransformer {
	return &MockDocumentTransformer{}
}

// TransformDocument mocks transformation from internal to external document.
func (m *MockDocumentTransformer) TransformDocument(internal *protocol.ResolutionModel,
	info protocol.TransformationInfo) (*document.ResolutionResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	internal.Doc[document.IDProperty] = info[document.IDProperty]

	methodMetadata := make(document.Metadata)
	methodMetadata[document.PublishedProperty] = info[document.PublishedProperty]
	methodMetadata[document.RecoveryCommitmentProperty] = internal.RecoveryCommitment
	methodMetadata[document.UpdateCommitmentProperty] = internal.UpdateCommitment

	docMetadata := make(document.Metadata)
	docMetadata[document.MethodProperty] = methodMetadata

	return &document.ResolutionResult{
		Document:         internal.Doc,
		DocumentMetadata: docMetadata,
	}, nil
}
