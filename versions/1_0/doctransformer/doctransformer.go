/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package doctransformer turns the internal resolution model the operation applier maintains for
// a suffix into the external resolution result a client receives: the document itself, addressed
// by its DID, plus its method metadata.
package doctransformer

import (
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/versions/1_0/doctransformer/metadata"
)

// MetadataBuilder builds the didDocumentMetadata object for a resolved document.
type MetadataBuilder interface {
	CreateDocumentMetadata(rm *protocol.ResolutionModel, info protocol.TransformationInfo) (document.Metadata, error)
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithMetadataBuilder overrides the metadata builder; the default is metadata.New().
func WithMetadataBuilder(m MetadataBuilder) Option {
	return func(t *Transformer) { t.metadataBuilder = m }
}

// Transformer transforms an internal resolution model into an external resolution result.
type Transformer struct {
	metadataBuilder MetadataBuilder
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		metadataBuilder: metadata.New(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// TransformDocument builds the external resolution result for internal, stamping its id from info
// and attaching method metadata built from internal's commitments and publication state.
func (t *Transformer) TransformDocument(
	internal *protocol.ResolutionModel, info protocol.TransformationInfo) (*document.ResolutionResult, error) {
	docMetadata, err := t.metadataBuilder.CreateDocumentMetadata(internal, info)
	if err != nil {
		return nil, err
	}

	doc := internal.Doc

	if id, ok := info[document.IDProperty]; ok {
		doc[document.IDProperty] = id
	}

	return &document.ResolutionResult{
		Document:         doc,
		DocumentMetadata: docMetadata,
	}, nil
}
