/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metadata builds the didDocumentMetadata object returned alongside a resolved document:
// publication state, the current recovery/update commitments, and (optionally) the operation
// history that produced the current state.
package metadata

import (
	"errors"
	"time"

	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
)

// Option configures a Metadata builder.
type Option func(*Metadata)

// WithIncludePublishedOperations includes the suffix's published operation history in the
// method metadata.
func WithIncludePublishedOperations(include bool) Option {
	return func(m *Metadata) { m.includePublished = include }
}

// WithIncludeUnpublishedOperations includes the suffix's unpublished (queued) operation history
// in the method metadata.
func WithIncludeUnpublishedOperations(include bool) Option {
	return func(m *Metadata) { m.includeUnpublished = include }
}

// Metadata builds document metadata for a resolved DID.
type Metadata struct {
	includePublished   bool
	includeUnpublished bool
}

// New creates a Metadata builder.
func New(opts ...Option) *Metadata {
	m := &Metadata{}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CreateDocumentMetadata builds the didDocumentMetadata object for rm, using the resolution-time
// facts in info (whether the DID is published, its canonical/equivalent IDs).
func (m *Metadata) CreateDocumentMetadata(rm *protocol.ResolutionModel, info protocol.TransformationInfo) (document.Metadata, error) {
	if rm == nil {
		return nil, errors.New("resolution model is required for creating document metadata")
	}

	if info == nil {
		return nil, errors.New("transformation info is required for creating document metadata")
	}

	published, ok := info[document.PublishedProperty]
	if !ok {
		return nil, errors.New("published is required for creating document metadata")
	}

	docMetadata := make(document.Metadata)

	if rm.Deactivated {
		docMetadata[document.DeactivatedProperty] = true
	}

	if canonicalID, ok := info[document.CanonicalIDProperty]; ok {
		docMetadata[document.CanonicalIDProperty] = canonicalID
	}

	if equivalentID, ok := info[document.EquivalentIDProperty]; ok {
		docMetadata[document.EquivalentIDProperty] = equivalentID
	}

	if anchorOrigin, ok := info[document.AnchorOriginProperty]; ok {
		docMetadata[document.AnchorOriginProperty] = anchorOrigin
	}

	if rm.CreatedTime != 0 {
		docMetadata[document.CreatedProperty] = formatTime(rm.CreatedTime)
	}

	// The updated time (and the version ID it is derived from) is only meaningful once the DID
	// has moved past its initial creation; an unpublished, never-updated document has no version.
	if rm.VersionID != "" {
		docMetadata[document.UpdatedProperty] = formatTime(rm.UpdatedTime)
	}

	methodMetadata := make(document.Metadata)
	methodMetadata[document.PublishedProperty] = published

	if !rm.Deactivated {
		methodMetadata[document.RecoveryCommitmentProperty] = rm.RecoveryCommitment
		methodMetadata[document.UpdateCommitmentProperty] = rm.UpdateCommitment
	}

	if m.includePublished && rm.PublishedOperations != nil {
		methodMetadata[document.PublishedOperationsProperty] = dedupePublished(rm.PublishedOperations)
	}

	if m.includeUnpublished && rm.UnpublishedOperations != nil {
		methodMetadata[document.UnpublishedOperationsProperty] = toUnpublished(rm.UnpublishedOperations)
	}

	docMetadata[document.MethodProperty] = methodMetadata

	return docMetadata, nil
}

func formatTime(unixSeconds uint64) string {
	return time.Unix(int64(unixSeconds), 0).UTC().Format(time.RFC3339)
}
