/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata

import (
	"github.com/trustbloc/sidetree-node/api/operation"
)

// PublishedOperation is the method-metadata projection of a published anchored operation: enough
// to let a client locate and independently verify it, without exposing the raw operation request.
type PublishedOperation struct {
	Type                 operation.Type `json:"type"`
	CanonicalReference   string         `json:"canonicalReference,omitempty"`
	EquivalentReferences []string       `json:"equivalentReferences,omitempty"`
}

// UnpublishedOperation is the method-metadata projection of an operation accepted but not yet
// anchored in a transaction.
type UnpublishedOperation struct {
	Type operation.Type `json:"type"`
}

// dedupePublished collapses anchored operations that share a canonical reference: the same
// operation can appear more than once in the published history when a transaction is observed
// through more than one equivalent reference before settling.
func dedupePublished(ops []*operation.AnchoredOperation) []*PublishedOperation {
	seen := make(map[string]bool, len(ops))
	out := make([]*PublishedOperation, 0, len(ops))

	for _, op := range ops {
		key := op.CanonicalReference
		if key == "" {
			key = op.UniqueSuffix + "|" + string(op.Type)
		}

		if seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, &PublishedOperation{
			Type:                 op.Type,
			CanonicalReference:   op.CanonicalReference,
			EquivalentReferences: op.EquivalentReferences,
		})
	}

	return out
}

func toUnpublished(ops []*operation.AnchoredOperation) []*UnpublishedOperation {
	out := make([]*UnpublishedOperation, 0, len(ops))

	for _, op := range ops {
		out = append(out, &UnpublishedOperation{Type: op.Type})
	}

	return out
}
