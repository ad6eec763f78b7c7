/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package processor resolves a DID's current (or historical) state by loading its anchored
// operation stream and folding each operation, in ledger order, through the protocol version
// effective at the time it was anchored.
package processor

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/copier"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/document"
)

// OperationStore answers a suffix's anchored operation stream.
type OperationStore interface {
	Get(suffix string) ([]*operation.AnchoredOperation, error)
}

// UnpublishedOperationStore answers a suffix's not-yet-anchored operations, folded on top of the
// anchored stream for long-form/unpublished resolution.
type UnpublishedOperationStore interface {
	Get(suffix string) ([]*operation.AnchoredOperation, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUnpublishedOperationStore has Resolve additionally fold in suffix's unpublished operations.
func WithUnpublishedOperationStore(store UnpublishedOperationStore) Option {
	return func(r *Resolver) {
		r.unpublishedStore = store
	}
}

// Resolver resolves one namespace's DIDs against an operation store and a protocol client.
type Resolver struct {
	namespace        string
	store            OperationStore
	pc               protocol.Client
	unpublishedStore UnpublishedOperationStore
}

// New creates a Resolver for namespace, backed by store and pc.
func New(namespace string, store OperationStore, pc protocol.Client, opts ...Option) *Resolver {
	r := &Resolver{namespace: namespace, store: store, pc: pc}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve folds uniqueSuffix's operations into a resolution model. With no options, it resolves
// every published operation followed by every known unpublished operation. WithVersionID or
// WithVersionTime instead resolve as of a specific point, excluding everything anchored (or, for
// unpublished operations, timestamped) after it.
func (r *Resolver) Resolve(uniqueSuffix string, opts ...document.ResolutionOption) (*protocol.ResolutionModel, error) {
	options := &document.ResolutionOptions{}
	for _, opt := range opts {
		opt(options)
	}

	ops, err := r.store.Get(uniqueSuffix)
	if err != nil {
		return nil, err
	}

	ops = append(append([]*operation.AnchoredOperation{}, ops...), options.AdditionalOperations...)

	if r.unpublishedStore != nil {
		unpublishedOps, err := r.unpublishedStore.Get(uniqueSuffix)
		if err != nil {
			return nil, err
		}

		ops = append(ops, unpublishedOps...)
	}

	if !containsCreate(ops) {
		return nil, fmt.Errorf("create operation not found")
	}

	published, unpublished := splitOps(ops)
	sortOps(published)
	sortOps(unpublished)

	switch {
	case options.VersionID != "":
		idx := indexByCanonicalReference(published, options.VersionID)
		if idx < 0 {
			return nil, fmt.Errorf("'%s' is not a valid versionId", options.VersionID)
		}

		published = published[:idx+1]
		unpublished = nil
	case options.VersionTime != "":
		cutoff, err := time.Parse(time.RFC3339, options.VersionTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse version time[%s]: %s", options.VersionTime, err.Error())
		}

		published = filterByTime(published, uint64(cutoff.Unix()))
		unpublished = filterByTime(unpublished, uint64(cutoff.Unix()))

		if len(published) == 0 {
			return nil, fmt.Errorf("no operations found for version time %s", options.VersionTime)
		}
	}

	rm, err := r.applyOperations(published, nil)
	if err != nil {
		return nil, err
	}

	rm, err = r.applyOperations(unpublished, rm)
	if err != nil {
		return nil, err
	}

	if rm == nil {
		return nil, fmt.Errorf("valid create operation not found")
	}

	rm.PublishedOperations = published
	rm.UnpublishedOperations = unpublished

	return rm, nil
}

func (r *Resolver) applyOperations(
	ops []*operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	for _, op := range ops {
		var err error

		rm, err = r.applyOperation(op, rm)
		if err != nil {
			return nil, err
		}
	}

	return rm, nil
}

// applyOperation selects the protocol version effective at op's anchoring time and applies op
// against a snapshot of rm. An operation that the applier rejects as ineffective returns rm
// unchanged and a nil error; only a missing protocol version or a hard applier failure is reported
// here.
func (r *Resolver) applyOperation(
	op *operation.AnchoredOperation, rm *protocol.ResolutionModel) (*protocol.ResolutionModel, error) {
	v, err := r.pc.Get(op.TransactionTime)
	if err != nil {
		return nil, fmt.Errorf("apply '%s' operation: %s", op.Type, err.Error())
	}

	result, err := v.OperationApplier().Apply(op, snapshot(rm))
	if err != nil {
		return nil, fmt.Errorf("apply '%s' operation: %s", op.Type, err.Error())
	}

	return result, nil
}

// snapshot deep-copies rm so an applier's in-place mutation of its document or commitments cannot
// retroactively alter a resolution model a caller is still holding (e.g. an earlier version's
// model retained across a WithVersionID/WithVersionTime resolve). A nil rm copies to nil.
func snapshot(rm *protocol.ResolutionModel) *protocol.ResolutionModel {
	if rm == nil {
		return nil
	}

	clone := &protocol.ResolutionModel{}
	if err := copier.CopyWithOption(clone, rm, copier.Option{DeepCopy: true}); err != nil {
		// Only hit by an unsupported field type between identical struct literals, which
		// ResolutionModel's fields never produce; falling back to rm preserves prior behavior.
		return rm
	}

	return clone
}

func containsCreate(ops []*operation.AnchoredOperation) bool {
	for _, op := range ops {
		if op.Type == operation.TypeCreate {
			return true
		}
	}

	return false
}

// splitOps partitions ops into published (anchored, with a canonical reference) and unpublished
// (no canonical reference yet) operations.
func splitOps(ops []*operation.AnchoredOperation) (published, unpublished []*operation.AnchoredOperation) {
	for _, op := range ops {
		if op.CanonicalReference == "" {
			unpublished = append(unpublished, op)
		} else {
			published = append(published, op)
		}
	}

	return published, unpublished
}

func sortOps(ops []*operation.AnchoredOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].TransactionTime != ops[j].TransactionTime {
			return ops[i].TransactionTime < ops[j].TransactionTime
		}

		return ops[i].TransactionNumber < ops[j].TransactionNumber
	})
}

func indexByCanonicalReference(ops []*operation.AnchoredOperation, ref string) int {
	for i, op := range ops {
		if op.CanonicalReference == ref {
			return i
		}
	}

	return -1
}

func filterByTime(ops []*operation.AnchoredOperation, cutoff uint64) []*operation.AnchoredOperation {
	var out []*operation.AnchoredOperation

	for _, op := range ops {
		if op.TransactionTime <= cutoff {
			out = append(out, op)
		}
	}

	return out
}
