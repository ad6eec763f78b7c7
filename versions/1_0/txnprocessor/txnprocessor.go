/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txnprocessor turns one anchored ledger transaction into the anchored operations it
// contains and persists them to the operation store, deduping by DID suffix within the
// transaction and purging any matching unpublished-operation entries.
package txnprocessor

import (
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/txn"
)

// OperationStore persists anchored operations and answers per-suffix operation streams.
type OperationStore interface {
	Put(ops []*operation.AnchoredOperation) error
	Get(suffix string) ([]*operation.AnchoredOperation, error)
}

// OperationProtocolProvider resolves one transaction's anchored files into anchored operations.
type OperationProtocolProvider interface {
	GetTxnOperations(txn *txn.SidetreeTxn) ([]*operation.AnchoredOperation, error)
}

// UnpublishedOperationStore is purged of an operation once its anchored counterpart is persisted.
type UnpublishedOperationStore interface {
	DeleteAll(ops []*operation.AnchoredOperation) error
}

// Providers bundles txnprocessor's dependencies.
type Providers struct {
	OpStore                   OperationStore
	OperationProtocolProvider OperationProtocolProvider
}

// Option configures a Processor.
type Option func(*Processor)

// WithUnpublishedOperationStore purges unpublishedStore of any operation of a type in types once
// its anchored counterpart has been persisted.
func WithUnpublishedOperationStore(unpublishedStore UnpublishedOperationStore, types []operation.Type) Option {
	return func(p *Processor) {
		p.unpublishedStore = unpublishedStore
		p.unpublishedTypes = types
	}
}

// Processor processes anchored transactions into the operation store.
type Processor struct {
	*Providers

	unpublishedStore UnpublishedOperationStore
	unpublishedTypes []operation.Type
}

// New creates a Processor.
func New(providers *Providers, opts ...Option) *Processor {
	p := &Processor{Providers: providers}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process resolves sidetreeTxn's anchored files into operations and persists them, returning the
// number of operations successfully processed.
func (p *Processor) Process(sidetreeTxn txn.SidetreeTxn) (int, error) {
	txnOps, err := p.OperationProtocolProvider.GetTxnOperations(&sidetreeTxn)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to retrieve operations for anchor string[%s]", sidetreeTxn.AnchorString)
	}

	return p.processTxnOperations(txnOps, &sidetreeTxn)
}

func (p *Processor) processTxnOperations(txnOps []*operation.AnchoredOperation, sidetreeTxn *txn.SidetreeTxn) (int, error) {
	batchSuffixes := make(map[string]bool)

	var ops []*operation.AnchoredOperation

	for _, op := range txnOps {
		updatedOp := updateAnchoredOperation(op, sidetreeTxn)

		if _, ok := batchSuffixes[updatedOp.UniqueSuffix]; ok {
			// A DID already represented once in this transaction's batch: the file schema
			// guarantees at most one operation per suffix per operation type, but a malformed or
			// adversarial batch could still repeat a suffix across types. Only the first wins.
			continue
		}

		ops = append(ops, updatedOp)
		batchSuffixes[updatedOp.UniqueSuffix] = true
	}

	err := p.OpStore.Put(ops)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to store operation from anchor string[%s]", sidetreeTxn.AnchorString)
	}

	if p.unpublishedStore != nil {
		toDelete := filterByType(ops, p.unpublishedTypes)

		if len(toDelete) > 0 {
			if err := p.unpublishedStore.DeleteAll(toDelete); err != nil {
				return 0, errors.Wrapf(
					err, "failed to delete unpublished operations for anchor string[%s]", sidetreeTxn.AnchorString)
			}
		}
	}

	return len(ops), nil
}

func filterByType(ops []*operation.AnchoredOperation, types []operation.Type) []*operation.AnchoredOperation {
	var out []*operation.AnchoredOperation

	for _, op := range ops {
		for _, t := range types {
			if op.Type == t {
				out = append(out, op)

				break
			}
		}
	}

	return out
}

func updateAnchoredOperation(op *operation.AnchoredOperation, sidetreeTxn *txn.SidetreeTxn) *operation.AnchoredOperation {
	updated := *op
	updated.TransactionTime = sidetreeTxn.TransactionTime
	updated.TransactionNumber = sidetreeTxn.TransactionNumber

	return &updated
}
