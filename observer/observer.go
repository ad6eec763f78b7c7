/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package observer watches the external ledger for new anchored transactions and feeds them to
// the transaction processor in order. It persists a cursor (the last transaction number it has
// attempted) so it can resume after a restart, recovers from a ledger fork by rewinding to the
// newest cursor the ledger still confirms, and retries transactions whose anchored files were
// temporarily unavailable with exponential backoff, bounded per tick so a large retry backlog
// cannot starve the main fetch/apply cycle.
package observer

import (
	"context"
	"errors"
	"sync"
	"time"

	aries "github.com/hyperledger/aries-framework-go/component/log"
	"github.com/opentracing/opentracing-go"
	otlog "github.com/opentracing/opentracing-go/log"
	pkgerrors "github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/txn"
)

var logger = aries.New("sidetree-observer")

// ErrCursorInvalid is returned by Ledger.Read when the Observer's persisted cursor no longer
// corresponds to a valid point in the ledger's canonical history, signaling a fork upstream of it.
var ErrCursorInvalid = errors.New("cursor invalid")

const (
	defaultPollingInterval  = 5 * time.Second
	defaultRetryBaseDelay   = 500 * time.Millisecond
	defaultMaxRetries       = 10
	defaultRetryConcurrency = 4
	defaultRetryBudget      = 50
)

// Cursor identifies a point in the ledger's transaction stream.
type Cursor struct {
	TransactionNumber   uint64
	TransactionTimeHash string
}

// Ledger is the Observer's view of the external anchoring system.
type Ledger interface {
	// Read returns the next transaction strictly after sinceTransactionNumber, and whether more
	// remain beyond it. A nil transaction with more == false means the stream is caught up. Read
	// returns ErrCursorInvalid if sinceTransactionNumber no longer identifies a valid point in the
	// ledger's history.
	Read(sinceTransactionNumber uint64) (more bool, sidetreeTxn *txn.SidetreeTxn, err error)

	// Valid reports whether transactionNumber is still part of the ledger's canonical history, for
	// resolving a rewind point after Read signals ErrCursorInvalid.
	Valid(transactionNumber uint64) (bool, error)
}

// TxnProcessor resolves one anchored transaction's files into operations and persists them.
type TxnProcessor interface {
	Process(sidetreeTxn txn.SidetreeTxn) (int, error)
}

// CursorStore persists the Observer's cursor across restarts.
type CursorStore interface {
	Get() (Cursor, error)
	Put(Cursor) error
}

// Rewinder discards anchored state recorded after a ledger fork's rewind point.
type Rewinder interface {
	RewindTo(transactionNumber uint64) error
}

// Option configures an Observer.
type Option func(*Observer)

// WithPollingInterval sets how long the Observer sleeps after a fetch pass finds no new
// transactions. Defaults to 5 seconds.
func WithPollingInterval(d time.Duration) Option {
	return func(o *Observer) { o.pollingInterval = d }
}

// WithRetryBaseDelay sets the base delay an unresolvable transaction's exponential backoff starts
// from. Defaults to 500ms.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(o *Observer) { o.retryBaseDelay = d }
}

// WithMaxRetries sets how many retry attempts an unresolvable transaction gets, after its first
// failed attempt, before it is abandoned. Defaults to 10.
func WithMaxRetries(n int) Option {
	return func(o *Observer) { o.maxRetries = n }
}

// WithRetryConcurrency bounds how many unresolvable transactions are retried concurrently in one
// retry pass. Defaults to 4.
func WithRetryConcurrency(n int) Option {
	return func(o *Observer) { o.retryConcurrency = n }
}

// WithRetryBudget bounds how many due retry entries one retry pass picks up, so an unbounded
// backlog cannot delay the next fetch/apply cycle indefinitely. Defaults to 50.
func WithRetryBudget(n int) Option {
	return func(o *Observer) { o.retryBudget = n }
}

// Observer drives the fetch/apply/revert loop over one ledger namespace.
type Observer struct {
	ledger    Ledger
	processor TxnProcessor
	cursors   CursorStore
	rewinder  Rewinder

	pollingInterval  time.Duration
	retryBaseDelay   time.Duration
	maxRetries       int
	retryConcurrency int
	retryBudget      int

	mutex        sync.Mutex
	processedLog []Cursor
	retryQueue   []*retryEntry
}

// New creates an Observer reading from ledger, persisting the anchored operations it resolves via
// processor, tracking its cursor in cursors, and rewinding via rewinder on a fork.
func New(ledger Ledger, processor TxnProcessor, cursors CursorStore, rewinder Rewinder, opts ...Option) *Observer {
	o := &Observer{
		ledger:           ledger,
		processor:        processor,
		cursors:          cursors,
		rewinder:         rewinder,
		pollingInterval:  defaultPollingInterval,
		retryBaseDelay:   defaultRetryBaseDelay,
		maxRetries:       defaultMaxRetries,
		retryConcurrency: defaultRetryConcurrency,
		retryBudget:      defaultRetryBudget,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run drives the Observer's loop until ctx is canceled.
func (o *Observer) Run(ctx context.Context) {
	for {
		if o.Tick() {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.pollingInterval):
		}
	}
}

// Tick runs one fetch/apply cycle and, only if no further transactions remain, one bounded retry
// pass over unresolvable transactions. It returns true if the caller should loop immediately
// rather than wait out the polling interval, because more transactions are already known to
// remain.
func (o *Observer) Tick() bool {
	more, err := o.fetchAndApply()
	if err != nil {
		if errors.Is(err, ErrCursorInvalid) {
			logger.Warnf("cursor invalid, reverting: %s", err.Error())

			if revertErr := o.revert(); revertErr != nil {
				logger.Errorf("failed to revert after ledger fork: %s", revertErr.Error())
			}

			return false
		}

		logger.Errorf("failed to read ledger: %s", err.Error())

		return false
	}

	if more {
		return true
	}

	o.retryUnresolvable()

	return false
}

func (o *Observer) fetchAndApply() (bool, error) {
	cursor, err := o.cursors.Get()
	if err != nil {
		return false, pkgerrors.Wrap(err, "get cursor")
	}

	more, sidetreeTxn, err := o.ledger.Read(cursor.TransactionNumber)
	if err != nil {
		return false, err
	}

	if sidetreeTxn == nil {
		return more, nil
	}

	o.applyTxn(*sidetreeTxn)

	return more, nil
}

// applyTxn processes one transaction. A transaction unresolvable because its anchored files are
// not yet available is queued for retry; any other error (an invariant violation) is logged and
// the transaction is still treated as processed, since Sidetree rejects the batch rather than the
// ledger entry. Either way the cursor advances, so the main stream keeps making forward progress.
func (o *Observer) applyTxn(sidetreeTxn txn.SidetreeTxn) {
	span := opentracing.StartSpan("sidetree.observer.apply_txn")
	span.SetTag("transactionNumber", sidetreeTxn.TransactionNumber)

	defer span.Finish()

	_, err := o.processor.Process(sidetreeTxn)
	if err != nil {
		span.LogFields(otlog.Error(err))

		if errors.Is(err, cas.ErrContentNotFound) {
			o.enqueueRetry(sidetreeTxn)
		} else {
			logger.Warnf("rejecting transaction %d: %s", sidetreeTxn.TransactionNumber, err.Error())
		}
	}

	cursor := Cursor{TransactionNumber: sidetreeTxn.TransactionNumber, TransactionTimeHash: sidetreeTxn.TransactionTimeHash}

	o.mutex.Lock()
	o.processedLog = append(o.processedLog, cursor)
	o.mutex.Unlock()

	if putErr := o.cursors.Put(cursor); putErr != nil {
		logger.Errorf("failed to persist cursor %d: %s", cursor.TransactionNumber, putErr.Error())
	}
}
