/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package observer_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/txn"
	"github.com/trustbloc/sidetree-node/observer"
)

func TestTick_AppliesTransactionsSequentially(t *testing.T) {
	ledger := newFakeLedger(
		txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"},
		txn.SidetreeTxn{TransactionNumber: 2, TransactionTimeHash: "h2"},
		txn.SidetreeTxn{TransactionNumber: 3, TransactionTimeHash: "h3"},
	)
	proc := newFakeProcessor()
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder)

	more := o.Tick()
	require.True(t, more)

	more = o.Tick()
	require.True(t, more)

	more = o.Tick()
	require.False(t, more)

	cur, err := cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(3), cur.TransactionNumber)

	require.Equal(t, 1, proc.attemptsFor(1))
	require.Equal(t, 1, proc.attemptsFor(2))
	require.Equal(t, 1, proc.attemptsFor(3))
}

func TestTick_NoTransactions_ReturnsFalse(t *testing.T) {
	ledger := newFakeLedger()
	proc := newFakeProcessor()
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder)

	require.False(t, o.Tick())
}

func TestTick_CursorInvalid_RevertsToNewestValidSample(t *testing.T) {
	ledger := newFakeLedger(
		txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"},
		txn.SidetreeTxn{TransactionNumber: 2, TransactionTimeHash: "h2"},
		txn.SidetreeTxn{TransactionNumber: 3, TransactionTimeHash: "h3"},
		txn.SidetreeTxn{TransactionNumber: 4, TransactionTimeHash: "h4"},
	)
	proc := newFakeProcessor()
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder)

	// Process all four transactions so the processed log has entries to sample from.
	for i := 0; i < 4; i++ {
		o.Tick()
	}

	cur, err := cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(4), cur.TransactionNumber)

	// The sampling walk checks offsets 1, 2, 4, ... from the newest entry (transaction 4, then 3,
	// then 1). Mark everything but transaction 3 invalid, so the walk must pass over offset 1
	// (transaction 4) before confirming offset 2 (transaction 3).
	ledger.setCursorInvalidOnce()
	ledger.validFunc = func(n uint64) (bool, error) {
		return n == 3, nil
	}

	more := o.Tick()
	require.False(t, more)

	require.Equal(t, []uint64{3}, rewinder.calls)

	cur, err = cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(3), cur.TransactionNumber)
}

func TestTick_CursorInvalid_NoValidSampleRewindsToGenesis(t *testing.T) {
	ledger := newFakeLedger(txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"})
	proc := newFakeProcessor()
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder)

	o.Tick()

	ledger.setCursorInvalidOnce()
	ledger.validFunc = func(uint64) (bool, error) { return false, nil }

	o.Tick()

	require.Equal(t, []uint64{0}, rewinder.calls)

	cur, err := cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(0), cur.TransactionNumber)
}

func TestRetryUnresolvable_ResolvesOnRetry(t *testing.T) {
	ledger := newFakeLedger(txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"})
	proc := newFakeProcessor()
	proc.failUntilAttempt[1] = 1
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder, observer.WithRetryBaseDelay(0))

	more := o.Tick()
	require.False(t, more)
	require.Equal(t, 2, proc.attemptsFor(1))

	// Ticking again should not touch the now-resolved transaction: no new transaction to fetch,
	// and the retry queue should be empty.
	more = o.Tick()
	require.False(t, more)
	require.Equal(t, 2, proc.attemptsFor(1))
}

func TestRetryUnresolvable_AbandonsAfterMaxRetries(t *testing.T) {
	ledger := newFakeLedger(txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"})
	proc := newFakeProcessor()
	proc.alwaysUnresolvable[1] = true
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder, observer.WithRetryBaseDelay(0), observer.WithMaxRetries(2))

	o.Tick() // fetch (attempt 1) + one retry pass (attempt 2)
	o.Tick() // no new transaction; one more retry pass (attempt 3) abandons it

	require.Equal(t, 3, proc.attemptsFor(1))

	o.Tick() // abandoned: no further attempts
	require.Equal(t, 3, proc.attemptsFor(1))
}

func TestRetryUnresolvable_RejectedTransactionIsNotRetried(t *testing.T) {
	ledger := newFakeLedger(txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1"})
	proc := newFakeProcessor()
	proc.rejectAlways[1] = true
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder, observer.WithRetryBaseDelay(0))

	o.Tick()

	cur, err := cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(1), cur.TransactionNumber)
	require.Equal(t, 1, proc.attemptsFor(1))

	o.Tick()
	require.Equal(t, 1, proc.attemptsFor(1))
}

// fakeLedger is a scripted Ledger: a fixed, ascending-by-TransactionNumber set of transactions,
// an optional one-shot ErrCursorInvalid signal, and a pluggable Valid response for exercising
// fork-recovery sampling.
type fakeLedger struct {
	mu                sync.Mutex
	txns              []txn.SidetreeTxn
	cursorInvalidOnce bool
	validFunc         func(uint64) (bool, error)
}

func newFakeLedger(txns ...txn.SidetreeTxn) *fakeLedger {
	return &fakeLedger{txns: txns}
}

func (f *fakeLedger) setCursorInvalidOnce() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursorInvalidOnce = true
}

func (f *fakeLedger) Read(since uint64) (bool, *txn.SidetreeTxn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cursorInvalidOnce {
		f.cursorInvalidOnce = false

		return false, nil, observer.ErrCursorInvalid
	}

	for i, candidate := range f.txns {
		if candidate.TransactionNumber > since {
			next := candidate
			more := i+1 < len(f.txns)

			return more, &next, nil
		}
	}

	return false, nil, nil
}

func (f *fakeLedger) Valid(n uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.validFunc != nil {
		return f.validFunc(n)
	}

	return true, nil
}

// fakeProcessor records how many times Process was called per transaction number, and can be
// configured to fail a transaction a fixed number of times, permanently as unresolvable, or
// permanently as an invariant violation.
type fakeProcessor struct {
	mu                 sync.Mutex
	attempts           map[uint64]int
	failUntilAttempt   map[uint64]int
	alwaysUnresolvable map[uint64]bool
	rejectAlways       map[uint64]bool
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		attempts:           make(map[uint64]int),
		failUntilAttempt:   make(map[uint64]int),
		alwaysUnresolvable: make(map[uint64]bool),
		rejectAlways:       make(map[uint64]bool),
	}
}

func (f *fakeProcessor) Process(sidetreeTxn txn.SidetreeTxn) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[sidetreeTxn.TransactionNumber]++
	n := f.attempts[sidetreeTxn.TransactionNumber]

	if f.rejectAlways[sidetreeTxn.TransactionNumber] {
		return 0, errors.New("invariant violation")
	}

	if f.alwaysUnresolvable[sidetreeTxn.TransactionNumber] {
		return 0, cas.ErrContentNotFound
	}

	if threshold, ok := f.failUntilAttempt[sidetreeTxn.TransactionNumber]; ok && n <= threshold {
		return 0, cas.ErrContentNotFound
	}

	return 1, nil
}

func (f *fakeProcessor) attemptsFor(n uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.attempts[n]
}

type fakeCursorStore struct {
	mu  sync.Mutex
	cur observer.Cursor
}

func (f *fakeCursorStore) Get() (observer.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cur, nil
}

func (f *fakeCursorStore) Put(c observer.Cursor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cur = c

	return nil
}

type fakeRewinder struct {
	mu    sync.Mutex
	calls []uint64
}

func (f *fakeRewinder) RewindTo(n uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, n)

	return nil
}
