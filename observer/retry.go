/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package observer

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/txn"
)

// retryEntry tracks one transaction whose anchored files were unavailable when first attempted.
// handle correlates an entry's attempts across a retry backlog that can span several
// retryUnresolvable passes, for logs that need to tie them together.
type retryEntry struct {
	handle      string
	txn         txn.SidetreeTxn
	attempts    int
	nextAttempt time.Time
}

// retryUnresolvable runs one bounded pass over the retry queue: it picks up at most retryBudget
// due entries (oldest first) and resolves them concurrently through a downloadManager, so a large
// backlog is retried without either serializing on the slowest fetch or starving the main
// fetch/apply cycle on the next tick.
func (o *Observer) retryUnresolvable() {
	o.mutex.Lock()
	now := time.Now()

	var due, notDue []*retryEntry

	for _, e := range o.retryQueue {
		if len(due) < o.retryBudget && !e.nextAttempt.After(now) {
			due = append(due, e)
		} else {
			notDue = append(notDue, e)
		}
	}

	o.retryQueue = notDue
	o.mutex.Unlock()

	if len(due) == 0 {
		return
	}

	dm := &downloadManager{concurrency: o.retryConcurrency}
	remaining := dm.run(due, o.retryOne)

	o.mutex.Lock()
	o.retryQueue = append(o.retryQueue, remaining...)
	o.mutex.Unlock()
}

func (o *Observer) enqueueRetry(sidetreeTxn txn.SidetreeTxn) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.retryQueue = append(o.retryQueue, &retryEntry{handle: uuid.NewString(), txn: sidetreeTxn, nextAttempt: time.Now()})
}

// retryOne attempts to resolve one unresolvable transaction. It returns true if the entry can be
// dropped from the retry queue: the transaction resolved successfully, failed for a reason other
// than missing content, or has exhausted its retry budget and is abandoned. It returns false, with
// the entry's attempt count and backoff advanced, if the transaction is still unresolvable and
// should be tried again later.
func (o *Observer) retryOne(e *retryEntry) bool {
	_, err := o.processor.Process(e.txn)
	if err == nil {
		return true
	}

	if !errors.Is(err, cas.ErrContentNotFound) {
		logger.Warnf("rejecting transaction %d on retry [%s]: %s", e.txn.TransactionNumber, e.handle, err.Error())

		return true
	}

	e.attempts++
	if e.attempts >= o.maxRetries {
		logger.Warnf(
			"abandoning unresolvable transaction %d after %d attempts [%s]", e.txn.TransactionNumber, e.attempts, e.handle)

		return true
	}

	e.nextAttempt = time.Now().Add(o.retryBaseDelay * time.Duration(uint(1)<<uint(e.attempts)))

	return false
}

// downloadManager runs a set of retry attempts concurrently, bounded by a worker semaphore, so the
// Observer's retry pass over an unresolvable-transaction backlog neither serializes on the
// slowest fetch nor runs more than concurrency attempts at once: it starts one goroutine per
// entry, each only after a semaphore slot is free.
type downloadManager struct {
	concurrency int
}

// run applies work to each entry concurrently and returns the entries work reported should remain
// in the queue (work returned false), in no particular order.
func (d *downloadManager) run(entries []*retryEntry, work func(*retryEntry) bool) []*retryEntry {
	concurrency := d.concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan *retryEntry, len(entries))

	var wg sync.WaitGroup

	for _, e := range entries {
		wg.Add(1)
		sem <- struct{}{}

		go func(e *retryEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			if work(e) {
				results <- nil
			} else {
				results <- e
			}
		}(e)
	}

	wg.Wait()
	close(results)

	var remaining []*retryEntry

	for e := range results {
		if e != nil {
			remaining = append(remaining, e)
		}
	}

	return remaining
}
