/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package observer

import pkgerrors "github.com/pkg/errors"

// revert recovers from a ledger fork: it samples the Observer's processed-transaction log at
// exponentially growing offsets from the most recently processed entry, asks the ledger to
// confirm each sampled cursor in turn (newest first), rewinds the operation store and the
// persisted cursor to the first one the ledger still confirms, and trims the in-memory log to
// match. An empty log, or no sampled cursor the ledger still confirms, rewinds all the way to
// genesis.
func (o *Observer) revert() error {
	o.mutex.Lock()
	log := append([]Cursor(nil), o.processedLog...)
	o.mutex.Unlock()

	rewindTo, err := o.resolveRewindPoint(log)
	if err != nil {
		return pkgerrors.Wrap(err, "resolve rewind point")
	}

	if err := o.rewinder.RewindTo(rewindTo.TransactionNumber); err != nil {
		return pkgerrors.Wrap(err, "rewind operation store")
	}

	if err := o.cursors.Put(rewindTo); err != nil {
		return pkgerrors.Wrap(err, "persist rewound cursor")
	}

	o.mutex.Lock()
	o.processedLog = trimLog(o.processedLog, rewindTo.TransactionNumber)
	o.mutex.Unlock()

	logger.Infof("reverted to transaction %d after ledger fork", rewindTo.TransactionNumber)

	return nil
}

func (o *Observer) resolveRewindPoint(log []Cursor) (Cursor, error) {
	for offset := 1; offset <= len(log); offset *= 2 {
		candidate := log[len(log)-offset]

		valid, err := o.ledger.Valid(candidate.TransactionNumber)
		if err != nil {
			return Cursor{}, err
		}

		if valid {
			return candidate, nil
		}
	}

	return Cursor{}, nil
}

func trimLog(log []Cursor, upTo uint64) []Cursor {
	var out []Cursor

	for _, c := range log {
		if c.TransactionNumber <= upTo {
			out = append(out, c)
		}
	}

	return out
}
