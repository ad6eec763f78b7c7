/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"sync"

	"github.com/trustbloc/sidetree-node/api/operation"
)

// fifo is an unbounded, order-preserving queue of operations pending a batch cut.
type fifo struct {
	mutex sync.Mutex
	ops   []*operation.QueuedOperation
}

func newFIFO() *fifo {
	return &fifo{}
}

func (q *fifo) push(op *operation.QueuedOperation) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.ops = append(q.ops, op)
}

// drain removes and returns at most max operations from the front of the queue, preserving order.
// A non-positive max drains nothing.
func (q *fifo) drain(max int) []*operation.QueuedOperation {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if max <= 0 || len(q.ops) == 0 {
		return nil
	}

	if max > len(q.ops) {
		max = len(q.ops)
	}

	drained := q.ops[:max]
	q.ops = q.ops[max:]

	return drained
}

// requeueFront restores ops to the front of the queue, ahead of anything added since they were
// drained, used to retry a batch that failed after draining.
func (q *fifo) requeueFront(ops []*operation.QueuedOperation) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.ops = append(append([]*operation.QueuedOperation{}, ops...), q.ops...)
}

func (q *fifo) len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return len(q.ops)
}
