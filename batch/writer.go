/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package batch cuts queued operations into anchored transactions. Accepted operations (see
// dochandler.BatchWriter) are appended to an unbounded FIFO; on every batchInterval tick, unless a
// cut from the previous tick is still running, the Writer asks the ledger for its current time,
// normalized fee, and value-time-lock, sizes a batch against the lock's funded operation count
// (§4.8), drains that many operations off the queue, partitions them into the current protocol
// version's ledger-anchored files, and submits the result. A failure at any step returns the
// drained operations to the head of the queue so the next tick retries them.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	aries "github.com/hyperledger/aries-framework-go/component/log"
	"github.com/opentracing/opentracing-go"
	otlog "github.com/opentracing/opentracing-go/log"
	pkgerrors "github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/lock"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider/models"
)

var logger = aries.New("sidetree-batch")

const defaultBatchInterval = 5 * time.Second

// Ledger is the Batch Writer's view of the external anchoring system.
type Ledger interface {
	// CurrentTime returns the ledger's current time, the point a value-time-lock's validity
	// window and a prospective batch's fee are both evaluated against.
	CurrentTime() (time.Time, error)

	// NormalizedFee returns the ledger's current per-operation fee.
	NormalizedFee() (uint64, error)

	// CurrentValueTimeLock returns the writer's current value-time-lock, or nil if it has none.
	CurrentValueTimeLock() (*lock.ValueTimeLock, error)

	// WriteAnchor submits anchorString (built by txnprovider.BuildAnchorString) to the ledger
	// under writerLockID, paying the fee the batch's operation count requires.
	WriteAnchor(anchorString, writerLockID string) error
}

// fullOperationParser is the capability a protocol version's operation parser must additionally
// have to rebuild the full parsed operation PrepareTxnFiles needs (reveal value, signed data,
// delta, suffix data) from a queued operation's raw request bytes. Every concrete parser in this
// tree's versions/*/operationparser packages satisfies it, even though the abstract
// protocol.OperationParser interface other callers use does not declare it.
type fullOperationParser interface {
	ParseOperation(namespace string, operationBuffer []byte, batch bool) (*model.Operation, error)
}

// Option configures a Writer.
type Option func(*Writer)

// WithBatchInterval sets how often the Writer considers cutting a batch. Defaults to 5 seconds.
func WithBatchInterval(d time.Duration) Option {
	return func(w *Writer) { w.batchInterval = d }
}

// Writer queues operations and periodically cuts them into anchored batches for one namespace.
type Writer struct {
	namespace    string
	writerID     string
	writerLockID string
	client       protocol.Client
	ledger       Ledger
	cas          cas.Client

	batchInterval time.Duration

	queue    *fifo
	inFlight atomic.Bool
}

// New creates a Writer. writerID identifies this writer against a value-time-lock's owner;
// writerLockID is the lock identifier submitted alongside every anchored batch.
func New(
	namespace, writerID, writerLockID string,
	client protocol.Client, ledger Ledger, casClient cas.Client,
	opts ...Option,
) *Writer {
	w := &Writer{
		namespace:     namespace,
		writerID:      writerID,
		writerLockID:  writerLockID,
		client:        client,
		ledger:        ledger,
		cas:           casClient,
		batchInterval: defaultBatchInterval,
		queue:         newFIFO(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Add queues op for inclusion in a future batch.
func (w *Writer) Add(op *operation.QueuedOperation) error {
	w.queue.push(op)

	return nil
}

// Run drives the Writer's batchInterval tick loop until ctx is canceled.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Tick cuts one batch, skipping entirely if the previous tick's cut is still in flight, and
// returns the resulting error (if any) so callers driving the Writer synchronously can observe
// it; Run itself only logs it.
func (w *Writer) Tick() error {
	if !w.inFlight.CompareAndSwap(false, true) {
		return nil
	}

	defer w.inFlight.Store(false)

	err := w.cutAndWrite()
	if err != nil {
		logger.Errorf("batch write failed: %s", err.Error())
	}

	return err
}

func (w *Writer) cutAndWrite() error {
	pv, err := w.client.Current()
	if err != nil {
		return pkgerrors.Wrap(err, "get current protocol version")
	}

	targetTime, err := w.ledger.CurrentTime()
	if err != nil {
		return pkgerrors.Wrap(err, "get ledger time")
	}

	fee, err := w.ledger.NormalizedFee()
	if err != nil {
		return pkgerrors.Wrap(err, "get normalized fee")
	}

	vtl, err := w.ledger.CurrentValueTimeLock()
	if err != nil {
		return pkgerrors.Wrap(err, "get value time lock")
	}

	verifier := lock.New(fee, pv.Protocol().FeeMultiplier, pv.Protocol().LockMultiplier)

	maxThisBatch := minUint64(verifier.MaxOpsAllowed(vtl), uint64(pv.Protocol().MaxOperationsPerBatch))

	drained := w.queue.drain(int(maxThisBatch))
	if len(drained) == 0 {
		return nil
	}

	if err := verifier.Verify(vtl, w.writerID, targetTime, uint64(len(drained))); err != nil {
		w.queue.requeueFront(drained)

		return pkgerrors.Wrap(err, "value time lock verification")
	}

	anchorString, err := w.prepareTxnFiles(pv, drained)
	if err != nil {
		w.queue.requeueFront(drained)

		return pkgerrors.Wrap(err, "prepare transaction files")
	}

	if err := w.publish(anchorString); err != nil {
		w.queue.requeueFront(drained)

		return pkgerrors.Wrap(err, "write anchor")
	}

	return nil
}

func (w *Writer) publish(anchorString string) error {
	span := opentracing.StartSpan("sidetree.batch.publish")
	span.SetTag("writerLockID", w.writerLockID)

	defer span.Finish()

	err := w.ledger.WriteAnchor(anchorString, w.writerLockID)
	if err != nil {
		span.LogFields(otlog.Error(err))
	}

	return err
}

func (w *Writer) prepareTxnFiles(pv protocol.Version, drained []*operation.QueuedOperation) (string, error) {
	parser, ok := pv.OperationParser().(fullOperationParser)
	if !ok {
		return "", pkgerrors.New("protocol version's operation parser cannot rebuild full operations")
	}

	modelOps := make([]*models.QueuedOperation, 0, len(drained))

	for _, op := range drained {
		parsed, err := parser.ParseOperation(op.Namespace, op.OperationRequest, true)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "re-parse queued operation %s", op.UniqueSuffix)
		}

		modelOps = append(modelOps, &models.QueuedOperation{
			Type:         parsed.Type,
			UniqueSuffix: parsed.UniqueSuffix,
			RevealValue:  parsed.RevealValue,
			SignedData:   parsed.SignedData,
			Delta:        parsed.Delta,
			SuffixData:   parsed.SuffixData,
		})
	}

	handler := txnprovider.NewOperationHandler(pv.Protocol(), w.cas)

	return handler.PrepareTxnFiles(w.writerLockID, modelOps)
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}

	return b
}
