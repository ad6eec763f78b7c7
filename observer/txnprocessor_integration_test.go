/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package observer_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/cas"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/api/txn"
	"github.com/trustbloc/sidetree-node/compression"
	"github.com/trustbloc/sidetree-node/mocks"
	"github.com/trustbloc/sidetree-node/observer"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprocessor"
	"github.com/trustbloc/sidetree-node/versions/1_0/txnprovider"
)

// TestObserver_RealTxnProcessor_UnresolvableTransactionIsRetriedNotRejected wires the real
// txnprocessor.Processor and txnprovider.OperationProvider (not the hand-rolled fakeProcessor the
// rest of this package's tests use) behind the real Observer, so a genuine cas.ErrContentNotFound
// surfacing from a CAS miss is exercised end to end. It would regress silently if either layer
// stopped propagating the sentinel (e.g. by wrapping it with fmt.Errorf instead of errors.Wrap).
func TestObserver_RealTxnProcessor_UnresolvableTransactionIsRetriedNotRejected(t *testing.T) {
	casClient := newCountingCAS()

	p := protocol.Protocol{
		CompressionAlgorithm:        compression.Gzip,
		MaxCoreIndexFileSize:        1024,
		MaxProvisionalIndexFileSize: 1024,
		MaxProofFileSize:            1024,
		MaxChunkFileSize:            1024,
	}

	provider := txnprovider.New(p, casClient)
	store := mocks.NewMockOperationStore(nil)
	proc := txnprocessor.New(&txnprocessor.Providers{OpStore: store, OperationProtocolProvider: provider})

	anchorString := txnprovider.BuildAnchorString(0, "missing-core-index-uri")
	sidetreeTxn := txn.SidetreeTxn{TransactionNumber: 1, TransactionTimeHash: "h1", AnchorString: anchorString}

	ledger := newFakeLedger(sidetreeTxn)
	cursors := &fakeCursorStore{}
	rewinder := &fakeRewinder{}

	o := observer.New(ledger, proc, cursors, rewinder, observer.WithRetryBaseDelay(0))

	// The first Tick both fetches the transaction (one CAS read) and, since WithRetryBaseDelay(0)
	// makes the just-enqueued entry immediately due, runs one retry pass against it (a second CAS
	// read) before returning. If the sentinel had been swallowed by an unwrapped fmt.Errorf anywhere
	// in the chain, applyTxn's errors.Is check would have taken the "reject permanently" branch
	// instead of enqueuing a retry, and this second read would never happen.
	more := o.Tick()
	require.False(t, more)
	require.Equal(t, 2, casClient.reads())

	// The cursor still advances past the unresolvable transaction: retry is tracked separately from
	// the main fetch/apply cursor.
	cur, err := cursors.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(1), cur.TransactionNumber)

	// A further tick with no new ledger transactions runs another retry pass, re-attempting the same
	// still-missing anchor string.
	more = o.Tick()
	require.False(t, more)
	require.Equal(t, 3, casClient.reads())

	// Publish the missing Core Index File and retry again: the transaction now resolves.
	coreIndexFile, err := json.Marshal(struct{}{})
	require.NoError(t, err)

	compressed, err := compression.Compress(compression.Gzip, coreIndexFile)
	require.NoError(t, err)

	casClient.put("missing-core-index-uri", compressed)

	more = o.Tick()
	require.False(t, more)
	require.Equal(t, 4, casClient.reads())
}

// countingCAS is an in-memory cas.Client that counts Read calls and returns cas.ErrContentNotFound
// for any address it has not been given content for.
type countingCAS struct {
	mu        sync.Mutex
	content   map[string][]byte
	readCount int
}

func newCountingCAS() *countingCAS {
	return &countingCAS{content: make(map[string][]byte)}
}

func (c *countingCAS) put(address string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.content[address] = content
}

func (c *countingCAS) reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.readCount
}

func (c *countingCAS) Read(address string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readCount++

	content, ok := c.content[address]
	if !ok {
		return nil, cas.ErrContentNotFound
	}

	return content, nil
}

func (c *countingCAS) Write(content []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return "", nil
}
