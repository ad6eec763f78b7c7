/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mocks holds in-memory test doubles shared across the engine's packages: a protocol
// client wired to the real parser/applier/composer, operation stores, a document transformer, and
// an operation applier fake.
package mocks

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/versions/1_0/doccomposer"
	"github.com/trustbloc/sidetree-node/versions/1_0/operationapplier"
	"github.com/trustbloc/sidetree-node/versions/1_0/operationparser"
)

const (
	sha2256 = 18

	// DefaultNS is a default DID namespace for tests that use these mocks.
	DefaultNS = "did:sidetree"

	// MaxOperationByteSize is a generous operation-size bound for tests that don't care about it.
	MaxOperationByteSize = 2000

	// MaxDeltaByteSize is a generous delta-size bound for tests that don't care about it.
	MaxDeltaByteSize = 2000

	// MaxBatchFileSize is a generous batch-file-size bound for tests that don't care about it.
	MaxBatchFileSize = 20000
)

// MockProtocolVersion is a protocol.Version whose parser/applier/validator are overridable,
// defaulting to the real implementations wired to its Protocol.
type MockProtocolVersion struct {
	P         protocol.Protocol
	Parser    protocol.OperationParser
	Applier   protocol.OperationApplier
	Validator protocol.DocumentValidator
}

// GetProtocolVersion wires up a MockProtocolVersion with the real parser/applier/composer for p.
func GetProtocolVersion(p protocol.Protocol) *MockProtocolVersion {
	parser := operationparser.New(p)
	applier := operationapplier.New(p, parser, doccomposer.New())

	return &MockProtocolVersion{P: p, Parser: parser, Applier: applier}
}

// Version returns the version's genesis time as a string (there is no other version label in a
// single-namespace deployment).
func (v *MockProtocolVersion) Version() string { return strconv.FormatUint(v.P.GenesisTime, 10) }

// Protocol returns the wrapped protocol.Protocol.
func (v *MockProtocolVersion) Protocol() protocol.Protocol { return v.P }

// OperationParser returns the version's parser.
func (v *MockProtocolVersion) OperationParser() protocol.OperationParser { return v.Parser }

// OperationApplier returns the version's applier.
func (v *MockProtocolVersion) OperationApplier() protocol.OperationApplier { return v.Applier }

// DocumentValidator returns the version's document validator.
func (v *MockProtocolVersion) DocumentValidator() protocol.DocumentValidator { return v.Validator }

// OperationParserReturns overrides the parser this version returns.
func (v *MockProtocolVersion) OperationParserReturns(p protocol.OperationParser) { v.Parser = p }

// OperationApplierReturns overrides the applier this version returns.
func (v *MockProtocolVersion) OperationApplierReturns(a protocol.OperationApplier) { v.Applier = a }

// MockProtocolClient is a protocol.Client over an explicit, test-controlled version list.
type MockProtocolClient struct {
	Versions       []protocol.Version
	CurrentVersion protocol.Version
	Err            error
}

// NewMockProtocolClient returns a client with a single default protocol version effective from
// genesis, using the real parser/applier/composer.
func NewMockProtocolClient() *MockProtocolClient {
	p := protocol.Protocol{
		MultihashAlgorithms:         []uint{sha2256},
		MaxOperationCount:           2,
		MaxOperationSize:            MaxOperationByteSize,
		MaxOperationHashLength:      100,
		MaxDeltaSize:                MaxDeltaByteSize,
		MaxCasURILength:             100,
		CompressionAlgorithm:        "GZIP",
		MaxChunkFileSize:            MaxBatchFileSize,
		MaxProvisionalIndexFileSize: MaxBatchFileSize,
		MaxCoreIndexFileSize:        MaxBatchFileSize,
		SignatureAlgorithms:         []string{"EdDSA", "ES256"},
		KeyAlgorithms:               []string{"Ed25519", "P-256"},
		Patches: []string{
			"replace", "add-public-keys", "remove-public-keys", "add-services", "remove-services", "ietf-json-patch",
		},
	}

	v := GetProtocolVersion(p)

	return &MockProtocolClient{
		Versions:       []protocol.Version{v},
		CurrentVersion: v,
	}
}

// Current returns the client's current version.
func (m *MockProtocolClient) Current() (protocol.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	if m.CurrentVersion == nil {
		return nil, fmt.Errorf("protocol parameters are not defined for anchoring time")
	}

	return m.CurrentVersion, nil
}

// Get returns the newest version whose genesis time does not exceed transactionTime.
func (m *MockProtocolClient) Get(transactionTime uint64) (protocol.Version, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	var selected protocol.Version

	for _, v := range m.Versions {
		if v.Protocol().GenesisTime <= transactionTime {
			selected = v
		}
	}

	if selected == nil {
		return nil, fmt.Errorf("protocol parameters are not defined for anchoring time")
	}

	return selected, nil
}

// MockOperationStore is an in-memory OperationStore, optionally configured to fail every call.
type MockOperationStore struct {
	Err error

	mutex       sync.RWMutex
	suffixToOps map[string][]*operation.AnchoredOperation
}

// NewMockOperationStore creates a MockOperationStore. Every Put/Get call fails with err when err
// is non-nil.
func NewMockOperationStore(err error) *MockOperationStore {
	return &MockOperationStore{Err: err, suffixToOps: make(map[string][]*operation.AnchoredOperation)}
}

// Put appends ops to their respective per-suffix streams.
func (m *MockOperationStore) Put(ops []*operation.AnchoredOperation) error {
	if m.Err != nil {
		return m.Err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, op := range ops {
		m.suffixToOps[op.UniqueSuffix] = append(m.suffixToOps[op.UniqueSuffix], op)
	}

	return nil
}

// Get returns the operations stored for suffix, in the order they were put.
func (m *MockOperationStore) Get(suffix string) ([]*operation.AnchoredOperation, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.suffixToOps[suffix], nil
}

// RewindTo discards every stored operation anchored after transactionNumber, for exercising a
// ledger-fork recovery without a real operation store.
func (m *MockOperationStore) RewindTo(transactionNumber uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for suffix, ops := range m.suffixToOps {
		var kept []*operation.AnchoredOperation

		for _, op := range ops {
			if op.TransactionNumber <= transactionNumber {
				kept = append(kept, op)
			}
		}

		m.suffixToOps[suffix] = kept
	}

	return nil
}
