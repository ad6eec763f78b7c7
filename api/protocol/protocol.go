/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package protocol defines the versioned configuration struct every size/algorithm bound is read
// from, and the interfaces a concrete protocol version must provide (parser, applier, validator).
package protocol

import (
	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/document"
)

// Protocol is the set of size, algorithm, and fee parameters in effect for transactions at or
// after GenesisTime. The newest version whose GenesisTime does not exceed a transaction's time is
// selected; there is no other lookup mechanism.
type Protocol struct {
	// GenesisTime is the first transaction time/block number this version applies from.
	GenesisTime uint64

	// MultihashAlgorithms lists the multihash codes accepted when verifying reveal values and
	// content references; new commitments are always minted with the first entry.
	MultihashAlgorithms []uint

	MaxOperationCount      uint
	MaxOperationSize       uint
	MaxOperationHashLength uint
	MaxDeltaSize           uint
	MaxCasURILength        uint
	MaxLockIDSize          uint

	MaxCoreIndexFileSize        uint
	MaxProvisionalIndexFileSize uint
	MaxProofFileSize            uint
	MaxChunkFileSize            uint

	CompressionAlgorithm string

	SignatureAlgorithms []string
	KeyAlgorithms       []string

	// Patches is the closed set of patch action names accepted at this protocol version.
	Patches []string

	NonceSize uint

	// MaxOperationsPerBatch bounds how many operations the Batch Writer may cut per transaction,
	// independent of any value-time-lock derived bound.
	MaxOperationsPerBatch uint

	// MaxTransactionSize bounds the serialized anchor string.
	MaxTransactionSize uint

	// FeeMultiplier and LockMultiplier are applied to the ledger's current normalized fee to
	// derive the per-operation cost a value-time-lock's funds are checked against.
	FeeMultiplier  float64
	LockMultiplier float64
}

// ResolutionModel is the internal, mutable per-DID state the operation applier folds operations
// into: the current document plus the commitments and bookkeeping that gate the next operation.
type ResolutionModel struct {
	Doc                   document.Document
	RecoveryCommitment    string
	UpdateCommitment      string
	AnchorOrigin          interface{}
	VersionID             string
	LastOperationTxnNum   uint64
	CreatedTime           uint64
	UpdatedTime           uint64
	Deactivated           bool
	PublishedOperations   []*operation.AnchoredOperation
	UnpublishedOperations []*operation.AnchoredOperation
}

// TransformationInfo carries resolution-time facts the document transformer needs but that do not
// belong on ResolutionModel itself (it is assembled per-call by the caller, not persisted).
type TransformationInfo map[string]interface{}

// OperationApplier applies a single anchored operation against the current resolution model and
// returns the resulting model. A rejected operation returns the unmodified model and a nil error:
// rejection is not itself a processing failure (§4.4/§7 of the specification this implements).
type OperationApplier interface {
	Apply(op *operation.AnchoredOperation, rm *ResolutionModel) (*ResolutionModel, error)
}

// OperationParser parses and validates operation requests of every type for one protocol version.
type OperationParser interface {
	Parse(namespace string, operationBuffer []byte) (*operation.AnchoredOperation, error)
	ParseDID(namespace, shortOrLongFormDID string) (string, []byte, error)
	GetCommitment(operationBuffer []byte) (string, error)
	GetRevealValue(operationBuffer []byte) (string, error)
}

// DocumentValidator validates a document payload embedded in a patch or initial state.
type DocumentValidator interface {
	IsValidOriginalDocument(payload []byte) error
	IsValidPayload(payload []byte) error
}

// Version bundles one protocol version's parameters with the parser/applier/validator that
// implement it, selected as a whole by genesis time so a version never mixes parsing rules from
// one release with size bounds from another.
type Version interface {
	Version() string
	Protocol() Protocol
	OperationParser() OperationParser
	OperationApplier() OperationApplier
	DocumentValidator() DocumentValidator
}

// Client resolves the currently-effective protocol Version and looks one up by transaction time.
type Client interface {
	Current() (Version, error)
	Get(transactionTime uint64) (Version, error)
}
