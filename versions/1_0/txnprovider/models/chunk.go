/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package models defines the five ledger-anchored file schemas one batch is split across: Core
// Index File, Provisional Index File, Core Proof File, Provisional Proof File, and Chunk File.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

// QueuedOperation is one operation drained from the Batch Writer's queue, carrying just the
// fields the file builders need: its type (to partition Create/Recover/Update/Deactivate), its
// DID suffix and reveal value (for the index/proof file references), its signed data (for the
// proof files), and its delta, if any (for the Chunk File).
type QueuedOperation struct {
	Type         operation.Type
	UniqueSuffix string
	RevealValue  string
	SignedData   string
	Delta        *model.DeltaModel
	SuffixData   *model.SuffixDataModel
}

// ChunkFile carries the deltas for every Create, Recover, and Update operation in a batch,
// concatenated in that order, each in the order its index file references them.
type ChunkFile struct {
	Deltas []*model.DeltaModel `json:"deltas"`
}

// CreateChunkFile builds the Chunk File for a drained, ordered batch: create deltas first, then
// recover deltas, then update deltas. Deactivates carry no delta and are not represented here.
func CreateChunkFile(ops []*QueuedOperation) *ChunkFile {
	var deltas []*model.DeltaModel

	for _, t := range []operation.Type{operation.TypeCreate, operation.TypeRecover, operation.TypeUpdate} {
		for _, op := range ops {
			if op.Type == t {
				deltas = append(deltas, op.Delta)
			}
		}
	}

	return &ChunkFile{Deltas: deltas}
}

// ParseChunkFile unmarshals a decompressed Chunk File.
func ParseChunkFile(bytes []byte) (*ChunkFile, error) {
	file := &ChunkFile{}

	if err := json.Unmarshal(bytes, file); err != nil {
		return nil, fmt.Errorf("parse chunk file: %s", err.Error())
	}

	return file, nil
}
