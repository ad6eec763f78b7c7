/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
)

// UpdateReference is an Update operation's reference within the Provisional Index File.
type UpdateReference struct {
	DidSuffix   string `json:"didSuffix"`
	RevealValue string `json:"revealValue"`
}

// ProvisionalOperations groups the Update references the Provisional Index File carries.
type ProvisionalOperations struct {
	Update []UpdateReference `json:"update,omitempty"`
}

// ProvisionalIndexFile is the companion file listing update references and pointing to the Chunk
// File; it is present whenever a batch contains anything other than pure deactivates.
type ProvisionalIndexFile struct {
	ProvisionalProofFileURI string                  `json:"provisionalProofFileUri,omitempty"`
	Chunks                  []ChunkFileReference    `json:"chunks"`
	Operations              *ProvisionalOperations  `json:"operations,omitempty"`
}

// ChunkFileReference points at the one Chunk File a Provisional Index File always carries.
type ChunkFileReference struct {
	ChunkFileURI string `json:"chunkFileUri"`
}

// CreateProvisionalIndexFile builds the Provisional Index File. provisionalProofURI is empty when
// the batch contains no updates.
func CreateProvisionalIndexFile(chunkFileURI, provisionalProofURI string, ops []*QueuedOperation) *ProvisionalIndexFile {
	file := &ProvisionalIndexFile{
		ProvisionalProofFileURI: provisionalProofURI,
		Chunks:                  []ChunkFileReference{{ChunkFileURI: chunkFileURI}},
	}

	var updates []UpdateReference

	for _, op := range ops {
		if op.Type == operation.TypeUpdate {
			updates = append(updates, UpdateReference{DidSuffix: op.UniqueSuffix, RevealValue: op.RevealValue})
		}
	}

	if len(updates) > 0 {
		file.Operations = &ProvisionalOperations{Update: updates}
	}

	return file
}

// ParseProvisionalIndexFile unmarshals a decompressed Provisional Index File.
func ParseProvisionalIndexFile(bytes []byte) (*ProvisionalIndexFile, error) {
	file := &ProvisionalIndexFile{}

	if err := json.Unmarshal(bytes, file); err != nil {
		return nil, fmt.Errorf("parse provisional index file: %s", err.Error())
	}

	if len(file.Chunks) != 1 {
		return nil, fmt.Errorf("parse provisional index file: expected exactly one chunk file reference, got %d", len(file.Chunks))
	}

	if file.Operations != nil {
		seen := make(map[string]bool, len(file.Operations.Update))

		for _, u := range file.Operations.Update {
			if seen[u.DidSuffix] {
				return nil, fmt.Errorf("duplicate did suffix '%s' in provisional index file", u.DidSuffix)
			}

			seen[u.DidSuffix] = true
		}
	}

	return file, nil
}
