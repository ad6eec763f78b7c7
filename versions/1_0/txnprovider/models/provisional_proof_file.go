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

// ProvisionalProofFile carries the update signed JWS proofs, in the same order as the
// Provisional Index File's update references.
type ProvisionalProofFile struct {
	Operations *ProvisionalProofOperations `json:"operations"`
}

// ProvisionalProofOperations groups the Update proof array.
type ProvisionalProofOperations struct {
	Update []string `json:"update,omitempty"`
}

// CreateProvisionalProofFile builds the Provisional Proof File. Returns nil if the batch contains
// no updates: the file is then omitted entirely.
func CreateProvisionalProofFile(ops []*QueuedOperation) *ProvisionalProofFile {
	var updates []string

	for _, op := range ops {
		if op.Type == operation.TypeUpdate {
			updates = append(updates, op.SignedData)
		}
	}

	if len(updates) == 0 {
		return nil
	}

	return &ProvisionalProofFile{Operations: &ProvisionalProofOperations{Update: updates}}
}

// ParseProvisionalProofFile unmarshals a decompressed Provisional Proof File.
func ParseProvisionalProofFile(bytes []byte) (*ProvisionalProofFile, error) {
	file := &ProvisionalProofFile{}

	if err := json.Unmarshal(bytes, file); err != nil {
		return nil, fmt.Errorf("parse provisional proof file: %s", err.Error())
	}

	return file, nil
}
