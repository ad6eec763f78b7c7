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

// CoreProofFile carries the recover and deactivate signed JWS proofs, in the same order as the
// Core Index File's references.
type CoreProofFile struct {
	Operations *CoreProofOperations `json:"operations"`
}

// CoreProofOperations groups the Recover and Deactivate proof arrays.
type CoreProofOperations struct {
	Recover    []string `json:"recover,omitempty"`
	Deactivate []string `json:"deactivate,omitempty"`
}

// CreateCoreProofFile builds the Core Proof File for a drained, partitioned batch. Returns nil if
// the batch contains neither a recover nor a deactivate: the file is then omitted entirely.
func CreateCoreProofFile(ops []*QueuedOperation) *CoreProofFile {
	ops2 := &CoreProofOperations{}

	for _, op := range ops {
		switch op.Type {
		case operation.TypeRecover:
			ops2.Recover = append(ops2.Recover, op.SignedData)
		case operation.TypeDeactivate:
			ops2.Deactivate = append(ops2.Deactivate, op.SignedData)
		}
	}

	if len(ops2.Recover) == 0 && len(ops2.Deactivate) == 0 {
		return nil
	}

	return &CoreProofFile{Operations: ops2}
}

// ParseCoreProofFile unmarshals a decompressed Core Proof File.
func ParseCoreProofFile(bytes []byte) (*CoreProofFile, error) {
	file := &CoreProofFile{}

	if err := json.Unmarshal(bytes, file); err != nil {
		return nil, fmt.Errorf("parse core proof file: %s", err.Error())
	}

	return file, nil
}
