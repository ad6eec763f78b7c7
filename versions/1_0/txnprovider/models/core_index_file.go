/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

// CreateReference is a Create operation's reference within the Core Index File.
type CreateReference struct {
	SuffixData *model.SuffixDataModel `json:"suffixData"`
}

// RecoverReference is a Recover or Deactivate operation's reference within the Core Index File.
type RecoverReference struct {
	DidSuffix   string `json:"didSuffix"`
	RevealValue string `json:"revealValue"`
}

// CoreOperations groups the Create/Recover/Deactivate references the Core Index File carries, in
// the order operation indices are assigned.
type CoreOperations struct {
	Create     []CreateReference  `json:"create,omitempty"`
	Recover    []RecoverReference `json:"recover,omitempty"`
	Deactivate []RecoverReference `json:"deactivate,omitempty"`
}

// CoreIndexFile is the ledger-anchored root descriptor of one batch.
type CoreIndexFile struct {
	WriterLockID            string          `json:"writerLockId,omitempty"`
	CoreProofFileURI        string          `json:"coreProofFileUri,omitempty"`
	ProvisionalIndexFileURI string          `json:"provisionalIndexFileUri,omitempty"`
	Operations              *CoreOperations `json:"operations,omitempty"`
}

// CreateCoreIndexFile builds the Core Index File for a drained, partitioned batch. provisionalURI
// is empty when the batch contains only deactivates, coreProofURI is empty when it contains
// neither a recover nor a deactivate.
func CreateCoreIndexFile(writerLockID, coreProofURI, provisionalURI string, ops []*QueuedOperation) *CoreIndexFile {
	file := &CoreIndexFile{
		WriterLockID:            writerLockID,
		CoreProofFileURI:        coreProofURI,
		ProvisionalIndexFileURI: provisionalURI,
	}

	ops2 := &CoreOperations{}

	for _, op := range ops {
		switch op.Type {
		case operation.TypeCreate:
			ops2.Create = append(ops2.Create, CreateReference{SuffixData: op.SuffixData})
		case operation.TypeRecover:
			ops2.Recover = append(ops2.Recover, RecoverReference{DidSuffix: op.UniqueSuffix, RevealValue: op.RevealValue})
		case operation.TypeDeactivate:
			ops2.Deactivate = append(ops2.Deactivate, RecoverReference{DidSuffix: op.UniqueSuffix, RevealValue: op.RevealValue})
		}
	}

	if len(ops2.Create) > 0 || len(ops2.Recover) > 0 || len(ops2.Deactivate) > 0 {
		file.Operations = ops2
	}

	return file
}

// ParseCoreIndexFile unmarshals a decompressed Core Index File.
func ParseCoreIndexFile(bytes []byte) (*CoreIndexFile, error) {
	file := &CoreIndexFile{}

	if err := json.Unmarshal(bytes, file); err != nil {
		return nil, fmt.Errorf("parse core index file: %s", err.Error())
	}

	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("parse core index file: %s", err.Error())
	}

	return file, nil
}

func (f *CoreIndexFile) validate() error {
	if f.Operations == nil {
		return nil
	}

	seen := make(map[string]bool)

	check := func(suffix string) error {
		if seen[suffix] {
			return fmt.Errorf("duplicate did suffix '%s' in core index file", suffix)
		}

		seen[suffix] = true

		return nil
	}

	for _, c := range f.Operations.Create {
		if c.SuffixData == nil {
			return fmt.Errorf("missing suffix data in create reference")
		}
	}

	for _, r := range f.Operations.Recover {
		if err := check(r.DidSuffix); err != nil {
			return err
		}
	}

	for _, d := range f.Operations.Deactivate {
		if err := check(d.DidSuffix); err != nil {
			return err
		}
	}

	return nil
}
