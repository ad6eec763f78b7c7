/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package docvalidator implements protocol.DocumentValidator: the structural checks a create
// operation's assembled document, and a non-create operation's payload, must pass before the
// Document Handler queues it.
package docvalidator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/document"
)

// OperationStore looks up a suffix's anchored operations, to confirm a non-create payload targets
// a DID that actually exists.
type OperationStore interface {
	Get(uniqueSuffix string) ([]*operation.AnchoredOperation, error)
}

// Validator is the default protocol.DocumentValidator.
type Validator struct {
	store OperationStore
}

// New creates a Validator backed by store.
func New(store OperationStore) *Validator {
	return &Validator{store: store}
}

// IsValidOriginalDocument checks that payload is a well-formed document suitable for a create
// operation: it must not already carry an "id" (the DID is derived, never supplied), and every
// public key it declares must have a non-empty, unique id.
func (v *Validator) IsValidOriginalDocument(payload []byte) error {
	doc, err := document.FromBytes(payload)
	if err != nil {
		return err
	}

	if _, ok := doc[document.IDProperty]; ok {
		return errors.New("document must NOT have the id property")
	}

	return validatePublicKeys(doc.PublicKeys())
}

// IsValidPayload checks that payload is a well-formed non-create operation request: it must carry
// a non-empty "didSuffix" naming a DID the store has at least one anchored operation for.
func (v *Validator) IsValidPayload(payload []byte) error {
	var req struct {
		DidSuffix string `json:"didSuffix"`
	}

	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}

	if req.DidSuffix == "" {
		return errors.New("missing unique suffix")
	}

	ops, err := v.store.Get(req.DidSuffix)
	if err != nil {
		return err
	}

	if len(ops) == 0 {
		return fmt.Errorf("uniqueSuffix not found: %s", req.DidSuffix)
	}

	return nil
}

func validatePublicKeys(keys []document.PublicKey) error {
	seen := make(map[string]bool, len(keys))

	for _, key := range keys {
		id := key.ID()
		if id == "" {
			return errors.New("public key id is missing")
		}

		if seen[id] {
			return fmt.Errorf("duplicate public key id: %s", id)
		}

		seen[id] = true
	}

	return nil
}
