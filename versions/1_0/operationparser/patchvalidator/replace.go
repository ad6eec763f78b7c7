/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patchvalidator

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/patch"
)

// NewReplaceValidator creates a new validator for "replace" patches.
func NewReplaceValidator() *ReplaceValidator {
	return &ReplaceValidator{}
}

// ReplaceValidator implements Validator for "replace" patches: the full document the DID is
// created (or recovered) with.
type ReplaceValidator struct{}

// Validate validates the replacement document.
func (v *ReplaceValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	docBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("invalid replace document value: %s", err.Error())
	}

	doc, err := document.FromBytes(docBytes)
	if err != nil {
		return fmt.Errorf("invalid replace document: %s", err.Error())
	}

	for key := range doc {
		if !contains(allowedReplaceKeys, key) {
			return fmt.Errorf("key '%s' is not allowed in replace document", key)
		}
	}

	if err := validatePublicKeys(doc.PublicKeys()); err != nil {
		return err
	}

	return validateServices(doc.Services())
}

var allowedReplaceKeys = []string{document.PublicKeyProperty, document.ServiceProperty}
