/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patchvalidator

import (
	"fmt"

	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/patch"
)

// NewAddPublicKeysValidator creates a new validator for "add-public-keys" patches.
func NewAddPublicKeysValidator() *AddPublicKeysValidator {
	return &AddPublicKeysValidator{}
}

// AddPublicKeysValidator implements Validator for "add-public-keys" patches.
type AddPublicKeysValidator struct{}

// Validate validates the patch's publicKeys array.
func (v *AddPublicKeysValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	_, err = getRequiredArray(value)
	if err != nil {
		return fmt.Errorf("invalid add public keys value: %s", err.Error())
	}

	pubKeys := document.ParsePublicKeys(value)

	return validatePublicKeys(pubKeys)
}
