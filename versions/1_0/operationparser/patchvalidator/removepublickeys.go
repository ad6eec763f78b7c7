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

// NewRemovePublicKeysValidator creates a new validator for "remove-public-keys" patches.
func NewRemovePublicKeysValidator() *RemovePublicKeysValidator {
	return &RemovePublicKeysValidator{}
}

// RemovePublicKeysValidator implements Validator for "remove-public-keys" patches.
type RemovePublicKeysValidator struct{}

// Validate validates the patch's ids array.
func (v *RemovePublicKeysValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	genericArr, err := getRequiredArray(value)
	if err != nil {
		return fmt.Errorf("invalid remove public keys value: %s", err.Error())
	}

	return validateIds(document.StringArray(genericArr))
}
