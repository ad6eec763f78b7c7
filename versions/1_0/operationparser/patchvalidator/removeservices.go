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

// NewRemoveServicesValidator creates a new validator for "remove-services" patches.
func NewRemoveServicesValidator() *RemoveServicesValidator {
	return &RemoveServicesValidator{}
}

// RemoveServicesValidator implements Validator for "remove-services" patches.
type RemoveServicesValidator struct{}

// Validate validates the patch's ids array.
func (v *RemoveServicesValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	genericArr, err := getRequiredArray(value)
	if err != nil {
		return fmt.Errorf("invalid remove services value: %s", err.Error())
	}

	return validateIds(document.StringArray(genericArr))
}
