/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patchvalidator

import (
	"fmt"

	"github.com/trustbloc/sidetree-node/patch"
)

// Validator validates the value of a single document patch, per its action.
type Validator interface {
	Validate(p patch.Patch) error
}

var validators = map[string]Validator{
	patch.ActionReplace:          NewReplaceValidator(),
	patch.ActionAddPublicKeys:    NewAddPublicKeysValidator(),
	patch.ActionRemovePublicKeys: NewRemovePublicKeysValidator(),
	patch.ActionAddServices:      NewAddServicesValidator(),
	patch.ActionRemoveServices:   NewRemoveServicesValidator(),
	patch.ActionIETFJSONPatch:    NewJSONPatchValidator(),
}

// ForAction returns the validator registered for a patch action.
func ForAction(action string) (Validator, error) {
	v, ok := validators[action]
	if !ok {
		return nil, fmt.Errorf("patch action '%s' is not supported", action)
	}

	return v, nil
}
