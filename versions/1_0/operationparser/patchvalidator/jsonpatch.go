/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package patchvalidator

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/trustbloc/sidetree-node/patch"
)

// disallowed json-patch paths: the ietf-json-patch action may not touch the properties a
// structured patch already owns, since those have dedicated commitment/size rules of their own.
var disallowedPathFragments = []string{"/publicKeys", "/services"}

// NewJSONPatchValidator creates a new validator for "ietf-json-patch" patches.
func NewJSONPatchValidator() *JSONPatchValidator {
	return &JSONPatchValidator{}
}

// JSONPatchValidator implements Validator for "ietf-json-patch" patches (RFC 6902).
type JSONPatchValidator struct{}

// Validate validates the patch's RFC 6902 operations.
func (v *JSONPatchValidator) Validate(p patch.Patch) error {
	value, err := p.GetValue()
	if err != nil {
		return err
	}

	opsBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("invalid json patch value: %s", err.Error())
	}

	if _, err := jsonpatch.DecodePatch(opsBytes); err != nil {
		return fmt.Errorf("invalid json patch: %s", err.Error())
	}

	var ops []struct {
		Path string `json:"path"`
	}

	if err := json.Unmarshal(opsBytes, &ops); err != nil {
		return fmt.Errorf("invalid json patch operations: %s", err.Error())
	}

	if len(ops) == 0 {
		return errors.New("json patch must contain at least one operation")
	}

	for _, op := range ops {
		for _, fragment := range disallowedPathFragments {
			if len(op.Path) >= len(fragment) && op.Path[:len(fragment)] == fragment {
				return fmt.Errorf("json patch path '%s' is not allowed, use a structured patch instead", op.Path)
			}
		}
	}

	return nil
}
