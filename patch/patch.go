/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package patch defines the closed set of document patch actions a delta may carry, and
// constructors used by operation request builders and tests.
package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Action names. This set is closed: any other "action" value is rejected at parse time.
const (
	ActionReplace           = "replace"
	ActionAddPublicKeys     = "add-public-keys"
	ActionRemovePublicKeys  = "remove-public-keys"
	ActionAddServices       = "add-services"
	ActionRemoveServices    = "remove-services"
	ActionIETFJSONPatch     = "ietf-json-patch"
)

// Key names used within a patch object.
const (
	ActionKey       = "action"
	DocumentKey     = "document"
	PublicKeysKey   = "publicKeys"
	ServicesKey     = "services"
	IdsKey          = "ids"
	PatchesKey      = "patches"
)

// Patch is a single document patch: a generic JSON object tagged by its "action" field.
type Patch map[string]interface{}

// GetAction returns the patch's action name.
func (p Patch) GetAction() (string, error) {
	v, ok := p[ActionKey]
	if !ok {
		return "", fmt.Errorf("patch is missing action element")
	}

	action, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("patch action must be a string")
	}

	return action, nil
}

// GetValue returns the patch's payload for its action: "document" for replace, "publicKeys" for
// the public-key patches, "services" for the service patches, "ids" for the remove patches, and
// "patches" for ietf-json-patch.
func (p Patch) GetValue() (interface{}, error) {
	action, err := p.GetAction()
	if err != nil {
		return nil, err
	}

	key, ok := valueKeyForAction[action]
	if !ok {
		return nil, fmt.Errorf("action '%s' is not supported", action)
	}

	value, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("%s patch is missing '%s'", action, key)
	}

	return value, nil
}

//nolint:gochecknoglobals
var valueKeyForAction = map[string]string{
	ActionReplace:          DocumentKey,
	ActionAddPublicKeys:    PublicKeysKey,
	ActionRemovePublicKeys: IdsKey,
	ActionAddServices:      ServicesKey,
	ActionRemoveServices:   IdsKey,
	ActionIETFJSONPatch:    PatchesKey,
}

// NewReplacePatch creates a "replace" patch from a raw document JSON object.
func NewReplacePatch(doc string) (Patch, error) {
	return newPatchFromRawValue(ActionReplace, DocumentKey, doc)
}

// NewAddPublicKeysPatch creates an "add-public-keys" patch.
func NewAddPublicKeysPatch(publicKeys string) (Patch, error) {
	return newPatchFromRawArray(ActionAddPublicKeys, PublicKeysKey, publicKeys)
}

// NewRemovePublicKeysPatch creates a "remove-public-keys" patch.
func NewRemovePublicKeysPatch(ids string) (Patch, error) {
	return newPatchFromRawArray(ActionRemovePublicKeys, IdsKey, ids)
}

// NewAddServicesPatch creates an "add-services" patch.
func NewAddServicesPatch(services string) (Patch, error) {
	return newPatchFromRawArray(ActionAddServices, ServicesKey, services)
}

// NewRemoveServicesPatch creates a "remove-services" patch.
func NewRemoveServicesPatch(ids string) (Patch, error) {
	return newPatchFromRawArray(ActionRemoveServices, IdsKey, ids)
}

// NewJSONPatch creates an "ietf-json-patch" patch, validating that patches is well-formed RFC 6902
// JSON Patch via github.com/evanphx/json-patch.
func NewJSONPatch(patches string) (Patch, error) {
	if _, err := jsonpatch.DecodePatch([]byte(patches)); err != nil {
		return nil, fmt.Errorf("invalid json patch: %s", err.Error())
	}

	var ops interface{}

	if err := json.Unmarshal([]byte(patches), &ops); err != nil {
		return nil, err
	}

	return Patch{ActionKey: ActionIETFJSONPatch, PatchesKey: ops}, nil
}

func newPatchFromRawValue(action, key, raw string) (Patch, error) {
	var value interface{}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("invalid %s value for %s patch: %s", key, action, err.Error())
	}

	return Patch{ActionKey: action, key: value}, nil
}

func newPatchFromRawArray(action, key, raw string) (Patch, error) {
	var value []interface{}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("invalid %s value for %s patch: %s", key, action, err.Error())
	}

	return Patch{ActionKey: action, key: value}, nil
}
