/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package doccomposer applies a sequence of patches to a document. It runs no patchvalidator
// checks, and neither does its caller, the operation applier, which re-parses anchored operations
// in batch mode; patchvalidator runs only when an operation is parsed outside batch mode, as on
// submission.
package doccomposer

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/patch"
)

// Composer applies patches to a document in order.
type Composer struct{}

// New creates a Composer.
func New() *Composer {
	return &Composer{}
}

// ApplyPatches applies patches to doc in order and returns the resulting document. doc may be
// empty (a Create or Recover operation starts from nothing).
func (c *Composer) ApplyPatches(doc document.Document, patches []patch.Patch) (document.Document, error) {
	result := doc

	for _, p := range patches {
		action, err := p.GetAction()
		if err != nil {
			return nil, err
		}

		result, err = applyPatch(result, action, p)
		if err != nil {
			return nil, fmt.Errorf("apply patch '%s': %s", action, err.Error())
		}
	}

	return result, nil
}

func applyPatch(doc document.Document, action string, p patch.Patch) (document.Document, error) {
	switch action {
	case patch.ActionReplace:
		return applyReplace(p)
	case patch.ActionAddPublicKeys:
		return applyAddPublicKeys(doc, p)
	case patch.ActionRemovePublicKeys:
		return applyRemovePublicKeys(doc, p)
	case patch.ActionAddServices:
		return applyAddServices(doc, p)
	case patch.ActionRemoveServices:
		return applyRemoveServices(doc, p)
	case patch.ActionIETFJSONPatch:
		return applyJSONPatch(doc, p)
	default:
		return nil, fmt.Errorf("action '%s' is not supported", action)
	}
}

func applyReplace(p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	docBytes, err := marshalValue(value)
	if err != nil {
		return nil, err
	}

	return document.FromBytes(docBytes)
}

func applyAddPublicKeys(doc document.Document, p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	toAdd := document.ParsePublicKeys(value)

	existing := doc.PublicKeys()
	byID := make(map[string]document.PublicKey, len(existing)+len(toAdd))

	for _, k := range existing {
		byID[k.ID()] = k
	}

	for _, k := range toAdd {
		byID[k.ID()] = k
	}

	doc[document.PublicKeyProperty] = mapValuesToInterfaceSlice(byID, existing, toAdd)

	return doc, nil
}

func applyRemovePublicKeys(doc document.Document, p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	toRemove := make(map[string]bool)

	for _, id := range document.StringArray(value) {
		toRemove[id] = true
	}

	var kept []interface{}

	for _, k := range doc.PublicKeys() {
		if !toRemove[k.ID()] {
			kept = append(kept, map[string]interface{}(k))
		}
	}

	doc[document.PublicKeyProperty] = kept

	return doc, nil
}

func applyAddServices(doc document.Document, p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	toAdd := document.ParseServices(value)

	existing := doc.Services()
	byID := make(map[string]document.Service, len(existing)+len(toAdd))

	ordered := make([]string, 0, len(existing)+len(toAdd))

	for _, s := range existing {
		if _, ok := byID[s.ID()]; !ok {
			ordered = append(ordered, s.ID())
		}

		byID[s.ID()] = s
	}

	for _, s := range toAdd {
		if _, ok := byID[s.ID()]; !ok {
			ordered = append(ordered, s.ID())
		}

		byID[s.ID()] = s
	}

	services := make([]interface{}, 0, len(ordered))
	for _, id := range ordered {
		services = append(services, map[string]interface{}(byID[id]))
	}

	doc[document.ServiceProperty] = services

	return doc, nil
}

func applyRemoveServices(doc document.Document, p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	toRemove := make(map[string]bool)

	for _, id := range document.StringArray(value) {
		toRemove[id] = true
	}

	var kept []interface{}

	for _, s := range doc.Services() {
		if !toRemove[s.ID()] {
			kept = append(kept, map[string]interface{}(s))
		}
	}

	doc[document.ServiceProperty] = kept

	return doc, nil
}

func applyJSONPatch(doc document.Document, p patch.Patch) (document.Document, error) {
	value, err := p.GetValue()
	if err != nil {
		return nil, err
	}

	opsBytes, err := marshalValue(value)
	if err != nil {
		return nil, err
	}

	decoded, err := jsonpatch.DecodePatch(opsBytes)
	if err != nil {
		return nil, err
	}

	docBytes, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	patchedBytes, err := decoded.Apply(docBytes)
	if err != nil {
		return nil, err
	}

	return document.FromBytes(patchedBytes)
}

func marshalValue(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func mapValuesToInterfaceSlice(
	byID map[string]document.PublicKey, existing, added []document.PublicKey) []interface{} {
	ordered := make([]string, 0, len(byID))
	seen := make(map[string]bool, len(byID))

	for _, k := range existing {
		if !seen[k.ID()] {
			ordered = append(ordered, k.ID())
			seen[k.ID()] = true
		}
	}

	for _, k := range added {
		if !seen[k.ID()] {
			ordered = append(ordered, k.ID())
			seen[k.ID()] = true
		}
	}

	out := make([]interface{}, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, map[string]interface{}(byID[id]))
	}

	return out
}
