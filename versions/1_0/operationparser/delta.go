/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/patch"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
	"github.com/trustbloc/sidetree-node/versions/1_0/operationparser/patchvalidator"
)

// ValidateDelta validates a delta's size, next update commitment, and every patch it carries.
func (p *Parser) ValidateDelta(delta *model.DeltaModel) error {
	if delta == nil {
		return errors.New("missing delta")
	}

	if len(delta.Patches) == 0 {
		return errors.New("missing patches")
	}

	deltaBytes, err := canonicalizer.MarshalCanonical(delta)
	if err != nil {
		return fmt.Errorf("failed to canonicalize delta: %s", err.Error())
	}

	if uint(len(deltaBytes)) > p.MaxDeltaSize {
		return fmt.Errorf("delta size[%d] exceeds maximum size[%d]", len(deltaBytes), p.MaxDeltaSize)
	}

	if err := p.validateMultihash(delta.UpdateCommitment, "update commitment"); err != nil {
		return err
	}

	for _, pt := range delta.Patches {
		if err := p.validatePatch(pt); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) validatePatch(pt patch.Patch) error {
	action, err := pt.GetAction()
	if err != nil {
		return err
	}

	if !contains(p.Patches, action) {
		return fmt.Errorf("patch action '%s' is not supported by current protocol version", action)
	}

	v, err := patchvalidator.ForAction(action)
	if err != nil {
		return err
	}

	return v.Validate(pt)
}
