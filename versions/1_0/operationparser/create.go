/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

// ParseCreateOperation parses and validates a create operation request. batch relaxes the delta
// and anchor-origin checks for an already-anchored operation being re-examined from a chunk file.
func (p *Parser) ParseCreateOperation(request []byte, batch bool) (*model.Operation, error) {
	schema, err := p.parseCreateRequest(request)
	if err != nil {
		return nil, err
	}

	if !batch {
		if err := p.anchorOriginValidator.Validate(schema.SuffixData.AnchorOrigin); err != nil {
			return nil, err
		}

		if err := p.ValidateDelta(schema.Delta); err != nil {
			return nil, err
		}

		if err := hashing.IsValidModelMultihash(schema.Delta, schema.SuffixData.DeltaHash); err != nil {
			return nil, fmt.Errorf("delta doesn't match delta hash: %s", err.Error())
		}
	}

	uniqueSuffix, err := p.calculateUniqueSuffix(schema.SuffixData)
	if err != nil {
		return nil, err
	}

	return &model.Operation{
		OperationRequest: request,
		Type:             operation.TypeCreate,
		UniqueSuffix:     uniqueSuffix,
		Delta:            schema.Delta,
		SuffixData:       schema.SuffixData,
		AnchorOrigin:     schema.SuffixData.AnchorOrigin,
	}, nil
}

func (p *Parser) parseCreateRequest(payload []byte) (*model.CreateRequest, error) {
	schema := &model.CreateRequest{}

	if err := strictUnmarshal(payload, schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal create request: %s", err.Error())
	}

	if err := p.validateCreateRequest(schema); err != nil {
		return nil, err
	}

	return schema, nil
}

func (p *Parser) validateCreateRequest(req *model.CreateRequest) error {
	if req.SuffixData == nil {
		return errors.New("missing suffix data")
	}

	if req.SuffixData.DeltaHash == "" {
		return errors.New("missing delta hash")
	}

	return p.validateMultihash(req.SuffixData.RecoveryCommitment, "recovery commitment")
}

// calculateUniqueSuffix computes the DID unique suffix: the multihash of the canonicalized
// suffix data, minted with the first (preferred) multihash algorithm.
func (p *Parser) calculateUniqueSuffix(suffixData *model.SuffixDataModel) (string, error) {
	return hashing.CalculateModelMultihash(suffixData, p.MultihashAlgorithms[0])
}
