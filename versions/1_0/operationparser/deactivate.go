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

// ParseDeactivateOperation parses and validates a deactivate operation request.
func (p *Parser) ParseDeactivateOperation(request []byte, _ bool) (*model.Operation, error) {
	schema, err := p.parseDeactivateRequest(request)
	if err != nil {
		return nil, err
	}

	signedData, err := p.ParseSignedDataForDeactivate(schema.SignedData, schema.DidSuffix)
	if err != nil {
		return nil, err
	}

	if err := hashing.IsValidModelMultihash(signedData.RecoveryKey, schema.RevealValue); err != nil {
		return nil, fmt.Errorf("canonicalized recovery public key hash doesn't match reveal value: %s", err.Error())
	}

	return &model.Operation{
		OperationRequest: request,
		Type:             operation.TypeDeactivate,
		UniqueSuffix:     schema.DidSuffix,
		SignedData:       schema.SignedData,
		RevealValue:      schema.RevealValue,
	}, nil
}

func (p *Parser) parseDeactivateRequest(payload []byte) (*model.DeactivateRequest, error) {
	schema := &model.DeactivateRequest{}

	if err := strictUnmarshal(payload, schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deactivate request: %s", err.Error())
	}

	if err := p.validateDeactivateRequest(schema); err != nil {
		return nil, err
	}

	return schema, nil
}

func (p *Parser) validateDeactivateRequest(req *model.DeactivateRequest) error {
	if req.DidSuffix == "" {
		return errors.New("missing did suffix")
	}

	if req.SignedData == "" {
		return errors.New("missing signed data")
	}

	return p.validateMultihash(req.RevealValue, "reveal value")
}

// ParseSignedDataForDeactivate parses and validates the compact JWS carried in a deactivate
// request, additionally checking that it was signed over the same DID suffix the outer request
// names (a deactivate signature cannot be replayed across DIDs).
func (p *Parser) ParseSignedDataForDeactivate(compactJWS, didSuffix string) (*model.DeactivateSignedDataModel, error) {
	signedData, err := p.parseSignedData(compactJWS)
	if err != nil {
		return nil, err
	}

	schema := &model.DeactivateSignedDataModel{}

	if err := strictUnmarshal(signedData.Payload, schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signed data model for deactivate: %s", err.Error())
	}

	if err := p.validateSigningKey(schema.RecoveryKey); err != nil {
		return nil, err
	}

	if schema.DidSuffix != didSuffix {
		return nil, errors.New("did suffix doesn't match signed data")
	}

	return schema, nil
}
