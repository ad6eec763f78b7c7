/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package operationparser parses and validates operation requests of every type for one protocol
// version: structural well-formedness, reveal-value/commitment consistency, delta size and patch
// bounds, and signed-data JWS verification setup. It is the boundary between untrusted wire bytes
// and the internal model the operation applier folds into a DID's resolution state.
package operationparser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/hashing"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

const didSeparator = ":"

// AnchorOriginValidator validates an operation's declared anchor origin. The default
// implementation accepts anything; a method that restricts which origins may anchor operations
// supplies its own via WithAnchorOriginValidator.
type AnchorOriginValidator interface {
	Validate(anchorOrigin interface{}) error
}

// AnchorTimeValidator validates an operation's optional anchoring time window
// (anchorFrom/anchorUntil). The default implementation accepts anything.
type AnchorTimeValidator interface {
	Validate(anchorFrom, anchorUntil int64) error
}

type noopAnchorOriginValidator struct{}

func (noopAnchorOriginValidator) Validate(interface{}) error { return nil }

type noopAnchorTimeValidator struct{}

func (noopAnchorTimeValidator) Validate(int64, int64) error { return nil }

// Option configures a Parser.
type Option func(*Parser)

// WithAnchorOriginValidator overrides the anchor-origin validator.
func WithAnchorOriginValidator(v AnchorOriginValidator) Option {
	return func(p *Parser) { p.anchorOriginValidator = v }
}

// WithAnchorTimeValidator overrides the anchor-time validator.
func WithAnchorTimeValidator(v AnchorTimeValidator) Option {
	return func(p *Parser) { p.anchorTimeValidator = v }
}

// Parser parses operation requests against one protocol version's rules.
type Parser struct {
	protocol.Protocol

	anchorOriginValidator AnchorOriginValidator
	anchorTimeValidator   AnchorTimeValidator
}

// New creates a Parser bound to p.
func New(p protocol.Protocol, opts ...Option) *Parser {
	parser := &Parser{
		Protocol:              p,
		anchorOriginValidator: noopAnchorOriginValidator{},
		anchorTimeValidator:   noopAnchorTimeValidator{},
	}

	for _, opt := range opts {
		opt(parser)
	}

	return parser
}

// Parse parses a wire-format operation request into an anchored operation record, ready to be
// queued by the batch writer.
func (p *Parser) Parse(namespace string, operationBuffer []byte) (*operation.AnchoredOperation, error) {
	opModel, err := p.ParseOperation(namespace, operationBuffer, false)
	if err != nil {
		return nil, err
	}

	return &operation.AnchoredOperation{
		Type:             opModel.Type,
		UniqueSuffix:     opModel.UniqueSuffix,
		OperationRequest: operationBuffer,
	}, nil
}

// ParseOperation parses a wire-format operation request of any type. batch relaxes the checks
// that only matter when an operation is first submitted (anchor origin/time, full delta
// validation): a previously-anchored operation being re-examined (e.g. to extract its next
// commitment) has already passed those checks once.
func (p *Parser) ParseOperation(namespace string, operationBuffer []byte, batch bool) (*model.Operation, error) {
	opType, err := getOperationType(operationBuffer)
	if err != nil {
		return nil, err
	}

	var opModel *model.Operation

	switch opType {
	case operation.TypeCreate:
		opModel, err = p.ParseCreateOperation(operationBuffer, batch)
	case operation.TypeUpdate:
		opModel, err = p.ParseUpdateOperation(operationBuffer, batch)
	case operation.TypeRecover:
		opModel, err = p.ParseRecoverOperation(operationBuffer, batch)
	case operation.TypeDeactivate:
		opModel, err = p.ParseDeactivateOperation(operationBuffer, batch)
	default:
		return nil, fmt.Errorf("operation type [%s] not supported", opType)
	}

	if err != nil {
		return nil, err
	}

	opModel.Namespace = namespace
	opModel.ID = namespace + didSeparator + opModel.UniqueSuffix

	return opModel, nil
}

func getOperationType(operationBuffer []byte) (operation.Type, error) {
	var raw struct {
		Type operation.Type `json:"type"`
	}

	if err := json.Unmarshal(operationBuffer, &raw); err != nil {
		return "", fmt.Errorf("failed to unmarshal operation buffer for type: %s", err.Error())
	}

	if raw.Type == "" {
		return "", errors.New("missing operation type")
	}

	return raw.Type, nil
}

// GetCommitment returns the commitment an operation sets for the operation that is to follow it.
// Create operations have no predecessor to dispatch on and are not supported here; deactivate
// operations set no further commitment and return an empty string.
func (p *Parser) GetCommitment(operationBuffer []byte) (string, error) {
	opModel, err := p.ParseOperation("", operationBuffer, true)
	if err != nil {
		return "", fmt.Errorf("get commitment - parse operation error: %s", err.Error())
	}

	switch opModel.Type {
	case operation.TypeRecover:
		signedData, err := p.ParseSignedDataForRecover(opModel.SignedData)
		if err != nil {
			return "", err
		}

		return signedData.RecoveryCommitment, nil
	case operation.TypeUpdate:
		return opModel.Delta.UpdateCommitment, nil
	case operation.TypeDeactivate:
		return "", nil
	default:
		return "", fmt.Errorf("operation type '%s' not supported for getting next operation commitment", opModel.Type)
	}
}

// GetRevealValue returns the reveal value an operation discloses, proving knowledge of the key
// behind a previously published commitment. Create operations disclose nothing and are not
// supported here.
func (p *Parser) GetRevealValue(operationBuffer []byte) (string, error) {
	opModel, err := p.ParseOperation("", operationBuffer, true)
	if err != nil {
		return "", fmt.Errorf("get reveal value - parse operation error: %s", err.Error())
	}

	if opModel.Type == operation.TypeCreate {
		return "", fmt.Errorf("operation type '%s' not supported for getting operation reveal value", opModel.Type)
	}

	return opModel.RevealValue, nil
}

// strictUnmarshal decodes payload into schema, rejecting any top-level JSON property schema does
// not declare a field for. Each operation type's request schema is a fixed, exhaustive property
// list (§4.3), so an unrecognized property is malformed input rather than a forward-compatible
// extension to silently ignore.
func strictUnmarshal(payload []byte, schema interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	return dec.Decode(schema)
}

func (p *Parser) validateMultihash(value, name string) error {
	if value == "" {
		return fmt.Errorf("missing %s", name)
	}

	if !hashing.IsSupportedMultihash(value, p.MultihashAlgorithms) {
		return fmt.Errorf("%s is not computed with the required hash algorithms", name)
	}

	return nil
}
