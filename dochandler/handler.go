/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dochandler performs document operation processing and document resolution.
//
// During operation processing it validates the operation against the current protocol version
// and queues it on the Batch Writer. Document resolution is based on a DID in either short form
// (did:METHOD:suffix) or long form (did:METHOD:suffix:Base64url(JCS(createRequest))): if the
// suffix cannot be resolved from anchored state and an encoded initial state was supplied, the
// initial state is validated and used to compute the document directly.
package dochandler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/docutil"
	"github.com/trustbloc/sidetree-node/document"
	"github.com/trustbloc/sidetree-node/versions/1_0/doctransformer"
)

const badRequest = "bad request"

// OperationProcessor resolves a DID suffix's current state from anchored (and, via options,
// additional unpublished) operations.
type OperationProcessor interface {
	Resolve(uniqueSuffix string, opts ...document.ResolutionOption) (*protocol.ResolutionModel, error)
}

// BatchWriter accepts a validated operation for inclusion in a future anchored batch.
type BatchWriter interface {
	Add(op *operation.QueuedOperation) error
}

// DocumentTransformer projects an internal resolution model into the external resolution result a
// client receives.
type DocumentTransformer interface {
	TransformDocument(internal *protocol.ResolutionModel, info protocol.TransformationInfo) (*document.ResolutionResult, error)
}

// Option configures a DocumentHandler.
type Option func(*DocumentHandler)

// WithDocumentTransformer overrides the document transformer; the default is doctransformer.New().
func WithDocumentTransformer(t DocumentTransformer) Option {
	return func(h *DocumentHandler) { h.transformer = t }
}

// DocumentHandler processes operation requests and resolves DID documents for one namespace.
type DocumentHandler struct {
	namespace   string
	client      protocol.Client
	processor   OperationProcessor
	writer      BatchWriter
	transformer DocumentTransformer
}

// New creates a DocumentHandler for namespace, resolving protocol versions via client, reading
// current state via processor, and queuing accepted operations on writer.
func New(
	namespace string, client protocol.Client, processor OperationProcessor, writer BatchWriter, opts ...Option,
) *DocumentHandler {
	h := &DocumentHandler{
		namespace:   namespace,
		client:      client,
		processor:   processor,
		writer:      writer,
		transformer: doctransformer.New(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Namespace returns the DID namespace this handler serves.
func (h *DocumentHandler) Namespace() string {
	return h.namespace
}

// ProcessOperation validates an operation request and queues it on the Batch Writer. A create
// operation additionally returns the resolution result a client would see by resolving the DID
// immediately, computed directly from the request rather than by waiting for it to anchor.
func (h *DocumentHandler) ProcessOperation(operationBuffer []byte) (*document.ResolutionResult, error) {
	pv, err := h.client.Current()
	if err != nil {
		return nil, err
	}

	op, err := pv.OperationParser().Parse(h.namespace, operationBuffer)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	if err := h.validateOperation(op, pv); err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	anchorOrigin, err := h.decorate(op, pv)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	if err := h.writer.Add(&operation.QueuedOperation{
		Type:             op.Type,
		Namespace:        h.namespace,
		UniqueSuffix:     op.UniqueSuffix,
		OperationRequest: op.OperationRequest,
		AnchorOrigin:     anchorOrigin,
	}); err != nil {
		return nil, err
	}

	if op.Type != operation.TypeCreate {
		return nil, nil
	}

	rm, err := pv.OperationApplier().Apply(op, nil)
	if err != nil {
		return nil, err
	}

	return h.transform(op.UniqueSuffix, rm)
}

// validateOperation runs the type-appropriate structural validation: a create operation's
// assembled document must be a valid original document, while every other operation's request is
// validated as a signed payload.
func (h *DocumentHandler) validateOperation(op *operation.AnchoredOperation, pv protocol.Version) error {
	if op.Type != operation.TypeCreate {
		return pv.DocumentValidator().IsValidPayload(op.OperationRequest)
	}

	rm, err := pv.OperationApplier().Apply(op, nil)
	if err != nil {
		return err
	}

	docBytes, err := canonicalizer.MarshalCanonical(rm.Doc)
	if err != nil {
		return err
	}

	return pv.DocumentValidator().IsValidOriginalDocument(docBytes)
}

// decorate resolves the suffix's current state for a non-create operation, rejecting one that
// targets an already-deactivated DID, and carries forward the DID's existing anchor origin so a
// recover/update/deactivate cannot smuggle in a new one.
func (h *DocumentHandler) decorate(op *operation.AnchoredOperation, _ protocol.Version) (interface{}, error) {
	if op.Type == operation.TypeCreate {
		return nil, nil
	}

	rm, err := h.processor.Resolve(op.UniqueSuffix)
	if err != nil {
		return nil, err
	}

	if rm.Deactivated {
		return nil, errors.New("document has been deactivated, no further operations are allowed")
	}

	return rm.AnchorOrigin, nil
}

// ResolveDocument resolves a short-form or long-form DID to its current document. Standard
// resolution is attempted first; if it fails for any reason and the DID was supplied in long
// form, the encoded initial state is used to compute the document directly.
func (h *DocumentHandler) ResolveDocument(shortOrLongFormDID string, opts ...document.ResolutionOption,
) (*document.ResolutionResult, error) {
	if !strings.HasPrefix(shortOrLongFormDID, h.namespace+docutil.NamespaceDelimiter) {
		return nil, fmt.Errorf("%s: must start with supported namespace", badRequest)
	}

	pv, err := h.client.Current()
	if err != nil {
		return nil, err
	}

	shortFormDID, initialState, err := pv.OperationParser().ParseDID(h.namespace, shortOrLongFormDID)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	suffix, err := getSuffix(h.namespace, shortFormDID)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	rm, err := h.processor.Resolve(suffix, opts...)
	if err == nil {
		return h.transform(suffix, rm)
	}

	if initialState != nil {
		return h.resolveInitialState(suffix, initialState, pv)
	}

	return nil, err
}

// resolveInitialState validates the long-form DID's embedded initial state against the current
// protocol version and computes the document it would produce, for a suffix the processor could
// not otherwise resolve.
func (h *DocumentHandler) resolveInitialState(suffix string, initialState []byte, pv protocol.Version,
) (*document.ResolutionResult, error) {
	op, err := pv.OperationParser().Parse(h.namespace, initialState)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", badRequest, err.Error())
	}

	if op.UniqueSuffix != suffix {
		return nil, fmt.Errorf("%s: provided did does not match did created from initial state", badRequest)
	}

	rm, err := pv.OperationApplier().Apply(op, nil)
	if err != nil {
		return nil, err
	}

	docBytes, err := canonicalizer.MarshalCanonical(rm.Doc)
	if err != nil {
		return nil, err
	}

	if err := pv.DocumentValidator().IsValidOriginalDocument(docBytes); err != nil {
		return nil, fmt.Errorf("%s: validate initial document: %s", badRequest, err.Error())
	}

	return h.transform(suffix, rm)
}

// transform projects an internal resolution model into the external resolution result, setting
// the document's id and delegating method metadata construction to the configured transformer.
func (h *DocumentHandler) transform(suffix string, rm *protocol.ResolutionModel) (*document.ResolutionResult, error) {
	if rm.Doc == nil {
		rm.Doc = make(document.Document)
	}

	info := protocol.TransformationInfo{
		document.IDProperty:        docutil.GetDID(h.namespace, suffix),
		document.PublishedProperty: len(rm.PublishedOperations) > 0,
	}

	if rm.AnchorOrigin != nil {
		info[document.AnchorOriginProperty] = rm.AnchorOrigin
	}

	return h.transformer.TransformDocument(rm, info)
}

// getSuffix returns the portion of idOrDocument after namespace's delimiter.
func getSuffix(namespace, idOrDocument string) (string, error) {
	prefix := namespace + docutil.NamespaceDelimiter
	if !strings.HasPrefix(idOrDocument, prefix) {
		return "", errors.New("did must start with configured namespace")
	}

	suffix := idOrDocument[len(prefix):]
	if suffix == "" {
		return "", errors.New("did suffix is empty")
	}

	return suffix, nil
}
