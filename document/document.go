/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package document defines the externally-projected DID document shape and the internal
// key/service representations patches operate on.
package document

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node/api/operation"
)

// Well-known property names used across the document, its patches, and its metadata.
const (
	IDProperty             = "id"
	ContextProperty        = "@context"
	PublicKeyProperty      = "publicKeys"
	ServiceProperty        = "services"
	ControllerProperty     = "controller"
	TypeProperty           = "type"
	PublicKeyJwkProperty   = "publicKeyJwk"
	PublicKeyBase58Property = "publicKeyBase58"
	PurposesProperty       = "purposes"

	ServiceEndpointProperty = "serviceEndpoint"

	PublishedProperty          = "published"
	DeactivatedProperty        = "deactivated"
	CanonicalIDProperty        = "canonicalId"
	EquivalentIDProperty       = "equivalentId"
	AnchorOriginProperty       = "anchorOrigin"
	MethodProperty             = "method"
	CreatedProperty            = "created"
	UpdatedProperty            = "updated"
	RecoveryCommitmentProperty = "recoveryCommitment"
	UpdateCommitmentProperty   = "updateCommitment"

	PublishedOperationsProperty   = "publishedOperations"
	UnpublishedOperationsProperty = "unpublishedOperations"
)

// KeyPurpose identifies a verification relationship a public key participates in.
type KeyPurpose = string

// The fixed set of verification relationships a public key's "purposes" may name.
const (
	KeyPurposeAuthentication       KeyPurpose = "authentication"
	KeyPurposeAssertionMethod      KeyPurpose = "assertionMethod"
	KeyPurposeKeyAgreement         KeyPurpose = "keyAgreement"
	KeyPurposeCapabilityDelegation KeyPurpose = "capabilityDelegation"
	KeyPurposeCapabilityInvocation KeyPurpose = "capabilityInvocation"
)

// Document is the generic JSON object backing both the internal document state and its external
// projection. It is a Go map, so the order of its keys is not preserved; arrays inside it, such as
// publicKeys and services, keep their element order.
type Document map[string]interface{}

// JWK is the minimal view of a public key JWK a document cares about: its raw presence, not its
// cryptographic operations (that lives in the jws package).
type JWK map[string]interface{}

// Validate checks that the JWK carries the mandatory "kty" field.
func (j JWK) Validate() error {
	if j == nil {
		return nil
	}

	if _, ok := j[TypeKeyProperty]; !ok {
		return errMissingKty
	}

	return nil
}

// TypeKeyProperty is the JWK "kty" property name.
const TypeKeyProperty = "kty"

var errMissingKty = jwkValidationError("kty is required")

type jwkValidationError string

func (e jwkValidationError) Error() string { return string(e) }

// PublicKey is a single entry of the document's "publicKeys" array.
type PublicKey map[string]interface{}

// ID returns the key's "id" property.
func (p PublicKey) ID() string { return stringValue(p, IDProperty) }

// Type returns the key's "type" property.
func (p PublicKey) Type() string { return stringValue(p, TypeProperty) }

// Controller returns the key's "controller" property.
func (p PublicKey) Controller() string { return stringValue(p, ControllerProperty) }

// PublicKeyBase58 returns the key's legacy base58 encoding, if present.
func (p PublicKey) PublicKeyBase58() string { return stringValue(p, PublicKeyBase58Property) }

// Purpose returns the key's declared verification relationships.
func (p PublicKey) Purpose() []string {
	v, ok := p[PurposesProperty]
	if !ok {
		return nil
	}

	return StringArray(v)
}

// PublicKeyJwk returns the key's embedded JWK, if present.
func (p PublicKey) PublicKeyJwk() JWK {
	v, ok := p[PublicKeyJwkProperty]
	if !ok {
		return nil
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	return JWK(m)
}

// Service is a single entry of the document's "services" array.
type Service map[string]interface{}

// ID returns the service's "id" property.
func (s Service) ID() string { return stringValue(s, IDProperty) }

// Type returns the service's "type" property.
func (s Service) Type() string { return stringValue(s, TypeProperty) }

// ServiceEndpoint returns the service's endpoint value as decoded, which may be a string, an
// object, or an array.
func (s Service) ServiceEndpoint() interface{} { return s[ServiceEndpointProperty] }

// ParseServices parses a generic JSON value (as produced by decoding a patch's "services" array)
// into a slice of Service.
func ParseServices(raw interface{}) []Service {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	services := make([]Service, 0, len(arr))

	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		services = append(services, Service(m))
	}

	return services
}

// ParsePublicKeys parses a generic JSON value into a slice of PublicKey.
func ParsePublicKeys(raw interface{}) []PublicKey {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	keys := make([]PublicKey, 0, len(arr))

	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		keys = append(keys, PublicKey(m))
	}

	return keys
}

// StringArray converts a generic JSON array of strings into []string, skipping non-string
// elements rather than failing outright (mirrors how permissive document patches are elsewhere).
func StringArray(raw interface{}) []string {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(arr))

	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}

		out = append(out, s)
	}

	return out
}

func stringValue(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

// FromBytes parses a raw JSON document.
func FromBytes(data []byte) (Document, error) {
	doc := make(Document)

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Bytes serializes the document to JSON.
func (d Document) Bytes() ([]byte, error) {
	return json.Marshal(d)
}

// PublicKeys returns the document's "publicKeys" array, parsed.
func (d Document) PublicKeys() []PublicKey {
	return ParsePublicKeys(d[PublicKeyProperty])
}

// Services returns the document's "services" array, parsed.
func (d Document) Services() []Service {
	return ParseServices(d[ServiceProperty])
}

// Metadata is a generic property bag attached to a resolution result (document metadata, method
// metadata).
type Metadata map[string]interface{}

// ResolutionOption configures a single call to ResolveDocument.
type ResolutionOption func(*ResolutionOptions)

// ResolutionOptions bundles resolution-time knobs: operations not yet visible to the resolver's
// own stores, and a request to resolve as of a specific operation or point in time rather than
// the latest state.
type ResolutionOptions struct {
	AdditionalOperations []*operation.AnchoredOperation
	VersionID            string
	VersionTime          string
}

// WithAdditionalOperations supplies operations the resolver's own stores don't yet know about
// (e.g. operations submitted in the same request as the resolution), folded in alongside whatever
// the operation store returns.
func WithAdditionalOperations(ops []*operation.AnchoredOperation) ResolutionOption {
	return func(o *ResolutionOptions) {
		o.AdditionalOperations = ops
	}
}

// WithVersionID resolves the document as of the operation whose canonical reference is id,
// discarding every operation anchored after it and every unpublished operation.
func WithVersionID(id string) ResolutionOption {
	return func(o *ResolutionOptions) {
		o.VersionID = id
	}
}

// WithVersionTime resolves the document as of versionTime (RFC 3339), discarding every operation
// anchored (or, for unpublished operations, timestamped) after it.
func WithVersionTime(versionTime string) ResolutionOption {
	return func(o *ResolutionOptions) {
		o.VersionTime = versionTime
	}
}

// ResolutionResult is the external projection of a resolved DID: its document plus metadata.
type ResolutionResult struct {
	Context          interface{} `json:"@context,omitempty"`
	Document         Document    `json:"didDocument"`
	DocumentMetadata Metadata    `json:"didDocumentMetadata,omitempty"`
}
