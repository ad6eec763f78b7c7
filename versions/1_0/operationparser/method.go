/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/trustbloc/sidetree-node/api/operation"
	"github.com/trustbloc/sidetree-node/canonicalizer"
	"github.com/trustbloc/sidetree-node/encoder"
	"github.com/trustbloc/sidetree-node/versions/1_0/model"
)

const longFormSeparator = ":"

// ParseDID inspects a resolution request and returns:
//   - did and the reconstructed create request, for long-form resolution
//   - just the did, for short-form resolution (the common case)
func (p *Parser) ParseDID(namespace, shortOrLongFormDID string) (string, []byte, error) {
	withoutNamespace := strings.ReplaceAll(shortOrLongFormDID, namespace+didSeparator, "")
	posLongFormSeparator := strings.Index(withoutNamespace, longFormSeparator)

	if posLongFormSeparator == -1 {
		return shortOrLongFormDID, nil, nil
	}

	// long form: '<namespace>:<unique-suffix>:Base64url(JCS({suffixData, delta}))'
	endOfDIDPos := strings.LastIndex(shortOrLongFormDID, longFormSeparator)

	did := shortOrLongFormDID[0:endOfDIDPos]
	longFormDID := shortOrLongFormDID[endOfDIDPos+1:]

	createRequest, err := parseInitialState(longFormDID)
	if err != nil {
		return "", nil, err
	}

	createRequestBytes, err := canonicalizer.MarshalCanonical(createRequest)
	if err != nil {
		return "", nil, err
	}

	return did, createRequestBytes, nil
}

// parseInitialState decodes the encoded initial state into a create request, and round-trips it
// back through the same canonical encoding as an anti-tamper check: if re-encoding it does not
// reproduce the same string the caller supplied, the initial state was not itself canonical JCS
// and is rejected rather than silently accepted.
func parseInitialState(initialState string) (*model.CreateRequest, error) {
	decodedJCS, err := encoder.DecodeString(initialState)
	if err != nil {
		return nil, err
	}

	var createRequest model.CreateRequest

	if err := json.Unmarshal(decodedJCS, &createRequest); err != nil {
		return nil, err
	}

	expected, err := canonicalizer.MarshalCanonical(createRequest)
	if err != nil {
		return nil, err
	}

	if encoder.EncodeToString(expected) != initialState {
		return nil, errors.New("initial state is not valid")
	}

	createRequest.Operation = operation.TypeCreate

	return &createRequest, nil
}
