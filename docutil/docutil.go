/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package docutil holds the small conventions shared by every DID method surface: how a
// namespace and a unique suffix combine into a DID.
package docutil

// NamespaceDelimiter separates a DID's namespace from its unique suffix.
const NamespaceDelimiter = ":"

// GetDID builds a short-form DID from a namespace and a unique suffix.
func GetDID(namespace, uniqueSuffix string) string {
	return namespace + NamespaceDelimiter + uniqueSuffix
}
