/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCoreIndexFile(t *testing.T) {
	ops := getTestOperations(2, 2, 2, 1)

	file := CreateCoreIndexFile("lock", "coreProofUri", "provisionalIndexUri", ops)
	require.NotNil(t, file.Operations)
	require.Equal(t, 2, len(file.Operations.Create))
	require.Equal(t, 1, len(file.Operations.Recover))
	require.Equal(t, 2, len(file.Operations.Deactivate))
	require.Equal(t, "lock", file.WriterLockID)
}

func TestParseCoreIndexFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ops := getTestOperations(2, 0, 1, 1)
		file := CreateCoreIndexFile("", "proof", "provisional", ops)

		bytes, err := json.Marshal(file)
		require.NoError(t, err)

		parsed, err := ParseCoreIndexFile(bytes)
		require.NoError(t, err)
		require.Equal(t, 2, len(parsed.Operations.Create))
	})

	t.Run("duplicate did suffix", func(t *testing.T) {
		file := &CoreIndexFile{
			Operations: &CoreOperations{
				Recover:    []RecoverReference{{DidSuffix: "abc"}},
				Deactivate: []RecoverReference{{DidSuffix: "abc"}},
			},
		}

		bytes, err := json.Marshal(file)
		require.NoError(t, err)

		_, err = ParseCoreIndexFile(bytes)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate did suffix")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseCoreIndexFile([]byte("not json"))
		require.Error(t, err)
	})
}
