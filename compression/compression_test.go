/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package compression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		content := []byte(`{"hello":"world"}`)

		compressed, err := Compress(Gzip, content)
		require.NoError(t, err)

		decompressed, err := Decompress(Gzip, compressed, 1024)
		require.NoError(t, err)
		require.Equal(t, content, decompressed)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := Compress("BROTLI", []byte("x"))
		require.Error(t, err)

		_, err = Decompress("BROTLI", []byte("x"), 1024)
		require.Error(t, err)
	})

	t.Run("exceeds max size", func(t *testing.T) {
		content := make([]byte, 1000)

		compressed, err := Compress(Gzip, content)
		require.NoError(t, err)

		_, err = Decompress(Gzip, compressed, 10)
		require.Error(t, err)
		require.Contains(t, err.Error(), "exceeded maximum size")
	})

	t.Run("invalid gzip data", func(t *testing.T) {
		_, err := Decompress(Gzip, []byte("not gzip"), 1024)
		require.Error(t, err)
	})
}
