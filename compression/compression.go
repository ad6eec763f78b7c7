/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package compression gzip-compresses and decompresses the ledger-anchored file payloads (Core
// Index File, Provisional Index File, Core Proof File, Provisional Proof File, Chunk File). Every
// file on the wire is gzip of canonical JSON; decompression is always bounded so a malicious or
// corrupt file cannot exhaust memory before its declared size is even checked.
package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip identifies the gzip compression algorithm by name, as carried in
// protocol.Protocol.CompressionAlgorithm.
const Gzip = "GZIP"

// Compress gzips content.
func Compress(alg string, content []byte) ([]byte, error) {
	if alg != Gzip {
		return nil, fmt.Errorf("compression algorithm '%s' not supported", alg)
	}

	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)

	if _, err := w.Write(content); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decompresses content, refusing to read past maxSize decompressed bytes. A file that
// decompresses past the bound is rejected outright rather than truncated, since a truncated file
// would otherwise parse as a different, smaller, well-formed one.
func Decompress(alg string, content []byte, maxSize uint) ([]byte, error) {
	if alg != Gzip {
		return nil, fmt.Errorf("compression algorithm '%s' not supported", alg)
	}

	r, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip reader: %s", err.Error())
	}

	defer r.Close() //nolint:errcheck

	limited := io.LimitReader(r, int64(maxSize)+1)

	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %s", err.Error())
	}

	if uint(len(out)) > maxSize {
		return nil, fmt.Errorf("exceeded maximum size %d", maxSize)
	}

	return out, nil
}
