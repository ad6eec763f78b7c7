/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/api/protocol"
	"github.com/trustbloc/sidetree-node/mocks"
	"github.com/trustbloc/sidetree-node/protocolversion/versions/common"
)

func TestProtocolVersion(t *testing.T) {
	mockVersion := mocks.GetProtocolVersion(protocol.Protocol{GenesisTime: 1000})

	p := &common.ProtocolVersion{
		VersionStr:   "1.1",
		P:            protocol.Protocol{GenesisTime: 1000},
		OpParser:     mockVersion.OperationParser(),
		OpApplier:    mockVersion.OperationApplier(),
		DocValidator: mockVersion.DocumentValidator(),
	}

	require.Equal(t, p.VersionStr, p.Version())
	require.Equal(t, p.P, p.Protocol())
	require.Equal(t, p.OpParser, p.OperationParser())
	require.Equal(t, p.OpApplier, p.OperationApplier())
	require.Equal(t, p.DocValidator, p.DocumentValidator())
}

func TestRegistry(t *testing.T) {
	v1 := &common.ProtocolVersion{VersionStr: "1.0", P: protocol.Protocol{GenesisTime: 0}}
	v2 := &common.ProtocolVersion{VersionStr: "1.1", P: protocol.Protocol{GenesisTime: 100}}
	v3 := &common.ProtocolVersion{VersionStr: "1.2", P: protocol.Protocol{GenesisTime: 200}}

	t.Run("current is the newest version", func(t *testing.T) {
		r, err := common.NewRegistry(v2, v1, v3)
		require.NoError(t, err)

		current, err := r.Current()
		require.NoError(t, err)
		require.Equal(t, "1.2", current.Version())
	})

	t.Run("get selects the newest version not exceeding the transaction time", func(t *testing.T) {
		r, err := common.NewRegistry(v1, v2, v3)
		require.NoError(t, err)

		v, err := r.Get(50)
		require.NoError(t, err)
		require.Equal(t, "1.0", v.Version())

		v, err = r.Get(100)
		require.NoError(t, err)
		require.Equal(t, "1.1", v.Version())

		v, err = r.Get(1000)
		require.NoError(t, err)
		require.Equal(t, "1.2", v.Version())
	})

	t.Run("get before the earliest genesis time fails", func(t *testing.T) {
		r, err := common.NewRegistry(v2, v3)
		require.NoError(t, err)

		_, err = r.Get(50)
		require.Error(t, err)
		require.Contains(t, err.Error(), "protocol parameters are not defined for anchoring time")
	})

	t.Run("empty registry has no current version", func(t *testing.T) {
		r, err := common.NewRegistry()
		require.NoError(t, err)

		_, err = r.Current()
		require.Error(t, err)
	})

	t.Run("duplicate genesis time rejected", func(t *testing.T) {
		dup := &common.ProtocolVersion{VersionStr: "1.1-dup", P: protocol.Protocol{GenesisTime: 100}}

		_, err := common.NewRegistry(v1, v2, dup)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate genesis time")
	})
}
