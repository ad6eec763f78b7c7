/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package common bundles one protocol version's parser/applier/validator behind the
// protocol.Version interface, and a genesis-time-ordered registry of versions that answers
// protocol.Client.
package common

import (
	"fmt"
	"sort"

	"github.com/trustbloc/sidetree-node/api/protocol"
)

// ProtocolVersion is a protocol.Version assembled from independently-constructed components.
type ProtocolVersion struct {
	VersionStr string
	P          protocol.Protocol

	OpParser     protocol.OperationParser
	OpApplier    protocol.OperationApplier
	DocValidator protocol.DocumentValidator
}

// Version returns the version's label (e.g. "1.0").
func (v *ProtocolVersion) Version() string { return v.VersionStr }

// Protocol returns the version's parameter set.
func (v *ProtocolVersion) Protocol() protocol.Protocol { return v.P }

// OperationParser returns the version's operation parser.
func (v *ProtocolVersion) OperationParser() protocol.OperationParser { return v.OpParser }

// OperationApplier returns the version's operation applier.
func (v *ProtocolVersion) OperationApplier() protocol.OperationApplier { return v.OpApplier }

// DocumentValidator returns the version's document validator.
func (v *ProtocolVersion) DocumentValidator() protocol.DocumentValidator { return v.DocValidator }

// Registry is a protocol.Client backed by an explicit, genesis-time-ordered list of versions: the
// version effective at a given transaction time is the newest one whose GenesisTime does not
// exceed it, matching how a live deployment rolls out protocol parameter changes at a known block
// height rather than a wall-clock time.
type Registry struct {
	versions []protocol.Version
}

// NewRegistry builds a Registry from versions, sorted by genesis time ascending. Two versions
// sharing a genesis time is a configuration error.
func NewRegistry(versions ...protocol.Version) (*Registry, error) {
	sorted := make([]protocol.Version, len(versions))
	copy(sorted, versions)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Protocol().GenesisTime < sorted[j].Protocol().GenesisTime
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Protocol().GenesisTime == sorted[i-1].Protocol().GenesisTime {
			return nil, fmt.Errorf("duplicate genesis time %d for protocol versions %q and %q",
				sorted[i].Protocol().GenesisTime, sorted[i-1].Version(), sorted[i].Version())
		}
	}

	return &Registry{versions: sorted}, nil
}

// Current returns the version with the highest genesis time.
func (r *Registry) Current() (protocol.Version, error) {
	if len(r.versions) == 0 {
		return nil, fmt.Errorf("protocol parameters are not defined")
	}

	return r.versions[len(r.versions)-1], nil
}

// Get returns the newest version whose genesis time does not exceed transactionTime.
func (r *Registry) Get(transactionTime uint64) (protocol.Version, error) {
	var selected protocol.Version

	for _, v := range r.versions {
		if v.Protocol().GenesisTime > transactionTime {
			break
		}

		selected = v
	}

	if selected == nil {
		return nil, fmt.Errorf("protocol parameters are not defined for anchoring time %d", transactionTime)
	}

	return selected, nil
}
