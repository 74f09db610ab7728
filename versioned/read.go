// Copyright 2024 The vsdb-go Authors
// This file is part of vsdb-go.
//
// vsdb-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vsdb-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with vsdb-go. If not, see <http://www.gnu.org/licenses/>.

package versioned

import "time"

import "github.com/erigontech/vsdb-go/mapxraw"
import kvpkg "github.com/erigontech/vsdb-go/kv"

// Get reads key from the head of the default branch.
func (vs *MapxRawVs) Get(key []byte) ([]byte, error) {
	b, err := vs.DefaultBranch()
	if err != nil {
		return nil, err
	}
	return vs.GetByBranch(key, b)
}

// GetByBranch reads key from the head of branchID. An unknown branch reads
// as absent (nil), like GetByBranchVersion.
func (vs *MapxRawVs) GetByBranch(key []byte, branchID uint64) ([]byte, error) {
	v, ok, err := vs.headVersion(branchID)
	if err != nil {
		if err == ErrBranchNotFound {
			return nil, nil
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return vs.GetByBranchVersion(key, branchID, v)
}

// GetByBranchVersion is the core read path (spec §4.E.3): the value of key
// as observed on (branchID, versionID), or nil if absent or tombstoned.
func (vs *MapxRawVs) GetByBranchVersion(key []byte, branchID, versionID uint64) ([]byte, error) {
	start := time.Now()
	defer func() { vs.met.ObserveGet(time.Since(start).Seconds()) }()

	if branchID == NULL || versionID == NULL {
		return nil, nil
	}

	V, err := vs.visibilitySet(branchID)
	if err != nil {
		if err == ErrBranchNotFound {
			return nil, nil
		}
		return nil, err
	}

	versions, ok, err := vs.keyVersions(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	it, err := versions.Range(mapxraw.Backward, kvpkg.Bounds{Upper: encodeID(versionID), UpperInclusive: true})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for it.Next() {
		candidate := decodeID(it.Key())
		visible, err := V.ContainsKey(encodeID(candidate))
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		val := it.Value()
		if len(val) == 0 {
			return nil, nil // tombstone
		}
		return append([]byte{}, val...), nil
	}
	return nil, it.Err()
}
