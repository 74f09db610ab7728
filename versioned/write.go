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

// Insert writes key=value at the head version of the default branch.
func (vs *MapxRawVs) Insert(key, value []byte) ([]byte, error) {
	b, err := vs.DefaultBranch()
	if err != nil {
		return nil, err
	}
	return vs.InsertByBranch(key, value, b)
}

// InsertByBranch writes key=value at the head version of branchID.
// Returns ErrNoCurrentVersion if no version has been created on the branch.
func (vs *MapxRawVs) InsertByBranch(key, value []byte, branchID uint64) ([]byte, error) {
	v, ok, err := vs.headVersion(branchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCurrentVersion
	}
	return vs.writeByBranchVersion(key, value, false, branchID, v)
}

// Remove deletes key at the head version of the default branch.
func (vs *MapxRawVs) Remove(key []byte) ([]byte, error) {
	b, err := vs.DefaultBranch()
	if err != nil {
		return nil, err
	}
	return vs.RemoveByBranch(key, b)
}

// RemoveByBranch deletes key at the head version of branchID.
func (vs *MapxRawVs) RemoveByBranch(key []byte, branchID uint64) ([]byte, error) {
	v, ok, err := vs.headVersion(branchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCurrentVersion
	}
	return vs.writeByBranchVersion(key, nil, true, branchID, v)
}

// writeByBranchVersion is the write path of spec §4.E.1. Preconditions
// (enforced by callers above): branchID exists and versionID is the
// greatest version on its visibility set.
func (vs *MapxRawVs) writeByBranchVersion(key, value []byte, isDelete bool, branchID, versionID uint64) ([]byte, error) {
	start := time.Now()
	defer func() { vs.met.ObserveWrite(time.Since(start).Seconds()) }()

	old, err := vs.GetByBranchVersion(key, branchID, versionID)
	if err != nil {
		return nil, err
	}
	if isDelete && old == nil {
		return nil, nil
	}

	cs, err := vs.changeSet(versionID)
	if err != nil {
		return nil, err
	}
	if _, err := cs.Insert(key, []byte{}); err != nil {
		return nil, err
	}

	versions, err := vs.getOrCreateNested(vs.layeredKV, key)
	if err != nil {
		return nil, err
	}
	stored := value
	if isDelete || stored == nil {
		stored = []byte{} // empty byte string encodes a tombstone
	}
	if _, err := versions.Insert(encodeID(versionID), stored); err != nil {
		return nil, err
	}
	return old, nil
}
