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

import "github.com/erigontech/vsdb-go/mapxraw"

// BranchID resolves a branch name to its internal id.
func (vs *MapxRawVs) BranchID(name string) (uint64, error) {
	v, err := vs.branchNameToBranchID.Get([]byte(name))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, ErrBranchNotFound
	}
	return decodeID(v), nil
}

// BranchName resolves a branch id to its name.
func (vs *MapxRawVs) BranchName(id uint64) (string, error) {
	v, err := vs.branchIDToBranchName.Get(encodeID(id))
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", ErrBranchNotFound
	}
	return string(v), nil
}

// VersionID resolves a version name to its internal id. Version names are
// globally unique across the whole store.
func (vs *MapxRawVs) VersionID(name string) (uint64, error) {
	v, err := vs.versionNameToVersionID.Get([]byte(name))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, ErrVersionNotFound
	}
	return decodeID(v), nil
}

// VersionName resolves a version id to its name.
func (vs *MapxRawVs) VersionName(id uint64) (string, error) {
	v, err := vs.versionIDToVersionName.Get(encodeID(id))
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", ErrVersionNotFound
	}
	return string(v), nil
}

// visibilitySet returns the live handle for a branch's visibility set
// (table 5's nested map), or ErrBranchNotFound.
func (vs *MapxRawVs) visibilitySet(branchID uint64) (*mapxraw.MapxRaw, error) {
	child, ok, err := vs.getNested(vs.branchToItsVersions, encodeID(branchID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBranchNotFound
	}
	return child, nil
}

// changeSet returns the live handle for a version's change-set (table 6's
// nested map), or ErrVersionNotFound.
func (vs *MapxRawVs) changeSet(versionID uint64) (*mapxraw.MapxRaw, error) {
	child, ok, err := vs.getNested(vs.versionToChangeSet, encodeID(versionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVersionNotFound
	}
	return child, nil
}

// keyVersions returns table 7's nested version->value map for key, if any.
func (vs *MapxRawVs) keyVersions(key []byte) (*mapxraw.MapxRaw, bool, error) {
	return vs.getNested(vs.layeredKV, key)
}

// headVersion returns the greatest version_id in a branch's visibility set.
func (vs *MapxRawVs) headVersion(branchID uint64) (uint64, bool, error) {
	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return 0, false, err
	}
	it, err := V.IterBackward()
	if err != nil {
		return 0, false, err
	}
	defer it.Close()
	if !it.Next() {
		if err := it.Err(); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	return decodeID(it.Key()), true, nil
}

// allKeys snapshots every key currently in m, so a caller can safely mutate
// m (or a sibling table keyed the same way) while processing them.
func allKeys(m *mapxraw.MapxRaw) ([][]byte, error) {
	it, err := m.IterForward()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out [][]byte
	for it.Next() {
		out = append(out, append([]byte{}, it.Key()...))
	}
	return out, it.Err()
}

// visibilityIDs snapshots a branch's visibility set as an ordered slice,
// ascending by version_id. Used by operations (rebase, merge, prune) that
// must not mutate table 5 while iterating it.
func visibilityIDs(V *mapxraw.MapxRaw) ([]uint64, error) {
	it, err := V.IterForward()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []uint64
	for it.Next() {
		out = append(out, decodeID(it.Key()))
	}
	return out, it.Err()
}
