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

import (
	"github.com/erigontech/vsdb-go/dbutil"
	"github.com/erigontech/vsdb-go/kv"
	"github.com/erigontech/vsdb-go/mapxraw"
)

// Checksum is Component G: an opaque signature over every visible
// (key,value) pair on the default branch's head. Two heads with the same
// visible content checksum identically, regardless of the version history
// that produced them.
func (vs *MapxRawVs) Checksum() ([]byte, error) {
	b, err := vs.DefaultBranch()
	if err != nil {
		return nil, err
	}
	return vs.ChecksumByBranch(b)
}

// ChecksumByBranch checksums branchID's head.
func (vs *MapxRawVs) ChecksumByBranch(branchID uint64) ([]byte, error) {
	v, ok, err := vs.headVersion(branchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCurrentVersion
	}
	return vs.ChecksumByBranchVersion(branchID, v)
}

// ChecksumByBranchVersion checksums (branchID, versionID) directly.
func (vs *MapxRawVs) ChecksumByBranchVersion(branchID, versionID uint64) ([]byte, error) {
	it, err := vs.RangeByBranchVersion(branchID, versionID, mapxraw.Forward, kv.Bounds{})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	h, err := dbutil.NewChecksum()
	if err != nil {
		return nil, err
	}
	for it.Next() {
		h.Write(it.Key(), it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return h.Sum(), nil
}
