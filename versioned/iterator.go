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
	kvpkg "github.com/erigontech/vsdb-go/kv"
	"github.com/erigontech/vsdb-go/mapxraw"
)

// RangeIterator walks table 7's keys within a bound and resolves each one
// against a fixed (branchID, versionID), skipping keys that are absent or
// tombstoned there. Standard Go iterator style: call Next before the first
// Key/Value access.
type RangeIterator struct {
	vs                  *MapxRawVs
	branchID, versionID uint64
	cur                 *mapxraw.Iterator
	key, val            []byte
	err                 error
}

// RangeByBranchVersion is Component F: an ordered scan of every key visible
// on (branchID, versionID) within bounds. A NULL branchID or versionID
// short-circuits to an empty iterator, mirroring GetByBranchVersion.
func (vs *MapxRawVs) RangeByBranchVersion(branchID, versionID uint64, dir mapxraw.Direction, bounds kvpkg.Bounds) (*RangeIterator, error) {
	r := &RangeIterator{vs: vs, branchID: branchID, versionID: versionID}
	if branchID == NULL || versionID == NULL {
		return r, nil
	}
	cur, err := vs.layeredKV.Range(dir, bounds)
	if err != nil {
		return nil, err
	}
	r.cur = cur
	return r, nil
}

// Next advances to the next visible key, skipping over tombstoned or
// out-of-view entries. Returns false at end-of-range or on error (check
// Err to distinguish).
func (r *RangeIterator) Next() bool {
	if r.cur == nil || r.err != nil {
		return false
	}
	for r.cur.Next() {
		key := append([]byte{}, r.cur.Key()...)
		val, err := r.vs.GetByBranchVersion(key, r.branchID, r.versionID)
		if err != nil {
			r.err = err
			return false
		}
		if val == nil {
			continue
		}
		r.key, r.val = key, val
		return true
	}
	r.err = r.cur.Err()
	return false
}

// Key returns the current entry's key.
func (r *RangeIterator) Key() []byte { return r.key }

// Value returns the current entry's value.
func (r *RangeIterator) Value() []byte { return r.val }

// Err returns the first error encountered, if any.
func (r *RangeIterator) Err() error { return r.err }

// Close releases the underlying cursor. Safe to call on a short-circuited
// (NULL branch or version) iterator.
func (r *RangeIterator) Close() {
	if r.cur != nil {
		r.cur.Close()
	}
}
