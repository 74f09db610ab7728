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

// Package versioned implements MapxRawVs, the seven-table data model that
// layers branches and versions over a flat ordered byte-map. See spec §3-4.
package versioned

import (
	"encoding/binary"

	"github.com/erigontech/vsdb-go/encode"
	"github.com/erigontech/vsdb-go/kv"
	"github.com/erigontech/vsdb-go/mapxraw"
	"github.com/erigontech/vsdb-go/metrics"
)

// Fixed root-table identifiers. Unlike the prefixes mapxraw.New hands out
// for nested sub-maps, these nine never change across restarts of a given
// store: they are the well-known tables the whole versioned map is built
// from, not per-instance allocations. All are inside kv.RESERVED_ID_CNT.
const (
	tblBranchNameToBranchID   = 1 // branch_name -> branch_id
	tblBranchIDToBranchName   = 2 // branch_id   -> branch_name
	tblVersionNameToVersionID = 3 // version_name -> version_id
	tblVersionIDToVersionName = 4 // version_id   -> version_name
	tblBranchToItsVersions    = 5 // branch_id -> nested{version_id -> ()}, a branch's visibility set
	tblVersionToChangeSet     = 6 // version_id -> nested{key -> ()}, the keys a version touched
	tblLayeredKV              = 7 // key -> nested{version_id -> value_or_tombstone}
	tblStoreMeta              = 8 // small fixed-key registry: "default_branch" -> branch_id
	tblColdArchive            = 9 // version_id -> zstd-compressed length-prefixed list of its change-set's keys (encodeKeyList; ambient, §4.K)
)

var metaKeyDefaultBranch = []byte("default_branch")

func fixedPrefix(id uint64) []byte {
	buf := make([]byte, kv.PrefixSize)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeID(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// MapxRawVs is the versioned raw map: a Git-like branch/version graph over
// opaque byte keys and values, backed by a kv.Backend.
type MapxRawVs struct {
	be    kv.Backend
	ids   *kv.IDAllocator
	alloc *kv.PrefixAllocator
	met   *metrics.Collector

	branchNameToBranchID   *mapxraw.MapxRaw // table 1
	branchIDToBranchName   *mapxraw.MapxRaw // table 2
	versionNameToVersionID *mapxraw.MapxRaw // table 3
	versionIDToVersionName *mapxraw.MapxRaw // table 4
	branchToItsVersions    *mapxraw.MapxRaw // table 5
	versionToChangeSet     *mapxraw.MapxRaw // table 6
	layeredKV              *mapxraw.MapxRaw // table 7
	storeMeta              *mapxraw.MapxRaw // table 8 (ambient: default branch pointer)
	coldArchive            *mapxraw.MapxRaw // table 9 (ambient: compressed cold change-sets, §4.K)
}

// Open binds a MapxRawVs to be, bootstrapping the initial branch the first
// time a store is opened (table 2 empty) and reusing the fixed root tables
// thereafter.
func Open(be kv.Backend) (*MapxRawVs, error) {
	vs := &MapxRawVs{
		be:                     be,
		ids:                    kv.NewIDAllocator(be),
		alloc:                  kv.NewPrefixAllocator(be),
		branchNameToBranchID:   mapxraw.Open(be, fixedPrefix(tblBranchNameToBranchID)),
		branchIDToBranchName:   mapxraw.Open(be, fixedPrefix(tblBranchIDToBranchName)),
		versionNameToVersionID: mapxraw.Open(be, fixedPrefix(tblVersionNameToVersionID)),
		versionIDToVersionName: mapxraw.Open(be, fixedPrefix(tblVersionIDToVersionName)),
		branchToItsVersions:    mapxraw.Open(be, fixedPrefix(tblBranchToItsVersions)),
		versionToChangeSet:     mapxraw.Open(be, fixedPrefix(tblVersionToChangeSet)),
		layeredKV:              mapxraw.Open(be, fixedPrefix(tblLayeredKV)),
		storeMeta:              mapxraw.Open(be, fixedPrefix(tblStoreMeta)),
		coldArchive:            mapxraw.Open(be, fixedPrefix(tblColdArchive)),
	}

	empty, err := vs.branchIDToBranchName.IsEmpty()
	if err != nil {
		return nil, err
	}
	if empty {
		if err := vs.bootstrapInitialBranch(); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// WithMetrics attaches a Prometheus collector that subsequent read/write/
// prune/merge calls report their latency to. Passing nil detaches it.
func (vs *MapxRawVs) WithMetrics(m *metrics.Collector) *MapxRawVs {
	vs.met = m
	return vs
}

func (vs *MapxRawVs) bootstrapInitialBranch() error {
	if err := vs.ids.ReserveInitialBranch(); err != nil {
		return err
	}
	branchID := kv.InitialBranchID
	if _, err := vs.branchNameToBranchID.Insert([]byte(InitialBranchName), encodeID(branchID)); err != nil {
		return err
	}
	if _, err := vs.branchIDToBranchName.Insert(encodeID(branchID), []byte(InitialBranchName)); err != nil {
		return err
	}
	visibility, err := mapxraw.New(vs.be, vs.alloc)
	if err != nil {
		return err
	}
	if err := vs.putNestedHandle(vs.branchToItsVersions, encodeID(branchID), visibility); err != nil {
		return err
	}
	return vs.setDefaultBranch(branchID)
}

// putNestedHandle stores child's NestedHandle as parent[key]'s value.
func (vs *MapxRawVs) putNestedHandle(parent *mapxraw.MapxRaw, key []byte, child *mapxraw.MapxRaw) error {
	h, err := child.Handle()
	if err != nil {
		return err
	}
	buf, err := encode.Marshal(h)
	if err != nil {
		return err
	}
	_, err = parent.Insert(key, buf)
	return err
}

// getNested resolves parent[key]'s NestedHandle into a live child handle, or
// returns (nil, false, nil) if the key is absent.
func (vs *MapxRawVs) getNested(parent *mapxraw.MapxRaw, key []byte) (*mapxraw.MapxRaw, bool, error) {
	raw, err := parent.Get(key)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	h, err := encode.Unmarshal(raw)
	if err != nil {
		return nil, false, err
	}
	return mapxraw.OpenFromHandle(vs.be, h), true, nil
}

// getOrCreateNested is like getNested but allocates a fresh child map (and
// records its handle in parent) when key is absent.
func (vs *MapxRawVs) getOrCreateNested(parent *mapxraw.MapxRaw, key []byte) (*mapxraw.MapxRaw, error) {
	child, ok, err := vs.getNested(parent, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return child, nil
	}
	child, err = mapxraw.New(vs.be, vs.alloc)
	if err != nil {
		return nil, err
	}
	if err := vs.putNestedHandle(parent, key, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (vs *MapxRawVs) setDefaultBranch(id uint64) error {
	_, err := vs.storeMeta.Insert(metaKeyDefaultBranch, encodeID(id))
	return err
}

// DefaultBranch returns the branch_id implicitly targeted by name-free
// operations.
func (vs *MapxRawVs) DefaultBranch() (uint64, error) {
	v, err := vs.storeMeta.Get(metaKeyDefaultBranch)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return kv.InitialBranchID, nil
	}
	return decodeID(v), nil
}

// SetDefaultBranch changes the branch implicitly targeted by name-free
// operations. Returns ErrBranchNotFound if id does not exist.
func (vs *MapxRawVs) SetDefaultBranch(id uint64) error {
	name, err := vs.branchIDToBranchName.Get(encodeID(id))
	if err != nil {
		return err
	}
	if name == nil {
		return ErrBranchNotFound
	}
	return vs.setDefaultBranch(id)
}
