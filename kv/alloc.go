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

package kv

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
)

// PrefixAllocator hands out fresh, monotonically increasing fixed-width
// instance prefixes so each logical map can be namespaced inside the shared
// backend. Never reclaims a prefix.
type PrefixAllocator struct {
	mu sync.Mutex
	be Backend
}

// NewPrefixAllocator binds an allocator to a backend, seeding the meta cell
// with RESERVED_ID_CNT+1 on first use.
func NewPrefixAllocator(be Backend) *PrefixAllocator {
	return &PrefixAllocator{be: be}
}

// Next returns the next free instance prefix, advancing the counter.
func (a *PrefixAllocator) Next() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := readCounter(a.be, MetaNextPrefix, RESERVED_ID_CNT+1)
	if err != nil {
		return nil, errors.Wrap(err, "kv: allocate prefix")
	}
	buf := make([]byte, PrefixSize)
	binary.BigEndian.PutUint64(buf, next)
	if err := writeCounter(a.be, MetaNextPrefix, next+1); err != nil {
		return nil, errors.Wrap(err, "kv: persist next prefix")
	}
	return buf, nil
}

// IDKind selects which monotonic ID counter an IDAllocator manages.
type IDKind byte

const (
	BranchID IDKind = iota
	VersionID
)

// IDAllocator is the monotonic, mutex-guarded allocator for branch_id and
// version_id. The first RESERVED_ID_CNT ids are reserved; branch_id 1 is
// reserved for the initial branch. NULL (all zeros) means "none".
type IDAllocator struct {
	mu sync.Mutex
	be Backend
}

// NULL is the sentinel ID meaning "no branch"/"no version".
const NULL uint64 = 0

// InitialBranchID is the reserved, stable ID of the initial branch.
const InitialBranchID uint64 = 1

func NewIDAllocator(be Backend) *IDAllocator {
	return &IDAllocator{be: be}
}

// Next allocates the next ID of the given kind.
func (a *IDAllocator) Next(kind IDKind) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	metaKey := MetaNextBranch
	seed := RESERVED_ID_CNT + 1
	if kind == VersionID {
		metaKey = MetaNextVersion
	} else {
		// branch_id 1 (InitialBranchID) is allocated at store-init time by
		// the versioned map, not through this allocator; regular branch_id
		// allocation starts past the reserved range same as everything else.
		seed = RESERVED_ID_CNT + 1
	}

	next, err := readCounter(a.be, metaKey, seed)
	if err != nil {
		return 0, errors.Wrap(err, "kv: allocate id")
	}
	if err := writeCounter(a.be, metaKey, next+1); err != nil {
		return 0, errors.Wrap(err, "kv: persist next id")
	}
	return next, nil
}

// ReserveInitialBranch ensures the next branch_id counter is at least InitialBranchID+1,
// called once when a fresh store bootstraps its initial branch.
func (a *IDAllocator) ReserveInitialBranch() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur, err := readCounter(a.be, MetaNextBranch, RESERVED_ID_CNT+1)
	if err != nil {
		return err
	}
	if cur <= InitialBranchID {
		return writeCounter(a.be, MetaNextBranch, InitialBranchID+1)
	}
	return nil
}

func readCounter(be Backend, key byte, seed uint64) (uint64, error) {
	raw, err := be.GetMeta(key)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return seed, nil
	}
	if len(raw) != 8 {
		return 0, errors.Errorf("kv: corrupt meta counter %#x: want 8 bytes, got %d", key, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func writeCounter(be Backend, key byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return be.PutMeta(key, buf)
}

// UpdateMaxKeyLen records the widest raw key ever observed in the store, so
// reverse iteration can synthesize a safe `prefix || 0xFF*L` sentinel.
func UpdateMaxKeyLen(be Backend, length int) error {
	cur, err := be.GetMeta(MetaMaxKeyLen)
	if err != nil {
		return err
	}
	curLen := uint64(0)
	if len(cur) == 8 {
		curLen = binary.BigEndian.Uint64(cur)
	}
	if uint64(length) <= curLen {
		return nil
	}
	return writeCounter(be, MetaMaxKeyLen, uint64(length))
}

// MaxKeyLen returns the widest raw key ever observed, defaulting to 0.
func MaxKeyLen(be Backend) (int, error) {
	cur, err := be.GetMeta(MetaMaxKeyLen)
	if err != nil {
		return 0, err
	}
	if len(cur) != 8 {
		return 0, nil
	}
	return int(binary.BigEndian.Uint64(cur)), nil
}

// ReverseSentinel builds the safe upper-bound sentinel prefix||0xFF*L used by
// reverse iteration, where L is at least the largest observed key length.
func ReverseSentinel(prefix []byte, maxKeyLen int) []byte {
	if maxKeyLen < 1 {
		maxKeyLen = 1
	}
	out := make([]byte, len(prefix)+maxKeyLen)
	copy(out, prefix)
	for i := len(prefix); i < len(out); i++ {
		out[i] = 0xFF
	}
	return out
}
