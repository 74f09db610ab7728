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

// Package kv defines the pluggable ordered byte-map backend contract that the
// versioned map subsystem is built on, plus the small amount of shared
// bookkeeping (prefix/ID allocation, meta cells) every concrete backend needs.
package kv

import "github.com/pkg/errors"

// AreaCount is the fixed number of disjoint keyspaces a Backend partitions
// its data into. Every instance prefix lands in exactly one area.
const AreaCount = 8

// PrefixSize is the width, in bytes, of an instance prefix.
const PrefixSize = 8

// RESERVED_ID_CNT reserves the first N prefixes/branch-ids/version-ids for
// the engine's own bookkeeping (the initial branch uses branch_id 1).
const RESERVED_ID_CNT uint64 = 256

// Reserved meta keys, per spec §6.1.
const (
	MetaNextPrefix  byte = 0x00
	MetaNextVersion byte = 0xFD
	MetaNextBranch  byte = 0xFE
	MetaMaxKeyLen   byte = 0xFF
)

// ErrNotFound names the missing-key condition. The backends in this module
// do not return it from Get or Delete: both report a missing key as a nil
// value with a nil error.
var ErrNotFound = errors.New("kv: key not found")

// AreaFor maps an instance prefix to the area that stores it. All keys
// sharing one logical map therefore live in a single area; cross-area
// iteration is never required.
func AreaFor(prefix []byte) uint8 {
	if len(prefix) == 0 {
		return 0
	}
	return prefix[0] % AreaCount
}

// Bounds restricts a Range scan to a half-open suffix interval. A nil Lower
// means "from the start of the prefix"; a nil Upper means "to the end of the
// prefix". Exclusivity is honored by the backend the way spec §4.A describes:
// an exclusive lower bound is emulated by appending a zero byte to Lower, an
// exclusive upper bound by treating Upper as already-exclusive (default),
// and an inclusive upper bound by appending a zero byte to Upper.
type Bounds struct {
	Lower          []byte
	Upper          []byte
	LowerExclusive bool
	UpperInclusive bool
}

// EffectiveLower returns the lower bound adjusted for exclusivity.
func (b Bounds) EffectiveLower() []byte {
	if b.Lower == nil {
		return nil
	}
	if b.LowerExclusive {
		return append(append([]byte{}, b.Lower...), 0x00)
	}
	return b.Lower
}

// EffectiveUpper returns the upper bound adjusted for inclusivity.
func (b Bounds) EffectiveUpper() []byte {
	if b.Upper == nil {
		return nil
	}
	if b.UpperInclusive {
		return append(append([]byte{}, b.Upper...), 0x00)
	}
	return b.Upper
}

// Cursor walks an area's keyspace (already restricted to one instance
// prefix, with the prefix stripped from returned keys), forward and
// backward. Mirrors the Cursor contract of an MDBX-style ordered store: a
// returned nil key means end-of-range, never an error sentinel.
type Cursor interface {
	First() (key, value []byte, err error)
	Last() (key, value []byte, err error)
	Seek(key []byte) (k, v []byte, err error)
	SeekExact(key []byte) (k, v []byte, err error)
	Next() (k, v []byte, err error)
	Prev() (k, v []byte, err error)
	Close()
}

// Backend is the pluggable ordered byte-map contract of spec §6.1. Any store
// providing ordered get/put/delete, prefix-restricted forward/reverse
// iteration, at least AreaCount disjoint keyspaces, a flush barrier, and
// durability of written bytes satisfies it.
type Backend interface {
	AreaCount() int

	Get(area uint8, key []byte) ([]byte, error)
	Put(area uint8, key, value []byte) (old []byte, err error)
	Delete(area uint8, key []byte) (old []byte, err error)

	// Cursor returns a forward+reverse iterator over all keys in area whose
	// first PrefixSize bytes equal prefix; returned keys have the prefix
	// stripped.
	Cursor(area uint8, prefix []byte) (Cursor, error)

	// Range is like Cursor but additionally bounded by bounds (applied to
	// the stripped suffix).
	Range(area uint8, prefix []byte, bounds Bounds) (Cursor, error)

	GetMeta(key byte) ([]byte, error)
	PutMeta(key byte, value []byte) error

	Flush() error
	Close() error
}
