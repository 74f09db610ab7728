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

// Package mapxraw implements MapxRaw, the ordered byte-to-byte map bound to
// a single instance prefix inside a kv.Backend. It is the leaf storage
// primitive the versioned map (package versioned) composes nine of, and is
// also usable on its own as a plain ordered map.
package mapxraw

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/erigontech/vsdb-go/encode"
	"github.com/erigontech/vsdb-go/kv"
)

// lengthRegistryPrefix is a reserved, never-allocated instance prefix (all
// zero bytes, well below kv.RESERVED_ID_CNT) whose own keyspace holds one
// entry per live MapxRaw: instance-prefix -> 8-byte big-endian length. This
// is the "dedicated meta cell keyed by the prefix" the length counter needs,
// implemented without widening the single-byte Backend meta contract.
var lengthRegistryPrefix = make([]byte, kv.PrefixSize)

// MapxRaw is an ordered byte->byte map. Two handles constructed over the
// same prefix (see Shadow) alias the same backing data; there is no
// in-process cache to go stale.
type MapxRaw struct {
	be     kv.Backend
	prefix []byte
}

// New allocates a fresh instance prefix from alloc and returns an empty map.
func New(be kv.Backend, alloc *kv.PrefixAllocator) (*MapxRaw, error) {
	prefix, err := alloc.Next()
	if err != nil {
		return nil, errors.Wrap(err, "mapxraw: allocate prefix")
	}
	if err := setLen(be, prefix, 0); err != nil {
		return nil, err
	}
	return &MapxRaw{be: be, prefix: prefix}, nil
}

// Open wraps an existing instance prefix (used to resurrect a handle from a
// nested encode.NestedHandle, or to reopen a top-level table across a
// restart).
func Open(be kv.Backend, prefix []byte) *MapxRaw {
	return &MapxRaw{be: be, prefix: append([]byte{}, prefix...)}
}

// OpenFromHandle decodes a NestedHandle stored by value in a parent map and
// returns a MapxRaw aliasing the child's own prefix — not a copy.
func OpenFromHandle(be kv.Backend, h encode.NestedHandle) *MapxRaw {
	return Open(be, h.Prefix)
}

// Handle returns the serializable reference to this map, for storing by
// value inside a parent MapxRaw.
func (m *MapxRaw) Handle() (encode.NestedHandle, error) {
	n, err := m.Len()
	if err != nil {
		return encode.NestedHandle{}, err
	}
	return encode.NestedHandle{Prefix: append([]byte{}, m.prefix...), Len: n}, nil
}

// Prefix returns this map's instance prefix.
func (m *MapxRaw) Prefix() []byte { return append([]byte{}, m.prefix...) }

// Shadow returns an independent handle over the same backing prefix. The
// caller must guarantee no aliasing writes happen concurrently with its use;
// it exists so rebase/prune can iterate one handle while mutating another
// over the same data.
func (m *MapxRaw) Shadow() *MapxRaw {
	return &MapxRaw{be: m.be, prefix: append([]byte{}, m.prefix...)}
}

func (m *MapxRaw) area() uint8 { return kv.AreaFor(m.prefix) }

func (m *MapxRaw) fullKey(k []byte) []byte {
	return append(append([]byte{}, m.prefix...), k...)
}

// Get returns the value for k, or nil if absent.
func (m *MapxRaw) Get(k []byte) ([]byte, error) {
	v, err := m.be.Get(m.area(), m.fullKey(k))
	if err != nil {
		return nil, errors.Wrap(err, "mapxraw: get")
	}
	return v, nil
}

// ContainsKey reports whether k is present.
func (m *MapxRaw) ContainsKey(k []byte) (bool, error) {
	v, err := m.Get(k)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Insert sets k to v, returning the previous value (nil if none). Updates
// the persisted length counter.
func (m *MapxRaw) Insert(k, v []byte) ([]byte, error) {
	old, err := m.be.Put(m.area(), m.fullKey(k), v)
	if err != nil {
		return nil, errors.Wrap(err, "mapxraw: insert")
	}
	if old == nil {
		if err := m.bumpLen(1); err != nil {
			return nil, err
		}
	}
	return old, nil
}

// Remove deletes k, returning its previous value (nil if it was absent).
func (m *MapxRaw) Remove(k []byte) ([]byte, error) {
	old, err := m.be.Delete(m.area(), m.fullKey(k))
	if err != nil {
		return nil, errors.Wrap(err, "mapxraw: remove")
	}
	if old != nil {
		if err := m.bumpLen(-1); err != nil {
			return nil, err
		}
	}
	return old, nil
}

// Len returns the number of entries.
func (m *MapxRaw) Len() (uint64, error) {
	return getLen(m.be, m.prefix)
}

// IsEmpty reports whether the map has no entries.
func (m *MapxRaw) IsEmpty() (bool, error) {
	n, err := m.Len()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Clear removes every entry.
func (m *MapxRaw) Clear() error {
	it, err := m.IterForward()
	if err != nil {
		return err
	}
	defer it.Close()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, append([]byte{}, it.Key()...))
	}
	if err := it.Err(); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := m.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// Entry returns a handle supporting get-or-insert-default semantics on k.
func (m *MapxRaw) Entry(k []byte) *Entry {
	return &Entry{m: m, key: k}
}

// Entry is a get-or-insert-default cursor over one key, mirroring the
// teacher's entry().or_insert() shape.
type Entry struct {
	m   *MapxRaw
	key []byte
}

// OrInsert returns the current value for the entry's key, inserting
// defaultVal first if the key was absent.
func (e *Entry) OrInsert(defaultVal []byte) ([]byte, error) {
	cur, err := e.m.Get(e.key)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return cur, nil
	}
	if _, err := e.m.Insert(e.key, defaultVal); err != nil {
		return nil, err
	}
	return defaultVal, nil
}

func (m *MapxRaw) bumpLen(delta int64) error {
	n, err := getLen(m.be, m.prefix)
	if err != nil {
		return err
	}
	if delta < 0 {
		n--
	} else {
		n++
	}
	return setLen(m.be, m.prefix, n)
}

func lengthRegistryKey(prefix []byte) []byte {
	return append(append([]byte{}, lengthRegistryPrefix...), prefix...)
}

func getLen(be kv.Backend, prefix []byte) (uint64, error) {
	v, err := be.Get(kv.AreaFor(lengthRegistryPrefix), lengthRegistryKey(prefix))
	if err != nil {
		return 0, errors.Wrap(err, "mapxraw: read length")
	}
	if len(v) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(v), nil
}

func setLen(be kv.Backend, prefix []byte, n uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if _, err := be.Put(kv.AreaFor(lengthRegistryPrefix), lengthRegistryKey(prefix), buf); err != nil {
		return errors.Wrap(err, "mapxraw: persist length")
	}
	return nil
}
