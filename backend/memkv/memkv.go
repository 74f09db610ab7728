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

// Package memkv is an in-memory ordered byte-map backend satisfying
// kv.Backend, built on tidwall/btree so ordering and range scans behave like
// a real embedded store without requiring cgo. Intended for tests and for
// embedding vsdb-go in processes that cannot link MDBX.
package memkv

import (
	"bytes"
	"sync"

	"github.com/tidwall/btree"

	"github.com/erigontech/vsdb-go/kv"
)

func less(a, b string) bool { return a < b }

type area struct {
	mu   sync.RWMutex
	tree *btree.Map[string, []byte]
}

// Backend is an in-memory implementation of kv.Backend.
type Backend struct {
	areas [kv.AreaCount]*area
	meta  sync.Map // byte -> []byte
}

// New returns an empty in-memory backend.
func New() *Backend {
	b := &Backend{}
	for i := range b.areas {
		b.areas[i] = &area{tree: btree.NewMap[string, []byte](32, less)}
	}
	return b
}

func (b *Backend) AreaCount() int { return kv.AreaCount }

func (b *Backend) Get(areaIdx uint8, key []byte) ([]byte, error) {
	ar := b.areas[areaIdx]
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	v, ok := ar.tree.Get(string(key))
	if !ok {
		return nil, nil
	}
	return append([]byte{}, v...), nil
}

func (b *Backend) Put(areaIdx uint8, key, value []byte) ([]byte, error) {
	ar := b.areas[areaIdx]
	ar.mu.Lock()
	defer ar.mu.Unlock()
	old, had := ar.tree.Set(string(key), append([]byte{}, value...))
	if err := kv.UpdateMaxKeyLen(b, len(key)); err != nil {
		return nil, err
	}
	if !had {
		return nil, nil
	}
	return old, nil
}

func (b *Backend) Delete(areaIdx uint8, key []byte) ([]byte, error) {
	ar := b.areas[areaIdx]
	ar.mu.Lock()
	defer ar.mu.Unlock()
	old, had := ar.tree.Delete(string(key))
	if !had {
		return nil, nil
	}
	return old, nil
}

func (b *Backend) Cursor(areaIdx uint8, prefix []byte) (kv.Cursor, error) {
	return b.Range(areaIdx, prefix, kv.Bounds{})
}

func (b *Backend) Range(areaIdx uint8, prefix []byte, bounds kv.Bounds) (kv.Cursor, error) {
	ar := b.areas[areaIdx]
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	maxLen, err := kv.MaxKeyLen(b)
	if err != nil {
		return nil, err
	}

	lower := append(append([]byte{}, prefix...), bounds.EffectiveLower()...)
	upper := kv.ReverseSentinel(prefix, maxLen)
	if eu := bounds.EffectiveUpper(); eu != nil {
		upper = append(append([]byte{}, prefix...), eu...)
	}

	it := ar.tree.Iter()
	c := &cursor{it: it, prefix: prefix, lower: lower, upper: upper}
	return c, nil
}

func (b *Backend) GetMeta(key byte) ([]byte, error) {
	v, ok := b.meta.Load(key)
	if !ok {
		return nil, nil
	}
	return v.([]byte), nil
}

func (b *Backend) PutMeta(key byte, value []byte) error {
	b.meta.Store(key, append([]byte{}, value...))
	return nil
}

func (b *Backend) Flush() error { return nil }
func (b *Backend) Close() error { return nil }

// cursor adapts a tidwall/btree.MapIter to kv.Cursor, restricting it to keys
// with the given prefix and stripping the prefix from returned keys.
type cursor struct {
	it     btree.MapIter[string, []byte]
	prefix []byte
	lower  []byte
	upper  []byte
}

func (c *cursor) inRange(full string) bool {
	if !bytes.HasPrefix([]byte(full), c.prefix) {
		return false
	}
	if c.lower != nil && full < string(c.lower) {
		return false
	}
	if c.upper != nil && full >= string(c.upper) {
		return false
	}
	return true
}

func (c *cursor) strip(full string) []byte {
	return []byte(full)[len(c.prefix):]
}

func (c *cursor) First() ([]byte, []byte, error) {
	if !c.it.Seek(string(c.lower)) {
		return nil, nil, nil
	}
	return c.current()
}

func (c *cursor) Last() ([]byte, []byte, error) {
	// c.upper is always set by Range (either the caller's bound or a
	// ReverseSentinel derived from the longest key ever stored), so Seek
	// then stepping back is always safe here.
	upperKey := c.upper
	if !c.it.Seek(string(upperKey)) {
		if !c.it.Last() {
			return nil, nil, nil
		}
	} else if !c.it.Prev() {
		return nil, nil, nil
	}
	for c.it.Key() >= string(upperKey) {
		if !c.it.Prev() {
			return nil, nil, nil
		}
	}
	return c.current()
}

func (c *cursor) Seek(key []byte) ([]byte, []byte, error) {
	full := append(append([]byte{}, c.prefix...), key...)
	if c.lower != nil && string(full) < string(c.lower) {
		full = c.lower
	}
	if !c.it.Seek(string(full)) {
		return nil, nil, nil
	}
	return c.current()
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	full := append(append([]byte{}, c.prefix...), key...)
	if !c.it.Seek(string(full)) || c.it.Key() != string(full) {
		return nil, nil, nil
	}
	return c.current()
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if !c.it.Next() {
		return nil, nil, nil
	}
	return c.current()
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if !c.it.Prev() {
		return nil, nil, nil
	}
	return c.current()
}

func (c *cursor) current() ([]byte, []byte, error) {
	if !c.inRange(c.it.Key()) {
		return nil, nil, nil
	}
	return c.strip(c.it.Key()), append([]byte{}, c.it.Value()...), nil
}

func (c *cursor) Close() {}
