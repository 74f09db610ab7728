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

package mapxraw

import "github.com/erigontech/vsdb-go/kv"

// Direction selects which way an Iterator walks.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Iterator walks a MapxRaw's entries in key order (or reverse). Call Next
// before the first Key/Value access, standard Go iterator style.
type Iterator struct {
	cur       kv.Cursor
	dir       Direction
	started   bool
	key, val  []byte
	err       error
	exhausted bool
}

// IterForward returns a forward iterator over the whole map.
func (m *MapxRaw) IterForward() (*Iterator, error) {
	return m.Range(Forward, kv.Bounds{})
}

// IterBackward returns a reverse iterator over the whole map.
func (m *MapxRaw) IterBackward() (*Iterator, error) {
	return m.Range(Backward, kv.Bounds{})
}

// Range returns an iterator over bounds, walking in dir.
func (m *MapxRaw) Range(dir Direction, bounds kv.Bounds) (*Iterator, error) {
	cur, err := m.be.Range(m.area(), m.prefix, bounds)
	if err != nil {
		return nil, err
	}
	return &Iterator{cur: cur, dir: dir}, nil
}

// Next advances the iterator, returning false at end-of-range or on error
// (check Err to distinguish).
func (it *Iterator) Next() bool {
	if it.exhausted || it.err != nil {
		return false
	}
	var k, v []byte
	var err error
	if !it.started {
		it.started = true
		if it.dir == Forward {
			k, v, err = it.cur.First()
		} else {
			k, v, err = it.cur.Last()
		}
	} else {
		if it.dir == Forward {
			k, v, err = it.cur.Next()
		} else {
			k, v, err = it.cur.Prev()
		}
	}
	if err != nil {
		it.err = err
		return false
	}
	if k == nil {
		it.exhausted = true
		return false
	}
	it.key, it.val = k, v
	return true
}

// Key returns the current entry's key (with the instance prefix stripped).
func (it *Iterator) Key() []byte { return it.key }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.val }

// Err returns the first error encountered, if any.
func (it *Iterator) Err() error { return it.err }

// Close releases the underlying cursor.
func (it *Iterator) Close() { it.cur.Close() }
