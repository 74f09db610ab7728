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

package mdbxkv

import (
	"bytes"

	"github.com/erigontech/mdbx-go/mdbx"
)

// rangeCursor adapts an mdbx.Cursor to kv.Cursor, scoping it to one instance
// prefix plus caller-supplied suffix bounds, and stripping the prefix from
// returned keys. It owns the read-only transaction it was opened under and
// closes it on Close.
type rangeCursor struct {
	txn    *mdbx.Txn
	cur    *mdbx.Cursor
	prefix []byte
	lower  []byte
	upper  []byte
}

func (c *rangeCursor) inRange(full []byte) bool {
	if !bytes.HasPrefix(full, c.prefix) {
		return false
	}
	if c.lower != nil && bytes.Compare(full, c.lower) < 0 {
		return false
	}
	if c.upper != nil && bytes.Compare(full, c.upper) >= 0 {
		return false
	}
	return true
}

func (c *rangeCursor) strip(full []byte) []byte {
	return full[len(c.prefix):]
}

func (c *rangeCursor) emit(full, v []byte, err error) ([]byte, []byte, error) {
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !c.inRange(full) {
		return nil, nil, nil
	}
	return c.strip(full), v, nil
}

func (c *rangeCursor) First() ([]byte, []byte, error) {
	k, v, err := c.cur.Get(c.lower, nil, mdbx.SetRange)
	return c.emit(k, v, err)
}

func (c *rangeCursor) Last() ([]byte, []byte, error) {
	k, v, err := c.cur.Get(c.upper, nil, mdbx.SetRange)
	if err == nil {
		k, v, err = c.cur.Get(nil, nil, mdbx.Prev)
	} else if mdbx.IsNotFound(err) {
		k, v, err = c.cur.Get(nil, nil, mdbx.Last)
	}
	return c.emit(k, v, err)
}

func (c *rangeCursor) Seek(key []byte) ([]byte, []byte, error) {
	full := append(append([]byte{}, c.prefix...), key...)
	if c.lower != nil && bytes.Compare(full, c.lower) < 0 {
		full = c.lower
	}
	k, v, err := c.cur.Get(full, nil, mdbx.SetRange)
	return c.emit(k, v, err)
}

func (c *rangeCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	full := append(append([]byte{}, c.prefix...), key...)
	k, v, err := c.cur.Get(full, nil, mdbx.Set)
	return c.emit(k, v, err)
}

func (c *rangeCursor) Next() ([]byte, []byte, error) {
	k, v, err := c.cur.Get(nil, nil, mdbx.Next)
	return c.emit(k, v, err)
}

func (c *rangeCursor) Prev() ([]byte, []byte, error) {
	k, v, err := c.cur.Get(nil, nil, mdbx.Prev)
	return c.emit(k, v, err)
}

func (c *rangeCursor) Close() {
	c.cur.Close()
	c.txn.Abort()
}
