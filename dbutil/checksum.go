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

// Package dbutil holds the checksum and compression helpers shared by the
// versioned store and its CLI: a blake2b-based opaque checksum over ordered
// (key,value) pairs, and a zstd wrapper for cold change-set blobs.
package dbutil

import (
	"encoding/binary"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Checksum accumulates an ordered sequence of (key,value) pairs into a single
// opaque signature. Two stores with identical visible content at a head
// produce identical sums, independent of how that content was reached
// (rebase, merge, prune are all pure reshapes of history).
type Checksum struct {
	h hash.Hash
}

// NewChecksum creates an empty checksum accumulator.
func NewChecksum() (*Checksum, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, errors.Wrap(err, "dbutil: new blake2b hash")
	}
	return &Checksum{h: h}, nil
}

// Write folds one (key,value) pair into the running hash. Lengths are
// length-prefixed so that no concatenation of key/value bytes across two
// different splits can collide.
func (c *Checksum) Write(key, value []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(key)))
	c.h.Write(lenBuf[:])
	c.h.Write(key)
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(value)))
	c.h.Write(lenBuf[:])
	c.h.Write(value)
}

// Sum returns the accumulated digest. Safe to call repeatedly; it does not
// reset the accumulator.
func (c *Checksum) Sum() []byte {
	return c.h.Sum(nil)
}
