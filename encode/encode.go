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

// Package encode provides the deterministic, self-describing byte encoding
// used whenever a MapxRaw stores another MapxRaw "by value" (tables 5, 6 and
// 7 of the versioned map each nest a child map inside a parent value). Only
// the child's instance prefix and length are serialized; the entries
// themselves live under that prefix in the backend, so decoding a nested
// handle aliases the live child rather than copying it.
package encode

import (
	"github.com/ugorji/go/codec"
)

var mh codec.MsgpackHandle

func init() {
	mh.Canonical = true // stable field/map ordering, required for determinism
}

// NestedHandle is the on-disk representation of a child MapxRaw referenced
// by value from a parent map.
type NestedHandle struct {
	Prefix []byte `codec:"p"`
	Len    uint64 `codec:"l"`
}

// Marshal serializes a NestedHandle deterministically.
func Marshal(h NestedHandle) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &mh)
	if err := enc.Encode(h); err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes a NestedHandle previously produced by Marshal.
func Unmarshal(data []byte) (NestedHandle, error) {
	var h NestedHandle
	dec := codec.NewDecoderBytes(data, &mh)
	if err := dec.Decode(&h); err != nil {
		return NestedHandle{}, err
	}
	return h, nil
}
