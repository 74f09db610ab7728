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

package memkv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/vsdb-go/backend/memkv"
	"github.com/erigontech/vsdb-go/kv"
)

func TestPutGetDelete(t *testing.T) {
	be := memkv.New()

	old, err := be.Put(0, []byte("a"), []byte("1"))
	require.NoError(t, err)
	require.Nil(t, old)

	v, err := be.Get(0, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	old, err = be.Put(0, []byte("a"), []byte("2"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), old)

	old, err = be.Delete(0, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), old)

	v, err = be.Get(0, []byte("a"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMetaCells(t *testing.T) {
	be := memkv.New()

	v, err := be.GetMeta(kv.MetaNextBranch)
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, be.PutMeta(kv.MetaNextBranch, []byte{1, 2, 3}))
	v, err = be.GetMeta(kv.MetaNextBranch)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, v)
}

func TestCursorForwardAndBackwardAgreeOnOrder(t *testing.T) {
	be := memkv.New()
	prefix := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	keys := []string{"a", "b", "c", "d"}
	for _, k := range keys {
		_, err := be.Put(kv.AreaFor(prefix), append(append([]byte{}, prefix...), k...), []byte(k+"-val"))
		require.NoError(t, err)
	}

	cur, err := be.Cursor(kv.AreaFor(prefix), prefix)
	require.NoError(t, err)
	defer cur.Close()

	var forward []string
	k, v, err := cur.First()
	require.NoError(t, err)
	for k != nil {
		forward = append(forward, string(k))
		require.Equal(t, string(k)+"-val", string(v))
		k, v, err = cur.Next()
		require.NoError(t, err)
	}
	require.Equal(t, keys, forward)

	cur2, err := be.Cursor(kv.AreaFor(prefix), prefix)
	require.NoError(t, err)
	defer cur2.Close()

	var backward []string
	k, _, err = cur2.Last()
	require.NoError(t, err)
	for k != nil {
		backward = append(backward, string(k))
		k, _, err = cur2.Prev()
		require.NoError(t, err)
	}
	require.Equal(t, []string{"d", "c", "b", "a"}, backward)
}

func TestCursorIsolatedToItsPrefix(t *testing.T) {
	be := memkv.New()
	// Same area (prefix[0] % 8 == 1 for both), distinct prefixes: isolation
	// must come from the prefix match itself, not a lucky area split.
	p1 := []byte{0x01, 0, 0, 0, 0, 0, 0, 0}
	p2 := []byte{0x09, 0, 0, 0, 0, 0, 0, 0}

	_, err := be.Put(kv.AreaFor(p1), append(append([]byte{}, p1...), 'x'), []byte("p1x"))
	require.NoError(t, err)
	_, err = be.Put(kv.AreaFor(p2), append(append([]byte{}, p2...), 'y'), []byte("p2y"))
	require.NoError(t, err)

	cur, err := be.Cursor(kv.AreaFor(p1), p1)
	require.NoError(t, err)
	defer cur.Close()

	k, v, err := cur.First()
	require.NoError(t, err)
	require.Equal(t, []byte("x"), k)
	require.Equal(t, []byte("p1x"), v)

	k, _, err = cur.Next()
	require.NoError(t, err)
	require.Nil(t, k)
}

// Reverse iteration over a key whose suffix begins with 0xFF must still find
// that key: the sentinel used internally has to exceed any suffix up to the
// widest key ever stored, not just a single trailing 0xFF byte.
func TestCursorLastFindsKeyStartingWithFF(t *testing.T) {
	be := memkv.New()
	prefix := []byte{0x03, 0, 0, 0, 0, 0, 0, 0}

	trickyKey := append(append([]byte{}, prefix...), 0xFF, 0x01, 0x02)
	_, err := be.Put(kv.AreaFor(prefix), trickyKey, []byte("tricky"))
	require.NoError(t, err)

	cur, err := be.Cursor(kv.AreaFor(prefix), prefix)
	require.NoError(t, err)
	defer cur.Close()

	k, v, err := cur.Last()
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0x01, 0x02}, k)
	require.Equal(t, []byte("tricky"), v)
}

func TestCursorLastAfterWideningMaxKeyLen(t *testing.T) {
	be := memkv.New()
	prefix := []byte{0x04, 0, 0, 0, 0, 0, 0, 0}

	shortKey := append(append([]byte{}, prefix...), 0xFF)
	_, err := be.Put(kv.AreaFor(prefix), shortKey, []byte("short"))
	require.NoError(t, err)

	longKey := append(append([]byte{}, prefix...), 0xFF, 0xFF, 0x01)
	_, err = be.Put(kv.AreaFor(prefix), longKey, []byte("long"))
	require.NoError(t, err)

	cur, err := be.Cursor(kv.AreaFor(prefix), prefix)
	require.NoError(t, err)
	defer cur.Close()

	k, _, err := cur.Last()
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xFF, 0x01}, k, "the widest stored suffix must win Last(), not the shorter one")
}

func TestRangeBoundsRestrictIteration(t *testing.T) {
	be := memkv.New()
	prefix := []byte{0x05, 0, 0, 0, 0, 0, 0, 0}
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		_, err := be.Put(kv.AreaFor(prefix), append(append([]byte{}, prefix...), k...), []byte(k))
		require.NoError(t, err)
	}

	cur, err := be.Range(kv.AreaFor(prefix), prefix, kv.Bounds{Lower: []byte("b"), Upper: []byte("d")})
	require.NoError(t, err)
	defer cur.Close()

	var got []string
	k, _, err := cur.First()
	require.NoError(t, err)
	for k != nil {
		got = append(got, string(k))
		k, _, err = cur.Next()
		require.NoError(t, err)
	}
	require.Equal(t, []string{"b", "c"}, got)
}

func TestSeekAndSeekExact(t *testing.T) {
	be := memkv.New()
	prefix := []byte{0x06, 0, 0, 0, 0, 0, 0, 0}
	for _, k := range []string{"a", "c", "e"} {
		_, err := be.Put(kv.AreaFor(prefix), append(append([]byte{}, prefix...), k...), []byte(k))
		require.NoError(t, err)
	}

	cur, err := be.Cursor(kv.AreaFor(prefix), prefix)
	require.NoError(t, err)
	defer cur.Close()

	k, _, err := cur.Seek([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("c"), k, "Seek lands on the next key at or after the target")

	k, _, err = cur.SeekExact([]byte("c"))
	require.NoError(t, err)
	require.Equal(t, []byte("c"), k)

	k, _, err = cur.SeekExact([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, k, "SeekExact must not match a neighboring key")
}

func TestFlushAndCloseAreNoFailNoOps(t *testing.T) {
	be := memkv.New()
	require.NoError(t, be.Flush())
	require.NoError(t, be.Close())
}

var _ kv.Backend = (*memkv.Backend)(nil)
