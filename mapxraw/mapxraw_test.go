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

package mapxraw_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/vsdb-go/backend/memkv"
	"github.com/erigontech/vsdb-go/kv"
	"github.com/erigontech/vsdb-go/mapxraw"
)

func newMap(t *testing.T) (*mapxraw.MapxRaw, kv.Backend) {
	t.Helper()
	be := memkv.New()
	alloc := kv.NewPrefixAllocator(be)
	m, err := mapxraw.New(be, alloc)
	require.NoError(t, err)
	return m, be
}

func TestInsertGetRemove(t *testing.T) {
	m, _ := newMap(t)

	old, err := m.Insert([]byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.Nil(t, old)

	v, err := m.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	ok, err := m.ContainsKey([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)

	old, err = m.Remove([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), old)

	v, err = m.Get([]byte("k1"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestLenIsEmptyTrackOverwritesCorrectly(t *testing.T) {
	m, _ := newMap(t)

	empty, err := m.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)

	_, err = m.Insert([]byte("a"), []byte("1"))
	require.NoError(t, err)
	_, err = m.Insert([]byte("b"), []byte("2"))
	require.NoError(t, err)

	n, err := m.Len()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// Overwriting an existing key must not inflate the length counter.
	_, err = m.Insert([]byte("a"), []byte("11"))
	require.NoError(t, err)
	n, err = m.Len()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = m.Remove([]byte("a"))
	require.NoError(t, err)
	n, err = m.Len()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Removing an absent key must not underflow the counter.
	_, err = m.Remove([]byte("missing"))
	require.NoError(t, err)
	n, err = m.Len()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestClearRemovesEverything(t *testing.T) {
	m, _ := newMap(t)
	for _, k := range []string{"a", "b", "c"} {
		_, err := m.Insert([]byte(k), []byte(k))
		require.NoError(t, err)
	}

	require.NoError(t, m.Clear())

	empty, err := m.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
}

func TestEntryOrInsert(t *testing.T) {
	m, _ := newMap(t)

	v, err := m.Entry([]byte("k")).OrInsert([]byte("default"))
	require.NoError(t, err)
	require.Equal(t, []byte("default"), v)

	v, err = m.Entry([]byte("k")).OrInsert([]byte("ignored"))
	require.NoError(t, err)
	require.Equal(t, []byte("default"), v, "OrInsert must not clobber an existing value")
}

func TestIterForwardAndBackwardOrdering(t *testing.T) {
	m, _ := newMap(t)
	for _, k := range []string{"c", "a", "d", "b"} {
		_, err := m.Insert([]byte(k), []byte(k))
		require.NoError(t, err)
	}

	fwd, err := m.IterForward()
	require.NoError(t, err)
	defer fwd.Close()

	var got []string
	for fwd.Next() {
		got = append(got, string(fwd.Key()))
	}
	require.NoError(t, fwd.Err())
	require.Equal(t, []string{"a", "b", "c", "d"}, got)

	bwd, err := m.IterBackward()
	require.NoError(t, err)
	defer bwd.Close()

	got = nil
	for bwd.Next() {
		got = append(got, string(bwd.Key()))
	}
	require.NoError(t, bwd.Err())
	require.Equal(t, []string{"d", "c", "b", "a"}, got)
}

func TestRangeRestrictsIteration(t *testing.T) {
	m, _ := newMap(t)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		_, err := m.Insert([]byte(k), []byte(k))
		require.NoError(t, err)
	}

	it, err := m.Range(mapxraw.Forward, kv.Bounds{Lower: []byte("b"), Upper: []byte("d")})
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	require.Equal(t, []string{"b", "c"}, got)
}

func TestShadowAliasesSameData(t *testing.T) {
	m, _ := newMap(t)
	_, err := m.Insert([]byte("k"), []byte("v1"))
	require.NoError(t, err)

	shadow := m.Shadow()
	v, err := shadow.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	_, err = shadow.Insert([]byte("k"), []byte("v2"))
	require.NoError(t, err)

	v, err = m.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v, "shadow writes must be visible through the original handle")
}

func TestHandleRoundTripsViaOpenFromHandle(t *testing.T) {
	be := memkv.New()
	alloc := kv.NewPrefixAllocator(be)
	child, err := mapxraw.New(be, alloc)
	require.NoError(t, err)
	_, err = child.Insert([]byte("nested"), []byte("value"))
	require.NoError(t, err)

	h, err := child.Handle()
	require.NoError(t, err)
	require.EqualValues(t, 1, h.Len)

	reopened := mapxraw.OpenFromHandle(be, h)
	v, err := reopened.Get([]byte("nested"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v)
}
