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

package kv_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/vsdb-go/backend/memkv"
	"github.com/erigontech/vsdb-go/kv"
)

func TestPrefixAllocatorMonotonic(t *testing.T) {
	be := memkv.New()
	a := kv.NewPrefixAllocator(be)

	first, err := a.Next()
	require.NoError(t, err)
	require.Len(t, first, kv.PrefixSize)
	require.Equal(t, kv.RESERVED_ID_CNT+1, binary.BigEndian.Uint64(first))

	second, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, kv.RESERVED_ID_CNT+2, binary.BigEndian.Uint64(second))
	require.NotEqual(t, first, second)
}

func TestPrefixAllocatorSurvivesReopen(t *testing.T) {
	be := memkv.New()
	a1 := kv.NewPrefixAllocator(be)
	p1, err := a1.Next()
	require.NoError(t, err)

	a2 := kv.NewPrefixAllocator(be)
	p2, err := a2.Next()
	require.NoError(t, err)

	require.Less(t, binary.BigEndian.Uint64(p1), binary.BigEndian.Uint64(p2))
}

func TestIDAllocatorReservedRange(t *testing.T) {
	be := memkv.New()
	a := kv.NewIDAllocator(be)

	id, err := a.Next(kv.BranchID)
	require.NoError(t, err)
	require.Greater(t, id, kv.RESERVED_ID_CNT)

	id2, err := a.Next(kv.VersionID)
	require.NoError(t, err)
	require.Greater(t, id2, kv.RESERVED_ID_CNT)
}

func TestIDAllocatorBranchAndVersionCountersAreIndependent(t *testing.T) {
	be := memkv.New()
	a := kv.NewIDAllocator(be)

	b1, err := a.Next(kv.BranchID)
	require.NoError(t, err)
	v1, err := a.Next(kv.VersionID)
	require.NoError(t, err)
	b2, err := a.Next(kv.BranchID)
	require.NoError(t, err)

	require.NotEqual(t, b1, v1)
	require.Equal(t, b1+1, b2)
}

func TestIDAllocatorReserveInitialBranch(t *testing.T) {
	be := memkv.New()
	a := kv.NewIDAllocator(be)

	require.NoError(t, a.ReserveInitialBranch())

	next, err := a.Next(kv.BranchID)
	require.NoError(t, err)
	require.Equal(t, kv.RESERVED_ID_CNT+1, next)

	// Calling it again after ids have advanced must not roll the counter back.
	require.NoError(t, a.ReserveInitialBranch())
	next2, err := a.Next(kv.BranchID)
	require.NoError(t, err)
	require.Equal(t, kv.RESERVED_ID_CNT+2, next2)
}

func TestMaxKeyLenTracksWidestKey(t *testing.T) {
	be := memkv.New()

	length, err := kv.MaxKeyLen(be)
	require.NoError(t, err)
	require.Equal(t, 0, length)

	require.NoError(t, kv.UpdateMaxKeyLen(be, 5))
	length, err = kv.MaxKeyLen(be)
	require.NoError(t, err)
	require.Equal(t, 5, length)

	// Shrinking never rewinds the recorded maximum.
	require.NoError(t, kv.UpdateMaxKeyLen(be, 2))
	length, err = kv.MaxKeyLen(be)
	require.NoError(t, err)
	require.Equal(t, 5, length)

	require.NoError(t, kv.UpdateMaxKeyLen(be, 9))
	length, err = kv.MaxKeyLen(be)
	require.NoError(t, err)
	require.Equal(t, 9, length)
}

func TestReverseSentinelDominatesAnyKeyOfBoundedLength(t *testing.T) {
	prefix := []byte{0x01, 0x02}
	sentinel := kv.ReverseSentinel(prefix, 3)
	require.Equal(t, append(append([]byte{}, prefix...), 0xFF, 0xFF, 0xFF), sentinel)

	// Every suffix of length <= maxKeyLen, including ones starting with 0xFF,
	// must sort strictly below the sentinel.
	candidates := [][]byte{
		{0x00},
		{0xFE},
		{0xFF},
		{0xFF, 0x00},
		{0xFF, 0xFE, 0xFE},
	}
	for _, suffix := range candidates {
		full := append(append([]byte{}, prefix...), suffix...)
		require.Less(t, string(full), string(sentinel), "suffix %x should sort below sentinel", suffix)
	}
}

func TestReverseSentinelClampsZeroLength(t *testing.T) {
	sentinel := kv.ReverseSentinel([]byte{0x09}, 0)
	require.Equal(t, []byte{0x09, 0xFF}, sentinel)
}

func TestAreaForDistributesAcrossAreaCount(t *testing.T) {
	require.EqualValues(t, 0, kv.AreaFor(nil))
	for i := 0; i < 16; i++ {
		area := kv.AreaFor([]byte{byte(i)})
		require.Less(t, area, uint8(kv.AreaCount))
		require.EqualValues(t, byte(i)%kv.AreaCount, area)
	}
}

func TestBoundsEffectiveLowerAndUpper(t *testing.T) {
	b := kv.Bounds{Lower: []byte("a"), LowerExclusive: true}
	require.Equal(t, []byte("a\x00"), b.EffectiveLower())

	b2 := kv.Bounds{Lower: []byte("a")}
	require.Equal(t, []byte("a"), b2.EffectiveLower())

	require.Nil(t, kv.Bounds{}.EffectiveLower())
	require.Nil(t, kv.Bounds{}.EffectiveUpper())

	b3 := kv.Bounds{Upper: []byte("z"), UpperInclusive: true}
	require.Equal(t, []byte("z\x00"), b3.EffectiveUpper())

	b4 := kv.Bounds{Upper: []byte("z")}
	require.Equal(t, []byte("z"), b4.EffectiveUpper())
}
