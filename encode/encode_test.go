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

package encode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/vsdb-go/encode"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	h := encode.NestedHandle{Prefix: []byte{1, 2, 3, 4, 5, 6, 7, 8}, Len: 42}

	buf, err := encode.Marshal(h)
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	got, err := encode.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestMarshalIsDeterministic(t *testing.T) {
	h := encode.NestedHandle{Prefix: []byte{9, 9, 9, 9, 9, 9, 9, 9}, Len: 7}

	a, err := encode.Marshal(h)
	require.NoError(t, err)
	b, err := encode.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, a, b, "identical handles must serialize to identical bytes")
}

func TestMarshalDistinguishesHandles(t *testing.T) {
	a, err := encode.Marshal(encode.NestedHandle{Prefix: []byte{1}, Len: 1})
	require.NoError(t, err)
	b, err := encode.Marshal(encode.NestedHandle{Prefix: []byte{2}, Len: 1})
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
