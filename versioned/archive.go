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

package versioned

import (
	"encoding/binary"

	"github.com/erigontech/vsdb-go/dbutil"
)

// ColdChangeSetThreshold is the key-count at or above which a version's change-set
// is opportunistically archived (table 9, §4.K) once a newer version on the
// same branch makes it cold. Archiving never changes read semantics: tables
// 3/4/6/7 remain the ground truth, and table 9 holds nothing the live tables
// can't already answer.
const ColdChangeSetThreshold = 64

// archiveIfCold compresses versionID's change-set keys into table 9 when the
// change-set is large enough to be worth shrinking. Called from
// VersionCreateByBranch right after a version stops being a branch's head.
func (vs *MapxRawVs) archiveIfCold(versionID uint64) error {
	cs, ok, err := vs.getNested(vs.versionToChangeSet, encodeID(versionID))
	if err != nil || !ok {
		return err
	}
	keys, err := allKeys(cs)
	if err != nil {
		return err
	}
	if len(keys) < ColdChangeSetThreshold {
		return nil
	}
	raw := encodeKeyList(keys)
	compressed, err := dbutil.CompressChangeSet(raw)
	if err != nil {
		return err
	}
	_, err = vs.coldArchive.Insert(encodeID(versionID), compressed)
	return err
}

// ColdChangeSet returns the archived key list for versionID, if one was
// recorded by archiveIfCold, decompressing and decoding it back to the
// original ordered key slice.
func (vs *MapxRawVs) ColdChangeSet(versionID uint64) ([][]byte, bool, error) {
	blob, err := vs.coldArchive.Get(encodeID(versionID))
	if err != nil {
		return nil, false, err
	}
	if blob == nil {
		return nil, false, nil
	}
	raw, err := dbutil.DecompressChangeSet(blob)
	if err != nil {
		return nil, false, err
	}
	return decodeKeyList(raw), true, nil
}

// encodeKeyList is a deterministic, self-describing length-prefixed
// encoding of an ordered key list: the same shape table 6/7 would need were
// they not represented as nested MapxRaw handles, but here flattened to a
// single blob worth compressing.
func encodeKeyList(keys [][]byte) []byte {
	var out []byte
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(keys)))
	out = append(out, lenBuf[:]...)
	for _, k := range keys {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(k)))
		out = append(out, lenBuf[:]...)
		out = append(out, k...)
	}
	return out
}

func decodeKeyList(raw []byte) [][]byte {
	if len(raw) < 8 {
		return nil
	}
	n := binary.BigEndian.Uint64(raw[:8])
	raw = raw[8:]
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		if len(raw) < 8 {
			break
		}
		klen := binary.BigEndian.Uint64(raw[:8])
		raw = raw[8:]
		if uint64(len(raw)) < klen {
			break
		}
		out = append(out, append([]byte{}, raw[:klen]...))
		raw = raw[klen:]
	}
	return out
}
