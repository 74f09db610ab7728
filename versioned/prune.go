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

import "time"

import "github.com/erigontech/vsdb-go/mapxraw"
import kvpkg "github.com/erigontech/vsdb-go/kv"

// allBranchIDs snapshots table 2's keys.
func (vs *MapxRawVs) allBranchIDs() ([]uint64, error) {
	it, err := vs.branchIDToBranchName.IterForward()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []uint64
	for it.Next() {
		out = append(out, decodeID(it.Key()))
	}
	return out, it.Err()
}

// VersionCleanUpGlobally is spec §4.E.10: reclaim every version that is no
// longer in any branch's visibility set.
func (vs *MapxRawVs) VersionCleanUpGlobally() error {
	branchIDs, err := vs.allBranchIDs()
	if err != nil {
		return err
	}
	union := map[uint64]struct{}{}
	for _, b := range branchIDs {
		V, err := vs.visibilitySet(b)
		if err != nil {
			return err
		}
		ids, err := visibilityIDs(V)
		if err != nil {
			return err
		}
		for _, v := range ids {
			union[v] = struct{}{}
		}
	}

	it, err := vs.versionIDToVersionName.IterForward()
	if err != nil {
		return err
	}
	var allVersions []uint64
	for it.Next() {
		allVersions = append(allVersions, decodeID(it.Key()))
	}
	if err := it.Err(); err != nil {
		it.Close()
		return err
	}
	it.Close()

	for _, v := range allVersions {
		if _, ok := union[v]; ok {
			continue
		}
		if err := vs.purgeVersion(v); err != nil {
			return err
		}
	}
	return nil
}

// VersionRevertGlobally is spec §4.E.10's unsafe variant: drop v from every
// branch's visibility set, then reclaim it, regardless of who still
// references it as their head.
func (vs *MapxRawVs) VersionRevertGlobally(v uint64) error {
	branchIDs, err := vs.allBranchIDs()
	if err != nil {
		return err
	}
	for _, b := range branchIDs {
		V, err := vs.visibilitySet(b)
		if err != nil {
			return err
		}
		if _, err := V.Remove(encodeID(v)); err != nil {
			return err
		}
	}
	return vs.purgeVersion(v)
}

// purgeVersion drops v from tables 3/4/6 and from every key's version map in
// table 7. Callers must already have removed v from every visibility set.
func (vs *MapxRawVs) purgeVersion(v uint64) error {
	cs, ok, err := vs.getNested(vs.versionToChangeSet, encodeID(v))
	if err != nil {
		return err
	}
	if ok {
		keys, err := allKeys(cs)
		if err != nil {
			return err
		}
		for _, k := range keys {
			versions, ok2, err := vs.keyVersions(k)
			if err != nil {
				return err
			}
			if !ok2 {
				continue
			}
			if _, err := versions.Remove(encodeID(v)); err != nil {
				return err
			}
		}
	}

	if name, err := vs.VersionName(v); err == nil {
		if _, err := vs.versionNameToVersionID.Remove([]byte(name)); err != nil {
			return err
		}
	} else if err != ErrVersionNotFound {
		return err
	}
	if _, err := vs.versionIDToVersionName.Remove(encodeID(v)); err != nil {
		return err
	}
	_, err = vs.versionToChangeSet.Remove(encodeID(v))
	return err
}

// Prune is spec §4.E.11: collapse the longest common prefix shared by every
// non-empty branch's visibility set down to its last reservedN members,
// rewriting the dropped versions' live keys onto the retained boundary
// version. reservedN must be positive (ErrPruneZero otherwise): a store
// always keeps at least one shared version so every branch retains a head.
func (vs *MapxRawVs) Prune(reservedN uint64) error {
	start := time.Now()
	reclaimed := 0
	defer func() { vs.met.ObservePrune(time.Since(start).Seconds(), reclaimed) }()

	if reservedN == 0 {
		return ErrPruneZero
	}
	if err := vs.VersionCleanUpGlobally(); err != nil {
		return err
	}

	branchIDs, err := vs.allBranchIDs()
	if err != nil {
		return err
	}
	var sets [][]uint64
	for _, b := range branchIDs {
		V, err := vs.visibilitySet(b)
		if err != nil {
			return err
		}
		ids, err := visibilityIDs(V)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			sets = append(sets, ids)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	prefix := commonPrefix(sets)
	if uint64(len(prefix)) <= reservedN {
		return nil
	}
	cut := uint64(len(prefix)) - reservedN
	toMerge := prefix[:cut]
	rewrite := prefix[cut]
	reclaimed = len(toMerge)

	for _, b := range branchIDs {
		V, err := vs.visibilitySet(b)
		if err != nil {
			return err
		}
		for _, v := range toMerge {
			if _, err := V.Remove(encodeID(v)); err != nil {
				return err
			}
		}
	}

	rewriteChangeSet, err := vs.changeSet(rewrite)
	if err != nil {
		return err
	}

	// Fold oldest-to-newest, same order toMerge was built in: for a key
	// touched by several merged versions, hasVersionAtMost only finds "no
	// earlier entry" once the last (newest) one is being removed, so that is
	// the write left standing at rewrite.
	for _, v := range toMerge {
		if name, err := vs.VersionName(v); err == nil {
			if _, err := vs.versionNameToVersionID.Remove([]byte(name)); err != nil {
				return err
			}
		} else if err != ErrVersionNotFound {
			return err
		}
		if _, err := vs.versionIDToVersionName.Remove(encodeID(v)); err != nil {
			return err
		}

		cs, ok, err := vs.getNested(vs.versionToChangeSet, encodeID(v))
		if err != nil {
			return err
		}
		if ok {
			keys, err := allKeys(cs)
			if err != nil {
				return err
			}
			for _, k := range keys {
				versions, ok2, err := vs.keyVersions(k)
				if err != nil {
					return err
				}
				if !ok2 {
					continue
				}
				val, err := versions.Get(encodeID(v))
				if err != nil {
					return err
				}
				if _, err := versions.Remove(encodeID(v)); err != nil {
					return err
				}
				hasEarlier, err := hasVersionAtMost(versions, rewrite)
				if err != nil {
					return err
				}
				if hasEarlier {
					continue
				}
				if val == nil {
					val = []byte{}
				}
				if _, err := versions.Insert(encodeID(rewrite), val); err != nil {
					return err
				}
				if _, err := rewriteChangeSet.Insert(k, []byte{}); err != nil {
					return err
				}
			}
		}
		if _, err := vs.versionToChangeSet.Remove(encodeID(v)); err != nil {
			return err
		}
	}
	return nil
}

// hasVersionAtMost reports whether m holds any entry at version <= upper.
func hasVersionAtMost(m *mapxraw.MapxRaw, upper uint64) (bool, error) {
	it, err := m.Range(mapxraw.Backward, kvpkg.Bounds{Upper: encodeID(upper), UpperInclusive: true})
	if err != nil {
		return false, err
	}
	defer it.Close()
	has := it.Next()
	if err := it.Err(); err != nil {
		return false, err
	}
	return has, nil
}

// commonPrefix returns the longest prefix shared, element by element, by
// every slice in sets. Used to find which versions every branch agrees on.
func commonPrefix(sets [][]uint64) []uint64 {
	if len(sets) == 0 {
		return nil
	}
	minLen := len(sets[0])
	for _, s := range sets[1:] {
		if len(s) < minLen {
			minLen = len(s)
		}
	}
	var out []uint64
	for i := 0; i < minLen; i++ {
		v := sets[0][i]
		for _, s := range sets[1:] {
			if s[i] != v {
				return out
			}
		}
		out = append(out, v)
	}
	return out
}
