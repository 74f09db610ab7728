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
	"github.com/erigontech/vsdb-go/kv"
	"github.com/erigontech/vsdb-go/mapxraw"
)

// BranchCreateByBaseBranchVersion is spec §4.E.5. It builds the new
// branch's visibility set as a snapshot of the base branch's (optionally
// truncated at baseVersionID), then makes the new branch independent: later
// writes on the base branch never propagate to it.
//
// versionName and baseVersionID are optional (nil means "none"/"current
// head").
func (vs *MapxRawVs) BranchCreateByBaseBranchVersion(
	branchName string,
	versionName *string,
	baseBranchID uint64,
	baseVersionID *uint64,
	force bool,
) error {
	if force {
		if id, err := vs.BranchID(branchName); err == nil {
			if err := vs.BranchRemove(id); err != nil {
				return err
			}
		} else if err != ErrBranchNotFound {
			return err
		}
	}

	if _, err := vs.BranchID(branchName); err == nil {
		return ErrBranchExists
	} else if err != ErrBranchNotFound {
		return err
	}

	if versionName != nil {
		if _, err := vs.VersionID(*versionName); err == nil {
			return ErrVersionExists
		} else if err != ErrVersionNotFound {
			return err
		}
	}

	VBase, err := vs.visibilitySet(baseBranchID)
	if err != nil {
		return err
	}
	baseIDs, err := visibilityIDs(VBase)
	if err != nil {
		return err
	}

	var newIDs []uint64
	if baseVersionID != nil {
		found := false
		for _, v := range baseIDs {
			newIDs = append(newIDs, v)
			if v == *baseVersionID {
				found = true
				break
			}
		}
		if !found {
			return ErrVersionNotFound
		}
	} else {
		newIDs = baseIDs
	}

	branchID, err := vs.ids.Next(kv.BranchID)
	if err != nil {
		return err
	}
	if _, err := vs.branchNameToBranchID.Insert([]byte(branchName), encodeID(branchID)); err != nil {
		return err
	}
	if _, err := vs.branchIDToBranchName.Insert(encodeID(branchID), []byte(branchName)); err != nil {
		return err
	}

	VNew, err := mapxraw.New(vs.be, vs.alloc)
	if err != nil {
		return err
	}
	for _, v := range newIDs {
		if _, err := VNew.Insert(encodeID(v), []byte{}); err != nil {
			return err
		}
	}
	if err := vs.putNestedHandle(vs.branchToItsVersions, encodeID(branchID), VNew); err != nil {
		return err
	}

	if versionName != nil {
		if err := vs.VersionCreateByBranch(*versionName, branchID); err != nil {
			return err
		}
	}
	return nil
}

// BranchTruncate clears branchID's visibility set; the branch remains, but
// empty (spec §4.E.9).
func (vs *MapxRawVs) BranchTruncate(branchID uint64) error {
	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}
	return V.Clear()
}

// BranchTruncateTo removes every version with id > lastVersionID from
// branchID's visibility set.
func (vs *MapxRawVs) BranchTruncateTo(branchID uint64, lastVersionID uint64) error {
	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}
	ids, err := visibilityIDs(V)
	if err != nil {
		return err
	}
	for _, v := range ids {
		if v > lastVersionID {
			if _, err := V.Remove(encodeID(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// BranchRemove truncates branchID then removes it from tables 1/2/5.
// Versions that become unreferenced by any branch are left dangling, ready
// for VersionCleanUpGlobally to reclaim.
func (vs *MapxRawVs) BranchRemove(branchID uint64) error {
	name, err := vs.BranchName(branchID)
	if err != nil {
		return err
	}
	if err := vs.BranchTruncate(branchID); err != nil {
		return err
	}
	if _, err := vs.branchNameToBranchID.Remove([]byte(name)); err != nil {
		return err
	}
	if _, err := vs.branchIDToBranchName.Remove(encodeID(branchID)); err != nil {
		return err
	}
	_, err = vs.branchToItsVersions.Remove(encodeID(branchID))
	return err
}

// BranchKeepOnly removes every branch not in ids, then reclaims any version
// that becomes globally unreferenced.
func (vs *MapxRawVs) BranchKeepOnly(ids []uint64) error {
	keep := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	it, err := vs.branchIDToBranchName.IterForward()
	if err != nil {
		return err
	}
	var toRemove []uint64
	for it.Next() {
		id := decodeID(it.Key())
		if _, ok := keep[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	if err := it.Err(); err != nil {
		it.Close()
		return err
	}
	it.Close()

	for _, id := range toRemove {
		if err := vs.BranchRemove(id); err != nil {
			return err
		}
	}
	return vs.VersionCleanUpGlobally()
}

// BranchSwap exchanges the names of two existing branches; applying it
// twice is the identity (it is an involution on the name<->id mapping).
func (vs *MapxRawVs) BranchSwap(nameX, nameY string) error {
	idX, err := vs.BranchID(nameX)
	if err != nil {
		return err
	}
	idY, err := vs.BranchID(nameY)
	if err != nil {
		return err
	}
	if _, err := vs.branchNameToBranchID.Insert([]byte(nameX), encodeID(idY)); err != nil {
		return err
	}
	if _, err := vs.branchNameToBranchID.Insert([]byte(nameY), encodeID(idX)); err != nil {
		return err
	}
	if _, err := vs.branchIDToBranchName.Insert(encodeID(idX), []byte(nameY)); err != nil {
		return err
	}
	if _, err := vs.branchIDToBranchName.Insert(encodeID(idY), []byte(nameX)); err != nil {
		return err
	}
	return nil
}
