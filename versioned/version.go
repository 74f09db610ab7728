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

import "github.com/erigontech/vsdb-go/kv"

// VersionCreate creates a new version on the default branch.
func (vs *MapxRawVs) VersionCreate(name string) error {
	b, err := vs.DefaultBranch()
	if err != nil {
		return err
	}
	return vs.VersionCreateByBranch(name, b)
}

// VersionCreateByBranch is spec §4.E.2: allocate a version_id, register it
// globally (tables 3/4/6) and append it to branchID's visibility set
// (table 5). Version names are globally unique, not per-branch.
func (vs *MapxRawVs) VersionCreateByBranch(name string, branchID uint64) error {
	if _, err := vs.VersionID(name); err == nil {
		return ErrVersionExists
	} else if err != ErrVersionNotFound {
		return err
	}

	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}

	prevHead, hadPrevHead, err := vs.headVersion(branchID)
	if err != nil {
		return err
	}

	versionID, err := vs.ids.Next(kv.VersionID)
	if err != nil {
		return err
	}

	if _, err := vs.versionNameToVersionID.Insert([]byte(name), encodeID(versionID)); err != nil {
		return err
	}
	if _, err := vs.versionIDToVersionName.Insert(encodeID(versionID), []byte(name)); err != nil {
		return err
	}
	if _, err := vs.getOrCreateNested(vs.versionToChangeSet, encodeID(versionID)); err != nil {
		return err
	}
	if _, err := V.Insert(encodeID(versionID), []byte{}); err != nil {
		return err
	}
	if hadPrevHead {
		if err := vs.archiveIfCold(prevHead); err != nil {
			return err
		}
	}
	return nil
}

// VersionPop removes the newest version on the default branch from that
// branch only (spec §4.E.6).
func (vs *MapxRawVs) VersionPop() error {
	b, err := vs.DefaultBranch()
	if err != nil {
		return err
	}
	return vs.VersionPopByBranch(b)
}

// VersionPopByBranch removes the newest version from branchID's visibility
// set only; tables 3/4/6/7 are untouched. The version may remain visible on
// sibling branches.
func (vs *MapxRawVs) VersionPopByBranch(branchID uint64) error {
	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}
	head, ok, err := vs.headVersion(branchID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_, err = V.Remove(encodeID(head))
	return err
}
