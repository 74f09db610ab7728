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

// Rebase is spec §4.E.7: fold every version after baseVersion on branchID's
// visibility set into baseVersion itself, in ascending order, then drop
// those versions from the global tables. baseVersion must already be on the
// branch's visibility set.
//
// The version_id list is snapshotted up front (visibilityIDs), so mutating
// table 5 while folding never perturbs which versions get folded.
func (vs *MapxRawVs) Rebase(branchID, baseVersion uint64) error {
	V, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}
	ids, err := visibilityIDs(V)
	if err != nil {
		return err
	}
	found := false
	var toFold []uint64
	for _, v := range ids {
		if v == baseVersion {
			found = true
			continue
		}
		if v > baseVersion {
			toFold = append(toFold, v)
		}
	}
	if !found {
		return ErrVersionNotFound
	}

	base, err := vs.changeSet(baseVersion)
	if err != nil {
		return err
	}

	for _, v := range toFold {
		cs, err := vs.changeSet(v)
		if err != nil {
			return err
		}
		keys, err := allKeys(cs)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := base.Insert(k, []byte{}); err != nil {
				return err
			}
			versions, ok, err := vs.keyVersions(k)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			val, err := versions.Get(encodeID(v))
			if err != nil {
				return err
			}
			if _, err := versions.Remove(encodeID(v)); err != nil {
				return err
			}
			if val == nil {
				val = []byte{}
			}
			if _, err := versions.Insert(encodeID(baseVersion), val); err != nil {
				return err
			}
		}

		name, err := vs.VersionName(v)
		if err != nil {
			return err
		}
		if _, err := vs.versionNameToVersionID.Remove([]byte(name)); err != nil {
			return err
		}
		if _, err := vs.versionIDToVersionName.Remove(encodeID(v)); err != nil {
			return err
		}
		if _, err := vs.versionToChangeSet.Remove(encodeID(v)); err != nil {
			return err
		}
		if _, err := V.Remove(encodeID(v)); err != nil {
			return err
		}
	}
	return nil
}
