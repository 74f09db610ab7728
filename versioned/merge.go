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

// BranchMergeTo is spec §4.E.8: fold branchID's visibility set into target's.
// Unless force is set, the merge is refused when target's head is not
// reachable from branchID (ErrMergeUnsafe).
//
// The zipped scan always runs, even when the two branches' heads are equal:
// equal heads do not mean the two sets agree position by position.
func (vs *MapxRawVs) BranchMergeTo(branchID, target uint64, force bool) error {
	start := time.Now()
	defer func() { vs.met.ObserveMerge(time.Since(start).Seconds()) }()

	Vsrc, err := vs.visibilitySet(branchID)
	if err != nil {
		return err
	}
	Vtgt, err := vs.visibilitySet(target)
	if err != nil {
		return err
	}
	srcIDs, err := visibilityIDs(Vsrc)
	if err != nil {
		return err
	}
	tgtIDs, err := visibilityIDs(Vtgt)
	if err != nil {
		return err
	}

	if !force && len(tgtIDs) > 0 {
		maxTgt := tgtIDs[len(tgtIDs)-1]
		safe := false
		for _, v := range srcIDs {
			if v == maxTgt {
				safe = true
				break
			}
		}
		if !safe {
			return ErrMergeUnsafe
		}
	}

	divergeAt, diverged := zippedDivergence(srcIDs, tgtIDs)
	if diverged {
		for _, v := range srcIDs {
			if v >= divergeAt {
				if _, err := Vtgt.Insert(encodeID(v), []byte{}); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var maxSrc, maxTgt uint64
	if len(srcIDs) > 0 {
		maxSrc = srcIDs[len(srcIDs)-1]
	}
	if len(tgtIDs) > 0 {
		maxTgt = tgtIDs[len(tgtIDs)-1]
	}
	if maxSrc > maxTgt {
		for _, v := range srcIDs {
			if v > maxTgt {
				if _, err := Vtgt.Insert(encodeID(v), []byte{}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// zippedDivergence walks srcIDs and tgtIDs position by position over their
// shared length and reports the first version_id where they disagree.
func zippedDivergence(srcIDs, tgtIDs []uint64) (uint64, bool) {
	n := len(srcIDs)
	if len(tgtIDs) < n {
		n = len(tgtIDs)
	}
	for i := 0; i < n; i++ {
		if srcIDs[i] != tgtIDs[i] {
			return srcIDs[i], true
		}
	}
	return 0, false
}
