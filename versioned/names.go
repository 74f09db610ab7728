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

// InitialBranchName is the reserved name of the branch created at store
// bootstrap, bound to branch_id 1.
const InitialBranchName = "main"

// BranchID and VersionID are the internal 8-byte-big-endian identifiers
// threaded through the versioned map. NULL (zero) means "none".
type BranchID = uint64
type VersionID = uint64

// NULL is re-exported from kv for readability at call sites in this package.
const NULL = 0
