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

import "github.com/pkg/errors"

// Sentinel errors for the recoverable error kinds. They are returned to the
// caller as-is, not wrapped, so callers can compare them with == or
// errors.Is. Backend I/O failures have no sentinel here: they reach the
// caller as the backend's own wrapped error.
var (
	ErrBranchNotFound   = errors.New("versioned: branch not found")
	ErrVersionNotFound  = errors.New("versioned: version not found")
	ErrBranchExists     = errors.New("versioned: branch name already exists")
	ErrVersionExists    = errors.New("versioned: version name already exists")
	ErrNoCurrentVersion = errors.New("versioned: branch has no current version")
	ErrMergeUnsafe      = errors.New("versioned: unable to merge safely")
	ErrPruneZero        = errors.New("versioned: reserved_n must be greater than zero")
	ErrInvalidArg       = errors.New("versioned: invalid argument")
)
