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

// Command vsdbctl is a thin CLI over the versioned map: branch create/remove,
// version create, point get/insert, merge, prune, and checksum. It has no
// range, rebase, branch listing or version pop command. Out of
// spec.md's normative scope (command-line entry points are named as an
// external collaborator), kept here because every ambient entry point in
// the retrieved stack takes this shape — see DESIGN.md.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/erigontech/vsdb-go/backend/mdbxkv"
	"github.com/erigontech/vsdb-go/versioned"
	"github.com/erigontech/vsdb-go/vsdbcfg"
)

type context struct {
	vs *versioned.MapxRawVs
}

type branchCreateCmd struct {
	Name    string `arg:"" help:"New branch name."`
	Base    string `default:"main" help:"Base branch name."`
	BaseVer string `optional:"" help:"Base version name; defaults to the base branch's head."`
	VerName string `optional:"" help:"Name for an initial version created on the new branch."`
	Force   bool   `help:"Replace an existing branch with the same name."`
}

func (c *branchCreateCmd) Run(ctx *context) error {
	baseID, err := ctx.vs.BranchID(c.Base)
	if err != nil {
		return err
	}
	var baseVerID *uint64
	if c.BaseVer != "" {
		id, err := ctx.vs.VersionID(c.BaseVer)
		if err != nil {
			return err
		}
		baseVerID = &id
	}
	var verName *string
	if c.VerName != "" {
		verName = &c.VerName
	}
	return ctx.vs.BranchCreateByBaseBranchVersion(c.Name, verName, baseID, baseVerID, c.Force)
}

type branchRemoveCmd struct {
	Name string `arg:""`
}

func (c *branchRemoveCmd) Run(ctx *context) error {
	id, err := ctx.vs.BranchID(c.Name)
	if err != nil {
		return err
	}
	return ctx.vs.BranchRemove(id)
}

type versionCreateCmd struct {
	Name   string `arg:""`
	Branch string `default:"main"`
}

func (c *versionCreateCmd) Run(ctx *context) error {
	id, err := ctx.vs.BranchID(c.Branch)
	if err != nil {
		return err
	}
	return ctx.vs.VersionCreateByBranch(c.Name, id)
}

type getCmd struct {
	Key    string `arg:""`
	Branch string `default:"main"`
}

func (c *getCmd) Run(ctx *context) error {
	id, err := ctx.vs.BranchID(c.Branch)
	if err != nil {
		return err
	}
	v, err := ctx.vs.GetByBranch([]byte(c.Key), id)
	if err != nil {
		return err
	}
	if v == nil {
		fmt.Println("<absent>")
		return nil
	}
	fmt.Println(hex.EncodeToString(v))
	return nil
}

type insertCmd struct {
	Key    string `arg:""`
	Value  string `arg:""`
	Branch string `default:"main"`
}

func (c *insertCmd) Run(ctx *context) error {
	id, err := ctx.vs.BranchID(c.Branch)
	if err != nil {
		return err
	}
	_, err = ctx.vs.InsertByBranch([]byte(c.Key), []byte(c.Value), id)
	return err
}

type mergeCmd struct {
	Src    string `arg:""`
	Target string `arg:""`
	Force  bool
}

func (c *mergeCmd) Run(ctx *context) error {
	srcID, err := ctx.vs.BranchID(c.Src)
	if err != nil {
		return err
	}
	tgtID, err := ctx.vs.BranchID(c.Target)
	if err != nil {
		return err
	}
	return ctx.vs.BranchMergeTo(srcID, tgtID, c.Force)
}

type pruneCmd struct {
	ReservedN uint64 `arg:""`
}

func (c *pruneCmd) Run(ctx *context) error {
	return ctx.vs.Prune(c.ReservedN)
}

type checksumCmd struct {
	Branch string `default:"main"`
}

func (c *checksumCmd) Run(ctx *context) error {
	id, err := ctx.vs.BranchID(c.Branch)
	if err != nil {
		return err
	}
	sum, err := ctx.vs.ChecksumByBranch(id)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(sum))
	return nil
}

var cli struct {
	Dir string `help:"Store directory; overrides VSDB_BASE_DIR." optional:""`

	BranchCreate  branchCreateCmd  `cmd:"" name:"branch-create"`
	BranchRemove  branchRemoveCmd  `cmd:"" name:"branch-remove"`
	VersionCreate versionCreateCmd `cmd:"" name:"version-create"`
	Get           getCmd           `cmd:""`
	Insert        insertCmd        `cmd:""`
	Merge         mergeCmd         `cmd:""`
	Prune         pruneCmd         `cmd:""`
	Checksum      checksumCmd      `cmd:""`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("vsdbctl"),
		kong.Description("Inspect and mutate a vsdb-go versioned key-value store."),
	)

	cfg := vsdbcfg.Default()
	if cli.Dir != "" {
		cfg.SetBaseDir(cli.Dir)
	}
	if cfg.BaseDir == "" {
		kctx.Fatalf("no store directory: pass --dir or set %s", vsdbcfg.EnvBaseDir)
	}

	be, err := mdbxkv.Open(mdbxkv.Options{
		Dir:            cfg.BaseDir,
		MaxDBSizeBytes: cfg.MaxDBSizeBytes,
		CacheBytes:     cfg.CacheBytes,
	})
	if err != nil {
		kctx.FatalIfErrorf(errors.Wrap(err, "open store"))
	}
	defer be.Close()

	vs, err := versioned.Open(be)
	if err != nil {
		kctx.FatalIfErrorf(errors.Wrap(err, "open versioned map"))
	}

	err = kctx.Run(&context{vs: vs})
	kctx.FatalIfErrorf(err)

	if err := be.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "flush:", err)
		os.Exit(1)
	}
}
