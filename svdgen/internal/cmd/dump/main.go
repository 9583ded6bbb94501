// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dump

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/embeddedgo/svdgen/svdgen/internal/config"
	"github.com/embeddedgo/svdgen/svdgen/internal/export"
	"github.com/embeddedgo/svdgen/svdgen/internal/util"
)

const Descr = "write the cleaned up register map in YAML or CBOR"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] SVD [%s]\nOptions:\n",
			cmd, strings.ToUpper(cmd),
		)
		fs.PrintDefaults()
	}
	load := config.Flags(fs)
	fs.Parse(args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	cfg, err := load()
	util.FatalErr("config", err)
	out := fs.Arg(1)
	if out == "" {
		out = cfg.Output
	}
	out = util.OutFile(fs.Arg(0), out, ".yaml")
	if _, err := export.FormatOf(out); err != nil {
		util.Fatal("%s: %v", out, err)
	}
	res, err := util.Load(fs.Arg(0), cfg.Options(util.Logger(cfg.Verbose)))
	util.FatalErr("", err)
	util.FatalErr("export", export.WriteFile(out, res))
}
