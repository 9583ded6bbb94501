// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/embeddedgo/svdgen/svdgen/internal/config"
	"github.com/embeddedgo/svdgen/svdgen/internal/hexmap"
	"github.com/embeddedgo/svdgen/svdgen/internal/util"
)

const Descr = "write the register reset values in the Intel HEX format"

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
	log := util.Logger(cfg.Verbose)
	out := fs.Arg(1)
	if out == "" {
		out = cfg.Output
	}
	out = util.OutFile(fs.Arg(0), out, ".hex")
	res, err := util.Load(fs.Arg(0), cfg.Options(log))
	util.FatalErr("", err)
	mem, err := hexmap.Image(res, log)
	util.FatalErr("image", err)
	if len(mem.GetDataSegments()) == 0 {
		util.Warn("%s: no register reset values", fs.Arg(0))
	}
	of, err := os.Create(out)
	util.FatalErr("", err)
	defer of.Close()
	err = hexmap.Write(of, mem, cfg.HexLine)
	util.FatalErr("dumpintelhex", err)
}
