// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/embeddedgo/svdgen/svdgen/internal/config"
	"github.com/embeddedgo/svdgen/svdgen/internal/render"
	"github.com/embeddedgo/svdgen/svdgen/internal/util"
)

const Descr = "generate Go register access packages from SVD files"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] SVD...\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	load := config.Flags(fs)
	jobs := fs.Int("j", runtime.NumCPU(), "number of SVD files processed concurrently")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	cfg, err := load()
	util.FatalErr("config", err)
	log := util.Logger(cfg.Verbose)

	dir := cfg.Output
	if dir == "" {
		dir = "."
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		util.Fatal("%s is not a directory", dir)
	}
	root := cfg.ImportRoot
	if root == "" {
		root, err = util.ImportPath(dir)
		util.FatalErr("import root", err)
	}

	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for _, name := range fs.Args() {
		g.Go(func() error {
			return generate(name, dir, root, cfg, log)
		})
	}
	util.FatalErr("", g.Wait())
}

func generate(name, dir, root string, cfg *config.Config, log *slog.Logger) error {
	mcu := util.MCU(name)
	log = log.With("mcu", mcu)
	res, err := util.Load(name, cfg.Options(log))
	if err != nil {
		return err
	}
	if len(res.Groups) == 0 {
		util.Warn("%s: no peripherals", name)
	}
	gen := &render.Generator{MCU: mcu, ImportRoot: root, Log: log}
	if err := gen.Write(dir, res); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug("done", "groups", len(res.Groups), "interrupts", len(res.Interrupts))
	return nil
}
