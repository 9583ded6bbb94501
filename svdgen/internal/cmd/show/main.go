// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package show

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/regmap"
	"github.com/embeddedgo/svdgen/svdgen/internal/config"
	"github.com/embeddedgo/svdgen/svdgen/internal/util"
)

const Descr = "print the cleaned up register map"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] SVD\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	load := config.Flags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	cfg, err := load()
	util.FatalErr("config", err)
	res, err := util.Load(fs.Arg(0), cfg.Options(util.Logger(cfg.Verbose)))
	util.FatalErr("", err)
	util.FatalErr("", List(os.Stdout, res))
}

// List writes the groups of res with their peripherals, registers and
// fields, followed by the interrupt table.
func List(w io.Writer, res *cleanup.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if d := res.Device; d != nil {
		fmt.Fprintf(tw, "device %s\twidth %d\t%s\n", d.Name, d.Width, d.Description)
	}
	for _, name := range res.GroupNames() {
		g := res.Groups[name]
		fmt.Fprintf(tw, "\ngroup %s\t\t%s\n", g.Name, g.Description)
		for _, p := range g.Peripherals {
			fmt.Fprintf(tw, "  %s\t%#x\t%s\n", p.Name, p.BaseAddress, irqs(p.Interrupts))
		}
		listRegs(tw, "  ", g.Registers)
	}
	if irqs := res.IRQs(); len(irqs) > 0 {
		fmt.Fprintln(tw, "\ninterrupts")
		for _, irq := range irqs {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", irq.Value, irq.Name, irq.Description)
		}
	}
	return tw.Flush()
}

func listRegs(w io.Writer, indent string, rs []*regmap.Register) {
	for _, r := range rs {
		for r.MetaCluster != nil {
			r = r.MetaCluster
		}
		if r.IsCluster() {
			fmt.Fprintf(w, "%s%#05x\tcluster\t%s\t%s\n", indent, r.AddressOffset, dimName(r), r.Description)
			listRegs(w, indent+"  ", r.Registers)
			continue
		}
		fmt.Fprintf(
			w, "%s%#05x\t%d %s\t%s\t%s\n",
			indent, r.AddressOffset, r.Size, access(r.Access), dimName(r), r.Description,
		)
		for _, f := range r.Fields {
			fmt.Fprintf(
				w, "%s  %s\t%s\t%s\t%s\n",
				indent, bits(f), access(f.Access), f.Name, f.Description,
			)
		}
	}
}

func dimName(r *regmap.Register) string {
	name := r.Name
	if name == "" {
		name = "-"
	}
	if r.Dim > 0 {
		name += fmt.Sprintf(" dim=%d inc=%#x", r.Dim, r.DimIncrement)
		if r.DimIndex != "" {
			name += " index=" + r.DimIndex
		}
	}
	return name
}

func bits(f *regmap.Field) string {
	if f.BitWidth <= 1 {
		return fmt.Sprintf("[%d]", f.BitOffset)
	}
	return fmt.Sprintf("[%d:%d]", f.BitOffset+f.BitWidth-1, f.BitOffset)
}

func access(a regmap.Access) string {
	s := ""
	if a.CanRead() {
		s += "r"
	}
	if a.CanWrite() {
		s += "w"
	}
	if s == "" {
		return "-"
	}
	return s
}

func irqs(is []*regmap.Interrupt) string {
	if len(is) == 0 {
		return "-"
	}
	names := make([]string, len(is))
	for i, irq := range is {
		names[i] = fmt.Sprintf("%s(%d)", irq.Name, irq.Value)
	}
	return strings.Join(names, ",")
}
