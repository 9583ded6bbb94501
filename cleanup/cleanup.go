// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cleanup normalizes a register map before an interface is
// generated for it.
//
// Peripherals sharing a group name are collected into a single group,
// meta clusters are flattened, registers and fields are sorted and runs of
// repeated registers (CH1DATA, CH2DATA, ...) are folded into indexed
// clusters. Two runs of registers repeat if, for every register position in
// the run, the registers have the same name prefix, the same index and an
// optional common name suffix, differ in address by a fixed increment and
// are otherwise similar (see Similar). Their descriptions are merged into a
// template where the differing parts are written as [a|b|c].
package cleanup

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/embeddedgo/svdgen/regmap"
)

// Options control the cleanup. The zero value builds every cluster found.
type Options struct {
	// IgnoreCluster is a regular expression. Clusters whose path
	// "<scope>.<cluster>" it fully matches are not built.
	IgnoreCluster string

	// NonUnique decides what happens to clusters whose members share a name.
	NonUnique NonUnique

	// Logger receives the diagnostics, slog.Default() if nil.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Result is everything an interface generator needs.
type Result struct {
	Device     *regmap.Device
	Groups     map[string]*regmap.Group
	Interrupts map[int]*regmap.Interrupt
}

// GroupNames returns the group names in lexical order.
func (r *Result) GroupNames() []string { return sortedKeys(r.Groups) }

// IRQs returns the interrupts sorted by value.
func (r *Result) IRQs() []*regmap.Interrupt {
	irqs := make([]*regmap.Interrupt, 0, len(r.Interrupts))
	for _, v := range sortedKeys(r.Interrupts) {
		irqs = append(irqs, r.Interrupts[v])
	}
	return irqs
}

// Run performs the whole cleanup of dev, which is modified in place. It
// fails without modifying dev if a field has an unsupported access mode.
func Run(dev *regmap.Device, opts Options) (*Result, error) {
	if err := CheckAccess(dev); err != nil {
		return nil, err
	}
	c, err := NewClusterer(opts)
	if err != nil {
		return nil, err
	}
	groups := Group(dev)
	Flatten(groups)
	Clean(groups)
	if err := c.Cluster(groups); err != nil {
		return nil, err
	}
	Annotate(dev, opts)
	return &Result{
		Device:     dev,
		Groups:     groups,
		Interrupts: Interrupts(dev),
	}, nil
}

const auditPrefix = "[svdgen:"

// Annotate appends the cleanup parameters to the device description,
// replacing an annotation left by a previous run.
func Annotate(dev *regmap.Device, opts Options) {
	d := dev.Description
	if i := strings.Index(d, auditPrefix); i >= 0 {
		d = d[:i]
	}
	d = CleanDescription(d)
	audit := fmt.Sprintf(
		"%s ignore_cluster=%q non_unique=%s]",
		auditPrefix, opts.IgnoreCluster, opts.NonUnique,
	)
	if d != "" {
		d += " "
	}
	dev.Description = d + audit
}
