// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cleanup

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/embeddedgo/svdgen/align"
	"github.com/embeddedgo/svdgen/regmap"
)

// NonUnique selects what happens to a cluster whose registers in one
// repeat all end up with the same name.
type NonUnique uint8

const (
	KeepNonUnique   NonUnique = iota // build the cluster, log a warning
	RejectNonUnique                  // leave the registers unclustered
)

func (n NonUnique) String() string {
	if n == RejectNonUnique {
		return "reject"
	}
	return "keep"
}

// ParseNonUnique parses the names returned by NonUnique.String.
func ParseNonUnique(s string) (NonUnique, error) {
	switch s {
	case "keep", "":
		return KeepNonUnique, nil
	case "reject":
		return RejectNonUnique, nil
	}
	return 0, fmt.Errorf("bad non-unique cluster policy %q (want keep or reject)", s)
}

// A Clusterer folds runs of repeated registers into clusters.
type Clusterer struct {
	ignore    *regexp.Regexp
	nonUnique NonUnique
	log       *slog.Logger
}

// NewClusterer returns a Clusterer configured by opts. The ignore pattern
// must match the whole "<scope>.<cluster>" path to reject a cluster.
func NewClusterer(opts Options) (*Clusterer, error) {
	c := &Clusterer{nonUnique: opts.NonUnique, log: opts.logger()}
	if opts.IgnoreCluster != "" {
		re, err := regexp.Compile(`^(?:` + opts.IgnoreCluster + `)$`)
		if err != nil {
			return nil, fmt.Errorf("ignore cluster pattern: %w", err)
		}
		c.ignore = re
	}
	return c, nil
}

// Cluster clusters the registers of every group.
func (c *Clusterer) Cluster(groups map[string]*regmap.Group) error {
	for _, name := range sortedKeys(groups) {
		g := groups[name]
		rs, err := c.Registers(g.Name, g.Registers)
		if err != nil {
			return err
		}
		g.Registers = rs
	}
	return nil
}

// Registers clusters rs and the registers nested in it and returns the
// resulting sequence. Scope names rs in log messages and ignore matching.
func (c *Clusterer) Registers(scope string, rs []*regmap.Register) ([]*regmap.Register, error) {
	for _, r := range rs {
		if len(r.Registers) == 0 {
			continue
		}
		nested, err := c.Registers(scope+"."+r.Name, r.Registers)
		if err != nil {
			return nil, err
		}
		r.Registers = nested
	}

	var runs []*run
	for offset := 0; offset < len(rs); {
		r, err := findRun(rs, offset, c.log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", scope, err)
		}
		if r == nil {
			offset++
			continue
		}
		runs = append(runs, r)
		offset = r.end()
	}
	names := make(map[string]int, len(runs))
	for _, r := range runs {
		names[r.name]++
	}

	// Splice from the end so the offsets of the remaining runs stay valid.
	for _, r := range slices.Backward(runs) {
		path := scope + "." + r.name
		first := rs[r.offset].Name
		if c.ignore != nil && c.ignore.MatchString(path) {
			c.log.Info("rejecting ignored cluster", "cluster", path)
			continue
		}
		if names[r.name] != 1 {
			c.log.Warn("rejecting cluster with duplicate name",
				"scope", scope, "cluster", r.name, "start", first)
			continue
		}
		if !r.uniqueMembers() {
			c.log.Warn("cluster has non-unique registers",
				"scope", scope, "registers", r.post, "start", first,
				"policy", c.nonUnique)
			if c.nonUnique == RejectNonUnique {
				continue
			}
		}
		cl, err := c.build(scope, rs[r.offset:r.end()], r)
		if err != nil {
			return nil, err
		}
		c.log.Debug("found cluster",
			"cluster", path, "length", r.length, "repeat", r.repeat,
			"increment", fmt.Sprintf("%#x", r.increment),
			"index", cl.DimIndex, "start", first)
		rs = slices.Replace(rs, r.offset, r.end(), cl)
	}
	return rs, nil
}

// build turns the registers regs of the run r into a cluster. The registers
// of the first repeat become the cluster members.
func (c *Clusterer) build(scope string, regs []*regmap.Register, r *run) (*regmap.Register, error) {
	base := regs[0].AddressOffset
	name := r.name + "[%s]"
	members := make([]*regmap.Register, r.length)
	for i := range members {
		var descr []string
		for k := i; k < len(regs); k += r.length {
			if d := regs[k].Description; d != "" {
				descr = append(descr, d)
			}
		}
		al, err := align.Strings(descr)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", scope, name, err)
		}
		m := *regs[i]
		m.Name = r.post[i]
		m.Description = al.String()
		m.AddressOffset -= base
		members[i] = &m
	}
	members, err := c.Registers(scope+"."+name, members)
	if err != nil {
		return nil, err
	}
	index := strings.Join(r.index, ",")
	return &regmap.Register{
		DimElement: regmap.DimElement{
			Dim:          uint(r.repeat),
			DimIncrement: r.increment,
			DimIndex:     index,
		},
		Kind: regmap.KindCluster,
		Name: name,
		Description: fmt.Sprintf(
			"Cluster %s.%s generated by svdgen, array index by %s",
			scope, name, index,
		),
		AddressOffset: base,
		Size:          uint(uint64(r.repeat) * r.increment * 8),
		Registers:     members,
	}, nil
}
