// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cleanup

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/embeddedgo/svdgen/regmap"
)

// AccessError reports a field with an access mode no interface can be
// generated for.
type AccessError struct {
	Access     regmap.Access
	Field      string
	Register   string
	Peripheral string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf(
		"unsupported access %q for field %q of register %q of peripheral %q",
		e.Access, e.Field, e.Register, e.Peripheral,
	)
}

// CheckAccess returns an *AccessError for the first field of dev with an
// unsupported access mode.
func CheckAccess(dev *regmap.Device) error {
	var err error
	for _, p := range dev.Peripherals {
		regmap.Walk(p.Registers, func(r *regmap.Register) {
			if err != nil {
				return
			}
			for _, f := range r.Fields {
				if !f.Access.Supported() {
					err = &AccessError{f.Access, f.Name, r.Name, p.Name}
					return
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Group collects the peripherals of dev by their group name. The first
// peripheral of every group gives the group its description and registers.
// These are removed from all grouped peripherals.
func Group(dev *regmap.Device) map[string]*regmap.Group {
	groups := make(map[string]*regmap.Group)
	for _, p := range dev.Peripherals {
		g := groups[p.GroupName]
		if g == nil {
			g = &regmap.Group{
				Name:        p.GroupName,
				Description: p.Description,
				Registers:   p.Registers,
			}
			groups[p.GroupName] = g
		}
		g.Peripherals = append(g.Peripherals, p)
		p.Description = ""
		p.Registers = nil
	}
	return groups
}

// Ungroup is the inverse of Group. Every peripheral of dev gets the
// description and registers of its group back. The registers are shared by
// all peripherals of a group.
func Ungroup(dev *regmap.Device, groups map[string]*regmap.Group) {
	for _, p := range dev.Peripherals {
		if g := groups[p.GroupName]; g != nil {
			p.Description = g.Description
			p.Registers = g.Registers
		}
	}
}

// Flatten replaces every meta cluster wrapper by the cluster it wraps.
func Flatten(groups map[string]*regmap.Group) {
	for _, g := range groups {
		flatten(g.Registers)
	}
}

func flatten(rs []*regmap.Register) {
	for i, r := range rs {
		for r.MetaCluster != nil {
			r = r.MetaCluster
			rs[i] = r
		}
		flatten(r.Registers)
	}
}

// Clean sorts registers by address offset and fields by bit offset, in
// every scope, and collapses white space in all descriptions.
func Clean(groups map[string]*regmap.Group) {
	for _, g := range groups {
		g.Description = CleanDescription(g.Description)
		cleanRegisters(g.Registers)
	}
}

func cleanRegisters(rs []*regmap.Register) {
	for _, r := range rs {
		r.Description = CleanDescription(r.Description)
		for _, f := range r.Fields {
			f.Description = CleanDescription(f.Description)
		}
		slices.SortStableFunc(r.Fields, func(a, b *regmap.Field) int {
			return cmp.Compare(a.BitOffset, b.BitOffset)
		})
		cleanRegisters(r.Registers)
	}
	slices.SortStableFunc(rs, func(a, b *regmap.Register) int {
		return cmp.Compare(a.AddressOffset, b.AddressOffset)
	})
}

// CleanDescription joins the words of s with single spaces.
func CleanDescription(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Interrupts returns the interrupts of all peripherals of dev by their
// value. If two interrupts share a value the later one wins.
func Interrupts(dev *regmap.Device) map[int]*regmap.Interrupt {
	irqs := make(map[int]*regmap.Interrupt)
	for _, p := range dev.Peripherals {
		for _, irq := range p.Interrupts {
			irqs[irq.Value] = &regmap.Interrupt{
				Name:        irq.Name,
				Value:       irq.Value,
				Description: CleanDescription(irq.Description),
			}
		}
	}
	return irqs
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
