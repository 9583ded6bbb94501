// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package svd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/embeddedgo/svdgen/regmap"
)

// props are the register properties in effect at some level of the
// device tree.
type props struct {
	size       uint
	access     regmap.Access
	protection string
	resetValue uint64
	resetMask  uint64
}

func (p props) merge(g *RegisterPropertiesGroup) props {
	if g == nil {
		return p
	}
	if g.Size != nil {
		p.size = uint(*g.Size)
	}
	if g.Access != nil {
		p.access = regmap.Access(strings.TrimSpace(*g.Access))
	}
	if g.Protection != nil {
		p.protection = *g.Protection
	}
	if g.ResetValue != nil {
		p.resetValue = uint64(*g.ResetValue)
	}
	if g.ResetMask != nil {
		p.resetMask = uint64(*g.ResetMask)
	}
	return p
}

// overlay returns the properties of g replaced by those set in o.
func (g *RegisterPropertiesGroup) overlay(o *RegisterPropertiesGroup) *RegisterPropertiesGroup {
	if g == nil {
		return o
	}
	if o == nil {
		return g
	}
	r := *g
	if o.Size != nil {
		r.Size = o.Size
	}
	if o.Access != nil {
		r.Access = o.Access
	}
	if o.Protection != nil {
		r.Protection = o.Protection
	}
	if o.ResetValue != nil {
		r.ResetValue = o.ResetValue
	}
	if o.ResetMask != nil {
		r.ResetMask = o.ResetMask
	}
	return &r
}

// Model converts d into the register map model.
//
// Register properties (size, access, protection, reset value and mask) are
// inherited from the device down to the fields. Access defaults to
// read-write and size to the device width. Derived peripherals, registers,
// clusters and fields get everything they do not define themselves from
// the element they are derived from. A peripheral without a group name is
// grouped by its name with digits dropped. Dim lists (names containing %s)
// are expanded into separate elements, dim arrays (names ending with [%s])
// are kept as single elements. Every <cluster> becomes a meta cluster
// wrapper register. Unknown register and field elements are kept as
// extensions.
func (d *Device) Model() (*regmap.Device, error) {
	dev := &regmap.Device{
		Name:        d.Name,
		Width:       uint(d.Width),
		Description: d.Description,
	}
	if dev.Width == 0 {
		dev.Width = 32
	}
	inh := props{size: dev.Width, access: regmap.ReadWrite}.merge(d.RegisterPropertiesGroup)
	scope := make(map[string]*Peripheral, len(d.Peripherals))
	for _, p := range d.Peripherals {
		scope[p.Name] = p
	}
	for _, p := range d.Peripherals {
		ps, err := peripheral(p, scope, inh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
		dev.Peripherals = append(dev.Peripherals, ps...)
	}
	return dev, nil
}

func peripheral(p *Peripheral, scope map[string]*Peripheral, inh props) ([]*regmap.Peripheral, error) {
	p, err := resolvePeripheral(p, scope, 0)
	if err != nil {
		return nil, err
	}
	inh = inh.merge(p.RegisterPropertiesGroup)
	es, err := elements(p.Name, &p.DimElementGroup, uint64(p.BaseAddress), true)
	if err != nil {
		return nil, fmt.Errorf("peripheral %w", err)
	}
	var ps []*regmap.Peripheral
	for _, e := range es {
		rp := &regmap.Peripheral{
			Name:        e.name,
			GroupName:   str(p.GroupName),
			BaseAddress: e.offset,
			Description: e.subst(str(p.Description)),
		}
		if rp.GroupName == "" {
			rp.GroupName = dropDigits(strings.ReplaceAll(p.Name, "%s", ""))
		}
		for _, irq := range p.Interrupts {
			rp.Interrupts = append(rp.Interrupts, &regmap.Interrupt{
				Name:        irq.Name,
				Value:       int(irq.Value),
				Description: str(irq.Description),
			})
		}
		if rp.Registers, err = registers(p.Registers, inh); err != nil {
			return nil, fmt.Errorf("peripheral %s: %w", rp.Name, err)
		}
		cs, err := clusters(p.Clusters, inh)
		if err != nil {
			return nil, fmt.Errorf("peripheral %s: %w", rp.Name, err)
		}
		rp.Registers = append(rp.Registers, cs...)
		ps = append(ps, rp)
	}
	return ps, nil
}

// resolvePeripheral returns p completed with what it inherits from the
// peripheral it is derived from. Interrupts are never inherited.
func resolvePeripheral(p *Peripheral, scope map[string]*Peripheral, depth int) (*Peripheral, error) {
	if p.DerivedFrom == nil {
		return p, nil
	}
	if depth > len(scope) {
		return nil, fmt.Errorf("peripheral %s: derivedFrom loop", p.Name)
	}
	from := scope[*p.DerivedFrom]
	if from == nil {
		return nil, fmt.Errorf("peripheral %s derived from unknown %s", p.Name, *p.DerivedFrom)
	}
	from, err := resolvePeripheral(from, scope, depth+1)
	if err != nil {
		return nil, err
	}
	r := *p
	r.DerivedFrom = nil
	if r.Description == nil {
		r.Description = from.Description
	}
	if r.GroupName == nil {
		r.GroupName = from.GroupName
	}
	r.RegisterPropertiesGroup = from.RegisterPropertiesGroup.overlay(p.RegisterPropertiesGroup)
	if len(r.Registers) == 0 && len(r.Clusters) == 0 {
		r.Registers, r.Clusters = from.Registers, from.Clusters
	}
	return &r, nil
}

func registers(rs []*Register, inh props) ([]*regmap.Register, error) {
	scope := make(map[string]*Register, len(rs))
	for _, r := range rs {
		scope[r.Name] = r
	}
	var out []*regmap.Register
	for _, r := range rs {
		r, err := resolveRegister(r, scope, 0)
		if err != nil {
			return nil, err
		}
		p := inh.merge(r.RegisterPropertiesGroup)
		es, err := elements(r.Name, &r.DimElementGroup, uint64(r.AddressOffset), false)
		if err != nil {
			return nil, fmt.Errorf("register %w", err)
		}
		for _, e := range es {
			fs, err := fields(r.Fields, p.access)
			if err != nil {
				return nil, fmt.Errorf("register %s: %w", e.name, err)
			}
			out = append(out, &regmap.Register{
				DimElement:          e.dim,
				Name:                e.name,
				DisplayName:         e.subst(str(r.DisplayName)),
				Description:         e.subst(str(r.Description)),
				AlternateGroup:      str(r.AlternateGroup),
				AlternateRegister:   str(r.AlternateRegister),
				DerivedFrom:         str(r.DerivedFrom),
				AddressOffset:       e.offset,
				Size:                p.size,
				Access:              p.access,
				Protection:          p.protection,
				ResetValue:          p.resetValue,
				ResetMask:           p.resetMask,
				DataType:            str(r.DataType),
				ModifiedWriteValues: str(r.ModifiedWriteValues),
				ReadAction:          str(r.ReadAction),
				WriteConstraint:     writeConstraint(r.WriteConstraint),
				Fields:              fs,
				Extensions:          extensions(r.Extensions),
			})
		}
	}
	return out, nil
}

// derivedName returns the last element of a possibly dotted derivedFrom
// path.
func derivedName(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func resolveRegister(r *Register, scope map[string]*Register, depth int) (*Register, error) {
	if r.DerivedFrom == nil {
		return r, nil
	}
	from := scope[derivedName(*r.DerivedFrom)]
	if from == nil || depth > len(scope) {
		return nil, fmt.Errorf("register %s derived from unknown %s", r.Name, *r.DerivedFrom)
	}
	from, err := resolveRegister(from, scope, depth+1)
	if err != nil {
		return nil, err
	}
	x := *r
	if x.DisplayName == nil {
		x.DisplayName = from.DisplayName
	}
	if x.Description == nil {
		x.Description = from.Description
	}
	x.RegisterPropertiesGroup = from.RegisterPropertiesGroup.overlay(r.RegisterPropertiesGroup)
	if x.DataType == nil {
		x.DataType = from.DataType
	}
	if x.ModifiedWriteValues == nil {
		x.ModifiedWriteValues = from.ModifiedWriteValues
	}
	if x.WriteConstraint == nil {
		x.WriteConstraint = from.WriteConstraint
	}
	if x.ReadAction == nil {
		x.ReadAction = from.ReadAction
	}
	if x.Fields == nil {
		x.Fields = from.Fields
	}
	if x.Extensions == nil {
		x.Extensions = from.Extensions
	}
	return &x, nil
}

func clusters(cs []*Cluster, inh props) ([]*regmap.Register, error) {
	scope := make(map[string]*Cluster, len(cs))
	for _, c := range cs {
		scope[c.Name] = c
	}
	var out []*regmap.Register
	for _, c := range cs {
		c, err := resolveCluster(c, scope, 0)
		if err != nil {
			return nil, err
		}
		p := inh.merge(c.RegisterPropertiesGroup)
		es, err := elements(c.Name, &c.DimElementGroup, uint64(c.AddressOffset), false)
		if err != nil {
			return nil, fmt.Errorf("cluster %w", err)
		}
		for _, e := range es {
			rs, err := registers(c.Registers, p)
			if err != nil {
				return nil, fmt.Errorf("cluster %s: %w", e.name, err)
			}
			nested, err := clusters(c.Clusters, p)
			if err != nil {
				return nil, fmt.Errorf("cluster %s: %w", e.name, err)
			}
			rs = append(rs, nested...)
			out = append(out, &regmap.Register{
				Name: e.name,
				MetaCluster: &regmap.Register{
					DimElement:       e.dim,
					Kind:             regmap.KindCluster,
					Name:             e.name,
					Description:      e.subst(str(c.Description)),
					HeaderStructName: str(c.HeaderStructName),
					AlternateCluster: str(c.AlternateCluster),
					DerivedFrom:      str(c.DerivedFrom),
					AddressOffset:    e.offset,
					Size:             span(rs),
					Registers:        rs,
				},
			})
		}
	}
	return out, nil
}

func resolveCluster(c *Cluster, scope map[string]*Cluster, depth int) (*Cluster, error) {
	if c.DerivedFrom == nil {
		return c, nil
	}
	from := scope[derivedName(*c.DerivedFrom)]
	if from == nil || depth > len(scope) {
		return nil, fmt.Errorf("cluster %s derived from unknown %s", c.Name, *c.DerivedFrom)
	}
	from, err := resolveCluster(from, scope, depth+1)
	if err != nil {
		return nil, err
	}
	x := *c
	if x.Description == nil {
		x.Description = from.Description
	}
	if x.HeaderStructName == nil {
		x.HeaderStructName = from.HeaderStructName
	}
	x.RegisterPropertiesGroup = from.RegisterPropertiesGroup.overlay(c.RegisterPropertiesGroup)
	if len(x.Registers) == 0 && len(x.Clusters) == 0 {
		x.Registers, x.Clusters = from.Registers, from.Clusters
	}
	return &x, nil
}

// span returns the size in bits of the address range covered by rs.
func span(rs []*regmap.Register) uint {
	var end uint64
	for _, r := range rs {
		n := uint64(r.Size+7) / 8
		if r.Dim > 1 {
			n += uint64(r.Dim-1) * r.DimIncrement
		}
		end = max(end, r.AddressOffset+n)
	}
	return uint(end * 8)
}

func fields(fs []*Field, access regmap.Access) ([]*regmap.Field, error) {
	scope := make(map[string]*Field, len(fs))
	for _, f := range fs {
		scope[f.Name] = f
	}
	var out []*regmap.Field
	for _, f := range fs {
		f, err := resolveField(f, scope, 0)
		if err != nil {
			return nil, err
		}
		off, width, err := bitRange(f)
		if err != nil {
			return nil, err
		}
		a := access
		if f.Access != nil {
			a = regmap.Access(strings.TrimSpace(*f.Access))
		}
		es, err := elements(f.Name, &f.DimElementGroup, uint64(off), false)
		if err != nil {
			return nil, fmt.Errorf("field %w", err)
		}
		for _, e := range es {
			out = append(out, &regmap.Field{
				DimElement:          e.dim,
				Name:                e.name,
				Description:         e.subst(str(f.Description)),
				DerivedFrom:         str(f.DerivedFrom),
				BitOffset:           uint(e.offset),
				BitWidth:            width,
				Access:              a,
				ModifiedWriteValues: str(f.ModifiedWriteValues),
				ReadAction:          str(f.ReadAction),
				WriteConstraint:     writeConstraint(f.WriteConstraint),
				EnumeratedValues:    enumeratedValues(f.EnumeratedValues),
				Extensions:          extensions(f.Extensions),
			})
		}
	}
	return out, nil
}

func resolveField(f *Field, scope map[string]*Field, depth int) (*Field, error) {
	if f.DerivedFrom == nil {
		return f, nil
	}
	from := scope[derivedName(*f.DerivedFrom)]
	if from == nil || depth > len(scope) {
		return nil, fmt.Errorf("field %s derived from unknown %s", f.Name, *f.DerivedFrom)
	}
	from, err := resolveField(from, scope, depth+1)
	if err != nil {
		return nil, err
	}
	x := *f
	if x.Description == nil {
		x.Description = from.Description
	}
	if x.BitRangeOffsetWidth == nil && x.BitRangeLSBMSB == nil && x.BitRangePattern == nil {
		x.BitRangeOffsetWidth = from.BitRangeOffsetWidth
		x.BitRangeLSBMSB = from.BitRangeLSBMSB
		x.BitRangePattern = from.BitRangePattern
	}
	if x.Access == nil {
		x.Access = from.Access
	}
	if x.ModifiedWriteValues == nil {
		x.ModifiedWriteValues = from.ModifiedWriteValues
	}
	if x.WriteConstraint == nil {
		x.WriteConstraint = from.WriteConstraint
	}
	if x.ReadAction == nil {
		x.ReadAction = from.ReadAction
	}
	if x.EnumeratedValues == nil {
		x.EnumeratedValues = from.EnumeratedValues
	}
	return &x, nil
}

// bitRange returns the bit offset and width of f given in any of the three
// SVD notations.
func bitRange(f *Field) (offset, width uint, err error) {
	switch {
	case f.BitRangeOffsetWidth != nil:
		width = 1
		if f.BitWidth != nil {
			width = uint(*f.BitWidth)
		}
		return uint(f.BitOffset), width, nil
	case f.BitRangeLSBMSB != nil:
		if f.MSB < f.LSB {
			return 0, 0, fmt.Errorf("field %s: msb %d < lsb %d", f.Name, f.MSB, f.LSB)
		}
		return uint(f.LSB), uint(f.MSB-f.LSB) + 1, nil
	case f.BitRangePattern != nil:
		var msb, lsb uint
		_, err := fmt.Sscanf(strings.TrimSpace(*f.BitRangePattern), "[%d:%d]", &msb, &lsb)
		if err != nil || msb < lsb {
			return 0, 0, fmt.Errorf("field %s: bad bit range %q", f.Name, *f.BitRangePattern)
		}
		return lsb, msb - lsb + 1, nil
	}
	return 0, 0, fmt.Errorf("field %s: bit range not specified", f.Name)
}

// element is a single peripheral, register, cluster or field after dim
// list expansion.
type element struct {
	name   string
	index  string
	offset uint64
	dim    regmap.DimElement
}

// subst replaces %s in s with the list index of e.
func (e *element) subst(s string) string {
	if e.index == "" {
		return s
	}
	return strings.ReplaceAll(s, "%s", e.index)
}

// elements expands the dim list described by name and de. Arrays (names
// ending with [%s]) stay single elements unless expandArrays is set.
func elements(name string, de *DimElementGroup, offset uint64, expandArrays bool) ([]element, error) {
	if de.Dim == 0 {
		return []element{{name: name, offset: offset}}, nil
	}
	array := strings.HasSuffix(name, "[%s]")
	if array && !expandArrays {
		return []element{{
			name:   name,
			offset: offset,
			dim: regmap.DimElement{
				Dim:          uint(de.Dim),
				DimIncrement: uint64(de.DimIncrement),
				DimIndex:     str(de.DimIndex),
				DimName:      str(de.DimName),
			},
		}}, nil
	}
	if !strings.Contains(name, "%s") {
		return nil, fmt.Errorf("%s: dim element without %%s in its name", name)
	}
	index, err := dimIndex(de)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tmpl := name
	if array {
		tmpl = strings.TrimSuffix(name, "[%s]") + "%s"
	}
	es := make([]element, len(index))
	for i, idx := range index {
		es[i] = element{
			name:   strings.Replace(tmpl, "%s", idx, 1),
			index:  idx,
			offset: offset + uint64(i)*uint64(de.DimIncrement),
		}
	}
	return es, nil
}

// dimIndex returns the indexes of a dim list: the comma separated list or
// the numeric or single letter range of dimIndex, 0 to dim-1 by default.
func dimIndex(de *DimElementGroup) ([]string, error) {
	n := int(de.Dim)
	var index []string
	if de.DimIndex == nil {
		for i := range n {
			index = append(index, strconv.Itoa(i))
		}
		return index, nil
	}
	s := strings.TrimSpace(*de.DimIndex)
	lo, hi, isRange := strings.Cut(s, "-")
	switch {
	case isRange && !strings.Contains(s, ","):
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		switch {
		case errA == nil && errB == nil && a <= b:
			for i := a; i <= b; i++ {
				index = append(index, strconv.Itoa(i))
			}
		case len(lo) == 1 && len(hi) == 1 && lo[0] <= hi[0]:
			for c := int(lo[0]); c <= int(hi[0]); c++ {
				index = append(index, string(rune(c)))
			}
		default:
			return nil, fmt.Errorf("bad dimIndex %q", s)
		}
	default:
		for _, e := range strings.Split(s, ",") {
			index = append(index, strings.TrimSpace(e))
		}
	}
	if len(index) != n {
		return nil, fmt.Errorf("dimIndex %q has %d elements, dim is %d", s, len(index), n)
	}
	return index, nil
}

func writeConstraint(wc *WriteConstraint) *regmap.WriteConstraint {
	if wc == nil {
		return nil
	}
	r := &regmap.WriteConstraint{
		WriteAsRead:         wc.WriteAsRead != nil && *wc.WriteAsRead,
		UseEnumeratedValues: wc.UseEnumeratedValues != nil && *wc.UseEnumeratedValues,
	}
	if wc.Range != nil {
		r.Range = &regmap.Range{
			Minimum: uint64(wc.Range.Minimum),
			Maximum: uint64(wc.Range.Maximum),
		}
	}
	return r
}

func enumeratedValues(evs []*EnumeratedValues) []*regmap.EnumeratedValues {
	var out []*regmap.EnumeratedValues
	for _, ev := range evs {
		r := &regmap.EnumeratedValues{Name: str(ev.Name), Usage: str(ev.Usage)}
		for _, v := range ev.EnumeratedValue {
			r.Values = append(r.Values, &regmap.EnumeratedValue{
				Name:        str(v.Name),
				Description: str(v.Description),
				Value:       strings.TrimSpace(str(v.Value)),
				IsDefault:   v.IsDefault != nil && *v.IsDefault,
			})
		}
		out = append(out, r)
	}
	return out
}

func extensions(es []*Extension) []*regmap.Extension {
	var out []*regmap.Extension
	for _, e := range es {
		out = append(out, &regmap.Extension{
			Name:  e.XMLName.Local,
			Value: strings.TrimSpace(e.Value),
		})
	}
	return out
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dropDigits removes all decimal digits from s.
func dropDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}
