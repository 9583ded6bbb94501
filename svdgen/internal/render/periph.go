// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/embeddedgo/svdgen/regmap"
)

type periphData struct {
	MCU        string
	ImportRoot string
	Pkg        string
	Doc        string
	Instances  []*instance
	Structs    []*structType
	Regs       []*regType
}

type instance struct {
	Func string
	Base string
}

type structType struct {
	Name   string
	Fields []*structField
	align  uint64
}

// structField is a struct member. Reserved space has an empty name.
type structField struct {
	name string
	Len  uint
	Elem string
}

func (f *structField) Name() string {
	if f.name == "" {
		return "_"
	}
	return f.name
}

func (f *structField) Type() string {
	if f.Len == 0 {
		return f.Elem
	}
	return fmt.Sprintf("[%d]%s", f.Len, f.Elem)
}

type regType struct {
	Name string
	Uint string
	Bits []*bitField
}

type bitField struct {
	Name   string
	Mask   uint64
	Shift  uint
	Descr  string
	Values []*bitValue
	name   string
	field  *regmap.Field
}

type bitValue struct {
	Name  string
	Value uint64
	Shift uint
	Descr string
}

// builder collects the declarations of a single peripheral package.
type builder struct {
	log     *slog.Logger
	structs []*structType
	regs    []*regType
	idents  map[string]bool
}

func (g *Generator) periph(grp *regmap.Group) *periphData {
	b := &builder{
		log:    g.log().With("group", grp.Name),
		idents: map[string]bool{"Periph": true},
	}
	data := &periphData{
		MCU:        g.MCU,
		ImportRoot: g.ImportRoot,
		Pkg:        PkgName(grp.Name),
	}
	for _, p := range grp.Peripherals {
		name := b.ident(p.Name)
		data.Instances = append(data.Instances, &instance{
			Func: name,
			Base: ident(p.Name) + "_BASE",
		})
	}
	b.layout("Periph", "", grp.Registers, 0)
	b.nameBits()
	data.Structs = b.structs
	data.Regs = b.regs
	data.Doc = doc(data.Pkg, grp)
	return data
}

// ident returns a unique package level identifier based on s.
func (b *builder) ident(s string) string {
	s = ident(s)
	name := s
	for i := 2; b.idents[name]; i++ {
		name = s + strconv.Itoa(i)
	}
	b.idents[name] = true
	return name
}

// layout declares the struct type name with the registers rs as members.
// Gaps between registers are filled with reserved space using the largest
// naturally aligned words up to 32 bits. If size is not zero the struct is
// padded up to size bytes. Registers that overlap the previous ones or are
// not properly aligned are skipped. Layout returns the declared struct and
// the size of its content.
func (b *builder) layout(name, prefix string, rs []*regmap.Register, size uint64) (*structType, uint64) {
	st := &structType{Name: name, align: 1}
	b.structs = append(b.structs, st)
	var next uint64
	members := make(map[string]int)
	for _, r := range rs {
		for r.MetaCluster != nil {
			r = r.MetaCluster
		}
		rname := prefix + r.Name
		if r.AddressOffset < next {
			b.log.Warn("skipping overlapping register", "register", rname,
				"offset", fmt.Sprintf("%#x", r.AddressOffset))
			continue
		}
		elem, esize, align, ok := b.element(prefix, r)
		if !ok {
			continue
		}
		if r.AddressOffset%align != 0 {
			b.log.Warn("skipping misaligned register", "register", rname,
				"offset", fmt.Sprintf("%#x", r.AddressOffset))
			continue
		}
		n := uint64(1)
		if r.Dim > 0 {
			if r.DimIncrement != esize {
				b.log.Warn("dimIncrement does not match register size", "register", rname,
					"increment", r.DimIncrement, "size", esize)
				continue
			}
			n = uint64(r.Dim)
		}
		st.pad(next, r.AddressOffset)
		fname := ident(r.Name)
		if r.Name == "" || strings.HasPrefix(r.Name, "[%s]") {
			fname = "R"
		}
		if k := members[fname]; k > 0 {
			members[fname]++
			fname += strconv.Itoa(k + 1)
		} else {
			members[fname] = 1
		}
		st.Fields = append(st.Fields, &structField{name: fname, Len: r.Dim, Elem: elem})
		st.align = max(st.align, align)
		next = r.AddressOffset + n*esize
	}
	if size > next {
		st.pad(next, size)
	}
	return st, next
}

func (st *structType) pad(next, offset uint64) {
	for offset > next {
		siz := uint64(4)
		for next+siz > offset || next&(siz-1) != 0 {
			siz >>= 1
		}
		elem := fmt.Sprintf("uint%d", siz*8)
		if n := len(st.Fields); n > 0 && st.Fields[n-1].name == "" && st.Fields[n-1].Elem == elem {
			last := st.Fields[n-1]
			if last.Len == 0 {
				last.Len = 2
			} else {
				last.Len++
			}
		} else {
			st.Fields = append(st.Fields, &structField{Elem: elem})
		}
		next += siz
	}
}

// element returns the Go type of a single element of r, its size and its
// alignment in bytes.
func (b *builder) element(prefix string, r *regmap.Register) (typ string, size, align uint64, ok bool) {
	base := prefix + r.Name
	if !r.IsCluster() {
		switch r.Size {
		case 8, 16, 32, 64:
		default:
			b.log.Warn("register size not supported", "register", base, "size", r.Size)
			return "", 0, 0, false
		}
		rt := b.regType(base, r)
		size = uint64(r.Size / 8)
		return fmt.Sprintf("mmio.R%d[%s]", r.Size, rt.Name), size, size, true
	}
	if len(r.Registers) == 0 {
		b.log.Warn("skipping empty cluster", "register", base)
		return "", 0, 0, false
	}
	size = r.DimIncrement
	if r.Dim == 0 {
		size = uint64(r.Size / 8)
	}
	if m := r.Registers[0]; len(r.Registers) == 1 && !m.IsCluster() && m.MetaCluster == nil &&
		m.AddressOffset == 0 && uint64(m.Size/8) == size {
		// Array of single registers.
		name := strings.TrimSuffix(r.Name, "[%s]") + m.Name
		return b.element(prefix, &regmap.Register{
			Name:        name,
			Description: m.Description,
			Size:        m.Size,
			Fields:      m.Fields,
		})
	}
	sname := b.ident(base)
	st, end := b.layout(sname, sname+"_", r.Registers, size)
	if end > size {
		if r.Dim > 0 {
			b.log.Warn("cluster content exceeds dimIncrement", "register", base,
				"size", end, "increment", size)
			return "", 0, 0, false
		}
		size = end
	}
	return sname, size, st.align, true
}

func (b *builder) regType(name string, r *regmap.Register) *regType {
	rt := &regType{
		Name: b.ident(name),
		Uint: fmt.Sprintf("uint%d", r.Size),
	}
	for _, f := range r.Fields {
		if f.BitWidth == 0 || f.BitOffset+f.BitWidth > r.Size {
			b.log.Warn("skipping field outside register", "register", rt.Name, "field", f.Name)
			continue
		}
		rt.Bits = append(rt.Bits, &bitField{
			name:  ident(f.Name),
			Mask:  f.Mask(),
			Shift: f.BitOffset,
			Descr: fixSpaces(f.Description),
			field: f,
		})
	}
	b.regs = append(b.regs, rt)
	return rt
}

// nameBits names the bit field constants. Names used by more than one field
// in the package or clashing with other identifiers are prefixed with the
// register type name.
func (b *builder) nameBits() {
	count := make(map[string]int)
	for _, rt := range b.regs {
		for _, bf := range rt.Bits {
			count[bf.name]++
		}
	}
	for _, rt := range b.regs {
		for _, bf := range rt.Bits {
			bf.Name = bf.name
			if count[bf.name] > 1 || b.idents[bf.name] {
				bf.Name = rt.Name + "_" + bf.name
			}
			b.idents[bf.Name] = true
		}
	}
	for _, rt := range b.regs {
		for _, bf := range rt.Bits {
			for _, evs := range bf.field.EnumeratedValues {
				for _, ev := range evs.Values {
					if ev.IsDefault || ev.Name == "" {
						continue
					}
					v, err := ev.Uint()
					if err != nil || v > bf.Mask {
						b.log.Warn("skipping enumerated value", "register", rt.Name,
							"field", bf.Name, "value", ev.Name, "raw", ev.Value)
						continue
					}
					name := bf.Name + "_" + ident(ev.Name)
					if b.idents[name] {
						continue
					}
					b.idents[name] = true
					bf.Values = append(bf.Values, &bitValue{
						Name:  name,
						Value: v,
						Shift: bf.Shift,
						Descr: fixSpaces(ev.Description),
					})
				}
			}
		}
	}
}

func doc(pkg string, grp *regmap.Group) string {
	var w strings.Builder
	fmt.Fprintf(&w, "// Package %s provides access to the registers of the %s peripheral.\n", pkg, grp.Name)
	if d := sentence(grp.Description); d != "" {
		w.WriteString("//\n// " + d + "\n")
	}
	w.WriteString("//\n// Instances:\n//\n")
	var rows [][]string
	for _, p := range grp.Peripherals {
		irqs := "-"
		if len(p.Interrupts) > 0 {
			names := make([]string, len(p.Interrupts))
			for i, irq := range p.Interrupts {
				names[i] = irq.Name
			}
			irqs = strings.Join(names, ",")
		}
		rows = append(rows, []string{p.Name, fmt.Sprintf("%#x", p.BaseAddress), irqs})
	}
	table(&w, rows)
	if len(grp.Registers) > 0 {
		w.WriteString("//\n// Registers:\n//\n")
		rows = rows[:0]
		for _, r := range grp.Registers {
			for r.MetaCluster != nil {
				r = r.MetaCluster
			}
			rows = append(rows, []string{
				fmt.Sprintf("0x%03X", r.AddressOffset),
				regSize(r),
				regName(r),
				fixSpaces(r.Description),
			})
		}
		table(&w, rows)
	}
	return w.String()
}

// sentence returns the description s as a sentence. A single line paragraph
// ending with a letter or digit would be formatted as a doc heading.
func sentence(s string) string {
	s = fixSpaces(s)
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsLetter(r) || unicode.IsDigit(r) {
		s += "."
	}
	return s
}

func regSize(r *regmap.Register) string {
	if r.IsCluster() {
		return "--"
	}
	return strconv.Itoa(int(r.Size))
}

func regName(r *regmap.Register) string {
	name := strings.TrimSuffix(r.Name, "[%s]")
	if r.IsCluster() && !(len(r.Registers) == 1 && r.Registers[0].Name == "") {
		members := make([]string, len(r.Registers))
		for i, m := range r.Registers {
			for m.MetaCluster != nil {
				m = m.MetaCluster
			}
			members[i] = regName(m)
		}
		name += "{" + strings.Join(members, ",") + "}"
	}
	if r.Dim > 0 {
		name += fmt.Sprintf("[%d]", r.Dim)
	}
	return name
}
