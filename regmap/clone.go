// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

// Clone returns a deep copy of r.
func (r *Register) Clone() *Register {
	if r == nil {
		return nil
	}
	c := *r
	if r.WriteConstraint != nil {
		c.WriteConstraint = r.WriteConstraint.clone()
	}
	c.Fields = cloneSlice(r.Fields, (*Field).Clone)
	c.Registers = CloneRegisters(r.Registers)
	c.Extensions = cloneSlice(r.Extensions, func(e *Extension) *Extension { x := *e; return &x })
	c.MetaCluster = r.MetaCluster.Clone()
	return &c
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := *f
	if f.WriteConstraint != nil {
		c.WriteConstraint = f.WriteConstraint.clone()
	}
	c.EnumeratedValues = cloneSlice(f.EnumeratedValues, func(ev *EnumeratedValues) *EnumeratedValues {
		x := *ev
		x.Values = cloneSlice(ev.Values, func(v *EnumeratedValue) *EnumeratedValue { y := *v; return &y })
		return &x
	})
	c.Extensions = cloneSlice(f.Extensions, func(e *Extension) *Extension { x := *e; return &x })
	return &c
}

func (w *WriteConstraint) clone() *WriteConstraint {
	c := *w
	if w.Range != nil {
		r := *w.Range
		c.Range = &r
	}
	return &c
}

// CloneRegisters deep copies a register sequence.
func CloneRegisters(rs []*Register) []*Register {
	return cloneSlice(rs, (*Register).Clone)
}

func cloneSlice[T any](s []*T, clone func(*T) *T) []*T {
	if s == nil {
		return nil
	}
	c := make([]*T, len(s))
	for i, e := range s {
		c[i] = clone(e)
	}
	return c
}

// Walk calls fn for every register in rs and, depth first, for every
// register nested in it.
func Walk(rs []*Register, fn func(r *Register)) {
	for _, r := range rs {
		fn(r)
		if len(r.Registers) != 0 {
			Walk(r.Registers, fn)
		}
		if r.MetaCluster != nil {
			Walk([]*Register{r.MetaCluster}, fn)
		}
	}
}
