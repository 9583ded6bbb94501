// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regmap defines the in-memory register map model: a device made of
// peripherals, peripherals made of registers, registers made of bit fields.
// Peripherals sharing a register layout are collected into groups and runs
// of repeated registers are folded into indexed clusters.
package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

type Device struct {
	Name        string        `yaml:"name"`
	Width       uint          `yaml:"width"`
	Description string        `yaml:"description"`
	Peripherals []*Peripheral `yaml:"peripherals"`
}

// Peripheral is a single instance of a hardware block. Description and
// Registers are only set before the peripheral is collected into a Group.
type Peripheral struct {
	Name        string       `yaml:"name"`
	GroupName   string       `yaml:"group_name"`
	BaseAddress uint64       `yaml:"base_address"`
	Interrupts  []*Interrupt `yaml:"interrupts,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Registers   []*Register  `yaml:"registers,omitempty"`
}

type Interrupt struct {
	Name        string `yaml:"name"`
	Value       int    `yaml:"value"`
	Description string `yaml:"description,omitempty"`
}

// Group holds the register layout shared by all its peripherals.
type Group struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Registers   []*Register   `yaml:"registers"`
	Peripherals []*Peripheral `yaml:"peripherals"`
}

// Kind tells a plain register from a cluster of registers.
type Kind uint8

const (
	KindRegister Kind = iota
	KindCluster
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindCluster:
		return "cluster"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "register", "":
		*k = KindRegister
	case "cluster":
		*k = KindCluster
	default:
		return fmt.Errorf("regmap: unknown register kind %q", b)
	}
	return nil
}

// DimElement describes an array of registers, fields or clusters.
type DimElement struct {
	Dim          uint   `yaml:"dim,omitempty"`
	DimIncrement uint64 `yaml:"dim_increment,omitempty"`
	DimIndex     string `yaml:"dim_index,omitempty"`
	DimName      string `yaml:"dim_name,omitempty"`
}

type Range struct {
	Minimum uint64 `yaml:"minimum"`
	Maximum uint64 `yaml:"maximum"`
}

type WriteConstraint struct {
	WriteAsRead         bool   `yaml:"write_as_read,omitempty"`
	UseEnumeratedValues bool   `yaml:"use_enumerated_values,omitempty"`
	Range               *Range `yaml:"range,omitempty"`
}

// Equal reports whether w and o describe the same constraint. Two nil
// constraints are equal.
func (w *WriteConstraint) Equal(o *WriteConstraint) bool {
	if w == nil || o == nil {
		return w == o
	}
	if w.WriteAsRead != o.WriteAsRead || w.UseEnumeratedValues != o.UseEnumeratedValues {
		return false
	}
	if w.Range == nil || o.Range == nil {
		return w.Range == o.Range
	}
	return *w.Range == *o.Range
}

// Extension is an element of the source description the model has no
// attribute for.
type Extension struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Register is a plain register or, when Kind is KindCluster, a cluster of
// registers. Cluster address offsets of the nested registers are relative to
// the cluster.
type Register struct {
	DimElement `yaml:",inline"`

	Kind                Kind             `yaml:"kind"`
	Name                string           `yaml:"name"`
	DisplayName         string           `yaml:"display_name,omitempty"`
	Description         string           `yaml:"description,omitempty"`
	HeaderStructName    string           `yaml:"header_struct_name,omitempty"`
	AlternateGroup      string           `yaml:"alternate_group,omitempty"`
	AlternateRegister   string           `yaml:"alternate_register,omitempty"`
	AlternateCluster    string           `yaml:"alternate_cluster,omitempty"`
	DerivedFrom         string           `yaml:"derived_from,omitempty"`
	AddressOffset       uint64           `yaml:"address_offset"`
	Size                uint             `yaml:"size"`
	Access              Access           `yaml:"access,omitempty"`
	Protection          string           `yaml:"protection,omitempty"`
	ResetValue          uint64           `yaml:"reset_value"`
	ResetMask           uint64           `yaml:"reset_mask"`
	DataType            string           `yaml:"data_type,omitempty"`
	ModifiedWriteValues string           `yaml:"modified_write_values,omitempty"`
	ReadAction          string           `yaml:"read_action,omitempty"`
	WriteConstraint     *WriteConstraint `yaml:"write_constraint,omitempty"`
	Fields              []*Field         `yaml:"fields,omitempty"`
	Registers           []*Register      `yaml:"registers,omitempty"`
	Extensions          []*Extension     `yaml:"extensions,omitempty"`

	// MetaCluster is a wrapper layer some sources put around a cluster. The
	// wrapping register carries nothing else.
	MetaCluster *Register `yaml:"meta_cluster,omitempty"`
}

func (r *Register) IsCluster() bool { return r.Kind == KindCluster }

type EnumeratedValue struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Value       string `yaml:"value"`
	IsDefault   bool   `yaml:"is_default,omitempty"`
}

// Uint returns the numeric value of v. The "do not care" bits of the #1x0x
// binary notation read as zeros.
func (v *EnumeratedValue) Uint() (uint64, error) {
	s := strings.TrimSpace(v.Value)
	if strings.HasPrefix(s, "#") {
		s = "0b" + strings.ReplaceAll(s[1:], "x", "0")
	}
	return strconv.ParseUint(s, 0, 64)
}

type EnumeratedValues struct {
	Name   string             `yaml:"name,omitempty"`
	Usage  string             `yaml:"usage,omitempty"`
	Values []*EnumeratedValue `yaml:"values"`
}

type Field struct {
	DimElement `yaml:",inline"`

	Name                string              `yaml:"name"`
	Description         string              `yaml:"description,omitempty"`
	DerivedFrom         string              `yaml:"derived_from,omitempty"`
	BitOffset           uint                `yaml:"bit_offset"`
	BitWidth            uint                `yaml:"bit_width"`
	Access              Access              `yaml:"access"`
	ModifiedWriteValues string              `yaml:"modified_write_values,omitempty"`
	ReadAction          string              `yaml:"read_action,omitempty"`
	WriteConstraint     *WriteConstraint    `yaml:"write_constraint,omitempty"`
	EnumeratedValues    []*EnumeratedValues `yaml:"enumerated_values,omitempty"`
	Extensions          []*Extension        `yaml:"extensions,omitempty"`
}

// Mask returns the field mask shifted to bit 0.
func (f *Field) Mask() uint64 {
	if f.BitWidth >= 64 {
		return ^uint64(0)
	}
	return 1<<f.BitWidth - 1
}
