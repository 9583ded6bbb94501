// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/svdgen/cleanup"
	"github.com/embeddedgo/svdgen/regmap"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testResult() *cleanup.Result {
	tim := &regmap.Group{
		Name:        "TIM",
		Description: "General purpose   timer",
		Registers: []*regmap.Register{
			{
				Name: "CR1", Size: 16, Description: "control register 1",
				Fields: []*regmap.Field{
					{Name: "CEN", BitWidth: 1, Description: "counter enable"},
					{
						Name: "CKD", BitOffset: 8, BitWidth: 2,
						EnumeratedValues: []*regmap.EnumeratedValues{{
							Values: []*regmap.EnumeratedValue{
								{Name: "Div1", Value: "#00"},
								{Name: "Div2", Value: "1", Description: "t_DTS = 2*t_CK_INT"},
								{Name: "Bad", Value: "7"},
							},
						}},
					},
				},
			},
			{
				Name: "SR", AddressOffset: 4, Size: 32,
				Fields: []*regmap.Field{{Name: "UIF", BitWidth: 1}},
			},
			{
				DimElement:    regmap.DimElement{Dim: 4, DimIncrement: 4, DimIndex: "1,2,3,4"},
				Kind:          regmap.KindCluster,
				Name:          "CCR[%s]",
				AddressOffset: 0x34,
				Size:          4 * 4 * 8,
				Registers: []*regmap.Register{{
					Size:   32,
					Fields: []*regmap.Field{{Name: "CCR", BitWidth: 16}},
				}},
			},
			{
				DimElement:    regmap.DimElement{Dim: 2, DimIncrement: 0x10},
				Kind:          regmap.KindCluster,
				Name:          "CH[%s]",
				AddressOffset: 0x50,
				Size:          2 * 0x10 * 8,
				Registers: []*regmap.Register{
					{Name: "CR", Size: 32, Fields: []*regmap.Field{{Name: "EN", BitWidth: 1}}},
					{Name: "DATA", AddressOffset: 4, Size: 32, Fields: []*regmap.Field{{Name: "EN", BitWidth: 1}}},
				},
			},
		},
		Peripherals: []*regmap.Peripheral{
			{
				Name: "TIM1", GroupName: "TIM", BaseAddress: 0x40012c00,
				Interrupts: []*regmap.Interrupt{{Name: "TIM1_UP", Value: 25, Description: "TIM1 update"}},
			},
			{Name: "TIM2", GroupName: "TIM", BaseAddress: 0x40000000},
		},
	}
	dev := &regmap.Device{Name: "TEST", Width: 32, Peripherals: tim.Peripherals}
	return &cleanup.Result{
		Device: dev,
		Groups: map[string]*regmap.Group{"TIM": tim},
		Interrupts: map[int]*regmap.Interrupt{
			25: tim.Peripherals[0].Interrupts[0],
		},
	}
}

func generate(t *testing.T, res *cleanup.Result) map[string][]byte {
	t.Helper()
	g := &Generator{MCU: "stm32t", ImportRoot: "example.com/hal/p", Log: quiet}
	files, err := g.Files(res)
	require.NoError(t, err)
	return files
}

func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.ParseComments)
	require.NoError(t, err, "%s", src)
	return f
}

type decls struct {
	types  map[string]ast.Expr
	consts map[string]bool
	funcs  []string
}

func collect(f *ast.File) *decls {
	d := &decls{types: map[string]ast.Expr{}, consts: map[string]bool{}}
	for _, decl := range f.Decls {
		switch decl := decl.(type) {
		case *ast.FuncDecl:
			d.funcs = append(d.funcs, decl.Name.Name)
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				switch spec := spec.(type) {
				case *ast.TypeSpec:
					d.types[spec.Name.Name] = spec.Type
				case *ast.ValueSpec:
					for _, n := range spec.Names {
						d.consts[n.Name] = true
					}
				}
			}
		}
	}
	return d
}

func fieldNames(t *testing.T, e ast.Expr) []string {
	t.Helper()
	st, ok := e.(*ast.StructType)
	require.True(t, ok)
	var names []string
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

func TestFiles(t *testing.T) {
	files := generate(t, testResult())
	var paths []string
	for p := range files {
		paths = append(paths, p)
	}
	assert.ElementsMatch(t, []string{"tim/stm32t.go", "mmap/stm32t.go", "irq/stm32t.go"}, paths)
	for p, src := range files {
		assert.True(t, strings.HasPrefix(string(src), "// Code generated by svdgen; DO NOT EDIT.\n"), p)
		assert.Contains(t, string(src), "//go:build stm32t\n", p)
	}
}

func TestPeriph(t *testing.T) {
	src := generate(t, testResult())["tim/stm32t.go"]
	f := parse(t, src)
	assert.Equal(t, "tim", f.Name.Name)
	d := collect(f)

	assert.Equal(t, []string{"CR1", "_", "SR", "_", "CCR", "_", "CH"}, fieldNames(t, d.types["Periph"]))
	assert.Equal(t, []string{"CR", "DATA", "_"}, fieldNames(t, d.types["CH"]))
	for _, name := range []string{"CR1", "SR", "CCR", "CH_CR", "CH_DATA"} {
		assert.Contains(t, d.types, name)
	}
	assert.Equal(t, []string{"TIM1", "TIM2"}, d.funcs)

	for _, name := range []string{
		"CEN", "CENn", "CKD", "CKDn", "CKD_Div1", "CKD_Div2", "UIF",
		"CCR_CCR", "CCR_CCRn", "CH_CR_EN", "CH_DATA_EN",
	} {
		assert.True(t, d.consts[name], name)
	}
	assert.False(t, d.consts["CKD_Bad"])

	s := strings.Join(strings.Fields(string(src)), " ")
	assert.Contains(t, s, "_ [11]uint32")
	assert.Contains(t, s, "CCR [4]mmio.R32[CCR]")
	assert.Contains(t, s, "CH [2]CH")
	assert.Contains(t, s, `"example.com/hal/p/mmap"`)
	assert.Contains(t, s, "(*Periph)(unsafe.Pointer(mmap.TIM1_BASE))")
	assert.Contains(t, s, "// General purpose timer. //")
	assert.NotContains(t, s, "# General")
	assert.Contains(t, s, "// TIM1 0x40012c00 TIM1_UP //")
	assert.Contains(t, s, "// 0x034 -- CCR[4]")
	assert.Contains(t, s, "CH{CR,DATA}[2]")
}

func TestPeriphSkips(t *testing.T) {
	res := testResult()
	g := res.Groups["TIM"]
	g.Registers = append(g.Registers,
		&regmap.Register{Name: "OVL", AddressOffset: 0x54, Size: 32},
		&regmap.Register{Name: "ODD", AddressOffset: 0x71, Size: 32},
		&regmap.Register{Name: "WIDE", AddressOffset: 0x80, Size: 24},
		&regmap.Register{
			Name: "BIG", AddressOffset: 0x84, Size: 8,
			Fields: []*regmap.Field{{Name: "HI", BitOffset: 6, BitWidth: 4}},
		},
	)
	d := collect(parse(t, generate(t, res)["tim/stm32t.go"]))
	fields := fieldNames(t, d.types["Periph"])
	assert.NotContains(t, fields, "OVL")
	assert.NotContains(t, fields, "ODD")
	assert.NotContains(t, fields, "WIDE")
	assert.Contains(t, fields, "BIG")
	assert.False(t, d.consts["HI"])
}

func TestMmapIRQ(t *testing.T) {
	files := generate(t, testResult())

	f := parse(t, files["mmap/stm32t.go"])
	assert.Equal(t, "mmap", f.Name.Name)
	d := collect(f)
	assert.True(t, d.consts["TIM1_BASE"])
	assert.True(t, d.consts["TIM2_BASE"])
	assert.Contains(t, string(files["mmap/stm32t.go"]), "TIM1_BASE uintptr = 0x40012C00")

	f = parse(t, files["irq/stm32t.go"])
	assert.Equal(t, "irq", f.Name.Name)
	assert.True(t, collect(f).consts["TIM1_UP"])
	assert.Contains(t, string(files["irq/stm32t.go"]), "TIM1_UP = 25 // TIM1 update")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{MCU: "stm32t", ImportRoot: "example.com/hal/p", Log: quiet}
	require.NoError(t, g.Write(dir, testResult()))
	for _, p := range []string{"tim", "mmap", "irq"} {
		_, err := os.Stat(filepath.Join(dir, p, "stm32t.go"))
		assert.NoError(t, err)
	}
}

func TestWriteFormattedBroken(t *testing.T) {
	name := filepath.Join(t.TempDir(), "x.go")
	assert.Error(t, writeFormatted(name, []byte("package x\nfunc {")))
	_, err := os.Stat(name + ".broken")
	assert.NoError(t, err)
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "General purpose timer.", sentence("General  purpose\ttimer"))
	assert.Equal(t, "Timer 2.", sentence("Timer 2"))
	assert.Equal(t, "Timer (basic)", sentence("Timer (basic)"))
	assert.Equal(t, "Timer.", sentence("Timer."))
	assert.Equal(t, "", sentence("  "))
}

func TestIdent(t *testing.T) {
	for in, want := range map[string]string{
		"CCR[%s]":  "CCR",
		"CH%s_CR":  "CH_CR",
		"":         "R",
		"2ND":      "R2ND",
		"A-B.C":    "A_B_C",
		"[%s]DATA": "DATA",
	} {
		assert.Equal(t, want, ident(in), in)
	}
	assert.Equal(t, "tim", PkgName("TIM"))
	assert.Equal(t, "type_", PkgName("TYPE"))
	assert.Equal(t, "irq_", PkgName("IRQ"))
}
