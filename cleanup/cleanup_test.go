// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cleanup

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embeddedgo/svdgen/regmap"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func reg(name string, off uint64) *regmap.Register {
	return &regmap.Register{
		Name:          name,
		AddressOffset: off,
		Size:          32,
		Access:        regmap.ReadWrite,
		Fields: []*regmap.Field{
			{Name: "EN", BitOffset: 0, BitWidth: 1, Access: regmap.ReadWrite},
			{Name: "VAL", BitOffset: 8, BitWidth: 8, Access: regmap.ReadWrite},
		},
	}
}

func names(rs []*regmap.Register) []string {
	s := make([]string, len(rs))
	for i, r := range rs {
		s[i] = r.Name
	}
	return s
}

func newClusterer(t *testing.T, opts Options) *Clusterer {
	t.Helper()
	opts.Logger = quiet
	c, err := NewClusterer(opts)
	require.NoError(t, err)
	return c
}

func TestSimilar(t *testing.T) {
	a, b := reg("CR1", 0), reg("XYZ", 4)
	ok, err := Similar(a, b, true)
	require.NoError(t, err)
	assert.True(t, ok, "loose comparison ignores names")

	ok, err = Similar(a, b, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Similar(reg("CR1", 0), reg("CR2", 4), false)
	require.NoError(t, err)
	assert.True(t, ok, "names differ by one digit")

	ok, err = Similar(reg("CR1", 0), reg("CR12", 4), false)
	require.NoError(t, err)
	assert.False(t, ok)

	b = reg("CR2", 4)
	b.Description = "something else"
	b.DisplayName = "CR2"
	ok, err = Similar(a, b, true)
	require.NoError(t, err)
	assert.True(t, ok, "descriptions are ignored")

	b.Size = 16
	ok, err = Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSimilarFields(t *testing.T) {
	a, b := reg("CCMR1", 0), reg("CCMR2", 4)
	a.Fields[1].Name, b.Fields[1].Name = "OC1M", "OC3M"
	ok, err := Similar(a, b, true)
	require.NoError(t, err)
	assert.True(t, ok)

	b.Fields[1].Name = "IC3F"
	ok, err = Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok, "field names must match up to a digit")

	b = reg("CCMR2", 4)
	b.Fields = b.Fields[:1]
	ok, err = Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok)

	b = reg("CCMR2", 4)
	b.Fields[0].BitWidth = 2
	ok, err = Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSimilarKinds(t *testing.T) {
	a, b := reg("CH", 0), reg("CH", 0)
	b.Kind = regmap.KindCluster
	ok, err := Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSimilarUnknownAttribute(t *testing.T) {
	a, b := reg("CR1", 0), reg("CR2", 4)
	a.Extensions = []*regmap.Extension{{Name: "vendorMagic", Value: "1"}}
	b.Extensions = []*regmap.Extension{{Name: "vendorMagic", Value: "1"}}
	_, err := Similar(a, b, true)
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	b.Extensions = nil
	ok, err := Similar(a, b, true)
	require.NoError(t, err)
	assert.False(t, ok, "different attribute sets are not similar")
}

func channels(n int, base, inc uint64) []*regmap.Register {
	rs := make([]*regmap.Register, n)
	for i := range rs {
		rs[i] = reg(fmt.Sprintf("CH%dDATA", i+1), base+uint64(i)*inc)
		rs[i].Description = fmt.Sprintf("Channel %d data", i+1)
	}
	return rs
}

func TestFindRun(t *testing.T) {
	for _, n := range []int{2, 5, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			r, err := findRun(channels(n, 0x10, 4), 0, quiet)
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, 1, r.length)
			assert.Equal(t, n, r.repeat)
			assert.Equal(t, uint64(4), r.increment)
			assert.Equal(t, "CH", r.name)
			assert.Equal(t, []string{"DATA"}, r.post)
			want := make([]string, n)
			for i := range want {
				want[i] = fmt.Sprint(i + 1)
			}
			assert.Equal(t, want, r.index)
		})
	}
}

func TestFindRunNone(t *testing.T) {
	rs := []*regmap.Register{reg("CR1", 0), reg("CR2", 4)}
	rs[1].Size = 16
	r, err := findRun(rs, 0, quiet)
	require.NoError(t, err)
	assert.Nil(t, r, "dissimilar registers")

	rs = []*regmap.Register{reg("SR", 0), reg("DR", 4)}
	r, err = findRun(rs, 0, quiet)
	require.NoError(t, err)
	assert.Nil(t, r, "no digit in name")

	rs = []*regmap.Register{reg("CH1", 0), reg("CH2", 4), reg("CH3", 12)}
	r, err = findRun(rs, 0, quiet)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 2, r.repeat, "increment must stay constant")

	rs = []*regmap.Register{reg("CH1", 8), reg("CH2", 8)}
	r, err = findRun(rs, 0, quiet)
	require.NoError(t, err)
	assert.Nil(t, r, "zero increment")
}

func TestFindRunNameClash(t *testing.T) {
	rs := append(channels(3, 0, 4), reg("CH", 0x20))
	r, err := findRun(rs, 0, quiet)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestClusterRegisters(t *testing.T) {
	rs := append([]*regmap.Register{reg("CR", 0)}, channels(4, 0x10, 4)...)
	c := newClusterer(t, Options{})
	rs, err := c.Registers("DMA", rs)
	require.NoError(t, err)
	require.Equal(t, []string{"CR", "CH[%s]"}, names(rs))

	cl := rs[1]
	assert.Equal(t, regmap.KindCluster, cl.Kind)
	assert.Equal(t, uint(4), cl.Dim)
	assert.Equal(t, uint64(4), cl.DimIncrement)
	assert.Equal(t, "1,2,3,4", cl.DimIndex)
	assert.Equal(t, uint64(0x10), cl.AddressOffset)
	assert.Equal(t, uint(4*4*8), cl.Size)
	assert.Equal(t, "Cluster DMA.CH[%s] generated by svdgen, array index by 1,2,3,4", cl.Description)
	require.Len(t, cl.Registers, 1)
	m := cl.Registers[0]
	assert.Equal(t, "DATA", m.Name)
	assert.Equal(t, uint64(0), m.AddressOffset)
	assert.Equal(t, "Channel [1|2|3|4] data", m.Description)
	assert.Len(t, m.Fields, 2)
}

func TestClusterMultiRegisterRun(t *testing.T) {
	var rs []*regmap.Register
	for i := 1; i <= 3; i++ {
		base := uint64(i-1) * 8
		rs = append(rs, reg(fmt.Sprintf("CH%dA", i), base), reg(fmt.Sprintf("CH%dB", i), base+4))
	}
	c := newClusterer(t, Options{})
	rs, err := c.Registers("DMA", rs)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	cl := rs[0]
	assert.Equal(t, "CH[%s]", cl.Name)
	assert.Equal(t, uint(3), cl.Dim)
	assert.Equal(t, uint64(8), cl.DimIncrement)
	assert.Equal(t, []string{"A", "B"}, names(cl.Registers))
	assert.Equal(t, uint64(4), cl.Registers[1].AddressOffset)
}

func TestClusterIgnored(t *testing.T) {
	rs := channels(4, 0, 4)
	c := newClusterer(t, Options{IgnoreCluster: `DMA\.CH`})
	out, err := c.Registers("DMA", rs)
	require.NoError(t, err)
	assert.Equal(t, []string{"CH1DATA", "CH2DATA", "CH3DATA", "CH4DATA"}, names(out))
	assert.Equal(t, "Channel 1 data", out[0].Description)

	c = newClusterer(t, Options{IgnoreCluster: `DMA\.C`})
	out, err = c.Registers("DMA", channels(4, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"CH[%s]"}, names(out), "pattern must match the full path")
}

func TestClusterDuplicateName(t *testing.T) {
	rs := []*regmap.Register{
		reg("CH1DATA", 0), reg("CH2DATA", 4),
		reg("SR", 8),
		reg("CH1CTRL", 12), reg("CH2CTRL", 16),
	}
	c := newClusterer(t, Options{})
	out, err := c.Registers("DMA", rs)
	require.NoError(t, err)
	assert.Equal(t, []string{"CH1DATA", "CH2DATA", "SR", "CH1CTRL", "CH2CTRL"}, names(out))
}

func TestClusterNonUnique(t *testing.T) {
	build := func() []*regmap.Register {
		return []*regmap.Register{reg("CH1R", 0), reg("CH1R", 4), reg("CH2R", 8), reg("CH2R", 12)}
	}
	c := newClusterer(t, Options{NonUnique: KeepNonUnique})
	out, err := c.Registers("X", build())
	require.NoError(t, err)
	require.Equal(t, []string{"CH[%s]"}, names(out))
	assert.Equal(t, []string{"R", "R"}, names(out[0].Registers))

	c = newClusterer(t, Options{NonUnique: RejectNonUnique})
	out, err = c.Registers("X", build())
	require.NoError(t, err)
	assert.Equal(t, []string{"CH1R", "CH1R", "CH2R", "CH2R"}, names(out))
}

func TestClusterNested(t *testing.T) {
	// Two DMA controllers with two channels each.
	var rs []*regmap.Register
	for d := 1; d <= 2; d++ {
		for ch := 1; ch <= 2; ch++ {
			off := uint64(d-1)*0x100 + uint64(ch-1)*0x10
			rs = append(rs, reg(fmt.Sprintf("DMA%d_CH%d", d, ch), off))
		}
	}
	c := newClusterer(t, Options{})
	out, err := c.Registers("DMA", rs)
	require.NoError(t, err)
	require.Equal(t, []string{"DMA[%s]"}, names(out))
	inner := out[0].Registers
	require.Equal(t, []string{"_CH[%s]"}, names(inner))
	assert.Equal(t, uint64(0x10), inner[0].DimIncrement)
	assert.Equal(t, uint64(0x100), out[0].DimIncrement)
}

func TestParseNonUnique(t *testing.T) {
	n, err := ParseNonUnique("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectNonUnique, n)
	n, err = ParseNonUnique("")
	require.NoError(t, err)
	assert.Equal(t, KeepNonUnique, n)
	_, err = ParseNonUnique("drop")
	assert.Error(t, err)
}

func TestBadIgnorePattern(t *testing.T) {
	_, err := NewClusterer(Options{IgnoreCluster: "("})
	assert.Error(t, err)
}
