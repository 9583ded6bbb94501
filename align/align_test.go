// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func common(s string) Segment { return Segment{Text: s} }
func diff(p ...string) Segment { return Segment{Parts: p} }
func seq(s ...Segment) Alignment { return Alignment(s) }

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want Alignment
	}{
		{"empty", nil, nil},
		{"single", []string{"CR1"}, seq(common("CR1"))},
		{"identical", []string{"CR1", "CR1", "CR1"}, seq(common("CR1"))},
		{
			"trailing digit",
			[]string{"TIM1_CH1", "TIM1_CH2"},
			seq(common("TIM1_CH"), diff("1", "2")),
		},
		{
			"middle",
			[]string{"AxB", "AyB", "AzB"},
			seq(common("A"), diff("x", "y", "z"), common("B")),
		},
		{
			"multi digit index",
			[]string{"CH1DATA", "CH2DATA", "CH10DATA"},
			seq(common("CH"), diff("1", "2", "10"), common("DATA")),
		},
		{
			"leading insert",
			[]string{"abc", "xabc"},
			seq(common(""), diff("", "x"), common("abc")),
		},
		{
			"leading insert in one of three",
			[]string{"abc", "abc", "xabc"},
			seq(common(""), diff("", "", "x"), common("abc")),
		},
		{
			"suffix in one of three",
			[]string{"Channel 1 data", "Channel 2 data", "Channel 1 data low"},
			seq(
				common("Channel "), diff("1", "2", "1"),
				common(" data"), diff("", "", " low"),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Strings(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringsAnchoredToFirst(t *testing.T) {
	in := []string{
		"Capture/compare 1 value",
		"Capture/compare 2 value (high)",
		"Capture compare 3 value",
	}
	a, err := Strings(in)
	require.NoError(t, err)
	var first string
	for i, s := range a {
		if i%2 == 0 {
			first += s.Text
		} else {
			require.Len(t, s.Parts, len(in))
			first += s.Parts[0]
		}
	}
	assert.Equal(t, in[0], first)
}

func TestAlignmentString(t *testing.T) {
	a, err := Strings([]string{"AxB", "AyB", "AzB"})
	require.NoError(t, err)
	assert.Equal(t, "A[x|y|z]B", a.String())
	assert.Equal(t, 1, a.NumDiff())
	assert.Equal(t, "A", a.Common(0))
	assert.Equal(t, []string{"x", "y", "z"}, a.Parts(1))
}
