// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align decomposes a set of strings into the parts they have in
// common and the parts that differ between them.
//
// The result of aligning N strings is an Alignment: a sequence of segments
// alternating between a common text (even positions) and a list of N
// differing texts (odd positions). The decomposition is anchored to the
// first string, that is concatenating the common texts and the first element
// of every differing list reproduces the first input string exactly.
//
//	Strings([]string{"AxB", "AyB", "AzB"}) // "A", [x y z], "B"
//	Strings([]string{"TIM1_CH1", "TIM1_CH2"}) // "TIM1_CH", [1 2]
package align

import (
	"errors"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrContradiction is returned when the pairwise diffs disagree about the
// text of the first string. It means the alignment algorithm is broken, not
// that the input is bad.
var ErrContradiction = errors.New("align: anchor text differs between diffs")

// Segment is a single element of an Alignment. Common segments use Text,
// differing segments use Parts (one entry per aligned string).
type Segment struct {
	Text  string
	Parts []string
}

// Alignment alternates between common (even index) and differing (odd
// index) segments.
type Alignment []Segment

// Common returns the common text at the even index i.
func (a Alignment) Common(i int) string { return a[i].Text }

// Parts returns the differing texts at the odd index i.
func (a Alignment) Parts(i int) []string { return a[i].Parts }

// NumDiff returns the number of differing segments.
func (a Alignment) NumDiff() int { return len(a) / 2 }

// String renders the alignment as a template: common texts are copied and
// every differing segment is written as [p0|p1|...].
func (a Alignment) String() string {
	var b strings.Builder
	for i, s := range a {
		if i%2 == 0 {
			b.WriteString(s.Text)
			continue
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(s.Parts, "|"))
		b.WriteByte(']')
	}
	return b.String()
}

var dmp = func() *diffmatchpatch.DiffMatchPatch {
	d := diffmatchpatch.New()
	d.DiffTimeout = 0 // deterministic, never fall back to a coarse diff
	return d
}()

type script []diffmatchpatch.Diff

// Strings aligns ss. An empty ss gives an empty alignment, a single string
// gives one common segment.
func Strings(ss []string) (Alignment, error) {
	switch len(ss) {
	case 0:
		return nil, nil
	case 1:
		return Alignment{{Text: ss[0]}}, nil
	}
	scripts := make([]script, len(ss)-1)
	for i, s := range ss[1:] {
		scripts[i] = dmp.DiffMain(ss[0], s, false)
	}
	var a Alignment
	for pending(scripts) {
		if len(a)%2 == 0 {
			a = append(a, Segment{Text: overlap(scripts)})
			continue
		}
		parts, err := diverge(scripts)
		if err != nil {
			return nil, err
		}
		a = append(a, Segment{Parts: parts})
	}
	return a, nil
}

func pending(scripts []script) bool {
	for _, s := range scripts {
		if len(s) != 0 {
			return true
		}
	}
	return false
}

// overlap consumes the longest text that every script starts with as equal.
func overlap(scripts []script) string {
	n := -1
	for _, s := range scripts {
		l := 0
		if len(s) != 0 && s[0].Type == diffmatchpatch.DiffEqual {
			l = len(s[0].Text)
		}
		if n < 0 || l < n {
			n = l
		}
	}
	if n == 0 {
		return ""
	}
	common := scripts[0][0].Text[:n]
	for i, s := range scripts {
		if len(s[0].Text) > n {
			s[0].Text = s[0].Text[n:]
		} else {
			scripts[i] = s[1:]
		}
	}
	return common
}

// diverge consumes one differing region. The amount of the anchor string
// taken is the shortest leading equal/delete streak found in the scripts, so
// all scripts stay positioned at the same place in the anchor and the text
// common to all of them is left for the next overlap.
func diverge(scripts []script) ([]string, error) {
	streak := -1
	for _, s := range scripts {
		l, found := 0, false
		for _, d := range s {
			if d.Type != diffmatchpatch.DiffEqual {
				found = true
			} else if found {
				break
			}
			if d.Type != diffmatchpatch.DiffInsert {
				l += len(d.Text)
			}
		}
		if streak < 0 || l < streak {
			streak = l
		}
	}
	parts := make([]string, len(scripts)+1)
	for i, s := range scripts {
		var anchor, other strings.Builder
		for len(s) != 0 {
			d := s[0]
			if d.Type == diffmatchpatch.DiffInsert {
				other.WriteString(d.Text)
				s = s[1:]
				continue
			}
			rem := streak - anchor.Len()
			if rem == 0 {
				break
			}
			text := d.Text
			if len(text) > rem {
				text = text[:rem]
				s[0].Text = d.Text[rem:]
			} else {
				s = s[1:]
			}
			anchor.WriteString(text)
			if d.Type == diffmatchpatch.DiffEqual {
				other.WriteString(text)
			}
		}
		scripts[i] = s
		if i == 0 {
			parts[0] = anchor.String()
		} else if parts[0] != anchor.String() {
			return nil, ErrContradiction
		}
		parts[i+1] = other.String()
	}
	return parts, nil
}
