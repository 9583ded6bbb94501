// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cleanup

import (
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/embeddedgo/svdgen/align"
	"github.com/embeddedgo/svdgen/regmap"
)

// run describes length registers repeated repeat times, starting at offset
// in a register sequence.
type run struct {
	offset    int
	length    int
	repeat    int
	name      string   // common name prefix of all registers
	index     []string // differentiator of every repeat
	increment uint64   // address distance between repeats
	post      []string // name suffix of every register in one repeat
}

func (r *run) end() int { return r.offset + r.length*r.repeat }

// uniqueMembers reports whether the registers in one repeat can be told
// apart by their name suffixes.
func (r *run) uniqueMembers() bool {
	if len(r.post) <= 1 {
		return true
	}
	for _, p := range r.post[1:] {
		if p != r.post[0] {
			return true
		}
	}
	return false
}

// findRun looks for the longest run of registers starting at rs[offset] that
// repeats the largest number of times. It returns nil if there is no run.
func findRun(rs []*regmap.Register, offset int, log *slog.Logger) (*run, error) {
	remain := len(rs) - offset
	// All registers of a run start with a name followed by a digit. The run
	// name may contain a digit itself, so this prefix is only a filter.
	i := strings.IndexFunc(rs[offset].Name, unicode.IsDigit)
	if i <= 0 {
		return nil, nil
	}
	start := rs[offset].Name[:i]
	for length := remain / 2; length > 0; length-- {
	repeats:
		for repeat := remain / length; repeat > 1; repeat-- {
			block := rs[offset : offset+length*repeat]
			for _, r := range block {
				if !strings.HasPrefix(r.Name, start) {
					continue repeats
				}
			}
			c := &run{
				offset: offset,
				length: length,
				repeat: repeat,
				post:   make([]string, length),
			}
			regs := make([]*regmap.Register, repeat)
			for pos := range length {
				for k := range regs {
					regs[k] = block[k*length+pos]
				}
				ok, err := c.check(pos, regs)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue repeats
				}
			}
			if slices.ContainsFunc(rs, func(r *regmap.Register) bool { return r.Name == c.name }) {
				log.Debug("run name clashes with register name", "name", c.name)
				continue
			}
			return c, nil
		}
	}
	return nil, nil
}

// check verifies that regs, the registers at the position pos of every
// repeat, fit the run built so far and records their properties.
func (c *run) check(pos int, regs []*regmap.Register) (bool, error) {
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.Name
	}
	al, err := align.Strings(names)
	if err != nil {
		return false, err
	}
	// name prefix, index, optional register name
	if len(al) != 2 && len(al) != 3 {
		return false, nil
	}
	if pos != 0 && al.Common(0) != c.name {
		return false, nil
	}
	if pos != 0 && !slices.Equal(al.Parts(1), c.index) {
		return false, nil
	}
	var post string
	if len(al) == 3 {
		post = al.Common(2)
	}
	if regs[1].AddressOffset <= regs[0].AddressOffset {
		return false, nil
	}
	inc := regs[1].AddressOffset - regs[0].AddressOffset
	if pos != 0 && inc != c.increment {
		return false, nil
	}
	for i := 1; i < len(regs); i++ {
		if regs[i].AddressOffset < regs[i-1].AddressOffset ||
			regs[i].AddressOffset-regs[i-1].AddressOffset != inc {
			return false, nil
		}
		ok, err := Similar(regs[i-1], regs[i], true)
		if err != nil || !ok {
			return false, err
		}
	}
	c.name = al.Common(0)
	c.index = al.Parts(1)
	c.increment = inc
	c.post[pos] = post
	return true, nil
}
