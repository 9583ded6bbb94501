// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cleanup

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/embeddedgo/svdgen/align"
	"github.com/embeddedgo/svdgen/regmap"
)

// ErrUnknownAttribute is returned when two compared entities carry an
// attribute the model does not know how to compare.
var ErrUnknownAttribute = errors.New("unknown attribute in comparison")

// Similar reports whether a and b describe the same register layout. The
// description, display name, address offset, enumerated values and header
// struct name never take part in the comparison. If loose is true the
// register names may differ arbitrarily, otherwise they may differ only by
// a single digit. Field names always may differ only by a single digit.
func Similar(a, b *regmap.Register, loose bool) (bool, error) {
	if a.Kind != b.Kind {
		return false, nil
	}
	if ok, err := sameExtensions(a.Extensions, b.Extensions); !ok || err != nil {
		return false, err
	}
	if !loose {
		if ok, err := namesSimilar(a.Name, b.Name); !ok || err != nil {
			return false, err
		}
	}
	if a.Size != b.Size ||
		a.Access != b.Access ||
		a.Protection != b.Protection ||
		a.ResetValue != b.ResetValue ||
		a.ResetMask != b.ResetMask ||
		a.DimElement != b.DimElement ||
		a.AlternateGroup != b.AlternateGroup ||
		a.AlternateRegister != b.AlternateRegister ||
		a.AlternateCluster != b.AlternateCluster ||
		a.DataType != b.DataType ||
		a.ModifiedWriteValues != b.ModifiedWriteValues ||
		a.ReadAction != b.ReadAction ||
		a.DerivedFrom != b.DerivedFrom ||
		!a.WriteConstraint.Equal(b.WriteConstraint) {
		return false, nil
	}
	if (a.MetaCluster == nil) != (b.MetaCluster == nil) {
		return false, nil
	}
	if a.MetaCluster != nil {
		if ok, err := Similar(a.MetaCluster, b.MetaCluster, loose); !ok || err != nil {
			return false, err
		}
	}
	if len(a.Fields) != len(b.Fields) || len(a.Registers) != len(b.Registers) {
		return false, nil
	}
	for i, f := range a.Fields {
		if ok, err := similarFields(f, b.Fields[i]); !ok || err != nil {
			return false, err
		}
	}
	for i, r := range a.Registers {
		if ok, err := Similar(r, b.Registers[i], loose); !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

func similarFields(a, b *regmap.Field) (bool, error) {
	if ok, err := sameExtensions(a.Extensions, b.Extensions); !ok || err != nil {
		return false, err
	}
	if ok, err := namesSimilar(a.Name, b.Name); !ok || err != nil {
		return false, err
	}
	return a.BitOffset == b.BitOffset &&
		a.BitWidth == b.BitWidth &&
		a.Access == b.Access &&
		a.DimElement == b.DimElement &&
		a.DerivedFrom == b.DerivedFrom &&
		a.ModifiedWriteValues == b.ModifiedWriteValues &&
		a.ReadAction == b.ReadAction &&
		a.WriteConstraint.Equal(b.WriteConstraint), nil
}

// sameExtensions fails the comparison if the extension names differ and
// returns ErrUnknownAttribute if there is anything to compare.
func sameExtensions(a, b []*regmap.Extension) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i, e := range a {
		if e.Name != b[i].Name {
			return false, nil
		}
	}
	if len(a) != 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownAttribute, a[0].Name)
	}
	return true, nil
}

// namesSimilar reports whether a and b are equal or differ only by one
// digit substituted for another.
func namesSimilar(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}
	al, err := align.Strings([]string{a, b})
	if err != nil {
		return false, err
	}
	if len(al) < 2 || len(al) > 3 {
		return false, nil
	}
	p := al.Parts(1)
	return oneDigit(p[0]) && oneDigit(p[1]), nil
}

func oneDigit(s string) bool {
	r, n := utf8.DecodeRuneInString(s)
	return n == len(s) && n > 0 && unicode.IsDigit(r)
}
