// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import "testing"

func TestInRange(t *testing.T) {
	cases := []struct {
		v, lo, hi int32
		want      bool
	}{
		{0, -128, 128, true},
		{-128, -128, 128, true},
		{127, -128, 128, true},
		{128, -128, 128, false},
		{-129, -128, 128, false},
	}
	for _, c := range cases {
		if got := InRange(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("InRange(%d, %d, %d) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestInClosedRange(t *testing.T) {
	if !InClosedRange(int32(64), 0, 64) {
		t.Errorf("InClosedRange(64, 0, 64) = false, want true")
	}
	if InClosedRange(int32(65), 0, 64) {
		t.Errorf("InClosedRange(65, 0, 64) = true, want false")
	}
}
