// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numeric holds small generic helpers shared by the relocation
// engine's displacement range checks.
package numeric

import "golang.org/x/exp/constraints"

// InRange reports whether lo <= v < hi.
func InRange[T constraints.Signed](v, lo, hi T) bool {
	return lo <= v && v < hi
}

// InClosedRange reports whether lo <= v <= hi.
func InClosedRange[T constraints.Signed](v, lo, hi T) bool {
	return lo <= v && v <= hi
}
