// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xtload loads, relocates, and runs or inspects ET_REL Xtensa
// object files against a demo host Platform.
package main

func main() {
	Execute()
}
