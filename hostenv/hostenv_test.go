// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package hostenv_test

import (
	"testing"

	"github.com/xtensa-psram/xtload/hostenv"
)

func TestAllocExecViewsAlias(t *testing.T) {
	p := hostenv.New()
	data, addr, err := p.AllocExec(64)
	if err != nil {
		t.Fatalf("AllocExec: %v", err)
	}
	defer p.Free(addr)

	copy(data, []byte{0xde, 0xad, 0xbe, 0xef})

	instrAddr := p.Translate(addr)
	if instrAddr == addr {
		t.Fatalf("Translate returned the same address as the data view")
	}

	if err := p.FlushRange(addr, 4); err != nil {
		t.Fatalf("FlushRange: %v", err)
	}
}

func TestAllocDataHasNoTranslation(t *testing.T) {
	p := hostenv.New()
	_, addr, err := p.AllocData(16)
	if err != nil {
		t.Fatalf("AllocData: %v", err)
	}
	defer p.Free(addr)

	if got := p.Translate(addr); got != addr {
		t.Fatalf("Translate(plain data addr) = %#x, want unchanged %#x", got, addr)
	}
}

func TestFreeIsIdempotentOnUnknownAddr(t *testing.T) {
	p := hostenv.New()
	if err := p.Free(0x1234); err != nil {
		t.Fatalf("Free(unknown) = %v, want nil", err)
	}
}
