// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/xtensa-psram/xtload/format/elf32"
	"github.com/xtensa-psram/xtload/internal/elftest"
	"github.com/xtensa-psram/xtload/loader"
)

// fakePlatform is an in-process stand-in for the host allocator, cache
// flush, address translator, and call-entry collaborators. Addresses are
// assigned from an incrementing, word-aligned counter; the
// instruction-bus view of an address is modeled as the same value with
// a fixed high bit set, purely so tests can tell the two views apart.
type fakePlatform struct {
	next      loader.Addr
	freed     map[loader.Addr]bool
	flushed   []loader.Addr
	callRet   int32
	callAddrs []loader.Addr
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{next: 0x1000, freed: map[loader.Addr]bool{}}
}

func (p *fakePlatform) alloc(n int) ([]byte, loader.Addr, error) {
	if n == 0 {
		n = 4
	}
	addr := p.next
	p.next += loader.Addr((n + 3) &^ 3)
	return make([]byte, n), addr, nil
}

func (p *fakePlatform) AllocExec(n int) ([]byte, loader.Addr, error) { return p.alloc(n) }
func (p *fakePlatform) AllocData(n int) ([]byte, loader.Addr, error) { return p.alloc(n) }

func (p *fakePlatform) Translate(dataAddr loader.Addr) loader.Addr {
	return dataAddr | 0x80000000
}

func (p *fakePlatform) FlushRange(addr loader.Addr, n int) error {
	p.flushed = append(p.flushed, addr)
	return nil
}

func (p *fakePlatform) Call(instrAddr loader.Addr, arg int32) int32 {
	p.callAddrs = append(p.callAddrs, instrAddr)
	return p.callRet
}

func (p *fakePlatform) Free(addr loader.Addr) error {
	p.freed[addr] = true
	return nil
}

func TestLoadEmptyELF(t *testing.T) {
	b := &elftest.Builder{}
	buf := b.Build()
	p := newFakePlatform()
	c, err := loader.Load(buf, nil, p, nil)
	if err != nil {
		t.Fatalf("Load(empty) = %v, want success with zero loaded sections", err)
	}
	if len(c.Sections()) != 0 {
		t.Fatalf("Sections() = %d, want 0", len(c.Sections()))
	}
	if err := c.SetFunction("f"); !errors.Is(err, loader.ErrEntryNotFound) {
		t.Fatalf("SetFunction(\"f\") = %v, want ErrEntryNotFound", err)
	}
	if err := c.Free(); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func retInstr() []byte {
	// Narrow RET.N, 0x0DF0 as a 2-byte little-endian halfword, padded to
	// a 4-byte minimum section size.
	return []byte{0xF0, 0x0D, 0x00, 0x00}
}

func TestLoadSingleRetFunction(t *testing.T) {
	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: retInstr()},
		},
		Syms: []elftest.Sym{
			{Name: "local_main", Value: 0, Size: 4, Info: 0x12, Section: ".text"},
		},
	}
	buf := b.Build()
	p := newFakePlatform()
	p.callRet = 0x99

	c, err := loader.Load(buf, nil, p, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer c.Free()

	if addr, ok := c.TextAddr(); !ok || addr == 0 {
		t.Fatalf("TextAddr = %#x, %v; want a recorded .text address", addr, ok)
	}

	if err := c.SetFunction("local_main"); err != nil {
		t.Fatalf("SetFunction: %v", err)
	}
	if got := c.Run(0x10); got != 0x99 {
		t.Fatalf("Run = %#x, want 0x99 (stub)", got)
	}

	if err := c.SetFunction("does_not_exist"); !errors.Is(err, loader.ErrEntryNotFound) {
		t.Fatalf("SetFunction(missing) error = %v, want ErrEntryNotFound", err)
	}
}

func TestRunWithNoEntryReturnsZero(t *testing.T) {
	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: retInstr()},
		},
		Syms: []elftest.Sym{{Name: "f", Value: 0, Size: 4, Info: 0x12, Section: ".text"}},
	}
	buf := b.Build()
	c, err := loader.Load(buf, nil, newFakePlatform(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer c.Free()
	if got := c.Run(5); got != 0 {
		t.Fatalf("Run without SetFunction = %d, want 0", got)
	}
}

func TestRelocationL32RAndAbsolute32(t *testing.T) {
	// .text: a 4-byte L32R-shaped word whose opcode nibble is 0x01; the
	// rest of the word is the displacement field the relocation fills in.
	text := []byte{0x01, 0x00, 0x00, 0x00}
	rodata := make([]byte, 4)

	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: text,
				Relas: []elftest.Rela{{Offset: 0, Sym: 0, Type: 20, Addend: 0}}}, // R_XTENSA_SLOT0_OP -> L32R, targets "konst"
			{Name: ".rodata", Type: 1, Flags: elf32.ShfAlloc, Data: rodata,
				Relas: []elftest.Rela{{Offset: 0, Sym: 0, Type: 1, Addend: 0}}}, // R_XTENSA_32, self-referential constant patch
		},
		Syms: []elftest.Sym{
			{Name: "konst", Value: 0, Size: 4, Info: 0x11, Section: ".rodata"},
		},
	}

	buf := b.Build()
	p := newFakePlatform()
	c, err := loader.Load(buf, nil, p, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer c.Free()

	// The .rodata constant itself was patched by R_XTENSA_32: previous
	// value (0) + S (konst's own resolved address, since S for this
	// entry is also "konst") + addend 0.
	var rodataSec *loader.LoadedSection
	for _, s := range c.Sections() {
		if s.Exec {
			continue
		}
		rodataSec = s
	}
	if rodataSec == nil {
		t.Fatalf("no data section recorded")
	}
	got := binary.LittleEndian.Uint32(rodataSec.Data)
	if loader.Addr(got) != rodataSec.Base {
		t.Fatalf(".rodata word = %#x, want %#x (konst's own address)", got, rodataSec.Base)
	}

	if len(p.flushed) == 0 {
		t.Fatalf("expected at least one cache flush after relocation")
	}
}

func TestRelocationBRI8OutOfRange(t *testing.T) {
	// opcode low nibble 0x07 selects BRI8; place the target symbol far
	// enough away that the 8-bit signed displacement cannot reach it.
	text := make([]byte, 200)
	text[0] = 0x07

	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: text,
				Relas: []elftest.Rela{{Offset: 0, Sym: 0, Type: 20, Addend: 0}}},
		},
		Syms: []elftest.Sym{
			{Name: "far", Value: 196, Size: 0, Info: 0x12, Section: ".text"},
		},
	}
	buf := b.Build()
	p := newFakePlatform()
	_, err := loader.Load(buf, nil, p, nil)
	if err == nil {
		t.Fatalf("Load: want BRI8 range error, got nil")
	}
	var failure *loader.RelocFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Load error = %v (%T), want *loader.RelocFailure", err, err)
	}
	if failure.Errs[0].Kind != loader.RelocRangeOutOfRange {
		t.Fatalf("RelocError.Kind = %v, want RelocRangeOutOfRange", failure.Errs[0].Kind)
	}
}

func TestLoadMissingSymtab(t *testing.T) {
	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: retInstr()},
		},
		NoSymtab: true,
	}
	buf := b.Build()
	p := newFakePlatform()
	_, err := loader.Load(buf, nil, p, nil)
	if !errors.Is(err, loader.ErrMissingSymtabStrtab) {
		t.Fatalf("Load error = %v, want ErrMissingSymtabStrtab", err)
	}
	if len(p.freed) == 0 {
		// .text was allocated before the missing-symtab check fires on
		// scan's final return; Free must still release it.
		t.Fatalf("expected allocated sections to be freed on load failure")
	}
}

func TestCallExternalHostSymbol(t *testing.T) {
	text := []byte{0x05, 0x00, 0x00, 0x00} // CALLn/J opcode low nibble 0x05
	b := &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: text,
				Relas: []elftest.Rela{{Offset: 0, Sym: 0, Type: 20, Addend: 0}}},
		},
		Syms: []elftest.Sym{
			{Name: "printf", Value: 0, Size: 0, Info: 0x10, Section: ""},
		},
	}
	buf := b.Build()
	p := newFakePlatform()
	host := []loader.HostExport{{Name: "printf", Addr: 0xABCD1234}}
	c, err := loader.Load(buf, host, p, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer c.Free()
}
