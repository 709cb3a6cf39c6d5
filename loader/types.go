// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader implements a dynamic relocating loader for ET_REL
// (relocatable) Xtensa ELF object files. Given an in-memory ELF image and
// a table of host-exported symbols, it allocates memory for each
// allocatable section, copies section contents, resolves symbols,
// applies relocations, locates a named entry symbol, and invokes it.
//
// The target this models has split instruction and data virtual address
// spaces backed by the same physical memory behind an MMU: a buffer
// allocated "executable" is simultaneously addressable from the data bus
// (for patching) and the instruction bus (for fetch), and writes must be
// followed by a cache flush before the instruction-bus view is trusted.
// Loader never does that mapping itself; it is supplied by a Platform.
package loader

import "log/slog"

// Addr is a bookkeeping value for an address in the target's data-bus
// address space. It exists so relocation math (PC-relative deltas,
// alignment checks) can be expressed the way the Xtensa encodings require
// without resorting to unsafe pointer arithmetic; it never aliases a Go
// pointer. The byte contents it denotes live in the []byte buffer of
// whichever LoadedSection owns that range.
type Addr uint32

// Undefined is the sentinel address returned by symbol resolution when a
// symbol cannot be found in the host-exported table or in any loaded
// section.
const Undefined Addr = 0xFFFFFFFF

// HostExport is one entry of the host-exported symbol table: a name the
// loaded object can reference via an undefined symbol, bound to an
// address in the host's own address space (a function or data pointer).
type HostExport struct {
	Name string
	Addr Addr
}

// Platform bundles the operations the core loader needs from its
// environment: two allocators, a cache-flush primitive, a data-bus to
// instruction-bus address translator, and the call-entry primitive that
// transfers control into loaded code. These are the external
// collaborators; the loader treats all of them as synchronous.
type Platform interface {
	// AllocExec returns a zeroed buffer of n bytes that is both
	// writable from the data bus (the returned slice) and
	// simultaneously visible at an instruction-bus virtual address
	// once Translate is applied to the returned data-bus Addr.
	AllocExec(n int) (data []byte, addr Addr, err error)

	// AllocData returns a zeroed, plain writable buffer of n bytes
	// with no instruction-bus view.
	AllocData(n int) (data []byte, addr Addr, err error)

	// Translate maps a data-bus address backed by an AllocExec
	// allocation to its paired instruction-bus address over the same
	// physical memory.
	Translate(dataAddr Addr) Addr

	// FlushRange flushes the data cache for [addr, addr+n) so that a
	// subsequent instruction fetch through the paired instruction-bus
	// view observes bytes written through the data-bus view. Ranges
	// need not be aligned.
	FlushRange(addr Addr, n int) error

	// Call transfers control to the instruction-bus address instrAddr
	// as a function of signature (int32) -> int32.
	Call(instrAddr Addr, arg int32) int32

	// Free releases an allocation previously returned by AllocExec or
	// AllocData.
	Free(addr Addr) error
}

// LoadedSection is one allocated, populated SHF_ALLOC section.
type LoadedSection struct {
	Data      []byte // backing buffer; data-bus view
	Base      Addr   // data-bus address of Data[0]
	SecIdx    int    // original ELF section index
	RelSecIdx int    // ELF index of the SHT_RELA section targeting this one, or 0
	Exec      bool   // true if this section has SHF_EXECINSTR
}

// Context is the live state of one loaded object, from Load through Free.
type Context struct {
	buf      []byte // input ELF image, read-only, caller-owned
	host     []HostExport
	platform Platform
	log      *slog.Logger

	shoff       uint32
	shnum       int
	shstrOffset uint32
	symtabOff   uint32
	symtabCount int
	strtabOff   uint32

	sections []*LoadedSection

	textAddr   Addr
	haveText   bool
	entryData  Addr
	entryInstr Addr
	haveEntry  bool
}

// TextAddr returns the data-bus address of the .text section, if the
// input had one.
func (c *Context) TextAddr() (Addr, bool) {
	return c.textAddr, c.haveText
}

// Sections returns the loaded sections in ELF index order, for
// diagnostics and tests.
func (c *Context) Sections() []*LoadedSection {
	return c.sections
}

// SymtabInfo exposes the raw ELF offsets backing this context's symbol
// table, for building a symindex.Table or other read-only tooling over
// the original image.
func (c *Context) SymtabInfo() (symtabOff uint32, count int, strtabOff uint32, shstrOff uint32, shoff uint32) {
	return c.symtabOff, c.symtabCount, c.strtabOff, c.shstrOffset, c.shoff
}

// Buf returns the original ELF image this Context was loaded from.
func (c *Context) Buf() []byte {
	return c.buf
}

func (c *Context) sectionByIdx(idx int) *LoadedSection {
	for _, s := range c.sections {
		if s.SecIdx == idx {
			return s
		}
	}
	return nil
}
