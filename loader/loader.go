// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"
	"log/slog"

	"github.com/xtensa-psram/xtload/format/elf32"
)

// Load parses buf as an ELF32 ET_REL Xtensa object, allocates and
// populates its sections via platform, resolves relocations against
// host-exported symbols, and returns a ready-to-use Context. buf must
// remain live and unmodified for the Context's entire lifetime: Load
// retains only offsets into it, and SetFunction re-reads the symbol and
// string tables out of it.
//
// If log is nil, relocation diagnostics are discarded.
func Load(buf []byte, host []HostExport, platform Platform, log *slog.Logger) (*Context, error) {
	r := elf32.NewReader(buf)
	if err := r.CheckMagic(); err != nil {
		return nil, err
	}
	h, err := r.Header()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSectionRead, err)
	}
	if h.Type != elf32.EtRel {
		return nil, fmt.Errorf("loader: e_type %d is not ET_REL", h.Type)
	}
	if h.Machine != elf32.EmXtensa {
		return nil, fmt.Errorf("loader: e_machine %d is not EM_XTENSA", h.Machine)
	}

	c := &Context{
		buf:      buf,
		host:     host,
		platform: platform,
		log:      log,
	}

	if err := c.scan(r, h); err != nil {
		c.Free()
		return nil, err
	}
	if err := c.relocate(r); err != nil {
		c.Free()
		return nil, err
	}
	return c, nil
}

// SetFunction locates the symbol named name, resolves its address, and
// records both its data-bus and instruction-bus views as the entry
// point for subsequent Run calls.
func (c *Context) SetFunction(name string) error {
	r := elf32.NewReader(c.buf)
	sym, ok := c.findSymbolByName(r, name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	addr := c.resolve(sym, name)
	if addr == Undefined {
		return fmt.Errorf("%w: %q is undefined", ErrEntryNotFound, name)
	}
	c.entryData = addr
	c.entryInstr = c.platform.Translate(addr)
	c.haveEntry = true
	return nil
}

// Run invokes the entry set by SetFunction with arg, returning its
// result. If no entry has been set, Run returns 0.
func (c *Context) Run(arg int32) int32 {
	if !c.haveEntry {
		return 0
	}
	return c.platform.Call(c.entryInstr, arg)
}

// Free releases every loaded section buffer and clears the Context. It
// is safe to call Free on a zero-value or already-freed Context, and
// safe to call more than once.
func (c *Context) Free() error {
	if c == nil {
		return nil
	}
	var firstErr error
	for _, ls := range c.sections {
		if err := c.platform.Free(ls.Base); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.sections = nil
	c.haveEntry = false
	return firstErr
}

// RunFile is the composite "load, set entry, run, free" operation:
// buf is loaded, entryName is located and set as the entry point, arg is
// passed to it, and the context is freed before returning. It returns
// the callee's result, or -1 if load or SetFunction failed.
func RunFile(buf []byte, host []HostExport, platform Platform, log *slog.Logger, entryName string, arg int32) int32 {
	c, err := Load(buf, host, platform, log)
	if err != nil {
		return -1
	}
	defer c.Free()

	if err := c.SetFunction(entryName); err != nil {
		return -1
	}
	return c.Run(arg)
}
