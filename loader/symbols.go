// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import "github.com/xtensa-psram/xtload/format/elf32"

// symbolName returns a symbol's name, falling back to the name of its
// defining section for STT_SECTION-style symbols with st_name == 0.
func (c *Context) symbolName(r *elf32.Reader, sym elf32.Sym) string {
	if sym.Name != 0 {
		return r.String(c.strtabOff, sym.Name, elf32.MaxNameLen)
	}
	sh, err := r.SectionHeader(c.shoff, int(sym.Shndx))
	if err != nil {
		return ""
	}
	return r.String(c.shstrOffset, sh.Name, elf32.MaxNameLen)
}

// resolve implements the symbol resolution order: host-exported table by
// name first, then section index + offset against loaded sections, else
// Undefined.
func (c *Context) resolve(sym elf32.Sym, name string) Addr {
	for _, h := range c.host {
		if h.Name == name {
			return h.Addr
		}
	}
	if ls := c.sectionByIdx(int(sym.Shndx)); ls != nil {
		return ls.Base + Addr(sym.Value)
	}
	return Undefined
}

// findSymbolByName returns the first symbol table entry named name.
func (c *Context) findSymbolByName(r *elf32.Reader, name string) (elf32.Sym, bool) {
	for i := 0; i < c.symtabCount; i++ {
		sym, err := r.Symbol(c.symtabOff, i)
		if err != nil {
			continue
		}
		if c.symbolName(r, sym) == name {
			return sym, true
		}
	}
	return elf32.Sym{}, false
}
