// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"

	"github.com/xtensa-psram/xtload/format/elf32"
	"github.com/xtensa-psram/xtload/internal/unaligned"
)

// scan performs the single pass over section headers 1..shnum-1 that
// allocates SHF_ALLOC sections, binds SHT_RELA sections to their target,
// and records the .symtab/.strtab offsets.
func (c *Context) scan(r *elf32.Reader, h elf32.Ehdr) error {
	c.shoff = h.Shoff
	c.shnum = int(h.Shnum)

	shstr, err := r.SectionHeader(h.Shoff, int(h.Shstrndx))
	if err != nil {
		return fmt.Errorf("%w: shstrtab header: %v", ErrSectionRead, err)
	}
	c.shstrOffset = shstr.Offset

	for n := 1; n < c.shnum; n++ {
		sh, err := r.SectionHeader(h.Shoff, n)
		if err != nil {
			return fmt.Errorf("%w: section %d: %v", ErrSectionRead, n, err)
		}
		name := r.String(c.shstrOffset, sh.Name, elf32.MaxNameLen)

		switch {
		case sh.Flags&elf32.ShfAlloc != 0:
			if sh.Size == 0 {
				continue
			}
			ls, err := c.allocSection(r, sh, n)
			if err != nil {
				return err
			}
			c.sections = append(c.sections, ls)
			if name == ".text" {
				c.textAddr = ls.Base
				c.haveText = true
			}

		case sh.Type == elf32.ShtRela:
			if !(sh.Info < uint32(n)) {
				return fmt.Errorf("%w: section %d targets %d", ErrRelaBadLink, n, sh.Info)
			}
			if target := c.sectionByIdx(int(sh.Info)); target != nil {
				target.RelSecIdx = n
			}

		case name == ".symtab":
			c.symtabOff = sh.Offset
			c.symtabCount = int(sh.Size) / elf32.SymSize

		case name == ".strtab":
			c.strtabOff = sh.Offset
		}
	}

	if c.symtabOff == 0 || c.strtabOff == 0 {
		return ErrMissingSymtabStrtab
	}
	return nil
}

func (c *Context) allocSection(r *elf32.Reader, sh elf32.Shdr, idx int) (*LoadedSection, error) {
	var (
		data []byte
		base Addr
		err  error
	)
	if sh.Flags&elf32.ShfExecinstr != 0 {
		data, base, err = c.platform.AllocExec(int(sh.Size))
	} else {
		data, base, err = c.platform.AllocData(int(sh.Size))
	}
	if err != nil || data == nil {
		return nil, fmt.Errorf("%w: section %d (%d bytes): %v", ErrAllocFailed, idx, sh.Size, err)
	}

	if sh.Type != elf32.ShtNobits {
		src, err := r.SectionData(sh)
		if err != nil {
			return nil, fmt.Errorf("%w: section %d data: %v", ErrSectionRead, idx, err)
		}
		unaligned.Copy(data, 0, src, 0, len(src))
	}

	return &LoadedSection{
		Data:   data,
		Base:   base,
		SecIdx: idx,
		Exec:   sh.Flags&elf32.ShfExecinstr != 0,
	}, nil
}
