// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elftest builds minimal, valid ELF32 ET_REL Xtensa byte images
// for tests. There is no Xtensa assembler available in this environment,
// so fixtures are assembled by hand instead of checked in as binaries.
package elftest

import "encoding/binary"

// Sym describes one entry to add to .symtab.
type Sym struct {
	Name    string
	Value   uint32
	Size    uint32
	Info    uint8
	Section string // name of the defining section, or "" for SHN_UNDEF
}

// Rela describes one R_XTENSA relocation against a target section.
type Rela struct {
	Offset uint32
	Sym    int // index into the Builder's Syms slice (0 = first added Sym, becomes ELF symbol 1)
	Type   uint8
	Addend int32
}

// Section describes one allocatable (or not) section to add.
type Section struct {
	Name  string
	Type  uint32
	Flags uint32
	Data  []byte // nil for SHT_NOBITS
	Size  uint32 // used when Data is nil (SHT_NOBITS)
	Relas []Rela // relocations targeting this section, if any
}

// Builder assembles an ELF32 ET_REL Xtensa image.
type Builder struct {
	Sections []Section
	Syms     []Sym

	// NoSymtab omits the .symtab and .strtab sections entirely, for
	// exercising the loader's missing-symbol-table failure path.
	NoSymtab bool
}

const (
	ehdrSize = 52
	shdrSize = 40
	symSize  = 16
	relaSize = 12

	shtNull   = 0
	shtRela   = 4
	shtSymtab = 2
	shtStrtab = 3

	emXtensa = 94
	etRel    = 1
)

type strtab struct {
	buf []byte
}

func newStrtab() *strtab {
	return &strtab{buf: []byte{0}}
}

func (s *strtab) add(name string) uint32 {
	if name == "" {
		return 0
	}
	off := uint32(len(s.buf))
	s.buf = append(s.buf, name...)
	s.buf = append(s.buf, 0)
	return off
}

// Build assembles the final byte image.
func (b *Builder) Build() []byte {
	shstrtab := newStrtab()

	type placed struct {
		Section
		nameOff uint32
		offset  uint32
		secIdx  int // 1-based ELF section index assigned to this user section
	}

	out := make([]byte, ehdrSize) // reserve space for the file header
	emit := func(data []byte) uint32 {
		off := uint32(len(out))
		out = append(out, data...)
		return off
	}

	// Section index 0 is reserved (SHN_UNDEF / null section).
	nextIdx := 1
	placedSections := make([]placed, len(b.Sections))
	for i, s := range b.Sections {
		p := placed{Section: s, secIdx: nextIdx}
		nextIdx++
		p.nameOff = shstrtab.add(s.Name)
		if s.Data != nil {
			p.offset = emit(s.Data)
		}
		placedSections[i] = p
	}
	indexOf := func(name string) int {
		for _, p := range placedSections {
			if p.Name == name {
				return p.secIdx
			}
		}
		return 0
	}

	// .symtab: null symbol + user symbols.
	var symtabIdx, strtabIdx int
	var symtabNameOff, strtabNameOff uint32
	var symtabOff, strtabOff uint32
	var symData []byte
	strs := newStrtab()
	if !b.NoSymtab {
		symtabIdx = nextIdx
		nextIdx++
		strtabIdx = nextIdx
		nextIdx++
		symtabNameOff = shstrtab.add(".symtab")
		strtabNameOff = shstrtab.add(".strtab")

		symData = make([]byte, symSize) // null symbol
		for _, sym := range b.Syms {
			nameOff := strs.add(sym.Name)
			shndx := uint16(indexOf(sym.Section))
			entry := make([]byte, symSize)
			binary.LittleEndian.PutUint32(entry[0:], nameOff)
			binary.LittleEndian.PutUint32(entry[4:], sym.Value)
			binary.LittleEndian.PutUint32(entry[8:], sym.Size)
			entry[12] = sym.Info
			entry[13] = 0
			binary.LittleEndian.PutUint16(entry[14:], shndx)
			symData = append(symData, entry...)
		}
		symtabOff = emit(symData)
		strtabOff = emit(strs.buf)
	}

	// One .rela<section> per section that declared relocations.
	type relaSec struct {
		nameOff uint32
		offset  uint32
		size    uint32
		target  int // ELF index of the target section (sh_info)
		secIdx  int
	}
	var relaSecs []relaSec
	for _, p := range placedSections {
		if len(p.Relas) == 0 {
			continue
		}
		name := ".rela" + p.Name
		nameOff := shstrtab.add(name)
		var data []byte
		for _, rel := range p.Relas {
			entry := make([]byte, relaSize)
			binary.LittleEndian.PutUint32(entry[0:], rel.Offset)
			info := (uint32(rel.Sym+1) << 8) | uint32(rel.Type)
			binary.LittleEndian.PutUint32(entry[4:], info)
			binary.LittleEndian.PutUint32(entry[8:], uint32(rel.Addend))
			data = append(data, entry...)
		}
		off := emit(data)
		relaSecs = append(relaSecs, relaSec{
			nameOff: nameOff,
			offset:  off,
			size:    uint32(len(data)),
			target:  p.secIdx,
			secIdx:  nextIdx,
		})
		nextIdx++
	}

	shstrtabIdx := nextIdx
	nextIdx++
	shstrtabNameOff := shstrtab.add(".shstrtab")
	shstrtabOff := emit(shstrtab.buf)

	shnum := nextIdx
	shoff := uint32(len(out))

	writeShdr := func(nameOff, typ, flags, addr, offset, size, link, info, align, entsize uint32) {
		entry := make([]byte, shdrSize)
		binary.LittleEndian.PutUint32(entry[0:], nameOff)
		binary.LittleEndian.PutUint32(entry[4:], typ)
		binary.LittleEndian.PutUint32(entry[8:], flags)
		binary.LittleEndian.PutUint32(entry[12:], addr)
		binary.LittleEndian.PutUint32(entry[16:], offset)
		binary.LittleEndian.PutUint32(entry[20:], size)
		binary.LittleEndian.PutUint32(entry[24:], link)
		binary.LittleEndian.PutUint32(entry[28:], info)
		binary.LittleEndian.PutUint32(entry[32:], align)
		binary.LittleEndian.PutUint32(entry[36:], entsize)
		out = append(out, entry...)
	}

	writeShdr(0, shtNull, 0, 0, 0, 0, 0, 0, 0, 0) // null section
	for _, p := range placedSections {
		size := p.Size
		if p.Data != nil {
			size = uint32(len(p.Data))
		}
		writeShdr(p.nameOff, p.Type, p.Flags, 0, p.offset, size, 0, 0, 1, 0)
	}
	if !b.NoSymtab {
		writeShdr(symtabNameOff, shtSymtab, 0, 0, symtabOff, uint32(len(symData)), uint32(strtabIdx), 0, 4, symSize)
		writeShdr(strtabNameOff, shtStrtab, 0, 0, strtabOff, uint32(len(strs.buf)), 0, 0, 1, 0)
	}
	for _, rs := range relaSecs {
		writeShdr(rs.nameOff, shtRela, 0, 0, rs.offset, rs.size, uint32(symtabIdx), uint32(rs.target), 4, relaSize)
	}
	writeShdr(shstrtabNameOff, shtStrtab, 0, 0, shstrtabOff, uint32(len(shstrtab.buf)), 0, 0, 1, 0)

	out[0], out[1], out[2], out[3] = 0x7f, 'E', 'L', 'F'
	out[4] = 1 // ELFCLASS32
	out[5] = 1 // ELFDATA2LSB
	out[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(out[16:], etRel)
	binary.LittleEndian.PutUint16(out[18:], emXtensa)
	binary.LittleEndian.PutUint32(out[20:], 1)
	binary.LittleEndian.PutUint32(out[32:], shoff)
	binary.LittleEndian.PutUint16(out[40:], ehdrSize)
	binary.LittleEndian.PutUint16(out[46:], shdrSize)
	binary.LittleEndian.PutUint16(out[48:], uint16(shnum))
	binary.LittleEndian.PutUint16(out[50:], uint16(shstrtabIdx))

	return out
}
