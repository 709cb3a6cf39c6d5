// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf32_test

import (
	"testing"

	"github.com/xtensa-psram/xtload/format/elf32"
	"github.com/xtensa-psram/xtload/internal/elftest"
)

func TestCheckMagicRejectsGarbage(t *testing.T) {
	r := elf32.NewReader([]byte{0, 0, 0, 0})
	if err := r.CheckMagic(); err != elf32.ErrBadMagic {
		t.Fatalf("CheckMagic = %v, want ErrBadMagic", err)
	}
}

func TestCheckMagicRejectsShortBuffer(t *testing.T) {
	r := elf32.NewReader([]byte{0x7f, 'E'})
	if err := r.CheckMagic(); err != elf32.ErrBadMagic {
		t.Fatalf("CheckMagic = %v, want ErrBadMagic", err)
	}
}

func buildFixture() *elftest.Builder {
	text := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04}
	rodata := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	return &elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".text", Type: 1, Flags: elf32.ShfAlloc | elf32.ShfExecinstr, Data: text},
			{Name: ".rodata", Type: 1, Flags: elf32.ShfAlloc, Data: rodata},
			{Name: ".bss", Type: 8, Flags: elf32.ShfAlloc | elf32.ShfWrite, Size: 16},
		},
		Syms: []elftest.Sym{
			{Name: "entry", Value: 0, Size: 8, Info: 0x12, Section: ".text"},
			{Name: "table", Value: 0, Size: 4, Info: 0x11, Section: ".rodata"},
			{Name: "ext_func", Info: 0x10, Section: ""},
		},
	}
}

func TestReaderRoundTripsHeaderAndSections(t *testing.T) {
	buf := buildFixture().Build()
	r := elf32.NewReader(buf)

	if err := r.CheckMagic(); err != nil {
		t.Fatalf("CheckMagic: %v", err)
	}

	h, err := r.Header()
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if h.Type != elf32.EtRel {
		t.Fatalf("Type = %d, want EtRel", h.Type)
	}
	if h.Machine != elf32.EmXtensa {
		t.Fatalf("Machine = %d, want EmXtensa", h.Machine)
	}
	if int(h.Shoff) >= len(buf) {
		t.Fatalf("Shoff %d out of range of buffer len %d", h.Shoff, len(buf))
	}

	// section 0 is the null section; walk the rest and recover names via
	// the section-header string table (index Shstrndx).
	shstr, err := r.SectionHeader(h.Shoff, int(h.Shstrndx))
	if err != nil {
		t.Fatalf("SectionHeader(shstrndx): %v", err)
	}

	var names []string
	var textSh, rodataSh, bssSh elf32.Shdr
	var haveText, haveRodata, haveBss bool
	for i := 0; i < int(h.Shnum); i++ {
		sh, err := r.SectionHeader(h.Shoff, i)
		if err != nil {
			t.Fatalf("SectionHeader(%d): %v", i, err)
		}
		name := r.String(shstr.Offset, sh.Name, elf32.MaxNameLen)
		names = append(names, name)
		switch name {
		case ".text":
			textSh, haveText = sh, true
		case ".rodata":
			rodataSh, haveRodata = sh, true
		case ".bss":
			bssSh, haveBss = sh, true
		}
	}
	if !haveText || !haveRodata || !haveBss {
		t.Fatalf("missing expected sections among %v", names)
	}

	textData, err := r.SectionData(textSh)
	if err != nil {
		t.Fatalf("SectionData(.text): %v", err)
	}
	if len(textData) != 8 || textData[4] != 0x01 {
		t.Fatalf("text data = %v, want 8 bytes starting 00 00 00 00 01", textData)
	}

	rodataData, err := r.SectionData(rodataSh)
	if err != nil {
		t.Fatalf("SectionData(.rodata): %v", err)
	}
	if len(rodataData) != 4 || rodataData[0] != 0xaa {
		t.Fatalf("rodata data = %v, want 4 bytes starting 0xaa", rodataData)
	}

	if bssSh.Type != elf32.ShtNobits || bssSh.Size != 16 {
		t.Fatalf(".bss header = %+v, want SHT_NOBITS size 16", bssSh)
	}
}

func TestReaderSymbolsAndRelocations(t *testing.T) {
	b := buildFixture()
	b.Sections[1].Relas = []elftest.Rela{
		{Offset: 4, Sym: 2, Type: 1, Addend: 0}, // ext_func
	}
	buf := b.Build()
	r := elf32.NewReader(buf)

	h, err := r.Header()
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	shstr, _ := r.SectionHeader(h.Shoff, int(h.Shstrndx))

	var symtabSh, strtabSh elf32.Shdr
	var relaSh elf32.Shdr
	var haveSymtab, haveRela bool
	for i := 0; i < int(h.Shnum); i++ {
		sh, err := r.SectionHeader(h.Shoff, i)
		if err != nil {
			t.Fatalf("SectionHeader(%d): %v", i, err)
		}
		name := r.String(shstr.Offset, sh.Name, elf32.MaxNameLen)
		switch {
		case sh.Type == elf32.ShtSymtab:
			symtabSh = sh
			strtabIdx := sh.Link
			strtabSh, _ = r.SectionHeader(h.Shoff, int(strtabIdx))
			haveSymtab = true
		case name == ".relarodata" || name == ".rela.rodata":
			relaSh = sh
			haveRela = true
		}
	}
	if !haveSymtab {
		t.Fatalf("no SHT_SYMTAB section found")
	}

	nsyms := int(symtabSh.Size) / elf32.SymSize
	if nsyms != 4 { // null + 3 user symbols
		t.Fatalf("nsyms = %d, want 4", nsyms)
	}

	var gotNames []string
	for i := 0; i < nsyms; i++ {
		sym, err := r.Symbol(symtabSh.Offset, i)
		if err != nil {
			t.Fatalf("Symbol(%d): %v", i, err)
		}
		gotNames = append(gotNames, r.String(strtabSh.Offset, sym.Name, elf32.MaxNameLen))
	}
	want := []string{"", "entry", "table", "ext_func"}
	for i, w := range want {
		if gotNames[i] != w {
			t.Fatalf("symbol %d name = %q, want %q (all: %v)", i, gotNames[i], w, gotNames)
		}
	}

	if !haveRela {
		t.Fatalf("expected a .rela section for .rodata")
	}
	nrelas := int(relaSh.Size) / elf32.RelaSize
	if nrelas != 1 {
		t.Fatalf("nrelas = %d, want 1", nrelas)
	}
	rel, err := r.Rela(relaSh.Offset, 0)
	if err != nil {
		t.Fatalf("Rela(0): %v", err)
	}
	if rel.Offset != 4 || rel.Type() != 1 || rel.Sym() != 3 {
		t.Fatalf("rela = %+v, want Offset=4 Type=1 Sym=3", rel)
	}
}

func TestSectionHeaderOutOfRange(t *testing.T) {
	buf := buildFixture().Build()
	r := elf32.NewReader(buf)
	h, _ := r.Header()
	if _, err := r.SectionHeader(h.Shoff, int(h.Shnum)+100); err == nil {
		t.Fatalf("SectionHeader with out-of-range index: want error, got nil")
	}
}
