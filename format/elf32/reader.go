// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf32

import (
	"fmt"

	"github.com/xtensa-psram/xtload/internal/unaligned"
)

// Reader reads ELF32 structures out of a byte buffer at computed
// offsets. It never interprets the buffer as a pointer-cast struct; all
// multi-byte fields are reassembled byte by byte through the unaligned
// package, which tolerates any offset alignment.
type Reader struct {
	buf []byte
}

// NewReader wraps buf for ELF32 reads. buf is not copied and must
// outlive the Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// CheckMagic validates the first four bytes of the buffer.
func (r *Reader) CheckMagic() error {
	if len(r.buf) < 4 {
		return ErrBadMagic
	}
	if r.buf[0] != 0x7f || r.buf[1] != 'E' || r.buf[2] != 'L' || r.buf[3] != 'F' {
		return ErrBadMagic
	}
	return nil
}

// Header reads the ELF file header at offset 0.
func (r *Reader) Header() (Ehdr, error) {
	if len(r.buf) < EhdrSize {
		return Ehdr{}, fmt.Errorf("elf32: header read: buffer shorter than ehdr (%d < %d)", len(r.buf), EhdrSize)
	}
	b := r.buf
	var h Ehdr
	h.Type = unaligned.Get16(b, 16)
	h.Machine = unaligned.Get16(b, 18)
	h.Version = unaligned.Get32(b, 20)
	h.Entry = unaligned.Get32(b, 24)
	h.Phoff = unaligned.Get32(b, 28)
	h.Shoff = unaligned.Get32(b, 32)
	h.Flags = unaligned.Get32(b, 36)
	h.Ehsize = unaligned.Get16(b, 40)
	h.Phentsize = unaligned.Get16(b, 42)
	h.Phnum = unaligned.Get16(b, 44)
	h.Shentsize = unaligned.Get16(b, 46)
	h.Shnum = unaligned.Get16(b, 48)
	h.Shstrndx = unaligned.Get16(b, 50)
	return h, nil
}

// SectionHeader reads section header i, given the section-header table
// offset from the file header.
func (r *Reader) SectionHeader(shoff uint32, i int) (Shdr, error) {
	off := int(shoff) + i*ShdrSize
	if off < 0 || off+ShdrSize > len(r.buf) {
		return Shdr{}, fmt.Errorf("elf32: section header %d out of range", i)
	}
	b := r.buf
	var s Shdr
	s.Name = unaligned.Get32(b, off+0)
	s.Type = unaligned.Get32(b, off+4)
	s.Flags = unaligned.Get32(b, off+8)
	s.Addr = unaligned.Get32(b, off+12)
	s.Offset = unaligned.Get32(b, off+16)
	s.Size = unaligned.Get32(b, off+20)
	s.Link = unaligned.Get32(b, off+24)
	s.Info = unaligned.Get32(b, off+28)
	s.Addralign = unaligned.Get32(b, off+32)
	s.Entsize = unaligned.Get32(b, off+36)
	return s, nil
}

// String reads a NUL-terminated string from a string table at
// tableOffset+nameOffset, copying at most maxLen bytes (not counting the
// terminator) into the result. The source must be NUL-terminated within
// that bound.
func (r *Reader) String(tableOffset, nameOffset uint32, maxLen int) string {
	start := int(tableOffset) + int(nameOffset)
	if start < 0 || start >= len(r.buf) {
		return ""
	}
	end := start
	limit := start + maxLen
	if limit > len(r.buf) {
		limit = len(r.buf)
	}
	for end < limit && r.buf[end] != 0 {
		end++
	}
	return string(r.buf[start:end])
}

// MaxNameLen bounds the section/symbol name copies per spec: 32 bytes
// plus the NUL the source is expected to provide within that bound.
const MaxNameLen = 32

// Symbol reads symbol table entry i, given the symbol-table offset.
func (r *Reader) Symbol(symtabOffset uint32, i int) (Sym, error) {
	off := int(symtabOffset) + i*SymSize
	if off < 0 || off+SymSize > len(r.buf) {
		return Sym{}, fmt.Errorf("elf32: symbol %d out of range", i)
	}
	b := r.buf
	var s Sym
	s.Name = unaligned.Get32(b, off+0)
	s.Value = unaligned.Get32(b, off+4)
	s.Size = unaligned.Get32(b, off+8)
	s.Info = b[off+12]
	s.Other = b[off+13]
	s.Shndx = unaligned.Get16(b, off+14)
	return s, nil
}

// Rela reads relocation entry j of a section whose header offset is
// shOffset.
func (r *Reader) Rela(shOffset uint32, j int) (Rela, error) {
	off := int(shOffset) + j*RelaSize
	if off < 0 || off+RelaSize > len(r.buf) {
		return Rela{}, fmt.Errorf("elf32: relocation %d out of range", j)
	}
	b := r.buf
	var rel Rela
	rel.Offset = unaligned.Get32(b, off+0)
	rel.Info = unaligned.Get32(b, off+4)
	rel.Addend = int32(unaligned.Get32(b, off+8))
	return rel, nil
}

// SectionData returns the raw bytes of section sh within the input
// buffer (valid only for SHT_PROGBITS-like sections with file content).
func (r *Reader) SectionData(sh Shdr) ([]byte, error) {
	start := int(sh.Offset)
	end := start + int(sh.Size)
	if start < 0 || end > len(r.buf) || end < start {
		return nil, fmt.Errorf("elf32: section data out of range [%#x,%#x)", start, end)
	}
	return r.buf[start:end], nil
}
