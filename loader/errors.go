// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"errors"
	"fmt"
)

// Fatal-to-load error values. Each corresponds to a named error kind in
// the loader's contract; callers may use errors.Is against these.
var (
	ErrAllocFailed         = errors.New("loader: allocation failed")
	ErrRelaBadLink         = errors.New("loader: SHT_RELA section sh_info is not less than its own index")
	ErrMissingSymtabStrtab = errors.New("loader: .symtab or .strtab not found")
	ErrEntryNotFound       = errors.New("loader: entry symbol not found")
	ErrSectionRead         = errors.New("loader: section header or name read failed")
	ErrNoEntry             = errors.New("loader: no entry set")
)

// RelocErrKind enumerates the per-entry relocation failure kinds that
// accumulate across a relocation walk without aborting it.
type RelocErrKind int

const (
	RelocUndefinedSymbol RelocErrKind = iota
	RelocOpcodeUnknown
	RelocRangeOutOfRange
	RelocAlignmentError
	RelocTypeUnsupported
)

func (k RelocErrKind) String() string {
	switch k {
	case RelocUndefinedSymbol:
		return "undefined symbol"
	case RelocOpcodeUnknown:
		return "unknown opcode"
	case RelocRangeOutOfRange:
		return "out of range"
	case RelocAlignmentError:
		return "alignment error"
	case RelocTypeUnsupported:
		return "unsupported relocation type"
	default:
		return "unknown reloc error"
	}
}

// RelocError describes one failed relocation entry.
type RelocError struct {
	SecIdx   int
	EntryIdx int
	Offset   uint32
	Kind     RelocErrKind
	Detail   string
}

func (e *RelocError) Error() string {
	return fmt.Sprintf("section %d reloc %d (offset %#x): %s: %s", e.SecIdx, e.EntryIdx, e.Offset, e.Kind, e.Detail)
}

// RelocFailure aggregates every RelocError produced by a relocation walk.
// Load fails with a *RelocFailure, rather than the first error, so every
// offending entry is visible to the caller (and was already logged as it
// occurred).
type RelocFailure struct {
	Errs []*RelocError
}

func (e *RelocFailure) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	return fmt.Sprintf("%d relocation errors, first: %s", len(e.Errs), e.Errs[0].Error())
}

func (e *RelocFailure) Unwrap() []error {
	errs := make([]error, len(e.Errs))
	for i, re := range e.Errs {
		errs[i] = re
	}
	return errs
}
