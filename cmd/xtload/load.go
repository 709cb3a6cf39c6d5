// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/xtensa-psram/xtload/diag"
	"github.com/xtensa-psram/xtload/hostenv"
	"github.com/xtensa-psram/xtload/loader"
	"github.com/xtensa-psram/xtload/symbols"
)

// session bundles a loaded Context with the backing resources a
// subcommand needs to close when it's done.
type session struct {
	ctx      *loader.Context
	platform *hostenv.Platform
	ring     *diag.Ring
}

// openSession reads objPath, loads its host-exported symbols from
// symPath (if given), and loads it against a fresh hostenv.Platform.
func openSession(objPath, symPath string) (*session, error) {
	buf, err := os.ReadFile(objPath)
	if err != nil {
		return nil, fmt.Errorf("xtload: %w", err)
	}

	var host []loader.HostExport
	if symPath != "" {
		host, err = symbols.Load(symPath)
		if err != nil {
			return nil, fmt.Errorf("xtload: %w", err)
		}
	}

	ring := diag.NewRing(256)
	log := diag.NewLogger(os.Stderr, ring, logLevel())
	platform := hostenv.New()

	ctx, err := loader.Load(buf, host, platform, log)
	if err != nil {
		return nil, fmt.Errorf("xtload: load %s: %w", objPath, err)
	}
	return &session{ctx: ctx, platform: platform, ring: ring}, nil
}

func (s *session) Close() error {
	return s.ctx.Free()
}
