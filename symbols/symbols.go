// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symbols loads a host-exported symbol table from a YAML
// fixture file, for use as the loader's "host-exported" environment
// without requiring a real linked-in export table.
package symbols

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xtensa-psram/xtload/loader"
)

// Export is one host-exported symbol as written in the YAML fixture.
// Address accepts either a decimal or 0x-prefixed hexadecimal literal.
type Export struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// File is the top-level shape of a symbol-table fixture.
type File struct {
	Exports []Export `yaml:"exports"`
}

// Parse decodes a YAML symbol-table fixture into the loader's
// HostExport form.
func Parse(data []byte) ([]loader.HostExport, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("symbols: parse: %w", err)
	}
	out := make([]loader.HostExport, 0, len(f.Exports))
	for _, e := range f.Exports {
		addr, err := parseAddr(e.Address)
		if err != nil {
			return nil, fmt.Errorf("symbols: %q: %w", e.Name, err)
		}
		out = append(out, loader.HostExport{Name: e.Name, Addr: addr})
	}
	return out, nil
}

// Load reads and parses a symbol-table fixture from path.
func Load(path string) ([]loader.HostExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	return Parse(data)
}

func parseAddr(s string) (loader.Addr, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return loader.Addr(v), nil
}
