// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["inspect"])
	assert.True(t, names["repl"])
}

func TestLogLevelParsesViperSetting(t *testing.T) {
	viper.Set("log_level", "debug")
	assert.Equal(t, slog.LevelDebug, logLevel())

	viper.Set("log_level", "bogus")
	assert.Equal(t, slog.LevelInfo, logLevel())
}
