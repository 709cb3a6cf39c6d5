// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command for the xtload tool: it loads an ET_REL
// Xtensa object against a host symbol table and either runs its entry
// function directly, browses its structure, or drives it interactively.
var rootCmd = &cobra.Command{
	Use:   "xtload",
	Short: "Dynamic loader and inspector for ET_REL Xtensa object files",
	Long: `xtload loads a relocatable Xtensa ELF object the way the embedded
target's runtime loader would: it allocates sections, resolves symbols
against a host-exported table, applies relocations, and can invoke a
named entry function.

On this host it runs against a demo Platform backed by memfd_create and
a dual data/instruction-bus mmap, standing in for the real PSRAM/MMU
target.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.xtload.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetDefault("log_level", "info")

	cobra.OnInitialize(initConfig)
}

// initConfig reads a config file and environment variables, following
// the same config-discovery order regardless of which subcommand runs.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".xtload")
	}

	viper.SetEnvPrefix("XTLOAD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

// logLevel parses the configured log level, defaulting to info on a bad
// value rather than failing the command.
func logLevel() slog.Level {
	switch viper.GetString("log_level") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
