// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	runSymbols string
	runEntry   string
	runArg     int
)

var (
	colorAddr    = color.New(color.FgCyan)
	colorValue   = color.New(color.FgWhite, color.Bold)
	colorError   = color.New(color.FgRed, color.Bold)
	colorSuccess = color.New(color.FgGreen)
	colorHeader  = color.New(color.FgWhite, color.Bold, color.Underline)
)

var runCmd = &cobra.Command{
	Use:   "run <object.o>",
	Short: "Load an object, resolve its entry symbol, and run it",
	Args:  cobra.ExactArgs(1),
	Run:   runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runSymbols, "symbols", "", "path to a YAML host-exported symbol table")
	runCmd.Flags().StringVar(&runEntry, "entry", "main", "name of the entry symbol to invoke")
	runCmd.Flags().IntVar(&runArg, "arg", 0, "integer argument passed to the entry function")
}

func runRun(cmd *cobra.Command, args []string) {
	sess, err := openSession(args[0], runSymbols)
	if err != nil {
		colorError.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer sess.Close()

	if err := sess.ctx.SetFunction(runEntry); err != nil {
		colorError.Fprintf(os.Stderr, "set entry %q: %v\n", runEntry, err)
		os.Exit(2)
	}

	result := sess.ctx.Run(int32(runArg))
	colorSuccess.Fprintf(os.Stderr, "%s returned ", runEntry)
	fmt.Fprintln(os.Stderr, colorValue.Sprintf("%d", result))
	fmt.Println(strconv.Itoa(int(result)))
}
