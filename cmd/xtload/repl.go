// Copyright 2026 The Xtload Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/xtensa-psram/xtload/diag"
)

var replSymbols string

var replCmd = &cobra.Command{
	Use:   "repl <object.o>",
	Short: "Interactively set the entry function and run it with different arguments",
	Args:  cobra.ExactArgs(1),
	Run:   runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replSymbols, "symbols", "", "path to a YAML host-exported symbol table")
}

func runRepl(cmd *cobra.Command, args []string) {
	sess, err := openSession(args[0], replSymbols)
	if err != nil {
		colorError.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer sess.Close()

	rl, err := readline.New("xtload> ")
	if err != nil {
		colorError.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	colorSuccess.Println("loaded", args[0])
	fmt.Println("commands: entry <name>, run <arg>, log, quit")

	entry := ""
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "entry":
			if len(fields) != 2 {
				fmt.Println("usage: entry <name>")
				continue
			}
			if err := sess.ctx.SetFunction(fields[1]); err != nil {
				colorError.Printf("set entry: %v\n", err)
				continue
			}
			entry = fields[1]
			colorSuccess.Printf("entry set to %s\n", entry)

		case "run":
			if entry == "" {
				colorError.Println("no entry set; use: entry <name>")
				continue
			}
			arg := 0
			if len(fields) == 2 {
				arg, err = strconv.Atoi(fields[1])
				if err != nil {
					colorError.Printf("invalid argument: %s\n", fields[1])
					continue
				}
			}
			result := sess.ctx.Run(int32(arg))
			colorSuccess.Printf("%s(%d) = ", entry, arg)
			fmt.Println(colorValue.Sprintf("%d", result))

		case "log":
			for _, e := range sess.ring.Entries() {
				fmt.Println(diag.Format(e))
			}

		case "quit", "exit":
			return

		default:
			colorError.Printf("unknown command %q\n", fields[0])
		}
	}
}
