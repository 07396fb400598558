/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type TabCompleteFn func() []string

var tabCompleteEntries = map[*cobra.Command]TabCompleteFn{}

func AddTabCompleteFn(cmd *cobra.Command, cb TabCompleteFn) {
	if cmd.ValidArgs != nil || tabCompleteEntries[cmd] != nil {
		panic("tab completion values generated twice for command " +
			cmd.Name())
	}

	tabCompleteEntries[cmd] = cb
}

func GenerateTabCompleteValues() {
	for cmd, cb := range tabCompleteEntries {
		cmd.ValidArgs = cb()
	}
}

func variantList() []string {
	r, err := LoadRegistry()
	if err != nil {
		return nil
	}

	return r.Names()
}

func visitFlags(cmd *cobra.Command, fn func(flag *pflag.Flag)) {
	cmd.LocalFlags().VisitAll(fn)
	cmd.InheritedFlags().VisitAll(fn)
}

// lookupFlag finds the flag named by a command line word, if any.
func lookupFlag(cmd *cobra.Command, word string) *pflag.Flag {
	var found *pflag.Flag

	name := strings.SplitN(word, "=", 2)[0]
	visitFlags(cmd, func(flag *pflag.Flag) {
		if name == "--"+flag.Name ||
			(flag.Shorthand != "" && name == "-"+flag.Shorthand) {
			found = flag
		}
	})

	return found
}

// flagTakesValue indicates whether the word is a flag whose value is the next
// word on the command line.
func flagTakesValue(cmd *cobra.Command, word string) bool {
	if strings.Contains(word, "=") {
		return false
	}

	flag := lookupFlag(cmd, word)
	return flag != nil && flag.Value.Type() != "bool"
}

// countPositional counts the arguments that are neither flags nor flag
// values.
func countPositional(cmd *cobra.Command, words []string) int {
	count := 0
	for i := 0; i < len(words); i++ {
		w := words[i]
		if w == "" {
			continue
		}
		if strings.HasPrefix(w, "-") {
			if flagTakesValue(cmd, w) {
				i++
			}
			continue
		}
		count++
	}

	return count
}

// Complete returns the completions for the last word of a partial command
// line.
func Complete(root *cobra.Command, line string) []string {
	words := strings.Split(line, " ")
	if len(words) < 1 {
		return nil
	}

	// Find reports unknown subcommands as an error but still returns the
	// deepest command it matched.
	found, _, _ := root.Find(words[1:])
	if found == nil {
		return nil
	}

	idx := 0
	if found != root {
		for i := 1; i < len(words); i++ {
			if words[i] == found.Name() {
				idx = i
				break
			}
		}
	}

	rest := words[idx+1:]
	if len(rest) == 0 {
		// An exact command with no trailing space; completing it adds one.
		return []string{found.Name()}
	}

	partial := rest[len(rest)-1]
	prior := rest[:len(rest)-1]

	results := []string{}

	if strings.HasPrefix(partial, "-") {
		showLong := strings.HasPrefix(partial, "--") || partial == "-"
		showShort := !strings.HasPrefix(partial, "--")

		visitFlags(found, func(flag *pflag.Flag) {
			if showLong && strings.HasPrefix("--"+flag.Name, partial) {
				results = append(results, "--"+flag.Name)
			}
			if showShort && flag.Shorthand != "" &&
				strings.HasPrefix("-"+flag.Shorthand, partial) {

				results = append(results, "-"+flag.Shorthand)
			}
		})

		sort.Strings(results)
		return results
	}

	if len(prior) > 0 && flagTakesValue(found, prior[len(prior)-1]) {
		return results
	}

	// Valid args only name the first positional argument.
	if countPositional(found, prior) == 0 {
		for _, arg := range found.ValidArgs {
			if strings.HasPrefix(arg, partial) {
				results = append(results, arg)
			}
		}
	}

	for _, child := range found.Commands() {
		if !child.Hidden && strings.HasPrefix(child.Name(), partial) {
			results = append(results, child.Name())
		}
	}

	return results
}

func completeRunCmd(cmd *cobra.Command, args []string) {
	line := os.Getenv("COMP_LINE")
	if line == "" {
		fmt.Println("This command is intended to be used as part of " +
			"bash autocomplete.  It is not intended to be called directly " +
			"from the command line")
		return
	}

	GenerateTabCompleteValues()
	for _, s := range Complete(cmd.Root(), line) {
		fmt.Println(s)
	}
}

func AddCompleteCommands(cmd *cobra.Command) {
	completeHelpEx := "  complete -C \"otahook complete\" otahook"

	completeCmd := &cobra.Command{
		Use:     "complete",
		Short:   "Print bash completions for COMP_LINE",
		Example: completeHelpEx,
		Run:     completeRunCmd,
		Hidden:  true,

		// COMP_LINE carries the partial command; the arguments bash passes
		// may contain incomplete flags.
		DisableFlagParsing: true,
	}

	completeCmd.SilenceErrors = true
	cmd.AddCommand(completeCmd)
}
