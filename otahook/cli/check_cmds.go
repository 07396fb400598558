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
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/htc-ocn/otahook/otahook/edify"
	"github.com/htc-ocn/otahook/util"
)

var checkInterp string

func readScriptLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.ChildOtaError(err)
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}

	return strings.Split(text, "\n"), nil
}

// InterpCommand splits an interpreter command line and appends the script
// path to it.  Environment variables in the command are expanded.
func InterpCommand(interp string, path string) ([]string, error) {
	toks, err := shellquote.Split(interp)
	if err != nil {
		return nil, util.FmtOtaError(
			"invalid command string: \"%s\": %s", interp, err.Error())
	}
	if len(toks) == 0 {
		return nil, util.NewOtaError("empty interpreter command")
	}

	for i, tok := range toks {
		toks[i] = os.ExpandEnv(tok)
	}

	return append(toks, path), nil
}

// CheckScriptFile lints a script fragment.  If interp is not empty the
// fragment is also passed to that external command, which must exit with a
// zero status.
func CheckScriptFile(path string, interp string) error {
	lines, err := readScriptLines(path)
	if err != nil {
		return err
	}

	if err := edify.Check(lines); err != nil {
		return util.PreOtaError(err, "%s", path)
	}

	if interp != "" {
		toks, err := InterpCommand(interp, path)
		if err != nil {
			return err
		}

		if _, err := util.ShellCommand(toks, nil); err != nil {
			if !util.IsExit(err) {
				return util.PreOtaError(err, "failed to run %s", toks[0])
			}
			return util.PreOtaError(err, "%s rejected %s", toks[0], path)
		}
	}

	util.StatusMessage(util.VERBOSITY_DEFAULT, "%s: %d lines ok\n", path,
		len(lines))
	return nil
}

func checkRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		OtaUsage(cmd, util.NewOtaError("Must specify a script file"))
	}

	interp := checkInterp
	if !cmd.Flags().Changed("interp") {
		interp = userSettings().Interp
	}

	if err := CheckScriptFile(args[0], interp); err != nil {
		OtaUsage(nil, err)
	}
}

func AddCheckCommands(cmd *cobra.Command) {
	checkHelpText := FormatHelp(`Check an updater-script fragment.  Every 
		mount must be followed by exactly one unmount of the same mount 
		point within the same conditional block, and if/else/endif must 
		nest.  If an interpreter command is given (or configured as 
		"interp" in ~/.otahook/otahookrc.yml) it is run with the fragment's 
		path as its last argument.`)
	checkHelpEx := "  otahook check out/install-end.edify\n"
	checkHelpEx += "  otahook check --interp \"edify-lint --strict\" " +
		"out/install-end.edify"

	checkCmd := &cobra.Command{
		Use:     "check <script-file>",
		Short:   "Check an updater-script fragment",
		Long:    checkHelpText,
		Example: checkHelpEx,
		Run:     checkRunCmd,
	}
	checkCmd.Flags().StringVar(&checkInterp, "interp", "",
		"External validator command")

	cmd.AddCommand(checkCmd)
}
