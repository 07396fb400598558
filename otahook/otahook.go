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

package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/htc-ocn/otahook/otahook/cli"
	"github.com/htc-ocn/otahook/otahook/otahookutil"
	"github.com/htc-ocn/otahook/util"
)

var OtahookLogLevel log.Level
var otahookSilent bool
var otahookQuiet bool
var otahookVerbose bool
var otahookLogFile string
var otahookHelp bool

func otahookCmd() *cobra.Command {
	otahookHelpText := cli.FormatHelp(`Otahook generates the device specific 
		install-end fragment of an OTA updater script for the HTC U11 (ocn) 
		family.  Each variant describes the mounts, renames and symlinks a 
		model needs, guarded by the model and carrier ids the device reports 
		while it is being flashed.`)
	otahookHelpText += "\n\n" + cli.FormatHelp(`Please use the otahook help 
		command, and specify the name of the command you want help for, for 
		help on how to use a specific command`)
	otahookHelpEx := "  otahook\n"
	otahookHelpEx += "  otahook help [<command-name>]\n"
	otahookHelpEx += "    For help on <command-name>.  If not specified, " +
		"print this message."

	logLevelStr := ""
	otahookCmd := &cobra.Command{
		Use:     "otahook",
		Short:   "Otahook emits device specific OTA install-end scripts",
		Long:    otahookHelpText,
		Example: otahookHelpEx,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbosity := util.VERBOSITY_DEFAULT
			if otahookSilent {
				verbosity = util.VERBOSITY_SILENT
			} else if otahookQuiet {
				verbosity = util.VERBOSITY_QUIET
			} else if otahookVerbose {
				verbosity = util.VERBOSITY_VERBOSE
			}

			var err error
			OtahookLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				cli.OtaUsage(nil, util.NewOtaError(err.Error()))
			}

			err = util.Init(OtahookLogLevel, otahookLogFile, verbosity)
			if err != nil {
				cli.OtaUsage(nil, err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	otahookCmd.PersistentFlags().BoolVarP(&otahookVerbose, "verbose", "v",
		false, "Enable verbose output when executing commands")
	otahookCmd.PersistentFlags().BoolVarP(&otahookQuiet, "quiet", "q", false,
		"Be quiet; only display error output")
	otahookCmd.PersistentFlags().BoolVarP(&otahookSilent, "silent", "s", false,
		"Be silent; don't output anything")
	otahookCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l",
		"WARN", "Log level")
	otahookCmd.PersistentFlags().StringVarP(&otahookLogFile, "outfile", "o",
		"", "Filename to tee output to")
	otahookCmd.PersistentFlags().StringVar(&cli.DevicesDir, "devices", "",
		"Directory of variant files to use instead of the built-in set")
	otahookCmd.PersistentFlags().BoolVarP(&otahookHelp, "help", "h",
		false, "Help for otahook commands")

	versHelpText := cli.FormatHelp(`Display the otahook version number`)
	versHelpEx := "  otahook version"
	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the otahook version number",
		Long:    versHelpText,
		Example: versHelpEx,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s\n", otahookutil.OtahookVersionStr)
		},
	}

	otahookCmd.AddCommand(versCmd)

	return otahookCmd
}

func main() {
	cmd := otahookCmd()

	cli.AddEmitCommands(cmd)
	cli.AddCheckCommands(cmd)
	cli.AddVariantCommands(cmd)
	cli.AddCompleteCommands(cmd)

	cmd.Execute()
}
