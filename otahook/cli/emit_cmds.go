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
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/htc-ocn/otahook/otahook/edify"
	"github.com/htc-ocn/otahook/util"
)

// Location of the install-end fragment within a staged target-files tree.
const STAGE_SCRIPT_PATH = "OTA/install-end.edify"

var emitOutFile string

// emitScript runs a variant's hook into a fresh script and lints the result.
func emitScript(name string) (*edify.Script, error) {
	v, err := LoadVariant(name)
	if err != nil {
		return nil, err
	}

	s := v.Emit()
	if err := edify.Check(s.Lines()); err != nil {
		return nil, util.PreOtaError(err, "variant %s", name)
	}

	log.Debugf("variant %s emitted %d lines", name, s.Len())
	return s, nil
}

// EmitVariant writes a variant's install-end fragment to outFile, or to w if
// outFile is empty.
func EmitVariant(name string, outFile string, w io.Writer) error {
	s, err := emitScript(name)
	if err != nil {
		return err
	}

	if outFile == "" {
		if _, err := s.WriteTo(w); err != nil {
			return util.ChildOtaError(err)
		}
		return nil
	}

	written, err := util.WriteFile(outFile, []byte(s.String()))
	if err != nil {
		return err
	}
	if written {
		util.StatusMessage(util.VERBOSITY_DEFAULT,
			"Wrote %s fragment to %s\n", name, outFile)
	} else {
		util.StatusMessage(util.VERBOSITY_VERBOSE,
			"%s is up to date\n", outFile)
	}

	return nil
}

// StageVariant copies a target-files tree to outDir and adds the variant's
// install-end fragment to the copy.
func StageVariant(name string, targetFilesDir string, outDir string) error {
	s, err := emitScript(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(targetFilesDir)
	if err != nil {
		return util.FmtChildOtaError(err,
			"cannot read target-files directory %s: %s",
			targetFilesDir, err.Error())
	}
	if !info.IsDir() {
		return util.FmtOtaError("%s is not a directory", targetFilesDir)
	}

	util.StatusMessage(util.VERBOSITY_VERBOSE, "Copying %s to %s\n",
		targetFilesDir, outDir)
	if err := util.CopyDir(targetFilesDir, outDir); err != nil {
		return err
	}

	path := filepath.Join(outDir, filepath.FromSlash(STAGE_SCRIPT_PATH))
	if _, err := util.WriteFile(path, []byte(s.String())); err != nil {
		return err
	}

	util.StatusMessage(util.VERBOSITY_DEFAULT, "Staged %s in %s\n",
		name, util.TryRelPath(outDir))
	return nil
}

func emitRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		OtaUsage(cmd, util.NewOtaError("Must specify exactly one variant"))
	}

	if err := EmitVariant(args[0], emitOutFile, os.Stdout); err != nil {
		OtaUsage(nil, err)
	}
}

func stageRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		OtaUsage(cmd, util.NewOtaError(
			"Must specify a variant, a target-files directory and an "+
				"output directory"))
	}

	if err := StageVariant(args[0], args[1], args[2]); err != nil {
		OtaUsage(nil, err)
	}
}

func AddEmitCommands(cmd *cobra.Command) {
	emitHelpText := FormatHelp(`Run the FullOTA_InstallEnd hook of the 
		specified variant and write the resulting updater-script fragment. 
		The fragment is checked for unpaired mounts and unbalanced 
		conditionals before it is written.`)
	emitHelpEx := "  otahook emit ocn-dugl\n"
	emitHelpEx += "  otahook emit ocn-whl -O out/install-end.edify"

	emitCmd := &cobra.Command{
		Use:     "emit <variant>",
		Short:   "Write a variant's install-end script fragment",
		Long:    emitHelpText,
		Example: emitHelpEx,
		Run:     emitRunCmd,
	}
	emitCmd.Flags().StringVarP(&emitOutFile, "out", "O", "",
		"File to write the fragment to (default stdout)")

	cmd.AddCommand(emitCmd)
	AddTabCompleteFn(emitCmd, variantList)

	stageHelpText := FormatHelp(`Copy a target-files directory to an output 
		directory and add the variant's install-end fragment at ` +
		STAGE_SCRIPT_PATH + `.`)
	stageHelpEx := "  otahook stage ocn-uhl out/target_files out/staged"

	stageCmd := &cobra.Command{
		Use:     "stage <variant> <target-files-dir> <out-dir>",
		Short:   "Stage a target-files tree with a variant's fragment",
		Long:    stageHelpText,
		Example: stageHelpEx,
		Run:     stageRunCmd,
	}

	cmd.AddCommand(stageCmd)
	AddTabCompleteFn(stageCmd, variantList)
}
