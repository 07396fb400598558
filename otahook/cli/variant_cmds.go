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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/htc-ocn/otahook/otahook/edify"
	"github.com/htc-ocn/otahook/otahook/variant"
	"github.com/htc-ocn/otahook/util"
)

var matchProps []string

// ListVariants writes one line per known variant.  At verbose level the
// defining file and mounts are listed as well.
func ListVariants(w io.Writer) error {
	r, err := LoadRegistry()
	if err != nil {
		return err
	}

	for _, v := range r.Variants() {
		fmt.Fprintf(w, "%s", v.Name)
		if v.Desc != "" {
			fmt.Fprintf(w, ": %s", v.Desc)
		}
		fmt.Fprintf(w, "\n")

		if util.Verbosity >= util.VERBOSITY_VERBOSE {
			if v.FileInfo != nil {
				fmt.Fprintf(w, "    file: %s\n", v.FileInfo.Path)
			}
			if names := v.MountNames(); len(names) > 0 {
				fmt.Fprintf(w, "    mounts: %s\n", strings.Join(names, ", "))
			}
		}
	}

	return nil
}

// ShowVariant writes the resolved definition of a variant as YAML.
func ShowVariant(name string, w io.Writer) error {
	v, err := LoadVariant(name)
	if err != nil {
		return err
	}

	b, err := yaml.Marshal(v.Encode())
	if err != nil {
		return util.ChildOtaError(err)
	}

	if _, err := w.Write(b); err != nil {
		return util.ChildOtaError(err)
	}
	return nil
}

// MatchVariants returns the names of the variants whose conditions hold for
// the given device properties.  Both `mid=...` and `ro.boot.mid=...` forms
// are accepted.
func MatchVariants(props map[string]string) ([]string, error) {
	r, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	props = variant.ExpandProps(props, edify.PropAliases)

	var names []string
	for _, v := range r.Variants() {
		ok, err := v.Matches(props)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, v.Name)
		}
	}

	return names, nil
}

func variantsRunCmd(cmd *cobra.Command, args []string) {
	if err := ListVariants(os.Stdout); err != nil {
		OtaUsage(nil, err)
	}
}

func showRunCmd(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		OtaUsage(cmd, util.NewOtaError("Must specify exactly one variant"))
	}

	if err := ShowVariant(args[0], os.Stdout); err != nil {
		OtaUsage(nil, err)
	}
}

func matchRunCmd(cmd *cobra.Command, args []string) {
	if len(matchProps) == 0 {
		OtaUsage(cmd, util.NewOtaError("Must specify at least one --prop"))
	}

	props, err := ParsePropArgs(matchProps)
	if err != nil {
		OtaUsage(cmd, err)
	}

	names, err := MatchVariants(props)
	if err != nil {
		OtaUsage(nil, err)
	}

	if len(names) == 0 {
		util.StatusMessage(util.VERBOSITY_DEFAULT, "no matching variants\n")
		return
	}
	for _, name := range names {
		fmt.Printf("%s\n", name)
	}
}

func AddVariantCommands(cmd *cobra.Command) {
	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "List available device variants",
		Long: FormatHelp(`List the device variants that can be emitted.  
			Variants are read from the directory given by --devices, the 
			"devices_dir" setting, a "devices" directory next to the 
			executable, or the built-in set, in that order.`),
		Run: variantsRunCmd,
	}
	cmd.AddCommand(variantsCmd)

	showCmd := &cobra.Command{
		Use:     "show <variant>",
		Short:   "Display a variant's resolved definition",
		Long:    FormatHelp(`Display a variant with its imports merged, as YAML.`),
		Example: "  otahook show ocn-uhl",
		Run:     showRunCmd,
	}
	cmd.AddCommand(showCmd)
	AddTabCompleteFn(showCmd, variantList)

	matchHelpEx := "  otahook match --prop mid=2PZC30000\n"
	matchHelpEx += "  otahook match --prop ro.boot.mid=2PZC10000 " +
		"--prop cid=BS_US001"

	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "List the variants whose conditions hold for a device",
		Long: FormatHelp(`Evaluate every variant's conditions against the 
			given device properties and list the variants with at least one 
			block that would run.  "mid" and "cid" are accepted as short 
			forms of ro.boot.mid and ro.boot.cid.`),
		Example: matchHelpEx,
		Run:     matchRunCmd,
	}
	matchCmd.Flags().StringArrayVar(&matchProps, "prop", nil,
		"Device property as <name>=<value> (repeatable)")
	cmd.AddCommand(matchCmd)
}
