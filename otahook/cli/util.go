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
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/htc-ocn/otahook/otahook/otahookutil"
	"github.com/htc-ocn/otahook/otahook/settings"
	"github.com/htc-ocn/otahook/otahook/variant"
	"github.com/htc-ocn/otahook/util"
)

// Set by the persistent --devices flag.
var DevicesDir string

// Source of user settings; replaced in tests.
var userSettings = settings.Otahookrc

func OtaUsage(cmd *cobra.Command, err error) {
	if err != nil {
		if sErr, ok := err.(*util.OtaError); ok {
			log.Debugf("%s", sErr.StackTrace)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}
	os.Exit(1)
}

// Display help text with a max line width of 79 characters
func FormatHelp(text string) string {
	// first compress all new lines and extra spaces
	words := regexp.MustCompile("\\s+").Split(text, -1)
	linelen := 0
	fmtText := ""
	for _, word := range words {
		word = strings.Trim(word, "\n ") + " "
		tmplen := linelen + len(word)
		if tmplen >= 80 {
			fmtText += "\n"
			linelen = 0
		}
		fmtText += word
		linelen += len(word)
	}
	return fmtText
}

// LoadRegistry loads the variants selected by the --devices flag, the user's
// settings, or the built-in set, in that order of preference.
func LoadRegistry() (*variant.Registry, error) {
	dir := otahookutil.ResolveDevicesDir(DevicesDir, userSettings().DevicesDir)
	if dir == "" {
		log.Debugf("using built-in variants")
		return variant.Builtin()
	}

	log.Debugf("loading variants from %s", dir)
	return variant.Load(dir)
}

// LoadVariant loads the registry and looks up a single variant.
func LoadVariant(name string) (*variant.Variant, error) {
	r, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	return r.Get(name)
}

// ParsePropArgs converts `key=value` strings into a property map.
func ParsePropArgs(args []string) (map[string]string, error) {
	props := make(map[string]string, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, util.FmtOtaError(
				"invalid property \"%s\"; expected <name>=<value>", arg)
		}
		props[parts[0]] = parts[1]
	}

	return props, nil
}
