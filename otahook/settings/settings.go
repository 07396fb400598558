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

package settings

import (
	"os/user"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/htc-ocn/otahook/otahook/config"
	"github.com/htc-ocn/otahook/util"
)

const OTAHOOKRC_DIR string = ".otahook"
const OTAHOOKRC_FILENAME string = "otahookrc.yml"

// Settings holds general otahook settings read from $HOME/.otahook.
type Settings struct {
	// Directory of variant files to use instead of the built-in set.
	DevicesDir string

	// Command line of an external script validator.  `check` appends the
	// script path to it.
	Interp string

	// Echo external commands before running them.
	PrintShellCmds bool
}

var otahookrc *Settings

// Process converts raw settings into a Settings.  Invalid values are
// reported and ignored.
func Process(raw map[string]interface{}, path string) Settings {
	s := Settings{}

	if itf, ok := raw["devices_dir"]; ok {
		dir, err := cast.ToStringE(itf)
		if err != nil {
			log.Warnf("%s contains invalid \"devices_dir\" value: %v",
				path, itf)
		} else if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		s.DevicesDir = dir
	}

	if itf, ok := raw["interp"]; ok {
		interp, err := cast.ToStringE(itf)
		if err != nil {
			log.Warnf("%s contains invalid \"interp\" value: %v", path, itf)
		}
		s.Interp = interp
	}

	if itf, ok := raw["print_shell_cmds"]; ok {
		b, err := cast.ToBoolE(itf)
		if err != nil {
			log.Warnf("%s contains invalid \"print_shell_cmds\" value: %v; "+
				"expected \"true\" or \"false\"", path, itf)
		} else {
			s.PrintShellCmds = b
		}
	}

	return s
}

// ReadFile reads settings from the given file.  A missing file yields the
// defaults.
func ReadFile(path string) (Settings, error) {
	raw, _, err := config.ReadFile(path)
	if err != nil {
		if util.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, err
	}

	return Process(raw, path), nil
}

func readOtahookrc() Settings {
	usr, err := user.Current()
	if err != nil {
		return Settings{}
	}

	path := filepath.Join(usr.HomeDir, OTAHOOKRC_DIR, OTAHOOKRC_FILENAME)
	s, err := ReadFile(path)
	if err != nil {
		log.Warnf("Failed to read %s file: %s", path, err.Error())
		return Settings{}
	}

	util.PrintShellCmds = s.PrintShellCmds
	return s
}

// Otahookrc returns the user's settings, reading them on first use.
func Otahookrc() Settings {
	if otahookrc != nil {
		return *otahookrc
	}

	s := readOtahookrc()
	otahookrc = &s
	return s
}
