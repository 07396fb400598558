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

package otahookutil

import (
	"path/filepath"

	"github.com/kardianos/osext"
	log "github.com/sirupsen/logrus"

	"github.com/htc-ocn/otahook/util"
)

const OtahookVersionStr = "otahook 1.0.0"

// Name of the variant directory that may accompany the otahook binary.
const DEVICES_DIRNAME = "devices"

// ExeDevicesDir returns the devices directory next to the running binary,
// or "" if there is none.
func ExeDevicesDir() string {
	exeDir, err := osext.ExecutableFolder()
	if err != nil {
		log.Debugf("cannot locate otahook executable: %s", err.Error())
		return ""
	}

	dir := filepath.Join(exeDir, DEVICES_DIRNAME)
	if !util.NodeExist(dir) {
		return ""
	}

	return dir
}

// ResolveDevicesDir picks the variant directory to load.  An explicit
// command-line value wins, then the user's settings, then a devices
// directory shipped next to the binary.  An empty result selects the
// built-in variants.
func ResolveDevicesDir(flagDir string, rcDir string) string {
	for _, dir := range []string{flagDir, rcDir, ExeDevicesDir()} {
		if dir != "" {
			return dir
		}
	}

	return ""
}
