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
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/htc-ocn/otahook/otahook/settings"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "otahook"}
	root.PersistentFlags().StringVar(&DevicesDir, "devices", "", "")
	root.PersistentFlags().BoolP("verbose", "v", false, "")

	AddEmitCommands(root)
	AddCheckCommands(root)
	AddVariantCommands(root)
	AddCompleteCommands(root)

	return root
}

func TestComplete(t *testing.T) {
	withSettings(t, settings.Settings{})

	root := testRoot()
	GenerateTabCompleteValues()

	tests := []struct {
		line string
		want []string
	}{
		{"otahook em", []string{"emit"}},
		{"otahook emit", []string{"emit"}},
		{"otahook emit ", []string{"ocn-dugl", "ocn-uhl", "ocn-whl"}},
		{"otahook emit ocn-d", []string{"ocn-dugl"}},
		{"otahook emit ocn-dugl ", []string{}},
		{"otahook -v show ocn-w", []string{"ocn-whl"}},
		{"otahook emit --", []string{"--devices", "--out", "--verbose"}},
		{"otahook emit --o", []string{"--out"}},
		{"otahook emit -O", []string{"-O"}},
		{"otahook emit -O ", []string{}},
		{"otahook emit -O out.edify ocn-u", []string{"ocn-uhl"}},
		{"otahook check ", []string{}},
		{"otahook s", []string{"show", "stage"}},
		{"otahook co", []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Complete(root, tt.line), tt.line)
	}
}
