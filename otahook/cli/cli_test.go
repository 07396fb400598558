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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/htc-ocn/otahook/otahook/settings"
)

const duglIf = `if (getprop("ro.boot.mid") == "2PZC30000" || getprop("ro.boot.mid") == "2PZC40000") then`

const vendorVariant = `
mounts:
    vendor:
        device: /dev/block/bootdevice/by-name/vendor
        mount_point: /vendor

variant:
    name: test-vendor
    desc: Vendor fixup

blocks:
    - cids: [HTC_001]
      mount: vendor
      steps:
          - delete: [/vendor/etc/old.conf]
`

// withSettings replaces the user settings for the duration of a test.
func withSettings(t *testing.T, s settings.Settings) {
	old := userSettings
	oldDir := DevicesDir
	userSettings = func() settings.Settings { return s }
	DevicesDir = ""
	t.Cleanup(func() {
		userSettings = old
		DevicesDir = oldDir
	})
}

func writeVendorDir(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor.yml"),
		[]byte(vendorVariant), 0644))
	return dir
}

func TestEmitStdout(t *testing.T) {
	withSettings(t, settings.Settings{})

	var buf bytes.Buffer
	require.NoError(t, EmitVariant("ocn-dugl", "", &buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, duglIf, lines[0])
	assert.Equal(t, `unmount("/system");`, lines[7])
	assert.Equal(t, "endif;", lines[8])
}

func TestEmitFile(t *testing.T) {
	withSettings(t, settings.Settings{})

	out := filepath.Join(t.TempDir(), "sub", "install-end.edify")
	require.NoError(t, EmitVariant("ocn-whl", out, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data),
		`if (getprop("ro.boot.cid") == "SPCS_001") then`+"\n"))

	// Emitting again leaves identical contents.
	require.NoError(t, EmitVariant("ocn-whl", out, nil))
	again, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEmitUnknown(t *testing.T) {
	withSettings(t, settings.Settings{})

	err := EmitVariant("ocn-nope", "", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocn-nope")
}

func TestDevicesDirPrecedence(t *testing.T) {
	dir := writeVendorDir(t)

	withSettings(t, settings.Settings{DevicesDir: dir})
	var buf bytes.Buffer
	require.NoError(t, EmitVariant("test-vendor", "", &buf))
	assert.Equal(t,
		`if (getprop("ro.boot.cid") == "HTC_001") then`+"\n"+
			`mount("ext4", "EMMC", "/dev/block/bootdevice/by-name/vendor", "/vendor", "");`+"\n"+
			`delete("/vendor/etc/old.conf");`+"\n"+
			`unmount("/vendor");`+"\n"+
			"endif;\n",
		buf.String())

	// The flag overrides the setting.
	DevicesDir = t.TempDir()
	err := EmitVariant("test-vendor", "", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no variants found")
}

func TestStage(t *testing.T) {
	withSettings(t, settings.Settings{})

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "SYSTEM", "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "SYSTEM", "etc", "a.conf"),
		[]byte("a\n"), 0644))
	require.NoError(t, os.Symlink("a.conf",
		filepath.Join(src, "SYSTEM", "etc", "b.conf")))

	out := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, StageVariant("ocn-uhl", src, out))

	data, err := os.ReadFile(filepath.Join(out, "SYSTEM", "etc", "a.conf"))
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))

	target, err := os.Readlink(filepath.Join(out, "SYSTEM", "etc", "b.conf"))
	require.NoError(t, err)
	assert.Equal(t, "a.conf", target)

	script, err := os.ReadFile(filepath.Join(out, "OTA", "install-end.edify"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "ifelse("))
	assert.True(t, strings.HasSuffix(string(script), "endif;\n"))
}

func TestStageNotDir(t *testing.T) {
	withSettings(t, settings.Settings{})

	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0644))

	err := StageVariant("ocn-uhl", f, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func writeScript(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "install-end.edify")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestCheckScriptFile(t *testing.T) {
	good := writeScript(t, strings.Join([]string{
		duglIf,
		`mount("ext4", "EMMC", "/dev/block/bootdevice/by-name/system", "/system", "");`,
		`unmount("/system");`,
		`endif;`,
	}, "\n")+"\n")
	assert.NoError(t, CheckScriptFile(good, ""))
	assert.NoError(t, CheckScriptFile(good, "true"))

	err := CheckScriptFile(good, "false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false rejected")

	err = CheckScriptFile(good, "otahook-no-such-validator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run")

	bad := writeScript(t,
		`mount("ext4", "EMMC", "/dev/block/bootdevice/by-name/system", "/system", "");`+"\n")
	err = CheckScriptFile(bad, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never unmounted")

	assert.NoError(t, CheckScriptFile(writeScript(t, ""), ""))

	err = CheckScriptFile(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
}

func TestInterpCommand(t *testing.T) {
	t.Setenv("OTAHOOK_TEST_LINT", "/opt/lint")

	toks, err := InterpCommand(`$OTAHOOK_TEST_LINT --mode "strict mode"`, "f.edify")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/lint", "--mode", "strict mode", "f.edify"}, toks)

	_, err = InterpCommand(`lint "unterminated`, "f.edify")
	assert.Error(t, err)

	_, err = InterpCommand("   ", "f.edify")
	assert.Error(t, err)
}

func TestListVariants(t *testing.T) {
	withSettings(t, settings.Settings{})

	var buf bytes.Buffer
	require.NoError(t, ListVariants(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ocn-dugl: "))
	assert.True(t, strings.HasPrefix(lines[1], "ocn-uhl: "))
	assert.True(t, strings.HasPrefix(lines[2], "ocn-whl: "))
}

func TestShowVariant(t *testing.T) {
	withSettings(t, settings.Settings{})

	var buf bytes.Buffer
	require.NoError(t, ShowVariant("ocn-dugl", &buf))

	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &m))

	hdr := m["variant"].(map[string]interface{})
	assert.Equal(t, "ocn-dugl", hdr["name"])

	mounts := m["mounts"].(map[string]interface{})
	system := mounts["system"].(map[string]interface{})
	assert.Equal(t, "/system", system["mount_point"])

	blocks := m["blocks"].([]interface{})
	require.Len(t, blocks, 1)
	assert.Equal(t, `mid == "2PZC30000" || mid == "2PZC40000"`,
		blocks[0].(map[string]interface{})["if"])
}

func TestMatchVariants(t *testing.T) {
	withSettings(t, settings.Settings{})

	tests := []struct {
		props map[string]string
		want  []string
	}{
		{
			map[string]string{"mid": "2PZC30000"},
			[]string{"ocn-dugl", "ocn-uhl", "ocn-whl"},
		},
		{
			map[string]string{"ro.boot.mid": "2PZC40000"},
			[]string{"ocn-dugl", "ocn-uhl", "ocn-whl"},
		},
		{map[string]string{"mid": "2PZC10000"}, nil},
		{map[string]string{"cid": "SPCS_001"}, []string{"ocn-whl"}},
		{
			map[string]string{"mid": "2PZC10000", "cid": "BS_US001"},
			[]string{"ocn-uhl"},
		},
		{map[string]string{"mid": "2PZC90000"}, nil},
	}

	for _, tt := range tests {
		got, err := MatchVariants(tt.props)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v", tt.props)
	}
}

func TestParsePropArgs(t *testing.T) {
	props, err := ParsePropArgs([]string{"mid=2PZC30000", "x=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"mid":   "2PZC30000",
		"x":     "a=b",
		"empty": "",
	}, props)

	_, err = ParsePropArgs([]string{"novalue"})
	assert.Error(t, err)

	_, err = ParsePropArgs([]string{"=value"})
	assert.Error(t, err)
}
