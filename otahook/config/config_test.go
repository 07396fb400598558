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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memSource(files map[string]string) Source {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}

	return Source{FS: fsys, Root: "mem"}
}

func TestReadLineageImports(t *testing.T) {
	src := memSource(map[string]string{
		"common/mounts.yml": `
mounts:
    system:
        mount_point: /system
    vendor:
        mount_point: /vendor
`,
		"common/base.yml": `
$import:
    - mounts.yml
desc: base
`,
		"ocn.yml": `
$import:
    - common/base.yml
    - common/mounts.yml
desc: ocn
mounts:
    vendor:
        mount_point: /vendor2
`,
	})

	entries, err := ReadLineage(src, "ocn.yml")
	require.NoError(t, err)

	paths := []string{}
	for _, e := range entries {
		paths = append(paths, e.FileInfo.Path)
	}
	assert.Equal(t, []string{
		"mem/common/mounts.yml",
		"mem/common/base.yml",
		"mem/ocn.yml",
	}, paths)
	assert.Equal(t, "mem/common/base.yml", entries[0].FileInfo.Parent.Path)

	settings := Merge(entries)
	assert.Equal(t, "ocn", settings["desc"])
	assert.NotContains(t, settings, KEYWORD_IMPORT)

	mounts := settings["mounts"].(map[string]interface{})
	assert.Equal(t, "/system",
		mounts["system"].(map[string]interface{})["mount_point"])
	assert.Equal(t, "/vendor2",
		mounts["vendor"].(map[string]interface{})["mount_point"])

	tree, err := BuildTree(entries)
	require.NoError(t, err)
	assert.Equal(t, "mem/ocn.yml", tree.Entry.FileInfo.Path)
	require.Len(t, tree.Children, 1)
	assert.Contains(t, TreeString(tree), "mem/common/mounts.yml")
}

func TestReadLineageMissingImport(t *testing.T) {
	src := memSource(map[string]string{
		"ocn.yml": "$import:\n    - nope.yml\n",
	})

	_, err := ReadLineage(src, "ocn.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imported from mem/ocn.yml")
}

func TestReadLineageBadImports(t *testing.T) {
	src := memSource(map[string]string{
		"ocn.yml": "$import:\n    a: b\n",
	})

	_, err := ReadLineage(src, "ocn.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid $import section")
}

func TestReadLineageBadYaml(t *testing.T) {
	src := memSource(map[string]string{
		"ocn.yml": "a: [b\n",
	})

	_, err := ReadLineage(src, "ocn.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failure parsing \"mem/ocn.yml\"")
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rc.yml"),
		[]byte("interp: edify-lint --strict\n"), 0644))

	settings, fi, err := ReadFile(filepath.Join(dir, "rc.yml"))
	require.NoError(t, err)
	assert.Equal(t, "edify-lint --strict", settings["interp"])
	assert.Equal(t, dir+"/rc.yml", fi.Path)
}
