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

package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("disk full")

	child := ChildOtaError(base)
	assert.Equal(t, "disk full", child.Error())
	assert.Equal(t, base, child.Parent)
	assert.NotEmpty(t, child.StackTrace)

	pre := PreOtaError(child, "writing %s", "out.edify")
	assert.Equal(t, "writing out.edify; disk full", pre.Error())

	// Foreign errors are wrapped before being prefixed.
	pre = PreOtaError(base, "step %d", 2)
	assert.Equal(t, "step 2; disk full", pre.Error())
	assert.Equal(t, base, pre.Parent)

	fc := FmtChildOtaError(child, "cannot stage: %s", "no space")
	assert.Equal(t, "cannot stage: no space", fc.Error())
	assert.Equal(t, base, fc.Parent)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")

	written, err := WriteFile(path, []byte("one\n"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteFile(path, []byte("one\n"))
	require.NoError(t, err)
	assert.False(t, written)

	written, err = WriteFile(path, []byte("two\n"))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(data))
}

func TestAtoiNoOctTry(t *testing.T) {
	tests := []struct {
		s  string
		i  int
		ok bool
	}{
		{"10", 10, true},
		{"010", 10, true},
		{"0x10", 16, true},
		{"0", 0, true},
		{"-3", -3, true},
		{"2PZC", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		i, ok := AtoiNoOctTry(tt.s)
		assert.Equal(t, tt.ok, ok, tt.s)
		assert.Equal(t, tt.i, i, tt.s)
	}
}

func TestEnvVars(t *testing.T) {
	m, err := SliceToEnvVars([]string{"B=2", "A=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "x=y", "B": "2"}, m)
	assert.Equal(t, []string{"A=x=y", "B=2"}, EnvVarsToSlice(m))

	_, err = SliceToEnvVars([]string{"nope"})
	assert.Error(t, err)
}

func TestShellCommand(t *testing.T) {
	o, err := ShellCommand([]string{"sh", "-c", "echo $OTAHOOK_TEST_VAR"},
		map[string]string{"OTAHOOK_TEST_VAR": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(o))

	_, err = ShellCommand([]string{"sh", "-c", "echo bad >&2; exit 2"}, nil)
	require.Error(t, err)
	assert.True(t, IsExit(err))
	assert.Equal(t, "bad\n", err.Error())

	_, err = ShellCommand([]string{"otahook-no-such-command"}, nil)
	require.Error(t, err)
	assert.False(t, IsExit(err))

	_, err = ShellCommand(nil, nil)
	assert.Error(t, err)
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "d"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "d", "f"),
		[]byte("x"), 0644))
	require.NoError(t, os.Symlink("d/f", filepath.Join(src, "link")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "d", "f"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	target, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "d/f", target)

	assert.True(t, IsNotExist(CopyDir(filepath.Join(src, "missing"), dst)))
}
