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

package edify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	assert.Equal(t,
		`mount("ext4", "EMMC", "/dev/block/bootdevice/by-name/system", "/system", "");`,
		Mount("ext4", "EMMC", "/dev/block/bootdevice/by-name/system",
			"/system"))
	assert.Equal(t, `unmount("/system");`, Unmount("/system"))
	assert.Equal(t, `rename("/a.dugl", "/a");`, Rename("/a.dugl", "/a"))
	assert.Equal(t, `symlink("/t", "/l1", "/l2");`,
		Symlink("/t", "/l1", "/l2"))
	assert.Equal(t, `delete("/x", "/y");`, Delete("/x", "/y"))
	assert.Equal(t, `getprop("ro.boot.cid") == "SPCS_001"`,
		GetpropEq("ro.boot.cid", "SPCS_001"))
	assert.Equal(t, `if (x) then`, IfThen("x"))
	assert.Equal(t, `else`, Else())
	assert.Equal(t, `endif;`, Endif())
	assert.Equal(t, `ifelse(c, ui_print("a"), ui_print("b"));`,
		IfElse("c", UiPrint("a"), UiPrint("b")))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"say \"hi\"\n"`, Quote("say \"hi\"\n"))
	assert.Equal(t, `"C:\\dir"`, Quote(`C:\dir`))
}

func TestScript(t *testing.T) {
	s := NewScript()
	s.AppendExtra(`unmount("/system");`)
	s.Print("done")

	assert.Equal(t, []string{
		`unmount("/system");`,
		`ui_print("done");`,
	}, s.Lines())
	assert.Equal(t, 2, s.Len())

	// Lines returns a copy.
	lines := s.Lines()
	lines[0] = "changed"
	assert.Equal(t, `unmount("/system");`, s.Lines()[0])

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "unmount(\"/system\");\nui_print(\"done\");\n",
		buf.String())
}

type recordingWriter struct {
	calls []string
}

func (r *recordingWriter) AppendExtra(line string) {
	r.calls = append(r.calls, "extra:"+line)
}

func (r *recordingWriter) Print(msg string) {
	r.calls = append(r.calls, "print:"+msg)
}

func TestRun(t *testing.T) {
	var gotInfo Info
	hook := func(info *Info) {
		gotInfo = *info
		info.Script.Print("hello")
		info.Script.AppendExtra(Endif())
	}

	s := Run(hook, "ocn-dugl", "ocn")
	assert.Equal(t, "ocn-dugl", gotInfo.Variant)
	assert.Equal(t, "ocn", gotInfo.Device)
	assert.Equal(t, []string{`ui_print("hello");`, `endif;`}, s.Lines())

	rec := &recordingWriter{}
	hook(&Info{Script: rec})
	assert.Equal(t, []string{"print:hello", "extra:endif;"}, rec.calls)
}

func TestLex(t *testing.T) {
	tokens, err := Lex(`if (getprop("ro.boot.mid") == "2PZC30000") then # x`)
	require.NoError(t, err)

	texts := []string{}
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{
		"if", "(", "getprop", "(", "ro.boot.mid", ")", "==", "2PZC30000",
		")", "then",
	}, texts)
	assert.Equal(t, TOKEN_STRING, tokens[4].Code)

	_, err = Lex(`ui_print("oops);`)
	assert.Error(t, err)

	_, err = Lex(`a = b`)
	assert.Error(t, err)
}
