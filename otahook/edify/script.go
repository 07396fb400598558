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

// Package edify builds updater-script fragments.  Directives are emitted as
// literal text in the order they are appended; nothing here interprets them.
package edify

import (
	"fmt"
	"io"
	"strings"
)

// ScriptWriter is the append-only script buffer a hook writes to.
type ScriptWriter interface {
	// AppendExtra appends a raw line verbatim.
	AppendExtra(line string)

	// Print appends a line that displays msg in the recovery UI.
	Print(msg string)
}

// Info is the build context handed to a hook.
type Info struct {
	Script  ScriptWriter
	Variant string
	Device  string
}

// Hook emits a device-specific script fragment into info.Script.
type Hook func(info *Info)

// Script is an in-memory ScriptWriter.
type Script struct {
	lines []string
}

func NewScript() *Script {
	return &Script{}
}

func (s *Script) AppendExtra(line string) {
	s.lines = append(s.lines, line)
}

func (s *Script) Print(msg string) {
	s.AppendExtra(UiPrint(msg) + ";")
}

// Lines returns a copy of the emitted lines.
func (s *Script) Lines() []string {
	lines := make([]string, len(s.lines))
	copy(lines, s.lines)
	return lines
}

func (s *Script) Len() int {
	return len(s.lines)
}

func (s *Script) String() string {
	var b strings.Builder
	for _, line := range s.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Script) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// Run invokes a hook against a fresh script and returns the result.
func Run(hook Hook, variant string, device string) *Script {
	s := NewScript()
	hook(&Info{
		Script:  s,
		Variant: variant,
		Device:  device,
	})
	return s
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
)

// Quote produces an edify string literal.
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

func quoteAll(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, ", ")
}

// Call renders a function call expression with string arguments.
func Call(fn string, args ...string) string {
	return fmt.Sprintf("%s(%s)", fn, quoteAll(args))
}

func UiPrint(msg string) string {
	return Call("ui_print", msg)
}

func Mount(fsType string, partType string, dev string,
	mountPoint string) string {

	return Call("mount", fsType, partType, dev, mountPoint, "") + ";"
}

func Unmount(mountPoint string) string {
	return Call("unmount", mountPoint) + ";"
}

func Rename(src string, dst string) string {
	return Call("rename", src, dst) + ";"
}

func Symlink(target string, links ...string) string {
	return Call("symlink", append([]string{target}, links...)...) + ";"
}

func Delete(paths ...string) string {
	return Call("delete", paths...) + ";"
}

func Getprop(prop string) string {
	return Call("getprop", prop)
}

func GetpropEq(prop string, value string) string {
	return Getprop(prop) + " == " + Quote(value)
}

func IfThen(cond string) string {
	return "if (" + cond + ") then"
}

func Else() string {
	return "else"
}

func Endif() string {
	return "endif;"
}

// IfElse renders a single-line conditional.  thenExpr and elseExpr are
// expressions without a trailing semicolon.
func IfElse(cond string, thenExpr string, elseExpr string) string {
	return fmt.Sprintf("ifelse(%s, %s, %s);", cond, thenExpr, elseExpr)
}
