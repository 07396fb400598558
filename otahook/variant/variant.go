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

// Package variant defines the device variants of the ocn family and the
// FullOTA_InstallEnd hooks generated from them.
package variant

import (
	log "github.com/sirupsen/logrus"

	"github.com/htc-ocn/otahook/otahook/edify"
	"github.com/htc-ocn/otahook/otahook/parse"
	"github.com/htc-ocn/otahook/util"
)

// Mount describes a partition that a block mounts around its file
// operations.
type Mount struct {
	Name       string
	FsType     string
	PartType   string
	Device     string
	MountPoint string
}

type StepCode int

const (
	STEP_RENAME StepCode = iota
	STEP_SYMLINK
	STEP_DELETE
	STEP_PRINT
	STEP_IFELSE
	STEP_EXTRA
)

var stepNames = map[StepCode]string{
	STEP_RENAME:  "rename",
	STEP_SYMLINK: "symlink",
	STEP_DELETE:  "delete",
	STEP_PRINT:   "print",
	STEP_IFELSE:  "ifelse",
	STEP_EXTRA:   "extra",
}

func (c StepCode) String() string {
	return stepNames[c]
}

// Step is a single directive inside a block.
//
// Args by code:
//     rename:  [src, dst]
//     symlink: [target, link...]
//     delete:  [path...]
//     print:   [message]
//     ifelse:  [then-message, else-message]  (Cond holds the condition)
//     extra:   [raw-line]
type Step struct {
	Code StepCode
	Args []string
	Cond *parse.Node
}

// NeedsMount indicates whether the step touches the filesystem.
func (s *Step) NeedsMount() bool {
	switch s.Code {
	case STEP_RENAME, STEP_SYMLINK, STEP_DELETE:
		return true

	default:
		return false
	}
}

// Block is a sequence of steps, optionally guarded by a condition that the
// device evaluates at flash time.
type Block struct {
	Cond  *parse.Node
	Print string
	Mount *Mount
	Steps []*Step
	Else  []*Step
}

type Variant struct {
	Name     string
	Device   string
	Desc     string
	Blocks   []*Block
	FileInfo *util.FileInfo

	directives []directive
}

// A compiled script line.  Print lines go through ScriptWriter.Print; all
// others are appended verbatim.
type directive struct {
	print bool
	text  string
}

func stepDirective(s *Step) (directive, error) {
	switch s.Code {
	case STEP_RENAME:
		return directive{text: edify.Rename(s.Args[0], s.Args[1])}, nil

	case STEP_SYMLINK:
		return directive{text: edify.Symlink(s.Args[0], s.Args[1:]...)}, nil

	case STEP_DELETE:
		return directive{text: edify.Delete(s.Args...)}, nil

	case STEP_PRINT:
		return directive{print: true, text: s.Args[0]}, nil

	case STEP_IFELSE:
		cond, err := edify.Cond(s.Cond, edify.PropAliases)
		if err != nil {
			return directive{}, err
		}
		return directive{text: edify.IfElse(cond,
			edify.UiPrint(s.Args[0]), edify.UiPrint(s.Args[1]))}, nil

	case STEP_EXTRA:
		return directive{text: s.Args[0]}, nil

	default:
		return directive{}, util.FmtOtaError("invalid step code: %d", s.Code)
	}
}

// Compiles a branch.  If the block has a mount and any step in the branch
// touches the filesystem, the whole branch is bracketed by mount/unmount.
func branchDirectives(steps []*Step, m *Mount) ([]directive, error) {
	mounted := false
	if m != nil {
		for _, s := range steps {
			if s.NeedsMount() {
				mounted = true
				break
			}
		}
	}

	ds := []directive{}
	if mounted {
		ds = append(ds, directive{
			text: edify.Mount(m.FsType, m.PartType, m.Device, m.MountPoint),
		})
	}
	for _, s := range steps {
		d, err := stepDirective(s)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	if mounted {
		ds = append(ds, directive{text: edify.Unmount(m.MountPoint)})
	}

	return ds, nil
}

func (b *Block) directives() ([]directive, error) {
	ds := []directive{}

	if b.Cond != nil {
		cond, err := edify.Cond(b.Cond, edify.PropAliases)
		if err != nil {
			return nil, err
		}
		ds = append(ds, directive{text: edify.IfThen(cond)})
	}

	if b.Print != "" {
		ds = append(ds, directive{print: true, text: b.Print})
	}

	then, err := branchDirectives(b.Steps, b.Mount)
	if err != nil {
		return nil, err
	}
	ds = append(ds, then...)

	if b.Cond != nil {
		if len(b.Else) > 0 {
			els, err := branchDirectives(b.Else, b.Mount)
			if err != nil {
				return nil, err
			}
			ds = append(ds, directive{text: edify.Else()})
			ds = append(ds, els...)
		}
		ds = append(ds, directive{text: edify.Endif()})
	}

	return ds, nil
}

// compile renders the variant's directives and lints the result.  A variant
// that fails here never produces a hook.
func (v *Variant) compile() error {
	all := []directive{}
	for i, b := range v.Blocks {
		ds, err := b.directives()
		if err != nil {
			return util.PreOtaError(err, "variant %s block %d", v.Name, i+1)
		}
		all = append(all, ds...)
	}

	v.directives = all

	if err := edify.Check(v.Lines()); err != nil {
		return util.PreOtaError(err, "variant %s", v.Name)
	}

	log.Debugf("compiled variant %s: %d directives", v.Name, len(all))
	return nil
}

// Lines returns the script lines the variant's hook emits.
func (v *Variant) Lines() []string {
	lines := make([]string, len(v.directives))
	for i, d := range v.directives {
		if d.print {
			lines[i] = edify.UiPrint(d.text) + ";"
		} else {
			lines[i] = d.text
		}
	}
	return lines
}

// FullOTAInstallEnd appends the variant's directives to info.Script.
func (v *Variant) FullOTAInstallEnd(info *edify.Info) {
	for _, d := range v.directives {
		if d.print {
			info.Script.Print(d.text)
		} else {
			info.Script.AppendExtra(d.text)
		}
	}
}

// Hook returns the variant's install-end hook.
func (v *Variant) Hook() edify.Hook {
	return v.FullOTAInstallEnd
}

// Emit runs the variant's hook against a fresh script.
func (v *Variant) Emit() *edify.Script {
	return edify.Run(v.Hook(), v.Name, v.Device)
}

// Matches evaluates the variant's block conditions against a set of device
// properties.  A variant matches if any guarded block would run; a variant
// without conditions applies to every device.
func (v *Variant) Matches(props map[string]string) (bool, error) {
	guarded := false
	for _, b := range v.Blocks {
		if b.Cond == nil {
			continue
		}
		guarded = true

		ok, err := parse.Eval(b.Cond, props)
		if err != nil {
			return false, util.PreOtaError(err, "variant %s", v.Name)
		}
		if ok {
			return true, nil
		}
	}

	return !guarded, nil
}
