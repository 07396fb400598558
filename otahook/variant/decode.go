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

package variant

import (
	"sort"

	"github.com/spf13/cast"

	"github.com/htc-ocn/otahook/otahook/parse"
	"github.com/htc-ocn/otahook/util"
)

const (
	KEY_VARIANT = "variant"
	KEY_MOUNTS  = "mounts"
	KEY_BLOCKS  = "blocks"
)

func decodeMounts(itf interface{}) (map[string]*Mount, error) {
	mounts := map[string]*Mount{}
	if itf == nil {
		return mounts, nil
	}

	m, err := cast.ToStringMapE(itf)
	if err != nil {
		return nil, util.FmtOtaError("invalid %s section: %s",
			KEY_MOUNTS, err.Error())
	}

	for name, v := range m {
		fields, err := cast.ToStringMapStringE(v)
		if err != nil {
			return nil, util.FmtOtaError("invalid mount \"%s\": %s",
				name, err.Error())
		}

		mnt := &Mount{
			Name:       name,
			FsType:     fields["fs_type"],
			PartType:   fields["part_type"],
			Device:     fields["device"],
			MountPoint: fields["mount_point"],
		}
		if mnt.FsType == "" {
			mnt.FsType = "ext4"
		}
		if mnt.PartType == "" {
			mnt.PartType = "EMMC"
		}
		if mnt.Device == "" || mnt.MountPoint == "" {
			return nil, util.FmtOtaError(
				"mount \"%s\" requires device and mount_point", name)
		}

		mounts[name] = mnt
	}

	return mounts, nil
}

// decodeString requires a YAML string.  Unquoted scalars such as 0x1F or
// 01234567 are decoded as numbers, and their text would not survive.
func decodeString(itf interface{}, what string) (string, error) {
	s, ok := itf.(string)
	if !ok {
		return "", util.FmtOtaError(
			"%s must be a string; quote the value: %v", what, itf)
	}
	return s, nil
}

// decodeStrings requires a sequence of YAML strings.  A nil value yields an
// empty list.
func decodeStrings(itf interface{}, what string) ([]string, error) {
	if itf == nil {
		return nil, nil
	}
	if strs, ok := itf.([]string); ok {
		return strs, nil
	}

	items, err := cast.ToSliceE(itf)
	if err != nil {
		return nil, util.FmtOtaError("%s must be a sequence", what)
	}

	strs := make([]string, len(items))
	for i, item := range items {
		if strs[i], err = decodeString(item, what+" entry"); err != nil {
			return nil, err
		}
	}

	return strs, nil
}

// decodeOptString is like decodeString, but a missing value yields "".
func decodeOptString(itf interface{}, what string) (string, error) {
	if itf == nil {
		return "", nil
	}
	return decodeString(itf, what)
}

func stringArgs(code StepCode, v interface{}) ([]string, error) {
	switch code {
	case STEP_PRINT, STEP_EXTRA:
		s, err := decodeString(v, code.String()+" text")
		if err != nil {
			return nil, err
		}
		return []string{s}, nil

	default:
		return decodeStrings(v, code.String()+" argument")
	}
}

func decodeIfElse(v interface{}) (*Step, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, util.NewOtaError("ifelse must be a mapping")
	}

	expr, err := decodeOptString(m["if"], "ifelse condition")
	if err != nil {
		return nil, err
	}
	cond, err := decodeCond(expr, nil, nil)
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, util.NewOtaError("ifelse requires a condition")
	}

	args := make([]string, 2)
	for i, key := range []string{"then", "else"} {
		itf, ok := m[key]
		if !ok {
			return nil, util.FmtOtaError("ifelse requires a \"%s\" message",
				key)
		}
		if args[i], err = decodeString(itf, "ifelse "+key); err != nil {
			return nil, err
		}
	}

	return &Step{
		Code: STEP_IFELSE,
		Args: args,
		Cond: cond,
	}, nil
}

func decodeStep(itf interface{}) (*Step, error) {
	m, err := cast.ToStringMapE(itf)
	if err != nil || len(m) != 1 {
		return nil, util.NewOtaError(
			"each step must be a mapping with exactly one key")
	}

	for name, v := range m {
		if name == STEP_IFELSE.String() {
			return decodeIfElse(v)
		}

		for code, codeName := range stepNames {
			if codeName != name || code == STEP_IFELSE {
				continue
			}

			args, err := stringArgs(code, v)
			if err != nil {
				return nil, util.FmtOtaError("invalid %s step: %s",
					name, err.Error())
			}

			s := &Step{Code: code, Args: args}
			if err := checkArgs(s); err != nil {
				return nil, err
			}
			return s, nil
		}

		return nil, util.FmtOtaError("unknown step \"%s\"", name)
	}

	return nil, nil
}

func checkArgs(s *Step) error {
	n := len(s.Args)

	ok := true
	switch s.Code {
	case STEP_RENAME:
		ok = n == 2
	case STEP_SYMLINK:
		ok = n >= 2
	case STEP_DELETE:
		ok = n >= 1
	}

	if !ok {
		return util.FmtOtaError("%s step has %d arguments", s.Code, n)
	}
	return nil
}

func decodeSteps(itf interface{}) ([]*Step, error) {
	if itf == nil {
		return nil, nil
	}

	items, err := cast.ToSliceE(itf)
	if err != nil {
		return nil, util.NewOtaError("steps must be a sequence")
	}

	steps := make([]*Step, 0, len(items))
	for i, item := range items {
		s, err := decodeStep(item)
		if err != nil {
			return nil, util.PreOtaError(err, "step %d", i+1)
		}
		steps = append(steps, s)
	}

	return steps, nil
}

// decodeCond builds a block's guard from an explicit `if` expression and the
// `mids`/`cids` shorthands.  All given parts must hold.
func decodeCond(expr string, mids []string,
	cids []string) (*parse.Node, error) {

	parts := []*parse.Node{}

	if expr != "" {
		n, err := parse.LexAndParse(expr)
		if err != nil {
			return nil, err
		}
		if n != nil {
			parts = append(parts, n)
		}
	}
	if len(mids) > 0 {
		parts = append(parts, parse.AnyEquals("mid", mids))
	}
	if len(cids) > 0 {
		parts = append(parts, parse.AnyEquals("cid", cids))
	}

	return parse.Conjunction(parts), nil
}

func decodeBlock(itf interface{}, mounts map[string]*Mount) (*Block, error) {
	m, err := cast.ToStringMapE(itf)
	if err != nil {
		return nil, util.NewOtaError("block must be a mapping")
	}

	b := &Block{}
	if b.Print, err = decodeOptString(m["print"], "print"); err != nil {
		return nil, err
	}

	expr, err := decodeOptString(m["if"], "if")
	if err != nil {
		return nil, err
	}
	mids, err := decodeStrings(m["mids"], "mids")
	if err != nil {
		return nil, err
	}
	cids, err := decodeStrings(m["cids"], "cids")
	if err != nil {
		return nil, err
	}

	b.Cond, err = decodeCond(expr, mids, cids)
	if err != nil {
		return nil, err
	}

	name, err := decodeOptString(m["mount"], "mount")
	if err != nil {
		return nil, err
	}
	if name != "" {
		b.Mount = mounts[name]
		if b.Mount == nil {
			return nil, util.FmtOtaError("unknown mount \"%s\"", name)
		}
	}

	if b.Steps, err = decodeSteps(m["steps"]); err != nil {
		return nil, err
	}
	if b.Else, err = decodeSteps(m["else"]); err != nil {
		return nil, err
	}
	if len(b.Else) > 0 && b.Cond == nil {
		return nil, util.NewOtaError("else requires a condition")
	}

	return b, nil
}

// Prefixes an error with the name of the file being decoded.
func fileError(fi *util.FileInfo, err error) error {
	if fi == nil {
		return err
	}

	return util.PreOtaError(err, "%s", fi.Path)
}

// Decode builds a variant from a merged settings map and compiles its hook.
func Decode(settings map[string]interface{},
	fi *util.FileInfo) (*Variant, error) {

	hdr, err := cast.ToStringMapStringE(settings[KEY_VARIANT])
	if err != nil {
		return nil, fileError(fi, util.FmtOtaError("invalid %s section: %s",
			KEY_VARIANT, err.Error()))
	}

	v := &Variant{
		Name:     hdr["name"],
		Device:   hdr["device"],
		Desc:     hdr["desc"],
		FileInfo: fi,
	}
	if v.Name == "" {
		return nil, fileError(fi, util.NewOtaError("variant lacks a name"))
	}

	mounts, err := decodeMounts(settings[KEY_MOUNTS])
	if err != nil {
		return nil, fileError(fi, err)
	}

	items, err := cast.ToSliceE(settings[KEY_BLOCKS])
	if err != nil {
		return nil, fileError(fi, util.FmtOtaError(
			"variant %s: %s must be a sequence", v.Name, KEY_BLOCKS))
	}
	for i, item := range items {
		b, err := decodeBlock(item, mounts)
		if err != nil {
			return nil, fileError(fi,
				util.PreOtaError(err, "variant %s block %d", v.Name, i+1))
		}
		v.Blocks = append(v.Blocks, b)
	}

	if err := v.compile(); err != nil {
		return nil, fileError(fi, err)
	}

	return v, nil
}

// Encode converts a variant back into its settings form.
func (v *Variant) Encode() map[string]interface{} {
	mounts := map[string]interface{}{}

	encodeSteps := func(steps []*Step) []interface{} {
		items := make([]interface{}, 0, len(steps))
		for _, s := range steps {
			var val interface{}
			switch s.Code {
			case STEP_PRINT, STEP_EXTRA:
				val = s.Args[0]
			case STEP_IFELSE:
				val = map[string]interface{}{
					"if":   s.Cond.String(),
					"then": s.Args[0],
					"else": s.Args[1],
				}
			default:
				val = s.Args
			}
			items = append(items, map[string]interface{}{
				s.Code.String(): val,
			})
		}
		return items
	}

	blocks := make([]interface{}, 0, len(v.Blocks))
	for _, b := range v.Blocks {
		bm := map[string]interface{}{}
		if b.Cond != nil {
			bm["if"] = b.Cond.String()
		}
		if b.Print != "" {
			bm["print"] = b.Print
		}
		if b.Mount != nil {
			bm["mount"] = b.Mount.Name
			mounts[b.Mount.Name] = map[string]interface{}{
				"fs_type":     b.Mount.FsType,
				"part_type":   b.Mount.PartType,
				"device":      b.Mount.Device,
				"mount_point": b.Mount.MountPoint,
			}
		}
		if len(b.Steps) > 0 {
			bm["steps"] = encodeSteps(b.Steps)
		}
		if len(b.Else) > 0 {
			bm["else"] = encodeSteps(b.Else)
		}
		blocks = append(blocks, bm)
	}

	hdr := map[string]interface{}{"name": v.Name}
	if v.Device != "" {
		hdr["device"] = v.Device
	}
	if v.Desc != "" {
		hdr["desc"] = v.Desc
	}

	settings := map[string]interface{}{
		KEY_VARIANT: hdr,
		KEY_BLOCKS:  blocks,
	}
	if len(mounts) > 0 {
		settings[KEY_MOUNTS] = mounts
	}

	return settings
}

// MountNames returns the sorted names of the mounts the variant uses.
func (v *Variant) MountNames() []string {
	set := map[string]struct{}{}
	for _, b := range v.Blocks {
		if b.Mount != nil {
			set[b.Mount.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for n, _ := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
