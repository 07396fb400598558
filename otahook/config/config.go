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

// The config package reads otahook YAML files.
package config

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/htc-ocn/otahook/util"
)

const (
	KEYWORD_IMPORT = "$import"
)

// keywordMap is a map of all supported keywords.  Config keywords always start
// with "$".
var keywordMap = map[string]struct{}{
	KEYWORD_IMPORT: struct{}{},
}

// FileEntry represents a single YAML file.  It does not contain import
// information.
type FileEntry struct {
	FileInfo *util.FileInfo
	Settings map[string]interface{}
}

// Source is a tree of configuration files.  Root names the tree in messages
// (a directory path, or a label for embedded files).
type Source struct {
	FS   fs.FS
	Root string
}

// DirSource returns a Source for a directory on disk.
func DirSource(dir string) Source {
	return Source{
		FS:   os.DirFS(dir),
		Root: dir,
	}
}

func (src Source) displayPath(name string) string {
	return src.Root + "/" + name
}

func readSettings(src Source, name string) (map[string]interface{}, error) {
	file, err := fs.ReadFile(src.FS, name)
	if err != nil {
		return nil, util.ChildOtaError(err)
	}

	settings := map[string]interface{}{}
	if err := yaml.Unmarshal(file, &settings); err != nil {
		return nil, util.FmtOtaError("Failure parsing \"%s\": %s",
			src.displayPath(name), err.Error())
	}

	return settings, nil
}

func extractImports(settings map[string]interface{}) ([]string, error) {
	itf := settings[KEYWORD_IMPORT]
	if itf == nil {
		return nil, nil
	}

	strs, err := cast.ToStringSliceE(itf)
	if err != nil {
		return nil, util.FmtOtaError(
			"invalid %s section; must contain sequence of strings",
			KEYWORD_IMPORT)
	}

	return strs, nil
}

func (fe *FileEntry) warnUnrecognizedKeywords() {
	keywords := []string{}
	for k, _ := range fe.Settings {
		if strings.HasPrefix(k, "$") {
			if _, ok := keywordMap[k]; !ok {
				keywords = append(keywords, k)
			}
		}
	}

	if len(keywords) == 0 {
		return
	}
	sort.Strings(keywords)

	util.OneTimeWarning(
		"%s contains unrecognized keywords: %s\n"+
			"you may need to upgrade your version of otahook.",
		fe.FileInfo.Path, strings.Join(keywords, ", "))
}

// ReadLineage reads a configuration file and all files it imports (directly
// or indirectly).  Import paths are relative to the importing file.  The
// resulting []FileEntry is sorted such that each file follows everything it
// imports.
func ReadLineage(src Source, name string) ([]FileEntry, error) {
	entries := []FileEntry{}
	seen := map[string]struct{}{}

	var iter func(name string, parent *util.FileInfo) error
	iter = func(name string, parent *util.FileInfo) error {
		name = path.Clean(name)
		if !fs.ValidPath(name) {
			return parent.ErrTree(util.FmtOtaError(
				"invalid config path \"%s\"", name))
		}

		// Don't process the same config file twice.
		if _, ok := seen[name]; ok {
			return nil
		}
		seen[name] = struct{}{}

		settings, err := readSettings(src, name)
		if err != nil {
			return parent.ErrTree(err)
		}

		entry := FileEntry{
			FileInfo: &util.FileInfo{
				Path:   src.displayPath(name),
				Parent: parent,
			},
			Settings: settings,
		}
		entry.warnUnrecognizedKeywords()

		imports, err := extractImports(entry.Settings)
		if err != nil {
			return entry.FileInfo.ErrTree(err)
		}

		for _, imp := range imports {
			impName := path.Join(path.Dir(name), imp)
			if err := iter(impName, entry.FileInfo); err != nil {
				return err
			}
		}

		// The importing file comes last so that it overrides the settings
		// of the files it imports.
		entries = append(entries, entry)

		return nil
	}

	if err := iter(name, nil); err != nil {
		return nil, err
	}

	if len(entries) == 1 {
		log.Debugf("Read config file: %s", entries[0].FileInfo.Path)
	} else {
		tree, err := BuildTree(entries)
		if err != nil {
			return nil, err
		}
		log.Debugf("Read config files:\n%s", TreeString(tree))
	}

	return entries, nil
}

// mergeInto copies src into dst.  Nested maps are merged; any other value in
// src replaces the one in dst.
func mergeInto(dst map[string]interface{}, src map[string]interface{}) {
	for k, v := range src {
		if k == KEYWORD_IMPORT {
			continue
		}

		srcMap, srcOk := v.(map[string]interface{})
		dstMap, dstOk := dst[k].(map[string]interface{})
		if srcOk && dstOk {
			merged := make(map[string]interface{}, len(dstMap))
			mergeInto(merged, dstMap)
			mergeInto(merged, srcMap)
			dst[k] = merged
		} else {
			dst[k] = v
		}
	}
}

// Merge flattens a lineage into a single settings map.  Later entries
// override earlier ones.
func Merge(entries []FileEntry) map[string]interface{} {
	settings := map[string]interface{}{}
	for _, e := range entries {
		mergeInto(settings, e.Settings)
	}

	return settings
}

// ReadFile reads a YAML file from disk, processes its `$import` directives,
// and returns the merged settings along with the file's info.
func ReadFile(filename string) (map[string]interface{}, *util.FileInfo,
	error) {

	src := DirSource(filepath.Dir(filename))
	entries, err := ReadLineage(src, filepath.Base(filename))
	if err != nil {
		return nil, nil, err
	}

	return Merge(entries), entries[len(entries)-1].FileInfo, nil
}
