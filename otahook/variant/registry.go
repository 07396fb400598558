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
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/htc-ocn/otahook/otahook/config"
	"github.com/htc-ocn/otahook/util"
)

const VARIANT_SUFFIX = ".yml"

//go:embed variants/*.yml
var builtinFS embed.FS

// Registry holds the variants available to a build, keyed by name.
type Registry struct {
	variants map[string]*Variant
}

func NewRegistry() *Registry {
	return &Registry{
		variants: map[string]*Variant{},
	}
}

func (r *Registry) Add(v *Variant) error {
	if prev := r.variants[v.Name]; prev != nil {
		return util.FmtOtaError("variant %s defined twice: %s, %s", v.Name,
			prev.FileInfo.Path, v.FileInfo.Path)
	}

	r.variants[v.Name] = v
	return nil
}

func (r *Registry) Get(name string) (*Variant, error) {
	v := r.variants[name]
	if v == nil {
		return nil, util.FmtOtaError("unknown variant \"%s\"; "+
			"available variants: %s", name, strings.Join(r.Names(), ", "))
	}

	return v, nil
}

// Names returns the sorted names of all registered variants.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.variants))
	for name, _ := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Variants returns all registered variants sorted by name.
func (r *Registry) Variants() []*Variant {
	vs := make([]*Variant, 0, len(r.variants))
	for _, name := range r.Names() {
		vs = append(vs, r.variants[name])
	}

	return vs
}

// LoadSource reads every variant file at the top level of a source.  Files
// without a `variant` section only serve as imports and are skipped.
func LoadSource(src config.Source) (*Registry, error) {
	matches, err := fs.Glob(src.FS, "*"+VARIANT_SUFFIX)
	if err != nil {
		return nil, util.ChildOtaError(err)
	}
	sort.Strings(matches)

	r := NewRegistry()
	for _, name := range matches {
		entries, err := config.ReadLineage(src, name)
		if err != nil {
			return nil, err
		}

		settings := config.Merge(entries)
		if _, ok := settings[KEY_VARIANT]; !ok {
			log.Debugf("%s has no %s section; skipping",
				path.Join(src.Root, name), KEY_VARIANT)
			continue
		}

		v, err := Decode(settings, entries[len(entries)-1].FileInfo)
		if err != nil {
			return nil, err
		}

		if err := r.Add(v); err != nil {
			return nil, err
		}
	}

	if len(r.variants) == 0 {
		return nil, util.FmtOtaError("no variants found in %s", src.Root)
	}

	return r, nil
}

// Load reads the variant files in a directory.
func Load(dir string) (*Registry, error) {
	return LoadSource(config.DirSource(dir))
}

// Builtin returns the variants compiled into otahook.
func Builtin() (*Registry, error) {
	sub, err := fs.Sub(builtinFS, "variants")
	if err != nil {
		return nil, util.ChildOtaError(err)
	}

	return LoadSource(config.Source{FS: sub, Root: "builtin"})
}

// ExpandProps returns a copy of a property map in which every aliased
// property is also available under its alias and vice versa.
func ExpandProps(props map[string]string, aliases map[string]string) map[string]string {
	out := make(map[string]string, len(props)*2)
	for k, v := range props {
		out[k] = v
	}

	for alias, prop := range aliases {
		if v, ok := props[alias]; ok {
			if _, ok := props[prop]; !ok {
				out[prop] = v
			}
		}
		if v, ok := props[prop]; ok {
			if _, ok := props[alias]; !ok {
				out[alias] = v
			}
		}
	}

	return out
}
