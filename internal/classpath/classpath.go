/*
 * Copyright 2024 The Gojumble Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package classpath resolves a class name to its on-disk bytes by
// walking an ordered list of directory roots, the JVM's own classpath
// convention: the first root that has a matching "<name>.class" file
// (name's dots rewritten to path separators) wins. See SPEC_FULL.md
// §6.C's Classpath dependency and spec.md's --classpath flag.
package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path is an ordered list of directory roots, implementing
// internal/classloader.Classpath.
type Path struct {
	roots []string
}

// New builds a Path from roots in search order. Empty entries are
// dropped so a caller can pass a split of a possibly-empty flag value
// without special-casing it.
func New(roots ...string) *Path {
	p := &Path{}
	for _, r := range roots {
		if r == "" {
			continue
		}
		p.roots = append(p.roots, r)
	}
	return p
}

// Parse splits a PATH-style string on the platform's list separator
// into a Path, the form --classpath takes on the command line.
func Parse(s string) *Path {
	if s == "" {
		return New()
	}
	return New(strings.Split(s, string(os.PathListSeparator))...)
}

// Find resolves name against every root in order, returning the first
// match's raw bytes.
func (p *Path) Find(name string) ([]byte, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".class"
	for _, root := range p.roots {
		b, err := os.ReadFile(filepath.Join(root, rel))
		if err == nil {
			return b, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("classpath: reading %s from %s: %w", name, root, err)
		}
	}
	return nil, fmt.Errorf("classpath: class not found: %s", name)
}

// Roots returns the configured search roots, in order.
func (p *Path) Roots() []string {
	return p.roots
}

// String renders the Path back into PATH-style form, the inverse of
// Parse, used to pass a classpath through to a worker subprocess.
func (p *Path) String() string {
	return strings.Join(p.roots, string(os.PathListSeparator))
}
