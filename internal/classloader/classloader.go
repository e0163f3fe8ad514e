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

// Package classloader implements gojumble's mutating classloader: the
// name-to-bytes resolution policy that keeps a mutated target class's
// identity isolated to one worker invocation while sharing platform and
// deferred classes across every invocation in the process (SPEC_FULL.md
// §6.C).
package classloader

import (
	"fmt"
	"strings"
	"sync"
)

// Shared holds the classes every Loader in a worker process delegates
// to: platform classes and anything matching a configured deferred
// prefix. It is built once per worker and handed to every Loader so
// that, for example, the test framework's own classes are the same
// bytes (and, once loaded through interp, the same *classfile.Image)
// across every mutant tried in that worker.
type Shared struct {
	mu               sync.Mutex
	classpath        Classpath
	deferredPrefixes []string
	platform         map[string]bool
	cache            map[string][]byte
}

// Classpath resolves a class name to its on-disk bytes.
type Classpath interface {
	Find(name string) ([]byte, error)
}

// NewShared builds the delegation target for one worker process.
func NewShared(cp Classpath, deferredPrefixes []string, platformClasses []string) *Shared {
	platform := make(map[string]bool, len(platformClasses))
	for _, p := range platformClasses {
		platform[p] = true
	}
	return &Shared{
		classpath:        cp,
		deferredPrefixes: deferredPrefixes,
		platform:         platform,
		cache:            make(map[string][]byte),
	}
}

func (s *Shared) handles(name string) bool {
	if s.platform[name] {
		return true
	}
	for _, p := range s.deferredPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *Shared) resolve(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.cache[name]; ok {
		return b, nil
	}
	b, err := s.classpath.Find(name)
	if err != nil {
		return nil, err
	}
	s.cache[name] = b
	return b, nil
}

// Loader resolves class names for one mutated run. It is not safe for
// concurrent use by multiple mutants: a fresh Loader is created per
// worker invocation of the Mutater's output, per the invariant that the
// same mutated class must be returned on every request within that
// invocation, and that no other class's bytes leak across mutants.
type Loader struct {
	targetName  string
	targetBytes []byte
	shared      *Shared
	local       map[string][]byte
}

// New builds a Loader that serves targetName from targetBytes and
// otherwise defers to shared or loads fresh from shared's classpath.
func New(targetName string, targetBytes []byte, shared *Shared) *Loader {
	return &Loader{
		targetName:  targetName,
		targetBytes: targetBytes,
		shared:      shared,
		local:       make(map[string][]byte),
	}
}

// Resolve implements the three-tier policy from SPEC_FULL.md §6.C:
// target bytes for the mutated class, shared/cached bytes for deferred
// and platform classes, and a fresh local load (never reused across
// Loaders) for everything else.
func (l *Loader) Resolve(name string) ([]byte, error) {
	if name == l.targetName {
		return l.targetBytes, nil
	}
	if l.shared.handles(name) {
		return l.shared.resolve(name)
	}
	if b, ok := l.local[name]; ok {
		return b, nil
	}
	b, err := l.shared.classpath.Find(name)
	if err != nil {
		return nil, fmt.Errorf("classloader: %q: %w", name, err)
	}
	l.local[name] = b
	return b, nil
}
