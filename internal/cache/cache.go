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

// Package cache persists one RunManifest per target class on disk,
// keyed by the class's content fingerprint, so that a later run against
// unchanged target bytes can reuse the recorded TestOrder instead of
// repeating the warm-up. Mutants are re-run either way.
// See SPEC_FULL.md §6.H.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-jumble/gojumble/internal/classfile"
)

// Store reads and writes RunManifests under one root directory, one
// file per target class. The Fast Runner is the sole writer; only it
// should hold a *Store for writing, though any number of readers may
// call Load concurrently.
type Store struct {
	root string
}

// NewStore opens (creating if necessary) a cache rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// pathFor returns the cache file for a class's content fingerprint, per
// spec.md §4.H: one file per target, named by the target's content
// hash, not by the (mutable) class name.
func (s *Store) pathFor(fingerprint string) string {
	return filepath.Join(s.root, fingerprint+".json")
}

// Load returns the manifest for targetClass if one exists under
// classBytes' current fingerprint; a stale or absent manifest is
// reported via ok=false, never an error. "Stale" manifests leave no
// trace to discard: a changed fingerprint resolves to a different
// file, so a mismatch simply reads as not-exist. The fingerprint
// recorded inside the file is still checked defensively against a
// hash collision or a manually edited cache directory.
func (s *Store) Load(targetClass string, classBytes []byte) (*RunManifest, bool, error) {
	want := string(classfile.Fingerprint256(classBytes))

	b, err := os.ReadFile(s.pathFor(want))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: reading %s: %w", targetClass, err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil, false, fmt.Errorf("cache: decoding %s: %w", targetClass, err)
	}

	if manifest.Fingerprint != want {
		return nil, false, nil
	}
	return &manifest, true, nil
}

// Save writes manifest atomically: it's serialised to a temp file in
// the same directory, then renamed into place, so a crash or
// concurrent reader never observes a partially written manifest.
func (s *Store) Save(targetClass string, manifest *RunManifest) error {
	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", targetClass, err)
	}

	final := s.pathFor(manifest.Fingerprint)
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cache: writing %s: %w", targetClass, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: closing %s: %w", targetClass, err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: renaming into place for %s: %w", targetClass, err)
	}
	return nil
}
