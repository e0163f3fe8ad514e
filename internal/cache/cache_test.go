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

package cache_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hectane/go-acl"

	"github.com/go-jumble/gojumble/internal/cache"
	"github.com/go-jumble/gojumble/internal/classfile"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	classBytes := []byte("pretend-class-bytes")
	manifest := &cache.RunManifest{
		Fingerprint: string(classfile.Fingerprint256(classBytes)),
		TargetClass: "Sample",
		Total:       2,
		Mutants: []cache.MutantRecord{
			{Index: 0, Kind: "negate-conditional", Verdict: "Killed", Killer: "testFoo"},
			{Index: 1, Kind: "swap-arith", Verdict: "Lived"},
		},
	}

	if err := store.Save("Sample", manifest); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load("Sample", classBytes)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Total != 2 || len(got.Mutants) != 2 {
		t.Fatalf("unexpected manifest: %+v", got)
	}
}

func TestLoadMissReportsStaleFingerprint(t *testing.T) {
	t.Parallel()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	manifest := &cache.RunManifest{
		Fingerprint: string(classfile.Fingerprint256([]byte("old bytes"))),
		TargetClass: "Sample",
	}
	if err := store.Save("Sample", manifest); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, ok, err := store.Load("Sample", []byte("new bytes"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss when class bytes changed")
	}
}

func TestSaveErrorsOnUnwritableDir(t *testing.T) {
	dir, clean := notWriteableDir(t)
	defer clean()

	store, err := cache.NewStore(filepath.Join(dir, "sub"))
	if err == nil {
		if serr := store.Save("Sample", &cache.RunManifest{TargetClass: "Sample"}); serr == nil {
			t.Fatal("expected Save to fail against an unwritable directory")
		}
	}
}

// notWriteableDir mirrors the permission-denied fixture used across the
// codebase: plain os.Chmod doesn't deny writes to the owning user on
// Windows, so acl.Chmod is used there instead.
func notWriteableDir(t *testing.T) (string, func()) {
	t.Helper()
	tmp := t.TempDir()
	dir, _ := os.MkdirTemp(tmp, "locked-*")
	_ = os.Chmod(dir, 0000)
	clean := os.Chmod
	if runtime.GOOS == "windows" {
		_ = acl.Chmod(dir, 0000)
		clean = acl.Chmod
	}
	return dir, func() { _ = clean(dir, 0700) }
}

func TestLoadMissWhenAbsent(t *testing.T) {
	t.Parallel()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, ok, err := store.Load("NeverSaved", []byte("x"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for a target never saved")
	}
}
