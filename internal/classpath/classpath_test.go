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

package classpath_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-jumble/gojumble/internal/classpath"
)

func TestFindSearchesRootsInOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	if err := os.MkdirAll(filepath.Join(second, "com", "acme"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(second, "com", "acme", "Widget.class"), []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cp := classpath.New(first, second)

	b, err := cp.Find("com.acme.Widget")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("got %q, want %q", b, "second")
	}

	if _, err := os.Stat(filepath.Join(first, "com", "acme", "Widget.class")); err == nil {
		t.Fatalf("setup: unexpected file in first root")
	}
}

func TestFindFirstRootWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	if err := os.WriteFile(filepath.Join(first, "Sample.class"), []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(second, "Sample.class"), []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cp := classpath.New(first, second)
	b, err := cp.Find("Sample")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if string(b) != "first" {
		t.Fatalf("got %q, want first root's bytes", b)
	}
}

func TestFindMissingClassErrors(t *testing.T) {
	cp := classpath.New(t.TempDir())
	if _, err := cp.Find("Nope"); err == nil {
		t.Fatalf("expected error for missing class")
	}
}

func TestParseRoundTripsWithString(t *testing.T) {
	s := "a" + string(os.PathListSeparator) + "b"
	cp := classpath.Parse(s)
	if got := cp.String(); got != s {
		t.Fatalf("got %q, want %q", got, s)
	}
}

func TestParseEmptyStringHasNoRoots(t *testing.T) {
	cp := classpath.Parse("")
	if len(cp.Roots()) != 0 {
		t.Fatalf("expected no roots, got %v", cp.Roots())
	}
}
