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

package diffscope

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// New parses the output of "git diff --merge-base ref" into a Diff. An
// empty ref returns a nil Diff, which IsChanged treats as "everything in
// scope". Unlike the teacher's diff package, the ref is passed in
// explicitly rather than read from global configuration, keeping this
// package usable without importing internal/configuration; the --since-ref
// flag's value is the caller's responsibility (cmd/mutate.go).
func New(ref string) (Diff, error) {
	return NewWithCmd(exec.Command, ref)
}

type execCmd interface {
	CombinedOutput() ([]byte, error)
}

// NewWithCmd is New with an injectable command constructor, for tests.
func NewWithCmd[T execCmd](cmdContext func(name string, args ...string) T, ref string) (Diff, error) {
	if ref == "" {
		return nil, nil
	}

	cmd := cmdContext("git", "diff", "--merge-base", ref)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("diffscope: git diff failed: %w\n\n%s", err, out)
	}

	files, _, err := gitdiff.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("diffscope: parsing diff: %w", err)
	}

	return newDiff(files), nil
}

// SourcePath derives the conventional source file path for a
// slash-separated class name, the path diff hunks are checked against
// when a target class carries no SourceFile attribute of its own.
func SourcePath(className string) string {
	return strings.TrimPrefix(className, "/") + ".java"
}
