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

// Package diffscope parses git diff output to identify which source
// lines changed since a ref, so a Scheduler can restrict mutation to
// methods whose line-number-table entries fall inside those lines
// (SPEC_FULL.md §4, the --since-ref flag).
package diffscope

import "github.com/bluekeyes/go-gitdiff/gitdiff"

// FileName is a path as it appears in a diff's new-file side.
type FileName string

// Change is one contiguous range of added lines in a file.
type Change struct {
	StartLine int
	EndLine   int
}

// Diff maps file names to the line ranges that changed in them.
type Diff map[FileName][]Change

// Position is a location a Diff can be asked about: a source file and a
// one-based line within it, as recovered from a class's LineNumberTable.
type Position struct {
	File string
	Line int
}

func newDiff(files []*gitdiff.File) Diff {
	result := make(Diff, len(files))

	for _, file := range files {
		name, changes := newChanges(file)
		result[name] = changes
	}

	return result
}

func newChanges(file *gitdiff.File) (FileName, []Change) {
	var changes []Change

	for _, fragment := range file.TextFragments {
		if fragment.LinesAdded == 0 {
			continue
		}

		startLine := int(fragment.NewPosition + fragment.LeadingContext)

		changes = append(changes, Change{
			StartLine: startLine,
			EndLine:   startLine + int(fragment.LinesAdded-1),
		})
	}

	return FileName(file.NewName), changes
}

// IsChanged reports whether pos falls inside a changed region. A nil or
// empty Diff treats every position as changed, the same "no ref given,
// scope is everything" invariant the teacher's diff package applies.
func (d Diff) IsChanged(pos Position) bool {
	if len(d) == 0 {
		return true
	}

	for _, change := range d[FileName(pos.File)] {
		if pos.Line >= change.StartLine && pos.Line <= change.EndLine {
			return true
		}
	}

	return false
}
