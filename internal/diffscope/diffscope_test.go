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
	"reflect"
	"testing"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

func TestDiffIsChanged(t *testing.T) {
	tests := []struct {
		name string
		d    Diff
		pos  Position
		want bool
	}{
		{
			name: "must be changed on nil Diff",
			d:    nil,
			pos:  Position{},
			want: true,
		},
		{
			name: "must be changed on empty Diff",
			d:    Diff{},
			pos:  Position{},
			want: true,
		},
		{
			name: "must be changed if in range",
			d: Diff{
				"Sample.java": {{StartLine: 21, EndLine: 21}},
			},
			pos:  Position{File: "Sample.java", Line: 21},
			want: true,
		},
		{
			name: "must be unchanged if outside range",
			d: Diff{
				"Sample.java": {{StartLine: 21, EndLine: 21}},
			},
			pos:  Position{File: "Sample.java", Line: 22},
			want: false,
		},
		{
			name: "must be unchanged if no such file",
			d: Diff{
				"Sample.java": {{StartLine: 21, EndLine: 21}},
			},
			pos:  Position{File: "Other.java", Line: 21},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.IsChanged(tt.pos); got != tt.want {
				t.Errorf("IsChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDiff(t *testing.T) {
	fragments := []*gitdiff.TextFragment{fragment(21, 1)}

	files := []*gitdiff.File{
		{NewName: "Sample.java", TextFragments: fragments},
		{NewName: "Other.java", TextFragments: fragments},
	}

	expected := Diff{
		"Sample.java": {{StartLine: 25, EndLine: 25}},
		"Other.java":  {{StartLine: 25, EndLine: 25}},
	}

	result := newDiff(files)
	if !reflect.DeepEqual(result, expected) {
		t.Fatalf("newDiff() = %+v, want %+v", result, expected)
	}
}

func TestNewChanges(t *testing.T) {
	fragments := []*gitdiff.TextFragment{
		fragment(0, 1),
		fragment(10, 0),
		fragment(21, 2),
		fragment(44, 4),
		fragment(231, 201),
	}
	file := &gitdiff.File{NewName: "Sample.java", TextFragments: fragments}

	expect := []Change{
		{StartLine: 4, EndLine: 4},
		{StartLine: 25, EndLine: 26},
		{StartLine: 48, EndLine: 51},
		{StartLine: 235, EndLine: 435},
	}

	name, changes := newChanges(file)

	if name != "Sample.java" {
		t.Fatalf("name %s unexpected", name)
	}
	if !reflect.DeepEqual(changes, expect) {
		t.Fatalf("newChanges() = %+v, want %+v", changes, expect)
	}
}

func TestSourcePath(t *testing.T) {
	if got := SourcePath("com/example/Sample"); got != "com/example/Sample.java" {
		t.Fatalf("SourcePath() = %q", got)
	}
}

func fragment(startLine int, adds int) *gitdiff.TextFragment {
	const contexts = 4

	var lines []gitdiff.Line
	lines = append(lines, opLines(gitdiff.OpContext, contexts)...)
	lines = append(lines, opLines(gitdiff.OpDelete, adds)...)
	lines = append(lines, opLines(gitdiff.OpAdd, adds)...)
	lines = append(lines, opLines(gitdiff.OpContext, contexts)...)

	line := int64(startLine)
	added := int64(adds)

	return &gitdiff.TextFragment{
		OldLines:        line - 1,
		NewPosition:     line,
		LinesAdded:      added,
		LinesDeleted:    added,
		LeadingContext:  contexts,
		TrailingContext: contexts,
		Lines:           lines,
	}
}

func opLines(op gitdiff.LineOp, count int) []gitdiff.Line {
	result := make([]gitdiff.Line, count)
	for i := range result {
		result[i] = gitdiff.Line{Op: op, Line: "test"}
	}
	return result
}
