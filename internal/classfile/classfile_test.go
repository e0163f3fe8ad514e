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

package classfile_test

import (
	"bytes"
	"testing"

	"github.com/go-jumble/gojumble/internal/classfile"
	"github.com/go-jumble/gojumble/internal/classfile/classfiletest"
)

func TestParseEmitRoundTrip(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 42})

	img, err := classfile.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := classfile.Emit(img)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if !bytes.Equal(raw, out) {
		t.Fatalf("parse-then-emit is not lossless:\n got %x\nwant %x", out, raw)
	}
}

func TestReplaceInstructionRejectsLengthChange(t *testing.T) {
	t.Parallel()
	code := []byte{byte(classfile.OpIconst0), byte(classfile.OpIreturn)}

	err := classfile.ReplaceInstruction(code, 0, []byte{byte(classfile.OpBipush), 0x01})
	if err != classfile.ErrLengthMismatch {
		t.Fatalf("want ErrLengthMismatch, got %v", err)
	}
}

func TestReplaceInstructionSameLength(t *testing.T) {
	t.Parallel()
	code := []byte{byte(classfile.OpIconst0), byte(classfile.OpIreturn)}

	if err := classfile.ReplaceInstruction(code, 0, []byte{byte(classfile.OpIconst1)}); err != nil {
		t.Fatalf("ReplaceInstruction: %v", err)
	}
	if code[0] != byte(classfile.OpIconst1) {
		t.Fatalf("instruction not replaced, code=%x", code)
	}
}

func TestConstantPoolAppendPreservesExistingIndices(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 42})
	img, err := classfile.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	before, _ := img.Pool.Get(1)
	idx := img.Pool.AppendUTF8("new-constant")
	after, _ := img.Pool.Get(1)

	if before != after {
		t.Fatalf("appending a constant mutated an existing slot")
	}
	if int(idx) != img.Pool.Len()-1 {
		t.Fatalf("Append did not return the last slot: got %d, len=%d", idx, img.Pool.Len())
	}
}

func TestValidOffsets(t *testing.T) {
	t.Parallel()
	code := []byte{
		byte(classfile.OpIconst0),
		byte(classfile.OpBipush), 0x05,
		byte(classfile.OpIreturn),
	}
	offs, err := classfile.ValidOffsets(code)
	if err != nil {
		t.Fatalf("ValidOffsets: %v", err)
	}
	want := []int{0, 1, 3}
	if len(offs) != len(want) {
		t.Fatalf("got %v, want %v", offs, want)
	}
	for i := range want {
		if offs[i] != want[i] {
			t.Fatalf("got %v, want %v", offs, want)
		}
	}
}

func TestLineFor(t *testing.T) {
	t.Parallel()
	table := []classfile.LineNumberEntry{
		{StartPC: 0, LineNumber: 10},
		{StartPC: 4, LineNumber: 11},
		{StartPC: 8, LineNumber: 13},
	}

	cases := []struct {
		offset int
		want   int
	}{
		{0, 10}, {3, 10}, {4, 11}, {7, 11}, {8, 13}, {100, 13},
	}
	for _, c := range cases {
		if got := classfile.LineFor(table, c.offset); got != c.want {
			t.Errorf("LineFor(%d) = %d, want %d", c.offset, got, c.want)
		}
	}
}
