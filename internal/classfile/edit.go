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

package classfile

import "fmt"

// ErrLengthMismatch is returned by ReplaceInstruction when the
// replacement is not the same byte length as the instruction it would
// overwrite. Per SPEC_FULL.md §6.A this is not a bug to fix by
// shifting offsets — it means the mutation point must be skipped, still
// counted in enumeration, but not applied.
var ErrLengthMismatch = fmt.Errorf("classfile: replacement instruction length differs from original")

// ReplaceInstruction overwrites the instruction at off in code with
// replacement, in place. It refuses (returning ErrLengthMismatch) any
// replacement whose length differs from the instruction currently at
// off, since branch offsets, exception ranges, and line/local-variable
// tables all reference raw byte offsets that a length change would
// invalidate.
func ReplaceInstruction(code []byte, off int, replacement []byte) error {
	n, ok := InstructionLen(code, off)
	if !ok {
		return fmt.Errorf("classfile: unrecognised opcode at offset %d", off)
	}
	if n != len(replacement) {
		return ErrLengthMismatch
	}
	copy(code[off:off+n], replacement)
	return nil
}

// PadWithNop extends a shorter replacement up to targetLen by appending
// NOPs. This exists for mutation kinds (chiefly return-values, per
// SPEC_FULL.md §6.B and spec.md's open question) that would otherwise
// need a longer encoding; it is only safe to use at the tail of a
// straight-line run of instructions with no other instruction branching
// into the padded range, which callers must verify themselves.
func PadWithNop(replacement []byte, targetLen int) ([]byte, bool) {
	if len(replacement) > targetLen {
		return nil, false
	}
	out := make([]byte, targetLen)
	copy(out, replacement)
	for i := len(replacement); i < targetLen; i++ {
		out[i] = byte(OpNop)
	}
	return out, true
}
