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

package mutate

import (
	"fmt"

	"github.com/go-jumble/gojumble/internal/classfile"
)

func trySwitch(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	op := classfile.Op(code.Code[off])
	if !classfile.IsSwitch(op) {
		return nil, false
	}
	if n := switchEntryCount(code.Code, off); n < 2 {
		return nil, false
	}
	return applySwitchSwap, true
}

// applySwitchSwap exchanges the jump targets of the first two case
// entries, leaving every match value (and, for tableswitch, the implied
// low/high range) untouched. The edit is same-length by construction:
// it only permutes existing 4-byte offsets within the jump table.
func applySwitchSwap(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
	op := classfile.Op(buf[off])
	pad := (4 - (off+1)%4) % 4
	cursor := off + 1 + pad + 4 // skip opcode, padding, default offset

	var stride, entryOffsetDelta int
	if op == classfile.OpTableswitch {
		stride = 4
		entryOffsetDelta = 0
		cursor += 8 // low, high
	} else {
		stride = 8
		entryOffsetDelta = 4 // offset follows the 4-byte match value
	}

	a := cursor + entryOffsetDelta
	b := cursor + stride + entryOffsetDelta
	for i := 0; i < 4; i++ {
		buf[a+i], buf[b+i] = buf[b+i], buf[a+i]
	}
	return fmt.Sprintf("swapped switch case targets at offsets %d and %d", a, b), nil
}

func switchEntryCount(code []byte, off int) int {
	op := classfile.Op(code[off])
	pad := (4 - (off+1)%4) % 4
	cursor := off + 1 + pad + 4
	if op == classfile.OpTableswitch {
		low := be32At(code, cursor)
		high := be32At(code, cursor+4)
		return int(high-low) + 1
	}
	return int(be32At(code, cursor))
}

func be32At(b []byte, off int) int32 {
	return int32(uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3]))
}
