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

import "github.com/go-jumble/gojumble/internal/classfile"

// byteRange is a half-open [start, end) span of bytecode offsets.
type byteRange struct {
	start, end int
}

// assertionGuardedRanges finds the union of byte ranges that a compiled
// assertion's guard skips over when assertions are disabled. Gojumble
// never mutates inside one: doing so would only ever be observable with
// assertions enabled, which defeats the point of testing the assertion
// itself (SPEC_FULL.md §6.B).
//
// The guard shape is fixed: GETSTATIC $assertionsDisabled; IFNE skip;
// <guarded instructions>; skip:. Detection walks the instruction stream
// looking for that GETSTATIC/IFNE pair and records [ifne_target_base,
// branch_target) as guarded, where ifne_target_base is the offset right
// after the IFNE.
func assertionGuardedRanges(pool *classfile.ConstantPool, code *classfile.CodeAttribute) ([]byteRange, error) {
	var ranges []byteRange
	offs, err := classfile.ValidOffsets(code.Code)
	if err != nil {
		return nil, err
	}
	for i, off := range offs {
		if classfile.Op(code.Code[off]) != classfile.OpGetstatic {
			continue
		}
		if !referencesAssertionsDisabled(pool, code.Code, off) {
			continue
		}
		if i+1 >= len(offs) {
			continue
		}
		next := offs[i+1]
		if classfile.Op(code.Code[next]) != classfile.OpIfne {
			continue
		}
		branchOffset := int(int16(uint16(code.Code[next+1])<<8 | uint16(code.Code[next+2])))
		target := next + branchOffset
		guardStart := next + 3
		if target > guardStart {
			ranges = append(ranges, byteRange{start: guardStart, end: target})
		}
	}
	return ranges, nil
}

func referencesAssertionsDisabled(pool *classfile.ConstantPool, code []byte, off int) bool {
	idx := uint16(code[off+1])<<8 | uint16(code[off+2])
	c, ok := pool.Get(idx)
	if !ok || c.Tag != classfile.TagFieldref {
		return false
	}
	name, _, ok := pool.NameAndType(c.NameIndex)
	return ok && name == "$assertionsDisabled"
}
