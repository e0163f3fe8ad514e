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

var intReturnOps = map[classfile.Op]bool{
	classfile.OpIreturn: true,
}

var objReturnOps = map[classfile.Op]bool{
	classfile.OpAreturn: true,
}

// intConstSequence is tried in order: the first entry that differs
// from the current opcode is used, keeping the mutation deterministic.
var intConstSequence = []classfile.Op{
	classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconstM1,
}

// tryReturnValues looks for a value-producing instruction immediately
// preceding a return and, if it is a single-byte integer constant push,
// replaces it with a different single-byte constant push; if the return
// is an object return (ARETURN) fed by an ALOAD_0, the loaded reference
// is replaced with the null reference (ACONST_NULL), per spec.md's
// "object returns replaced by the null reference" rule. Any other shape
// (no equal-length rewrite available) is left unmutated, per spec.md's
// "where no equal-length rewrite exists, the point is skipped" rule.
func tryReturnValues(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	op := classfile.Op(code.Code[off])
	switch {
	case intReturnOps[op]:
		return tryIntReturn(code, off)
	case objReturnOps[op]:
		return tryObjectReturn(code, off)
	default:
		return nil, false
	}
}

func tryIntReturn(code *classfile.CodeAttribute, off int) (applier, bool) {
	prevOff, ok := precedingOffset(code.Code, off)
	if !ok {
		return nil, false
	}
	prevOp := classfile.Op(code.Code[prevOff])
	if !isSingleByteIntConst(prevOp) {
		return nil, false
	}
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		prevOff, ok := precedingOffset(buf, off)
		if !ok {
			return "", fmt.Errorf("mutate: return-values point vanished")
		}
		original := classfile.Op(buf[prevOff])
		replacement := original
		for _, candidate := range intConstSequence {
			if candidate != original {
				replacement = candidate
				break
			}
		}
		if err := classfile.ReplaceInstruction(buf, prevOff, []byte{byte(replacement)}); err != nil {
			return "", err
		}
		return fmt.Sprintf("replaced return value %s with %s", opName(original), opName(replacement)), nil
	}, true
}

func tryObjectReturn(code *classfile.CodeAttribute, off int) (applier, bool) {
	prevOff, ok := precedingOffset(code.Code, off)
	if !ok {
		return nil, false
	}
	if classfile.Op(code.Code[prevOff]) != classfile.OpAload0 {
		return nil, false
	}
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		prevOff, ok := precedingOffset(buf, off)
		if !ok {
			return "", fmt.Errorf("mutate: return-values point vanished")
		}
		if err := classfile.ReplaceInstruction(buf, prevOff, []byte{byte(classfile.OpAconstNull)}); err != nil {
			return "", err
		}
		return "replaced object return value with null", nil
	}, true
}

func isSingleByteIntConst(op classfile.Op) bool {
	switch op {
	case classfile.OpIconstM1, classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconst2,
		classfile.OpIconst3, classfile.OpIconst4, classfile.OpIconst5:
		return true
	}
	return false
}

func precedingOffset(code []byte, off int) (int, bool) {
	offs, err := classfile.ValidOffsets(code)
	if err != nil {
		return 0, false
	}
	for i, o := range offs {
		if o == off {
			if i == 0 {
				return 0, false
			}
			return offs[i-1], true
		}
	}
	return 0, false
}
