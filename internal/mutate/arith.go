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

// swapArithPairs is the fixed pairing table. Where an opcode could pair
// with more than one counterpart, only the first-listed pairing is kept
// here so enumeration stays deterministic (SPEC_FULL.md §6.B).
var swapArithPairs = buildSwapArithPairs()

func buildSwapArithPairs() map[classfile.Op]classfile.Op {
	pairs := map[classfile.Op]classfile.Op{
		classfile.OpIadd:  classfile.OpIsub,
		classfile.OpIsub:  classfile.OpIadd,
		classfile.OpImul:  classfile.OpIdiv,
		classfile.OpIdiv:  classfile.OpImul,
		classfile.OpIrem:  classfile.OpImul,
		classfile.OpIshl:  classfile.OpIshr,
		classfile.OpIshr:  classfile.OpIshl,
		classfile.OpIushr: classfile.OpIshl,
		classfile.OpIand:  classfile.OpIor,
		classfile.OpIor:   classfile.OpIxor,
		classfile.OpIxor:  classfile.OpIor,

		classfile.OpLadd: classfile.OpLsub,
		classfile.OpLsub: classfile.OpLadd,
		classfile.OpLmul: classfile.OpLdiv,
		classfile.OpLdiv: classfile.OpLmul,
		classfile.OpLrem: classfile.OpLmul,
		classfile.OpLshl: classfile.OpLshr,
		classfile.OpLshr: classfile.OpLshl,
		classfile.OpLushr: classfile.OpLshl,
		classfile.OpLand: classfile.OpLor,
		classfile.OpLor:  classfile.OpLxor,
		classfile.OpLxor: classfile.OpLor,

		classfile.OpFadd: classfile.OpFsub,
		classfile.OpFsub: classfile.OpFadd,
		classfile.OpFmul: classfile.OpFdiv,
		classfile.OpFdiv: classfile.OpFmul,
		classfile.OpFrem: classfile.OpFmul,

		classfile.OpDadd: classfile.OpDsub,
		classfile.OpDsub: classfile.OpDadd,
		classfile.OpDmul: classfile.OpDdiv,
		classfile.OpDdiv: classfile.OpDmul,
		classfile.OpDrem: classfile.OpDmul,
	}
	return pairs
}

func tryArith(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	op := classfile.Op(code.Code[off])
	counterpart, ok := swapArithPairs[op]
	if !ok {
		return nil, false
	}
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		original := classfile.Op(buf[off])
		if err := classfile.ReplaceInstruction(buf, off, []byte{byte(counterpart)}); err != nil {
			return "", err
		}
		return fmt.Sprintf("swapped %s for %s", opName(original), opName(counterpart)), nil
	}, true
}
