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

// negateConditionalInverse maps each conditional branch opcode to its
// logical inverse. The branch target operand is always preserved.
var negateConditionalInverse = map[classfile.Op]classfile.Op{
	classfile.OpIfeq:      classfile.OpIfne,
	classfile.OpIfne:      classfile.OpIfeq,
	classfile.OpIflt:      classfile.OpIfge,
	classfile.OpIfge:      classfile.OpIflt,
	classfile.OpIfgt:      classfile.OpIfle,
	classfile.OpIfle:      classfile.OpIfgt,
	classfile.OpIfIcmpeq:  classfile.OpIfIcmpne,
	classfile.OpIfIcmpne:  classfile.OpIfIcmpeq,
	classfile.OpIfIcmplt:  classfile.OpIfIcmpge,
	classfile.OpIfIcmpge:  classfile.OpIfIcmplt,
	classfile.OpIfIcmpgt:  classfile.OpIfIcmple,
	classfile.OpIfIcmple:  classfile.OpIfIcmpgt,
	classfile.OpIfnull:    classfile.OpIfnonnull,
	classfile.OpIfnonnull: classfile.OpIfnull,
}

func tryNegateConditional(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	op := classfile.Op(code.Code[off])
	inverse, ok := negateConditionalInverse[op]
	if !ok {
		return nil, false
	}
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		original := classfile.Op(buf[off])
		replacement := append([]byte{byte(inverse)}, buf[off+1:off+3]...)
		if err := classfile.ReplaceInstruction(buf, off, replacement); err != nil {
			return "", err
		}
		return fmt.Sprintf("negated %s to %s", opName(original), opName(inverse)), nil
	}, true
}

func opName(op classfile.Op) string {
	return fmt.Sprintf("%#02x", byte(op))
}
