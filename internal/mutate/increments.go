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

func tryIncrements(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	if classfile.Op(code.Code[off]) != classfile.OpIinc {
		return nil, false
	}
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		idx := buf[off+1]
		delta := int8(buf[off+2])
		negated := -delta
		if negated == delta {
			// delta == -128: there is no equal-magnitude positive int8.
			return "", classfile.ErrLengthMismatch
		}
		replacement := []byte{byte(classfile.OpIinc), idx, byte(negated)}
		if err := classfile.ReplaceInstruction(buf, off, replacement); err != nil {
			return "", err
		}
		return fmt.Sprintf("negated increment of local %d from %d to %d", idx, delta, negated), nil
	}, true
}
