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

// tryConstantPool perturbs the numeric or string constant an LDC
// instruction references. Other instructions reference the pool too
// (invocations, field access), but those entries are structural
// (class/method identity), not data, so only LDC sites are mutation
// points for this kind (SPEC_FULL.md §6.B).
func tryConstantPool(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	if classfile.Op(code.Code[off]) != classfile.OpLdc {
		return nil, false
	}
	idx := uint16(code.Code[off+1])
	c, ok := pool.Get(idx)
	if !ok {
		return nil, false
	}
	switch c.Tag {
	case classfile.TagInteger, classfile.TagString:
		return applyConstantPoolPerturb, true
	default:
		return nil, false
	}
}

func applyConstantPoolPerturb(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
	idx := uint16(buf[off+1])
	c, ok := pool.Get(idx)
	if !ok {
		return "", fmt.Errorf("mutate: constant-pool point vanished")
	}
	switch c.Tag {
	case classfile.TagInteger:
		nv := c.IntVal + 1
		if err := pool.ReplaceNumeric(idx, nv); err != nil {
			return "", err
		}
		return fmt.Sprintf("perturbed integer constant %d to %d", c.IntVal, nv), nil
	case classfile.TagString:
		s, _ := pool.Utf8At(c.StringIndex)
		if err := pool.ReplaceString(idx, ""); err != nil {
			return "", err
		}
		return fmt.Sprintf("replaced string constant %q with \"\"", s), nil
	default:
		return "", fmt.Errorf("mutate: constant at %d is not perturbable", idx)
	}
}
