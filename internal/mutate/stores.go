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

// tryStores only handles the two-byte ISTORE n form; the one-byte
// ISTORE_0..3 forms are not mutation points. The store is redirected to
// slot (n+1) mod max_locals without checking that slot's liveness or
// type.
func tryStores(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	if classfile.Op(code.Code[off]) != classfile.OpIstore {
		return nil, false
	}
	if code.MaxLocals < 2 {
		return nil, false
	}
	return applyStoreSwap(code.MaxLocals), true
}

func applyStoreSwap(maxLocals uint16) applier {
	return func(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
		n := buf[off+1]
		alt := (int(n) + 1) % int(maxLocals)
		if alt == int(n) {
			return "", fmt.Errorf("mutate: no alternate local slot available")
		}
		if err := classfile.ReplaceInstruction(buf, off, []byte{byte(classfile.OpIstore), byte(alt)}); err != nil {
			return "", err
		}
		return fmt.Sprintf("redirected store from local %d to local %d", n, alt), nil
	}
}
