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

package interp

import "github.com/go-jumble/gojumble/internal/classfile"

// frame is one method activation: its local variable slots, operand
// stack, and the code it's executing.
type frame struct {
	img    *classfile.Image
	code   *classfile.CodeAttribute
	locals []Value
	stack  []Value
	pc     int
}

func newFrame(img *classfile.Image, code *classfile.CodeAttribute, args []Value) *frame {
	locals := make([]Value, code.MaxLocals)
	copy(locals, args)
	return &frame{
		img:    img,
		code:   code,
		locals: locals,
		stack:  make([]Value, 0, code.MaxStack),
	}
}

func (f *frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *frame) u1(off int) byte { return f.code.Code[off] }

func (f *frame) u2(off int) uint16 {
	return uint16(f.code.Code[off])<<8 | uint16(f.code.Code[off+1])
}

func (f *frame) s2(off int) int16 { return int16(f.u2(off)) }
