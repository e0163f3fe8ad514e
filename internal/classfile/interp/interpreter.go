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

import (
	"fmt"

	"github.com/go-jumble/gojumble/internal/classfile"
)

// run executes f to completion, returning the value passed to whichever
// return instruction is hit. void methods (returnOp) yield the zero
// Value, which callers that only care about side effects can ignore.
func (m *Machine) run(f *frame) (Value, error) {
	for {
		if f.pc >= len(f.code.Code) {
			return Value{}, fmt.Errorf("interp: fell off the end of the method without a return")
		}
		op := classfile.Op(f.u1(f.pc))
		switch op {
		case classfile.OpNop:
			f.pc++

		case classfile.OpAconstNull:
			f.push(Null())
			f.pc++
		case classfile.OpIconstM1, classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconst2,
			classfile.OpIconst3, classfile.OpIconst4, classfile.OpIconst5:
			f.push(Int(int32(op) - int32(classfile.OpIconst0)))
			f.pc++
		case classfile.OpBipush:
			f.push(Int(int32(int8(f.u1(f.pc + 1)))))
			f.pc += 2
		case classfile.OpSipush:
			f.push(Int(int32(f.s2(f.pc + 1))))
			f.pc += 3
		case classfile.OpLdc:
			v, err := m.loadConstant(f, uint16(f.u1(f.pc+1)))
			if err != nil {
				return Value{}, err
			}
			f.push(v)
			f.pc += 2

		case classfile.OpIload:
			f.push(f.locals[f.u1(f.pc+1)])
			f.pc += 2
		case classfile.OpIload0, classfile.OpIload1, classfile.OpIload2, classfile.OpIload3:
			f.push(f.locals[int(op)-int(classfile.OpIload0)])
			f.pc++
		case classfile.OpAload0:
			f.push(f.locals[0])
			f.pc++
		case classfile.OpIstore:
			f.locals[f.u1(f.pc+1)] = f.pop()
			f.pc += 2
		case classfile.OpIstore0, classfile.OpIstore1, classfile.OpIstore2, classfile.OpIstore3:
			f.locals[int(op)-int(classfile.OpIstore0)] = f.pop()
			f.pc++

		case classfile.OpIadd:
			binInt(f, func(a, b int32) int32 { return a + b })
		case classfile.OpIsub:
			binInt(f, func(a, b int32) int32 { return a - b })
		case classfile.OpImul:
			binInt(f, func(a, b int32) int32 { return a * b })
		case classfile.OpIdiv:
			if err := binIntErr(f, func(a, b int32) (int32, error) {
				if b == 0 {
					return 0, fmt.Errorf("interp: division by zero")
				}
				return a / b, nil
			}); err != nil {
				return Value{}, err
			}
		case classfile.OpIrem:
			if err := binIntErr(f, func(a, b int32) (int32, error) {
				if b == 0 {
					return 0, fmt.Errorf("interp: division by zero")
				}
				return a % b, nil
			}); err != nil {
				return Value{}, err
			}
		case classfile.OpIneg:
			f.push(Int(-f.pop().Int()))
		case classfile.OpIshl:
			binInt(f, func(a, b int32) int32 { return a << (uint32(b) & 0x1f) })
		case classfile.OpIshr:
			binInt(f, func(a, b int32) int32 { return a >> (uint32(b) & 0x1f) })
		case classfile.OpIushr:
			binInt(f, func(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) & 0x1f)) })
		case classfile.OpIand:
			binInt(f, func(a, b int32) int32 { return a & b })
		case classfile.OpIor:
			binInt(f, func(a, b int32) int32 { return a | b })
		case classfile.OpIxor:
			binInt(f, func(a, b int32) int32 { return a ^ b })
		case classfile.OpIinc:
			idx := f.u1(f.pc + 1)
			delta := int8(f.u1(f.pc + 2))
			f.locals[idx] = Int(f.locals[idx].Int() + int32(delta))
			f.pc += 3
			continue

		case classfile.OpIfeq, classfile.OpIfne, classfile.OpIflt, classfile.OpIfge,
			classfile.OpIfgt, classfile.OpIfle:
			v := f.pop().Int()
			if compareUnary(op, v) {
				f.pc += int(f.s2(f.pc + 1))
			} else {
				f.pc += 3
			}
			continue
		case classfile.OpIfIcmpeq, classfile.OpIfIcmpne, classfile.OpIfIcmplt,
			classfile.OpIfIcmpge, classfile.OpIfIcmpgt, classfile.OpIfIcmple:
			b := f.pop().Int()
			a := f.pop().Int()
			if compareBinary(op, a, b) {
				f.pc += int(f.s2(f.pc + 1))
			} else {
				f.pc += 3
			}
			continue
		case classfile.OpIfnull:
			if f.pop().Ref() == nil {
				f.pc += int(f.s2(f.pc + 1))
			} else {
				f.pc += 3
			}
			continue
		case classfile.OpIfnonnull:
			if f.pop().Ref() != nil {
				f.pc += int(f.s2(f.pc + 1))
			} else {
				f.pc += 3
			}
			continue
		case classfile.OpGoto:
			f.pc += int(f.s2(f.pc + 1))
			continue

		case classfile.OpTableswitch, classfile.OpLookupswitch:
			next, err := execSwitch(f, op)
			if err != nil {
				return Value{}, err
			}
			f.pc = next
			continue

		case classfile.OpGetstatic:
			v, err := m.getStatic(f)
			if err != nil {
				return Value{}, err
			}
			f.push(v)
			f.pc += 3

		case classfile.OpInvokestatic, classfile.OpInvokevirtual, classfile.OpInvokespecial:
			if err := m.invoke(f); err != nil {
				return Value{}, err
			}
			f.pc += 3

		case classfile.OpAthrow:
			ref := f.pop()
			msg, _ := ref.Ref().(string)
			return Value{}, &AssertionError{Message: msg}

		case classfile.OpIreturn, classfile.OpFreturn, classfile.OpDreturn, classfile.OpLreturn, classfile.OpAreturn:
			return f.pop(), nil
		case classfile.OpReturn:
			return Value{}, nil

		default:
			return Value{}, fmt.Errorf("interp: unsupported opcode %#02x at offset %d", byte(op), f.pc)
		}
	}
}

func binInt(f *frame, op func(a, b int32) int32) {
	b := f.pop().Int()
	a := f.pop().Int()
	f.push(Int(op(a, b)))
	f.pc++
}

func binIntErr(f *frame, op func(a, b int32) (int32, error)) error {
	b := f.pop().Int()
	a := f.pop().Int()
	v, err := op(a, b)
	if err != nil {
		return err
	}
	f.push(Int(v))
	f.pc++
	return nil
}

func compareUnary(op classfile.Op, v int32) bool {
	switch op {
	case classfile.OpIfeq:
		return v == 0
	case classfile.OpIfne:
		return v != 0
	case classfile.OpIflt:
		return v < 0
	case classfile.OpIfge:
		return v >= 0
	case classfile.OpIfgt:
		return v > 0
	case classfile.OpIfle:
		return v <= 0
	}
	return false
}

func compareBinary(op classfile.Op, a, b int32) bool {
	switch op {
	case classfile.OpIfIcmpeq:
		return a == b
	case classfile.OpIfIcmpne:
		return a != b
	case classfile.OpIfIcmplt:
		return a < b
	case classfile.OpIfIcmpge:
		return a >= b
	case classfile.OpIfIcmpgt:
		return a > b
	case classfile.OpIfIcmple:
		return a <= b
	}
	return false
}

// loadConstant resolves an Ldc operand (an Integer, Float, or String
// constant-pool index) to a Value.
func (m *Machine) loadConstant(f *frame, idx uint16) (Value, error) {
	c, ok := f.img.Pool.Get(idx)
	if !ok {
		return Value{}, fmt.Errorf("interp: ldc references missing constant %d", idx)
	}
	switch c.Tag {
	case classfile.TagInteger:
		return Int(c.IntVal), nil
	case classfile.TagFloat:
		return Float(c.FloatVal), nil
	case classfile.TagString:
		s, _ := f.img.Pool.Utf8At(c.StringIndex)
		return Ref(s), nil
	default:
		return Value{}, fmt.Errorf("interp: ldc of unsupported constant tag %d", c.Tag)
	}
}

// getStatic supports exactly the one static field gojumble's bytecode
// subset reads: the boolean assertions-enabled flag that a guarded
// assertion statement checks before evaluating its condition.
func (m *Machine) getStatic(f *frame) (Value, error) {
	idx := f.u2(f.pc + 1)
	c, ok := f.img.Pool.Get(idx)
	if !ok || c.Tag != classfile.TagFieldref {
		return Value{}, fmt.Errorf("interp: getstatic operand is not a Fieldref")
	}
	name, _, ok := f.img.Pool.NameAndType(c.NameIndex)
	if !ok {
		return Value{}, fmt.Errorf("interp: malformed Fieldref")
	}
	if name == "$assertionsDisabled" {
		if m.assertionsEnabled {
			return Int(0), nil
		}
		return Int(1), nil
	}
	return Value{}, fmt.Errorf("interp: unsupported static field %q", name)
}

// invoke resolves a Methodref constant and dispatches into the target
// method, which may live in any class known to m. invokevirtual and
// invokespecial are treated identically to invokestatic: gojumble's
// bytecode subset has no instance state to dispatch on, only the
// straight-line calls a test method makes into its target class.
func (m *Machine) invoke(f *frame) error {
	idx := f.u2(f.pc + 1)
	c, ok := f.img.Pool.Get(idx)
	if !ok {
		return fmt.Errorf("interp: invoke operand references missing constant %d", idx)
	}
	class, ok := f.img.Pool.ClassName(c.ClassIndex)
	if !ok {
		return fmt.Errorf("interp: invoke operand's class is unresolved")
	}
	name, descriptor, ok := f.img.Pool.NameAndType(c.NameIndex)
	if !ok {
		return fmt.Errorf("interp: invoke operand's name/descriptor is unresolved")
	}

	argc := countArgs(descriptor)
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.pop()
	}

	result, err := m.Invoke(class, name, descriptor, args)
	if err != nil {
		return err
	}
	if returnsValue(descriptor) {
		f.push(result)
	}
	return nil
}

// countArgs counts the parameters in a method descriptor like
// "(ILjava/lang/String;)I", ignoring "this" (callers that need it
// prepend it to args themselves).
func countArgs(descriptor string) int {
	n := 0
	i := 1 // skip leading '('
	for i < len(descriptor) && descriptor[i] != ')' {
		switch descriptor[i] {
		case 'L':
			for descriptor[i] != ';' {
				i++
			}
		case '[':
			i++
			continue
		}
		n++
		i++
	}
	return n
}

func returnsValue(descriptor string) bool {
	i := len(descriptor) - 1
	for i >= 0 && descriptor[i] != ')' {
		i--
	}
	return i+1 < len(descriptor) && descriptor[i+1] != 'V'
}

func execSwitch(f *frame, op classfile.Op) (int, error) {
	start := f.pc
	pad := (4 - (start+1)%4) % 4
	cursor := start + 1 + pad
	defaultOffset := readS4(f.code.Code, cursor)
	cursor += 4
	if op == classfile.OpTableswitch {
		low := readS4(f.code.Code, cursor)
		cursor += 4
		high := readS4(f.code.Code, cursor)
		cursor += 4
		v := f.pop().Int()
		if v < low || v > high {
			return start + int(defaultOffset), nil
		}
		offset := readS4(f.code.Code, cursor+int(v-low)*4)
		return start + int(offset), nil
	}
	npairs := readS4(f.code.Code, cursor)
	cursor += 4
	v := f.pop().Int()
	for i := int32(0); i < npairs; i++ {
		match := readS4(f.code.Code, cursor)
		offset := readS4(f.code.Code, cursor+4)
		if v == match {
			return start + int(offset), nil
		}
		cursor += 8
	}
	return start + int(defaultOffset), nil
}

func readS4(b []byte, off int) int32 {
	return int32(uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3]))
}
