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

// Package classfiletest builds minimal, well-formed gojumble class files
// in memory for use by other packages' tests, so each of those packages
// doesn't have to hand-assemble constant pools and Code attributes
// itself.
package classfiletest

import (
	"encoding/binary"
	"testing"

	"github.com/go-jumble/gojumble/internal/classfile"
)

// SimpleReturn describes a single-class, single-method fixture: a public
// static method "value()I" that pushes Value and returns it.
type SimpleReturn struct {
	Value int8
}

// Build assembles the raw bytes of a class file for spec, failing t if
// assembly produces something classfile.Parse itself rejects (which
// would indicate a bug in this helper, not in the code under test).
func Build(t *testing.T, spec SimpleReturn) []byte {
	t.Helper()

	var b buf
	b.u4(classfile.Magic)
	b.u2(0)      // minor
	b.u2(52)     // major
	b.u2(8)      // constant_pool_count (1-indexed, 7 real entries + slot 0)

	// #1 Class -> #2, #2 Utf8 "Sample"
	b.u1(7)
	b.u2(2)
	b.u1(1)
	b.utf8("Sample")
	// #3 Class -> #4, #4 Utf8 "java/lang/Object"
	b.u1(7)
	b.u2(4)
	b.u1(1)
	b.utf8("java/lang/Object")
	// #5 Utf8 "value"
	b.u1(1)
	b.utf8("value")
	// #6 Utf8 "()I"
	b.u1(1)
	b.utf8("()I")
	// #7 Utf8 "Code"
	b.u1(1)
	b.utf8("Code")

	b.u2(uint16(classfile.AccPublic)) // access_flags
	b.u2(1)                           // this_class
	b.u2(3)                           // super_class
	b.u2(0)                           // interfaces_count

	b.u2(0) // fields_count

	b.u2(1) // methods_count
	b.u2(uint16(classfile.AccPublic | classfile.AccStatic))
	b.u2(5) // name_index "value"
	b.u2(6) // descriptor_index "()I"
	b.u2(1) // method attributes_count

	code := []byte{byte(classfile.OpBipush), byte(spec.Value), byte(classfile.OpIreturn)}
	var codeInfo buf
	codeInfo.u2(1) // max_stack
	codeInfo.u2(0) // max_locals
	codeInfo.u4(uint32(len(code)))
	codeInfo.raw(code)
	codeInfo.u2(0) // exception_table_length
	codeInfo.u2(0) // Code's own attributes_count

	b.u2(7) // "Code" name_index
	b.u4(uint32(len(codeInfo.out)))
	b.raw(codeInfo.out)

	b.u2(0) // class attributes_count

	raw := b.out

	if _, err := classfile.Parse(raw); err != nil {
		t.Fatalf("classfiletest: built an invalid class file: %v", err)
	}
	return raw
}

// ObjectReturn describes a single-class, single-method fixture: a public
// instance method "self()LSample;" that loads `this` and returns it, the
// shape the return-values mutation's object-return sub-case looks for
// (ALOAD_0 immediately preceding ARETURN).
type ObjectReturn struct{}

// BuildObjectReturn assembles the raw bytes of a class file for spec,
// failing t if assembly produces something classfile.Parse itself
// rejects.
func BuildObjectReturn(t *testing.T, _ ObjectReturn) []byte {
	t.Helper()

	var b buf
	b.u4(classfile.Magic)
	b.u2(0)  // minor
	b.u2(52) // major
	b.u2(8)  // constant_pool_count

	// #1 Class -> #2, #2 Utf8 "Sample"
	b.u1(7)
	b.u2(2)
	b.u1(1)
	b.utf8("Sample")
	// #3 Class -> #4, #4 Utf8 "java/lang/Object"
	b.u1(7)
	b.u2(4)
	b.u1(1)
	b.utf8("java/lang/Object")
	// #5 Utf8 "self"
	b.u1(1)
	b.utf8("self")
	// #6 Utf8 "()LSample;"
	b.u1(1)
	b.utf8("()LSample;")
	// #7 Utf8 "Code"
	b.u1(1)
	b.utf8("Code")

	b.u2(uint16(classfile.AccPublic)) // access_flags
	b.u2(1)                           // this_class
	b.u2(3)                           // super_class
	b.u2(0)                           // interfaces_count

	b.u2(0) // fields_count

	b.u2(1) // methods_count
	b.u2(uint16(classfile.AccPublic))
	b.u2(5) // name_index "self"
	b.u2(6) // descriptor_index "()LSample;"
	b.u2(1) // method attributes_count

	code := []byte{byte(classfile.OpAload0), byte(classfile.OpAreturn)}
	var codeInfo buf
	codeInfo.u2(1) // max_stack
	codeInfo.u2(1) // max_locals
	codeInfo.u4(uint32(len(code)))
	codeInfo.raw(code)
	codeInfo.u2(0) // exception_table_length
	codeInfo.u2(0) // Code's own attributes_count

	b.u2(7) // "Code" name_index
	b.u4(uint32(len(codeInfo.out)))
	b.raw(codeInfo.out)

	b.u2(0) // class attributes_count

	raw := b.out

	if _, err := classfile.Parse(raw); err != nil {
		t.Fatalf("classfiletest: built an invalid class file: %v", err)
	}
	return raw
}

// CallerTest describes a single-method test-class fixture: a public
// test method that invokes a target class's zero-argument int method
// and throws when the result doesn't match Expect, the shape
// internal/testrunner and internal/worker's tests drive against a real
// interpreter instead of a mock.
type CallerTest struct {
	ClassName        string
	TestName         string
	TargetClass      string
	TargetMethod     string
	TargetDescriptor string
	Expect           int16
}

// BuildCallerTest assembles the raw bytes of a one-method test class for
// spec, failing t if assembly produces something classfile.Parse itself
// rejects.
func BuildCallerTest(t *testing.T, spec CallerTest) []byte {
	t.Helper()

	var b buf
	b.u4(classfile.Magic)
	b.u2(0)  // minor
	b.u2(52) // major
	b.u2(16) // constant_pool_count (15 real entries + slot 0)

	// #1 Class -> #2, #2 Utf8 ClassName
	b.u1(7)
	b.u2(2)
	b.u1(1)
	b.utf8(spec.ClassName)
	// #3 Class -> #4, #4 Utf8 "java/lang/Object"
	b.u1(7)
	b.u2(4)
	b.u1(1)
	b.utf8("java/lang/Object")
	// #5 Utf8 TestName
	b.u1(1)
	b.utf8(spec.TestName)
	// #6 Utf8 "()V"
	b.u1(1)
	b.utf8("()V")
	// #7 Utf8 "Code"
	b.u1(1)
	b.utf8("Code")
	// #8 Class -> #9, #9 Utf8 TargetClass
	b.u1(7)
	b.u2(9)
	b.u1(1)
	b.utf8(spec.TargetClass)
	// #10 Utf8 TargetMethod
	b.u1(1)
	b.utf8(spec.TargetMethod)
	// #11 Utf8 TargetDescriptor
	b.u1(1)
	b.utf8(spec.TargetDescriptor)
	// #12 NameAndType(#10, #11)
	b.u1(12)
	b.u2(10)
	b.u2(11)
	// #13 Methodref(#8, #12)
	b.u1(10)
	b.u2(8)
	b.u2(12)
	// #14 Utf8 "mismatch"
	b.u1(1)
	b.utf8("mismatch")
	// #15 String -> #14
	b.u1(8)
	b.u2(14)

	b.u2(uint16(classfile.AccPublic)) // access_flags
	b.u2(1)                           // this_class
	b.u2(3)                           // super_class
	b.u2(0)                           // interfaces_count

	b.u2(0) // fields_count

	b.u2(1) // methods_count
	b.u2(uint16(classfile.AccPublic))
	b.u2(5) // name_index TestName
	b.u2(6) // descriptor_index "()V"
	b.u2(1) // method attributes_count

	code := []byte{
		byte(classfile.OpInvokestatic), 0, 13,
		byte(classfile.OpSipush), byte(spec.Expect >> 8), byte(spec.Expect),
		byte(classfile.OpIfIcmpeq), 0, 6,
		byte(classfile.OpLdc), 15,
		byte(classfile.OpAthrow),
		byte(classfile.OpReturn),
	}
	var codeInfo buf
	codeInfo.u2(2) // max_stack
	codeInfo.u2(0) // max_locals
	codeInfo.u4(uint32(len(code)))
	codeInfo.raw(code)
	codeInfo.u2(0) // exception_table_length
	codeInfo.u2(0) // Code's own attributes_count

	b.u2(7) // "Code" name_index
	b.u4(uint32(len(codeInfo.out)))
	b.raw(codeInfo.out)

	b.u2(0) // class attributes_count

	raw := b.out

	if _, err := classfile.Parse(raw); err != nil {
		t.Fatalf("classfiletest: built an invalid test class: %v", err)
	}
	return raw
}

type buf struct{ out []byte }

func (b *buf) u1(v byte)      { b.out = append(b.out, v) }
func (b *buf) u2(v uint16)    { b.out = append(b.out, byte(v>>8), byte(v)) }
func (b *buf) u4(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.out = append(b.out, tmp[:]...)
}
func (b *buf) raw(p []byte) { b.out = append(b.out, p...) }
func (b *buf) utf8(s string) {
	b.u2(uint16(len(s)))
	b.out = append(b.out, s...)
}
