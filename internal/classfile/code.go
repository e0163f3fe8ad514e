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

package classfile

import "fmt"

// CodeAttribute is the decoded form of a method's "Code" attribute.
// Only MaxStack/MaxLocals/Code are exposed structurally, because those
// are the fields the Mutater ever touches; the exception table and any
// nested attributes (LineNumberTable, LocalVariableTable, ...) are kept
// as an opaque Tail and re-emitted byte-for-byte, which is what makes
// the equal-length-edit invariant (SPEC_FULL.md §6.A) trivial to
// maintain: a replacement instruction of the same length leaves every
// offset those nested tables reference untouched.
type CodeAttribute struct {
	MaxStack  uint16
	MaxLocals uint16
	Code      []byte
	Tail      []byte
}

// DecodeCode parses the raw Info bytes of a "Code" attribute.
func DecodeCode(info []byte) (*CodeAttribute, error) {
	r := newByteReader(info)
	ca := &CodeAttribute{}
	var err error
	if ca.MaxStack, err = r.u2(); err != nil {
		return nil, err
	}
	if ca.MaxLocals, err = r.u2(); err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	if ca.Code, err = r.bytes(int(codeLen)); err != nil {
		return nil, err
	}
	// Everything else (exception_table, attributes) is structurally
	// unneeded by gojumble; copy through as-is.
	ca.Tail = append([]byte(nil), info[r.pos:]...)
	return ca, nil
}

// Encode re-serialises a CodeAttribute back into raw Info bytes.
func (ca *CodeAttribute) Encode() []byte {
	w := &byteWriter{}
	w.u2(ca.MaxStack)
	w.u2(ca.MaxLocals)
	w.u4(uint32(len(ca.Code)))
	w.raw(ca.Code)
	w.raw(ca.Tail)
	return w.bytes()
}

// LineNumberEntry maps a bytecode offset to a source line.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LineNumberTable parses the LineNumberTable sub-attribute out of the
// Code attribute's Tail, if present. It is used only to produce
// human-readable mutation descriptions (SPEC_FULL.md §6.B); nothing
// here is ever mutated.
func (ca *CodeAttribute) LineNumberTable(pool *ConstantPool) ([]LineNumberEntry, error) {
	info, ok, err := findSubAttribute(pool, ca.Tail, "LineNumberTable")
	if err != nil || !ok {
		return nil, err
	}
	r := newByteReader(info)
	n, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]LineNumberEntry, n)
	for i := range out {
		if out[i].StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if out[i].LineNumber, err = r.u2(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LineFor returns the source line a bytecode offset belongs to, per the
// usual convention of the entry with the largest StartPC <= offset.
func LineFor(table []LineNumberEntry, offset int) int {
	line := 0
	for _, e := range table {
		if int(e.StartPC) <= offset {
			line = int(e.LineNumber)
		} else {
			break
		}
	}
	return line
}

// ExceptionRange is one entry of a Code attribute's exception table,
// exposed read-only for the assertion-guard detector in internal/mutate.
type ExceptionRange struct {
	StartPC, EndPC, HandlerPC, CatchType uint16
}

// ExceptionTable parses the exception table that immediately follows the
// code array in Tail.
func (ca *CodeAttribute) ExceptionTable() ([]ExceptionRange, error) {
	r := newByteReader(ca.Tail)
	n, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]ExceptionRange, n)
	for i := range out {
		if out[i].StartPC, err = r.u2(); err != nil {
			return nil, err
		}
		if out[i].EndPC, err = r.u2(); err != nil {
			return nil, err
		}
		if out[i].HandlerPC, err = r.u2(); err != nil {
			return nil, err
		}
		if out[i].CatchType, err = r.u2(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// findSubAttribute scans a Code attribute's Tail (exception table
// followed by a nested attributes section) for one named attribute.
func findSubAttribute(pool *ConstantPool, tail []byte, name string) ([]byte, bool, error) {
	r := newByteReader(tail)
	excCount, err := r.u2()
	if err != nil {
		return nil, false, err
	}
	if _, err := r.bytes(int(excCount) * 8); err != nil {
		return nil, false, err
	}
	attrs, err := parseAttributes(r)
	if err != nil {
		return nil, false, err
	}
	for _, a := range attrs {
		if n, ok := pool.Utf8At(a.NameIndex); ok && n == name {
			return a.Info, true, nil
		}
	}
	return nil, false, nil
}

// ValidOffsets returns the set of byte offsets in code at which an
// instruction begins, in ascending order. It stops (returning an error)
// if it encounters an opcode it doesn't recognise, since that would
// mean gojumble has mis-parsed the instruction stream.
func ValidOffsets(code []byte) ([]int, error) {
	var offs []int
	for off := 0; off < len(code); {
		offs = append(offs, off)
		n, ok := InstructionLen(code, off)
		if !ok {
			return nil, fmt.Errorf("classfile: unrecognised opcode %#02x at offset %d", code[off], off)
		}
		off += n
	}
	return offs, nil
}
