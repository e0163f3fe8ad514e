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

// Package classfile implements gojumble's class-file codec: a lossless
// parser and emitter for the JVM-shaped, independently defined binary
// format gojumble mutates. See SPEC_FULL.md §6.A.
package classfile

import (
	"fmt"
)

// Magic is the fixed 4-byte header every gojumble class file starts with.
const Magic uint32 = 0xCAFEBABE

// Access flag bits relevant to mutation and exclusion decisions.
const (
	AccPublic    uint16 = 0x0001
	AccStatic    uint16 = 0x0008
	AccSynthetic uint16 = 0x1000
)

// Attribute is a raw, name-indexed chunk of a class/field/method. Bodies
// other than a method's Code attribute are never interpreted by
// gojumble, so storing them verbatim is what makes parse-then-emit
// lossless (SPEC_FULL.md invariant 1) for the parts of the format the
// engine doesn't need to look inside.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Field is a class field, with its attributes preserved verbatim.
type Field struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Method is a class method. Attributes[*] are raw except that the "Code"
// attribute, when present, is decoded lazily via DecodeCode/ReplaceCode
// so the Mutater can rewrite the instruction stream in place.
type Method struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// IsSynthetic reports whether the method carries the synthetic access
// flag or a "Synthetic" attribute.
func (m *Method) IsSynthetic(pool *ConstantPool) bool {
	if m.AccessFlags&AccSynthetic != 0 {
		return true
	}
	for _, a := range m.Attributes {
		if name, ok := pool.Utf8At(a.NameIndex); ok && name == "Synthetic" {
			return true
		}
	}
	return false
}

// Name resolves the method's name via the constant pool.
func (m *Method) Name(pool *ConstantPool) string {
	n, _ := pool.Utf8At(m.NameIndex)
	return n
}

// Descriptor resolves the method's descriptor via the constant pool.
func (m *Method) Descriptor(pool *ConstantPool) string {
	d, _ := pool.Utf8At(m.DescriptorIndex)
	return d
}

// codeAttrIndex returns the index into Attributes of the "Code"
// attribute, if any.
func (m *Method) codeAttrIndex(pool *ConstantPool) int {
	for i, a := range m.Attributes {
		if name, ok := pool.Utf8At(a.NameIndex); ok && name == "Code" {
			return i
		}
	}
	return -1
}

// Code decodes and returns the method's Code attribute, or nil if the
// method has none (abstract or native methods carry no Code).
func (m *Method) Code(pool *ConstantPool) (*CodeAttribute, error) {
	i := m.codeAttrIndex(pool)
	if i < 0 {
		return nil, nil
	}
	return DecodeCode(m.Attributes[i].Info)
}

// ReplaceCode re-encodes code and writes it back into the method's Code
// attribute. The caller is responsible for keeping len(code.Code) equal
// to the original length; this function does not itself enforce that,
// since callers (internal/mutate) need to apply the constraint before
// even attempting an edit, to be able to report "point skipped" instead
// of silently corrupting the class (SPEC_FULL.md §6.A).
func (m *Method) ReplaceCode(pool *ConstantPool, code *CodeAttribute) error {
	i := m.codeAttrIndex(pool)
	if i < 0 {
		return fmt.Errorf("classfile: method %s has no Code attribute", m.Name(pool))
	}
	m.Attributes[i].Info = code.Encode()
	return nil
}

// Image is the parsed, editable representation of one class file.
type Image struct {
	Minor, Major uint16
	Pool         *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Field
	Methods      []Method
	Attributes   []Attribute
}

// ThisClassName resolves the name of the class this Image defines.
func (img *Image) ThisClassName() string {
	n, _ := img.Pool.ClassName(img.ThisClass)
	return n
}

// Parse decodes b into an Image. It returns an error for any input that
// does not conform to gojumble's class-file format; malformed bytes are
// a fatal, non-recoverable condition for the caller (SPEC_FULL.md §6.B
// "Failure modes").
func Parse(b []byte) (*Image, error) {
	r := newByteReader(b)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("classfile: bad magic %#08x", magic)
	}

	img := &Image{}
	if img.Minor, err = r.u2(); err != nil {
		return nil, err
	}
	if img.Major, err = r.u2(); err != nil {
		return nil, err
	}
	if img.Pool, err = parseConstantPool(r); err != nil {
		return nil, err
	}
	if img.AccessFlags, err = r.u2(); err != nil {
		return nil, err
	}
	if img.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if img.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}

	nIfaces, err := r.u2()
	if err != nil {
		return nil, err
	}
	img.Interfaces = make([]uint16, nIfaces)
	for i := range img.Interfaces {
		if img.Interfaces[i], err = r.u2(); err != nil {
			return nil, err
		}
	}

	if img.Fields, err = parseFields(r); err != nil {
		return nil, err
	}
	if img.Methods, err = parseMethods(r); err != nil {
		return nil, err
	}
	if img.Attributes, err = parseAttributes(r); err != nil {
		return nil, err
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("classfile: %d trailing bytes after class body", r.remaining())
	}

	return img, nil
}

func parseFields(r *byteReader) ([]Field, error) {
	n, err := r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, n)
	for i := range fields {
		if fields[i].AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if fields[i].NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if fields[i].DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if fields[i].Attributes, err = parseAttributes(r); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func parseMethods(r *byteReader) ([]Method, error) {
	n, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]Method, n)
	for i := range methods {
		if methods[i].AccessFlags, err = r.u2(); err != nil {
			return nil, err
		}
		if methods[i].NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if methods[i].DescriptorIndex, err = r.u2(); err != nil {
			return nil, err
		}
		if methods[i].Attributes, err = parseAttributes(r); err != nil {
			return nil, err
		}
	}
	return methods, nil
}

func parseAttributes(r *byteReader) ([]Attribute, error) {
	n, err := r.u2()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, n)
	for i := range attrs {
		if attrs[i].NameIndex, err = r.u2(); err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		if attrs[i].Info, err = r.bytes(int(length)); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// Emit serialises img back to bytes. Emit(Parse(b)) == b for any
// b accepted by Parse: every field not structurally needed by the
// mutation engine is retained verbatim from parse to emit.
func Emit(img *Image) ([]byte, error) {
	w := &byteWriter{}
	w.u4(Magic)
	w.u2(img.Minor)
	w.u2(img.Major)
	if err := img.Pool.emit(w); err != nil {
		return nil, err
	}
	w.u2(img.AccessFlags)
	w.u2(img.ThisClass)
	w.u2(img.SuperClass)
	w.u2(uint16(len(img.Interfaces)))
	for _, i := range img.Interfaces {
		w.u2(i)
	}
	emitFields(w, img.Fields)
	emitMethods(w, img.Methods)
	emitAttributes(w, img.Attributes)
	return w.bytes(), nil
}

func emitFields(w *byteWriter, fields []Field) {
	w.u2(uint16(len(fields)))
	for _, f := range fields {
		w.u2(f.AccessFlags)
		w.u2(f.NameIndex)
		w.u2(f.DescriptorIndex)
		emitAttributes(w, f.Attributes)
	}
}

func emitMethods(w *byteWriter, methods []Method) {
	w.u2(uint16(len(methods)))
	for _, m := range methods {
		w.u2(m.AccessFlags)
		w.u2(m.NameIndex)
		w.u2(m.DescriptorIndex)
		emitAttributes(w, m.Attributes)
	}
}

func emitAttributes(w *byteWriter, attrs []Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Info)))
		w.raw(a.Info)
	}
}
