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

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a ConstantPool entry.
type Tag byte

// The canonical tag set gojumble's codec understands.
const (
	TagUTF8              Tag = 1
	TagInteger           Tag = 3
	TagFloat             Tag = 4
	TagLong              Tag = 5
	TagDouble            Tag = 6
	TagClass             Tag = 7
	TagString            Tag = 8
	TagFieldref          Tag = 9
	TagMethodref         Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType       Tag = 12
)

// Const is one constant-pool entry. Not every field is meaningful for
// every Tag; see the accessor methods on ConstantPool for the typed
// view mutators actually use.
type Const struct {
	Tag         Tag
	UTF8        string
	IntVal      int32
	FloatVal    float32
	LongVal     int64
	DoubleVal   float64
	ClassIndex  uint16 // Fieldref/Methodref/InterfaceMethodref.class_index
	NameIndex   uint16 // Class.name_index, NameAndType.name_index, Fieldref/Methodref/InterfaceMethodref.name_and_type_index
	TypeIndex   uint16 // NameAndType.Descriptor
	StringIndex uint16 // String.utf8_index
}

// ConstantPool is gojumble's in-memory view of a class file's constant
// pool. Entries are stored 1-indexed to match the file format (index 0
// is unused); Long and Double entries occupy two slots, exactly as in
// the JVM format, to keep index arithmetic identical to the source
// format during lossless round-tripping.
type ConstantPool struct {
	entries []Const // entries[0] is the unused placeholder
}

// Len returns the number of addressable slots, including the unused
// slot 0 and the phantom slot following each Long/Double.
func (cp *ConstantPool) Len() int {
	return len(cp.entries)
}

// Get returns the entry at idx (1-indexed).
func (cp *ConstantPool) Get(idx uint16) (Const, bool) {
	if int(idx) <= 0 || int(idx) >= len(cp.entries) {
		return Const{}, false
	}
	return cp.entries[idx], true
}

// Utf8At dereferences a UTF8 constant by index.
func (cp *ConstantPool) Utf8At(idx uint16) (string, bool) {
	c, ok := cp.Get(idx)
	if !ok || c.Tag != TagUTF8 {
		return "", false
	}
	return c.UTF8, true
}

// ClassName resolves a Class entry's index to its name string.
func (cp *ConstantPool) ClassName(idx uint16) (string, bool) {
	c, ok := cp.Get(idx)
	if !ok || c.Tag != TagClass {
		return "", false
	}
	return cp.Utf8At(c.NameIndex)
}

// NameAndType resolves a NameAndType entry to (name, descriptor).
func (cp *ConstantPool) NameAndType(idx uint16) (string, string, bool) {
	c, ok := cp.Get(idx)
	if !ok || c.Tag != TagNameAndType {
		return "", "", false
	}
	name, ok1 := cp.Utf8At(c.NameIndex)
	desc, ok2 := cp.Utf8At(c.TypeIndex)
	return name, desc, ok1 && ok2
}

// Append adds a new entry to the pool, returning its 1-based index.
// This is the only way new constants enter a ConstantPool: existing
// slots are never renumbered, so references created before the append
// remain valid (the invariant SPEC_FULL.md §5 relies on).
func (cp *ConstantPool) Append(c Const) uint16 {
	idx := uint16(len(cp.entries))
	cp.entries = append(cp.entries, c)
	if c.Tag == TagLong || c.Tag == TagDouble {
		cp.entries = append(cp.entries, Const{}) // phantom slot
	}
	return idx
}

// AppendUTF8 is a convenience wrapper for the common case of interning a
// string constant's backing UTF8 entry.
func (cp *ConstantPool) AppendUTF8(s string) uint16 {
	return cp.Append(Const{Tag: TagUTF8, UTF8: s})
}

// ReplaceNumeric overwrites the numeric payload of an Integer entry in
// place. The slot's tag and index are unchanged, satisfying the
// equal-length, no-repack invariant for constant-pool edits.
func (cp *ConstantPool) ReplaceNumeric(idx uint16, v int32) error {
	c, ok := cp.Get(idx)
	if !ok || c.Tag != TagInteger {
		return fmt.Errorf("classfile: constant at %d is not an Integer", idx)
	}
	cp.entries[idx].IntVal = v
	return nil
}

// ReplaceString overwrites the referenced UTF8 payload of a String
// entry's backing UTF8 constant. UTF8 entries are variable-length in
// the file format, so the emitted pool may change size; no code array
// is touched and no pool index moves, so the equal-length invariant for
// method code still holds.
func (cp *ConstantPool) ReplaceString(idx uint16, s string) error {
	c, ok := cp.Get(idx)
	if !ok || c.Tag != TagString {
		return fmt.Errorf("classfile: constant at %d is not a String", idx)
	}
	cp.entries[c.StringIndex].UTF8 = s
	return nil
}

func parseConstantPool(r *byteReader) (*ConstantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	cp := &ConstantPool{entries: make([]Const, count)}
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, fmt.Errorf("classfile: reading constant %d: %w", i, err)
		}
		c := Const{Tag: Tag(tag)}
		switch c.Tag {
		case TagUTF8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			c.UTF8 = string(b)
		case TagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			c.IntVal = int32(v)
		case TagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			c.FloatVal = float32FromBits(v)
		case TagLong:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			c.LongVal = int64(v)
		case TagDouble:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			c.DoubleVal = float64FromBits(v)
		case TagClass:
			c.NameIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
		case TagString:
			c.StringIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			c.ClassIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
			c.NameIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
		case TagNameAndType:
			c.NameIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
			c.TypeIndex, err = r.u2()
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("classfile: unsupported constant tag %d at index %d", tag, i)
		}
		cp.entries[i] = c
		if c.Tag == TagLong || c.Tag == TagDouble {
			i++ // phantom slot, left zero
		}
	}
	return cp, nil
}

func (cp *ConstantPool) emit(w *byteWriter) error {
	w.u2(uint16(len(cp.entries)))
	for i := 1; i < len(cp.entries); i++ {
		c := cp.entries[i]
		if c.Tag == 0 {
			continue // phantom slot following a Long/Double
		}
		w.u1(byte(c.Tag))
		switch c.Tag {
		case TagUTF8:
			w.u2(uint16(len(c.UTF8)))
			w.raw([]byte(c.UTF8))
		case TagInteger:
			w.u4(uint32(c.IntVal))
		case TagFloat:
			w.u4(float32Bits(c.FloatVal))
		case TagLong:
			w.u8(uint64(c.LongVal))
			i++
		case TagDouble:
			w.u8(float64Bits(c.DoubleVal))
			i++
		case TagClass:
			w.u2(c.NameIndex)
		case TagString:
			w.u2(c.StringIndex)
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			w.u2(c.ClassIndex)
			w.u2(c.NameIndex)
		case TagNameAndType:
			w.u2(c.NameIndex)
			w.u2(c.TypeIndex)
		default:
			return fmt.Errorf("classfile: unsupported constant tag %d", c.Tag)
		}
	}
	return nil
}

func float32FromBits(u uint32) float32 {
	return math.Float32frombits(u)
}

func float64FromBits(u uint64) float64 {
	return math.Float64frombits(u)
}

func float32Bits(f float32) uint32 {
	return math.Float32bits(f)
}

func float64Bits(f float64) uint64 {
	return math.Float64bits(f)
}
