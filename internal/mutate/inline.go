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

// iconstSeries orders the single-opcode small-integer pushes from -1 to
// 5, the range inline-constants perturbs by a step of one opcode in
// either direction.
var iconstSeries = []classfile.Op{
	classfile.OpIconstM1, classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconst2,
	classfile.OpIconst3, classfile.OpIconst4, classfile.OpIconst5,
}

func tryInlineConstants(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool) {
	op := classfile.Op(code.Code[off])
	switch {
	case iconstIndex(op) >= 0:
		return applyIconstShift, true
	case op == classfile.OpBipush:
		return applyBipushShift, true
	case op == classfile.OpSipush:
		return applySipushShift, true
	}
	return nil, false
}

func iconstIndex(op classfile.Op) int {
	for i, c := range iconstSeries {
		if c == op {
			return i
		}
	}
	return -1
}

func applyIconstShift(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
	i := iconstIndex(classfile.Op(buf[off]))
	next := i + 1
	if next >= len(iconstSeries) {
		next = i - 1
	}
	replacement := iconstSeries[next]
	original := classfile.Op(buf[off])
	if err := classfile.ReplaceInstruction(buf, off, []byte{byte(replacement)}); err != nil {
		return "", err
	}
	return fmt.Sprintf("perturbed constant %s to %s", opName(original), opName(replacement)), nil
}

func applyBipushShift(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
	v := int8(buf[off+1])
	nv := v + 1
	if nv == v { // never taken: int8 addition wraps 127 to -128
		nv = v - 1
	}
	if err := classfile.ReplaceInstruction(buf, off, []byte{byte(classfile.OpBipush), byte(nv)}); err != nil {
		return "", err
	}
	return fmt.Sprintf("perturbed bipush %d to %d", v, nv), nil
}

func applySipushShift(pool *classfile.ConstantPool, buf []byte, off int) (string, error) {
	v := int16(uint16(buf[off+1])<<8 | uint16(buf[off+2]))
	nv := v + 1
	if nv == v {
		nv = v - 1
	}
	replacement := []byte{byte(classfile.OpSipush), byte(uint16(nv) >> 8), byte(uint16(nv))}
	if err := classfile.ReplaceInstruction(buf, off, replacement); err != nil {
		return "", err
	}
	return fmt.Sprintf("perturbed sipush %d to %d", v, nv), nil
}
