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

package mutate_test

import (
	"testing"

	"github.com/go-jumble/gojumble/internal/classfile"
	"github.com/go-jumble/gojumble/internal/classfile/classfiletest"
	"github.com/go-jumble/gojumble/internal/mutate"
)

func TestMutateInlineConstants(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 10})

	enabled := mutate.MapEnabledSet{mutate.InlineConstants: true}
	result, ok, err := mutate.Mutate(raw, 0, enabled, nil)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !ok {
		t.Fatal("expected a mutation point at index 0")
	}

	img, err := classfile.Parse(result.Bytes)
	if err != nil {
		t.Fatalf("Parse mutated bytes: %v", err)
	}
	meth, ok := findMethod(t, img, "value")
	if !ok {
		t.Fatal("mutated class lost its value() method")
	}
	code, err := meth.Code(img.Pool)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code.Code[1] == 10 {
		t.Fatalf("bipush operand unchanged: %v", code.Code)
	}
}

func TestMutateReturnValuesObjectReturn(t *testing.T) {
	t.Parallel()
	raw := classfiletest.BuildObjectReturn(t, classfiletest.ObjectReturn{})

	enabled := mutate.MapEnabledSet{mutate.ReturnValues: true}
	result, ok, err := mutate.Mutate(raw, 0, enabled, nil)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !ok {
		t.Fatal("expected a mutation point at index 0")
	}

	img, err := classfile.Parse(result.Bytes)
	if err != nil {
		t.Fatalf("Parse mutated bytes: %v", err)
	}
	meth, ok := findMethod(t, img, "self")
	if !ok {
		t.Fatal("mutated class lost its self() method")
	}
	code, err := meth.Code(img.Pool)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if classfile.Op(code.Code[0]) != classfile.OpAconstNull {
		t.Fatalf("expected ALOAD_0 replaced with ACONST_NULL, got %#x", code.Code[0])
	}
}

func TestMutateNoSuchPoint(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 10})

	enabled := mutate.MapEnabledSet{mutate.NegateConditional: true}
	_, ok, err := mutate.Mutate(raw, 0, enabled, nil)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if ok {
		t.Fatal("expected no mutation point: fixture has no conditional branch")
	}
}

func TestCountMatchesEnumeration(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 10})

	enabled := mutate.MapEnabledSet{mutate.InlineConstants: true}
	n, err := mutate.Count(raw, enabled, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	_, ok, err := mutate.Mutate(raw, n, enabled, nil)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if ok {
		t.Fatal("index == Count must be past the end of enumeration")
	}
}

func TestExcludedMethodSkipped(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 10})

	enabled := mutate.MapEnabledSet{mutate.InlineConstants: true}
	n, err := mutate.Count(raw, enabled, mutate.ExcludedMethods{"value": true})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("Count = %d, want 0 with method excluded", n)
	}
}

func findMethod(t *testing.T, img *classfile.Image, name string) (*classfile.Method, bool) {
	t.Helper()
	for i := range img.Methods {
		if img.Methods[i].Name(img.Pool) == name {
			return &img.Methods[i], true
		}
	}
	return nil, false
}
