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

package interp_test

import (
	"testing"

	"github.com/go-jumble/gojumble/internal/classfile"
	"github.com/go-jumble/gojumble/internal/classfile/classfiletest"
	"github.com/go-jumble/gojumble/internal/classfile/interp"
)

func TestInvokeSimpleReturn(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 7})
	img, err := classfile.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := interp.NewMachine([]*classfile.Image{img}, true)
	result, err := m.Invoke("Sample", "value", "()I", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := result.Int(); got != 7 {
		t.Fatalf("Invoke returned %d, want 7", got)
	}
}

func TestInvokeUnknownMethod(t *testing.T) {
	t.Parallel()
	raw := classfiletest.Build(t, classfiletest.SimpleReturn{Value: 1})
	img, err := classfile.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := interp.NewMachine([]*classfile.Image{img}, true)
	if _, err := m.Invoke("Sample", "missing", "()I", nil); err == nil {
		t.Fatal("expected an error invoking a nonexistent method")
	}
}
