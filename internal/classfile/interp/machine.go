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

// AssertionError is returned by Invoke when an executed test frame
// throws (athrow) with no handler in scope. testrunner turns this into
// a Fail outcome.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

// Resolver loads a class's bytes by name, deferring to whatever
// resolution policy the caller needs (internal/classloader's
// target/deferred/fresh three-tier policy, typically).
type Resolver interface {
	Resolve(name string) ([]byte, error)
}

// Machine holds every class image reachable from a test run and the one
// piece of mutable static state gojumble's bytecode subset needs: the
// assertions-enabled flag that guarded assertions (spec.md's
// assertion-guard skip) check via getstatic. Classes are parsed lazily
// on first reference and cached for the lifetime of the Machine, which
// callers should scope to one worker invocation, matching the
// classloader's own per-invocation lifetime.
type Machine struct {
	resolver          Resolver
	classes           map[string]*classfile.Image
	assertionsEnabled bool
}

// NewMachine builds a Machine over a fixed, already-parsed set of
// classes, indexed by the name classfile.Image.ThisClassName reports
// for each. Useful when the full class set is known upfront (tests,
// small fixtures); NewMachineWithResolver is what internal/testrunner
// uses for real runs, where classes are discovered on demand through
// the classloader.
func NewMachine(images []*classfile.Image, assertionsEnabled bool) *Machine {
	m := &Machine{
		classes:           make(map[string]*classfile.Image, len(images)),
		assertionsEnabled: assertionsEnabled,
	}
	for _, img := range images {
		m.classes[img.ThisClassName()] = img
	}
	return m
}

// NewMachineWithResolver builds a Machine that loads classes on demand
// through resolver, parsing and caching each one the first time it's
// referenced by name.
func NewMachineWithResolver(resolver Resolver, assertionsEnabled bool) *Machine {
	return &Machine{
		resolver:          resolver,
		classes:           make(map[string]*classfile.Image),
		assertionsEnabled: assertionsEnabled,
	}
}

func (m *Machine) classImage(class string) (*classfile.Image, error) {
	if img, ok := m.classes[class]; ok {
		return img, nil
	}
	if m.resolver == nil {
		return nil, fmt.Errorf("interp: unknown class %q", class)
	}
	b, err := m.resolver.Resolve(class)
	if err != nil {
		return nil, fmt.Errorf("interp: resolving %q: %w", class, err)
	}
	img, err := classfile.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("interp: parsing %q: %w", class, err)
	}
	m.classes[class] = img
	return img, nil
}

// Invoke runs the named static method to completion and returns its
// result, or an error (compile-shape failure, not a test failure) if
// the method or class cannot be found or the bytecode is malformed.
// Runtime test failures surface as *AssertionError, which callers
// should treat specially.
func (m *Machine) Invoke(class, name, descriptor string, args []Value) (Value, error) {
	img, err := m.classImage(class)
	if err != nil {
		return Value{}, err
	}
	meth, ok := findMethod(img, name, descriptor)
	if !ok {
		return Value{}, fmt.Errorf("interp: class %q has no method %s%s", class, name, descriptor)
	}
	code, err := meth.Code(img.Pool)
	if err != nil {
		return Value{}, err
	}
	if code == nil {
		return Value{}, fmt.Errorf("interp: method %s%s has no Code", name, descriptor)
	}
	f := newFrame(img, code, args)
	return m.run(f)
}

func findMethod(img *classfile.Image, name, descriptor string) (*classfile.Method, bool) {
	for i := range img.Methods {
		meth := &img.Methods[i]
		if meth.Name(img.Pool) == name && meth.Descriptor(img.Pool) == descriptor {
			return meth, true
		}
	}
	return nil, false
}
