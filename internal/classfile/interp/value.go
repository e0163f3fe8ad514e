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

// Package interp is a minimal stack-machine interpreter for gojumble's
// class-file bytecode. It exists so internal/testrunner has something to
// actually execute mutated methods against: it covers exactly the
// opcodes the mutation kinds touch (arithmetic, conditionals, increments,
// returns, constant pushes, switches, local stores/loads, static-field
// access) plus the minimum invocation and control-flow opcodes needed to
// run a straight-line test method that calls into the target class. See
// SPEC_FULL.md §9.
package interp

import "fmt"

// Value is the dynamic value an interpreter frame's stack or locals
// slot can hold. Gojumble's bytecode subset only needs int32, int64,
// float32, float64 and object references (including nil), so Value is
// a closed sum over those via a tagged struct rather than interface{},
// to keep zero-value behaviour (an empty local slot is Int(0)) well
// defined.
type Value struct {
	kind Kind
	i    int64
	f    float64
	ref  any
}

// Kind distinguishes the dynamic type carried by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindLong
	KindFloat
	KindDouble
	KindRef
)

func Int(v int32) Value     { return Value{kind: KindInt, i: int64(v)} }
func Long(v int64) Value    { return Value{kind: KindLong, i: v} }
func Float(v float32) Value { return Value{kind: KindFloat, f: float64(v)} }
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }
func Ref(v any) Value       { return Value{kind: KindRef, ref: v} }
func Null() Value           { return Value{kind: KindRef, ref: nil} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) Int() int32 { return int32(v.i) }
func (v Value) Long() int64 { return v.i }
func (v Value) Float() float32 { return float32(v.f) }
func (v Value) Double() float64 { return v.f }
func (v Value) Ref() any   { return v.ref }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("int(%d)", v.Int())
	case KindLong:
		return fmt.Sprintf("long(%d)", v.Long())
	case KindFloat:
		return fmt.Sprintf("float(%v)", v.Float())
	case KindDouble:
		return fmt.Sprintf("double(%v)", v.Double())
	default:
		return fmt.Sprintf("ref(%v)", v.ref)
	}
}
