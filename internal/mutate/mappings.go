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

import "github.com/go-jumble/gojumble/internal/classfile"

// applier performs a previously-checked-applicable edit in place on buf
// (a mutable copy of the method's code array) and returns a
// human-readable description of what it did.
type applier func(pool *classfile.ConstantPool, buf []byte, off int) (string, error)

// checker inspects the instruction at off (read-only, against the
// original code attribute) and, if kind applies there, returns the
// applier that will perform the edit.
type checker func(pool *classfile.ConstantPool, code *classfile.CodeAttribute, off int) (applier, bool)

// mutators dispatches each Kind to its applicability check. Keeping
// this as a single table (rather than a type switch scattered through
// mutate.go) is what makes AllKinds' enumeration order and this map's
// keys the one place that has to agree.
var mutators = map[Kind]checker{
	NegateConditional: tryNegateConditional,
	SwapArith:         tryArith,
	Increments:        tryIncrements,
	ReturnValues:      tryReturnValues,
	InlineConstants:   tryInlineConstants,
	ConstantPool:      tryConstantPool,
	Switch:            trySwitch,
	Stores:            tryStores,
}
