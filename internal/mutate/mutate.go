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

// Package mutate implements gojumble's Mutater: given a class's bytes
// and an ordinal mutation index, it enumerates mutatable instructions
// deterministically and, on a match, produces the mutated bytes plus a
// human-readable description. See SPEC_FULL.md §6.B.
package mutate

import (
	"fmt"

	"github.com/go-jumble/gojumble/internal/classfile"
)

// Kind identifies one of the eight mutation kinds gojumble implements.
// The set is closed: adding a new kind means adding a case everywhere
// a Kind is switched on, not just registering a new value.
type Kind int

const (
	NegateConditional Kind = iota
	SwapArith
	Increments
	ReturnValues
	InlineConstants
	ConstantPool
	Switch
	Stores
)

// AllKinds lists every Kind in enumeration tie-break order: at a single
// bytecode offset where more than one kind could apply, kinds are
// considered in this order (SPEC_FULL.md §5, "MutationPoint").
var AllKinds = []Kind{
	NegateConditional, SwapArith, Increments, ReturnValues,
	InlineConstants, ConstantPool, Switch, Stores,
}

// String renders a Kind's canonical display name.
func (k Kind) String() string {
	switch k {
	case NegateConditional:
		return "negate-conditional"
	case SwapArith:
		return "swap-arith"
	case Increments:
		return "increments"
	case ReturnValues:
		return "return-values"
	case InlineConstants:
		return "inline-constants"
	case ConstantPool:
		return "constant-pool"
	case Switch:
		return "switch"
	case Stores:
		return "stores"
	default:
		return fmt.Sprintf("mutate.Kind(%d)", int(k))
	}
}

// Flag renders the lowercase-hyphenated form of a Kind used as a
// configuration key suffix and CLI flag name. It is currently identical
// to String, kept distinct because the two render different things
// conceptually (a log-friendly label vs. a config/flag identifier) and
// have diverged for other Kind-shaped types in sibling packages.
func (k Kind) Flag() string {
	return k.String()
}

// ParseKind looks up a Kind by its Flag name, the inverse of Kind.Flag,
// for CLI and worker-protocol decoding.
func ParseKind(flag string) (Kind, bool) {
	for _, k := range AllKinds {
		if k.Flag() == flag {
			return k, true
		}
	}
	return 0, false
}

// Point is one enumerated mutation point: an address plus which kind
// would apply there. Point identifiers are stable across runs provided
// the class bytes are unchanged, which is what makes --first-mutation
// restarts meaningful.
type Point struct {
	MethodIndex   int
	BytecodeOffset int
	Kind          Kind
}

// Result is what a successful mutation produces.
type Result struct {
	Bytes       []byte
	Description string
	Line        int
	Method      string
	Kind        Kind
}

// EnabledSet reports, for a given Kind, whether it participates in
// enumeration. internal/configuration supplies the concrete
// implementation backed by per-kind config keys; tests use a plain
// map.
type EnabledSet interface {
	Enabled(k Kind) bool
}

// MapEnabledSet is the trivial EnabledSet backed by a map, used in
// tests and anywhere a fixed kind set is known ahead of time.
type MapEnabledSet map[Kind]bool

func (m MapEnabledSet) Enabled(k Kind) bool { return m[k] }

// ExcludedMethods names methods (by bare method name, without class or
// descriptor) that enumeration must skip entirely, e.g. because they
// were excluded by --exclude. Synthetic methods are skipped separately
// and need no entry here.
type ExcludedMethods map[string]bool

// DefaultExcluded is the exclusion set applied unless the caller
// replaces it entirely: the program-entry method and any method named
// integrity, per SPEC_FULL.md §5 (a hand-rolled entry point or
// self-check is never a meaningful mutation target). Callers adding
// --exclude names should start from this map rather than an empty one.
func DefaultExcluded() ExcludedMethods {
	return ExcludedMethods{"main": true, "integrity": true}
}

// Mutate walks the class in classBytes looking for the index'th
// mutatable instruction among kinds enabled by enabled, skipping
// methods named in excluded or flagged synthetic. It returns (nil,
// false, nil) once enumeration runs past the end of the class without
// reaching index — "no such point", not an error. A non-nil error means
// the class bytes themselves could not be parsed.
func Mutate(classBytes []byte, index int, enabled EnabledSet, excluded ExcludedMethods) (*Result, bool, error) {
	img, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, false, fmt.Errorf("mutate: %w", err)
	}

	ordinal := 0
	for mi := range img.Methods {
		m := &img.Methods[mi]
		name := m.Name(img.Pool)
		if excluded[name] || m.IsSynthetic(img.Pool) {
			continue
		}
		code, err := m.Code(img.Pool)
		if err != nil {
			return nil, false, fmt.Errorf("mutate: method %s: %w", name, err)
		}
		if code == nil {
			continue
		}

		guarded, err := assertionGuardedRanges(img.Pool, code)
		if err != nil {
			return nil, false, fmt.Errorf("mutate: method %s: %w", name, err)
		}

		offsets, err := classfile.ValidOffsets(code.Code)
		if err != nil {
			return nil, false, fmt.Errorf("mutate: method %s: %w", name, err)
		}

		for _, off := range offsets {
			if withinAny(guarded, off) {
				continue
			}
			for _, k := range AllKinds {
				if !enabled.Enabled(k) {
					continue
				}
				applier, ok := mutators[k](img.Pool, code, off)
				if !ok {
					continue
				}
				if ordinal == index {
					return apply(img, mi, m, code, off, k, applier)
				}
				ordinal++
			}
		}
	}
	return nil, false, nil
}

// Count enumerates every mutation point in classBytes without applying
// any of them, for the scheduler's Counting state.
func Count(classBytes []byte, enabled EnabledSet, excluded ExcludedMethods) (int, error) {
	img, err := classfile.Parse(classBytes)
	if err != nil {
		return 0, fmt.Errorf("mutate: %w", err)
	}
	n := 0
	for mi := range img.Methods {
		m := &img.Methods[mi]
		name := m.Name(img.Pool)
		if excluded[name] || m.IsSynthetic(img.Pool) {
			continue
		}
		code, err := m.Code(img.Pool)
		if err != nil {
			return 0, fmt.Errorf("mutate: method %s: %w", name, err)
		}
		if code == nil {
			continue
		}
		guarded, err := assertionGuardedRanges(img.Pool, code)
		if err != nil {
			return 0, fmt.Errorf("mutate: method %s: %w", name, err)
		}
		offsets, err := classfile.ValidOffsets(code.Code)
		if err != nil {
			return 0, fmt.Errorf("mutate: method %s: %w", name, err)
		}
		for _, off := range offsets {
			if withinAny(guarded, off) {
				continue
			}
			for _, k := range AllKinds {
				if enabled.Enabled(k) {
					if _, ok := mutators[k](img.Pool, code, off); ok {
						n++
					}
				}
			}
		}
	}
	return n, nil
}

// apply clones the image's method code, performs the edit, and
// re-emits the whole class.
func apply(img *classfile.Image, methodIdx int, m *classfile.Method, code *classfile.CodeAttribute, off int, k Kind, ap applier) (*Result, bool, error) {
	newCode := append([]byte(nil), code.Code...)
	desc, err := ap(img.Pool, newCode, off)
	if err != nil {
		return nil, false, fmt.Errorf("mutate: %w", err)
	}

	edited := &classfile.CodeAttribute{
		MaxStack:  code.MaxStack,
		MaxLocals: code.MaxLocals,
		Code:      newCode,
		Tail:      code.Tail,
	}
	if err := m.ReplaceCode(img.Pool, edited); err != nil {
		return nil, false, fmt.Errorf("mutate: %w", err)
	}

	out, err := classfile.Emit(img)
	if err != nil {
		return nil, false, fmt.Errorf("mutate: %w", err)
	}

	line := 0
	if table, err := code.LineNumberTable(img.Pool); err == nil {
		line = classfile.LineFor(table, off)
	}

	return &Result{
		Bytes:       out,
		Description: desc,
		Line:        line,
		Method:      m.Name(img.Pool),
		Kind:        k,
	}, true, nil
}

func withinAny(ranges []byteRange, off int) bool {
	for _, r := range ranges {
		if off >= r.start && off < r.end {
			return true
		}
	}
	return false
}
