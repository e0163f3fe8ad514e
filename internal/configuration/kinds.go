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

package configuration

import "github.com/go-jumble/gojumble/internal/mutate"

// defaultEnabled mirrors spec.md §6: negate-conditional and swap-arith are
// always on; everything else defaults off and must be opted into via a
// flag or config key.
var defaultEnabled = map[mutate.Kind]bool{
	mutate.NegateConditional: true,
	mutate.SwapArith:         true,
	mutate.Increments:        false,
	mutate.ReturnValues:      false,
	mutate.InlineConstants:   false,
	mutate.ConstantPool:      false,
	mutate.Switch:            false,
	mutate.Stores:            false,
}

// IsDefaultEnabled reports whether a mutate.Kind is on by default.
func IsDefaultEnabled(k mutate.Kind) bool {
	return defaultEnabled[k]
}

// KindEnabledKey returns the configuration key under which a kind's
// enabled state is stored, e.g. "mutants.return-values.enabled".
func KindEnabledKey(k mutate.Kind) string {
	return "mutants." + k.Flag() + ".enabled"
}
