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

package scheduler

import (
	"fmt"
	"io"
)

// Listener receives the fixed Start/Mutation/Verdict/End event
// vocabulary spec.md §9 calls for, as a reflection-free named registry
// rather than a hardcoded dispatch.
type Listener interface {
	Start(EventStart)
	Mutation(EventMutation)
	Verdict(EventVerdict)
	End(EventEnd)
}

// Factory builds a Listener writing to out.
type Factory func(out io.Writer) Listener

var registry = map[string]Factory{}

func init() {
	Register("default", NewDefaultListener)
	Register("emacs", NewEmacsListener)
}

// Register adds name to the printer-name -> factory registry. Called
// from init in this package for the two built-in printers; a consumer
// embedding gojumble as a library may register its own before calling
// New.
func Register(name string, f Factory) {
	registry[name] = f
}

// NewListener looks up a registered Listener factory by name, the
// --printer flag's value ("default" or "emacs" unless a caller
// registered more).
func NewListener(name string, out io.Writer) (Listener, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("scheduler: unknown printer %q", name)
	}
	return f(out), nil
}
