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

// EmacsListener prints one compile-mode-style line
// ("file:line: message") per surviving or errored mutant, so Emacs'
// next-error machinery can step through them, and nothing at all for
// killed/timed-out mutants (--emacs, spec.md §6).
type EmacsListener struct {
	out    io.Writer
	target string
	lines  map[int]int // index -> source line, filled in by Mutation
}

// NewEmacsListener builds the emacs-format printer, registered under
// the name "emacs".
func NewEmacsListener(out io.Writer) Listener {
	return &EmacsListener{out: out, lines: make(map[int]int)}
}

func (l *EmacsListener) Start(e EventStart) {
	l.target = e.Target
}

func (l *EmacsListener) Mutation(e EventMutation) {
	l.lines[e.Index] = e.Line
}

func (l *EmacsListener) Verdict(e EventVerdict) {
	switch e.Outcome {
	case Lived:
		fmt.Fprintf(l.out, "%s:%d: mutant %d survived\n", l.target, l.lines[e.Index], e.Index)
	case Errored:
		fmt.Fprintf(l.out, "%s:%d: mutant %d error: %s\n", l.target, l.lines[e.Index], e.Index, e.Detail)
	}
}

func (l *EmacsListener) End(e EventEnd) {
	fmt.Fprintf(l.out, "%s: mutation score %.2f%% (%d/%d)\n", l.target, e.Score.Percent(), e.Score.Detected(), e.Score.Total)
}
