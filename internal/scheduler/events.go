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

// Package scheduler implements the Fast Runner: the top-level state
// machine that counts mutation points, warms up test timing, dispatches
// batches of mutants to worker processes, and reports a final score.
// See SPEC_FULL.md §6.F.
package scheduler

import "github.com/go-jumble/gojumble/internal/mutate"

// Outcome is a verdict's effect on the score: whether the mutant was
// detected.
type Outcome int

const (
	Killed Outcome = iota
	Lived
	TimedOut
	Errored
	// Skipped marks a mutation point that was enumerated but never
	// dispatched to a worker, the --dry-run outcome.
	Skipped
)

// String renders an Outcome the way listeners display it.
func (o Outcome) String() string {
	switch o {
	case Killed:
		return "killed"
	case Lived:
		return "survived"
	case TimedOut:
		return "timeout"
	case Errored:
		return "error"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// EventStart opens a run against one target.
type EventStart struct {
	Target string
	Total  int
}

// EventMutation announces one mutation point before its verdict is
// known — emitted before the corresponding EventVerdict, per spec.md
// §5's ordering guarantee.
type EventMutation struct {
	Index       int
	Method      string
	Line        int
	Description string
	Kind        mutate.Kind
}

// EventVerdict reports one mutation point's outcome.
type EventVerdict struct {
	Index   int
	Outcome Outcome
	Killer  string
	Detail  string
}

// EventEnd closes a run with the final tally.
type EventEnd struct {
	Score Score
}

// Score tallies verdicts for a completed (or dry) run.
type Score struct {
	Total    int
	Killed   int
	Lived    int
	TimedOut int
	Errored  int
	Skipped  int
}

// Detected is mutants the test suite is credited with catching:
// killed plus timed-out (spec.md invariant 7, "timeout = killed").
func (s Score) Detected() int {
	return s.Killed + s.TimedOut
}

// Percent is the mutation score as a percentage of Total, or 100 when
// there are no mutation points at all (spec.md scenario 4).
func (s Score) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Detected()) / float64(s.Total) * 100
}
