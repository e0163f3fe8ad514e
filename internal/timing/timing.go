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

// Package timing turns a warm-up pass's raw per-test durations into the
// TestOrder the scheduler runs real mutants against: fastest test
// first, with a per-mutation-point memory of whichever test last killed
// a mutant there. See SPEC_FULL.md §6.E.
package timing

import (
	"sort"
	"sync"
	"time"
)

// budgetMultiplier and budgetFixed implement B_i = 10*t_i + 2s.
const (
	budgetMultiplier = 10
	budgetFixed      = 2 * time.Second
)

// TestTiming is one test's measured warm-up time and derived budget.
type TestTiming struct {
	Name    string
	Elapsed time.Duration
	Budget  time.Duration
}

// Budget computes a per-test timeout from its warm-up elapsed time.
func Budget(elapsed time.Duration) time.Duration {
	return budgetMultiplier*elapsed + budgetFixed
}

// TestOrder is the ascending-by-warm-up-time sequence of tests a
// mutant run tries, plus the per-mutation-point "last killer" memory
// that lets the scheduler try a known-good killer first.
type TestOrder struct {
	mu       sync.RWMutex
	tests    []TestTiming
	lastKill map[string]string // mutation point key -> test name
}

// NewTestOrder builds a TestOrder from warm-up measurements, sorted
// ascending by elapsed time. Ties keep the warm-up pass's original
// relative order (sort.SliceStable), so ordering is deterministic
// across repeated runs against the same warm-up measurements.
func NewTestOrder(timings []TestTiming) *TestOrder {
	ordered := make([]TestTiming, len(timings))
	for i, t := range timings {
		t.Budget = Budget(t.Elapsed)
		ordered[i] = t
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Elapsed < ordered[j].Elapsed
	})
	return &TestOrder{tests: ordered, lastKill: make(map[string]string)}
}

// Tests returns the run order for a mutant at pointKey: the last known
// killer of that point first (if any and if it's still in the set),
// then every other test in warm-up-ascending order.
func (o *TestOrder) Tests(pointKey string) []TestTiming {
	o.mu.RLock()
	killer, hasKiller := o.lastKill[pointKey]
	o.mu.RUnlock()

	if !hasKiller {
		out := make([]TestTiming, len(o.tests))
		copy(out, o.tests)
		return out
	}

	out := make([]TestTiming, 0, len(o.tests))
	var rest []TestTiming
	for _, t := range o.tests {
		if t.Name == killer {
			out = append(out, t)
		} else {
			rest = append(rest, t)
		}
	}
	return append(out, rest...)
}

// RecordKill remembers which test killed the mutant at pointKey, so the
// next mutant at the same point tries it first.
func (o *TestOrder) RecordKill(pointKey, testName string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastKill[pointKey] = testName
}

// TotalBudget sums the per-test budgets and applies the overall
// per-mutant multiplier (SPEC_FULL.md §6.E: "per-mutant budget =
// sum(per-test budgets) * 1.5").
func (o *TestOrder) TotalBudget() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var sum time.Duration
	for _, t := range o.tests {
		sum += t.Budget
	}
	return time.Duration(float64(sum) * 1.5)
}

// Names returns every test name in warm-up order, primarily for logging
// and the baseline-run listener.
func (o *TestOrder) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, len(o.tests))
	for i, t := range o.tests {
		names[i] = t.Name
	}
	return names
}

// Snapshot is a TestOrder's state in a form plain enough to serialise,
// the shape the scheduler hands to a worker process on disk instead of
// sharing a *TestOrder in-process (SPEC_FULL.md §6.G).
type Snapshot struct {
	Tests    []TestTiming      `json:"tests"`
	LastKill map[string]string `json:"last_kill"`
}

// Snapshot copies out a TestOrder's current state.
func (o *TestOrder) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	tests := make([]TestTiming, len(o.tests))
	copy(tests, o.tests)
	lastKill := make(map[string]string, len(o.lastKill))
	for k, v := range o.lastKill {
		lastKill[k] = v
	}
	return Snapshot{Tests: tests, LastKill: lastKill}
}

// Restore rebuilds a TestOrder from a prior Snapshot.
func Restore(s Snapshot) *TestOrder {
	tests := make([]TestTiming, len(s.Tests))
	copy(tests, s.Tests)
	lastKill := s.LastKill
	if lastKill == nil {
		lastKill = make(map[string]string)
	}
	return &TestOrder{tests: tests, lastKill: lastKill}
}
