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

package worker

import (
	"fmt"
	"io"
	"time"

	"github.com/go-jumble/gojumble/internal/classloader"
	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/testrunner"
	"github.com/go-jumble/gojumble/internal/timing"
)

// BatchConfig describes one contiguous run of mutation indices against
// one target class, everything a worker process needs to know to
// mutate, load, and test without talking back to the scheduler except
// through stdout.
type BatchConfig struct {
	TargetClass      string
	TargetBytes      []byte
	Classpath        classloader.Classpath
	DeferredPrefixes []string
	PlatformClasses  []string
	TestClasses      []string
	Enabled          mutate.EnabledSet
	Excluded         mutate.ExcludedMethods
	Order            *timing.TestOrder
	DefaultBudget    time.Duration
	AssertionsEnabled bool
}

// RunBatch mutates and tests every index in [start, end], writing one
// protocol line per index to out as soon as its verdict is known
// (SPEC_FULL.md §6.G: the parent reads this stream incrementally, not
// batched at the end). It stops early, before reaching end, the moment
// Mutate reports "no such point" — the batch (and every later index the
// scheduler might have dispatched in the same run) is past the end of
// enumeration. A failure to produce the mutant itself, or a worker-local
// exception while testing it, is reported as an ERR line for that index
// only, per spec.md §7's propagation policy ("worker-local exceptions
// are caught, converted to ERR verdicts, and do not terminate the
// batch"); the batch continues with the next index either way.
func RunBatch(cfg BatchConfig, start, end int, out io.Writer) error {
	for idx := start; idx <= end; idx++ {
		result, ok, err := mutate.Mutate(cfg.TargetBytes, idx, cfg.Enabled, cfg.Excluded)
		if err != nil {
			writeLine(out, Line{Tag: TagErr, Index: idx, Description: err.Error()})
			continue
		}
		if !ok {
			writeLine(out, Line{Tag: TagNoSuchPoint, Index: idx})
			return nil
		}

		verdict, detail := runMutant(cfg, result, idx)
		switch verdict {
		case testrunner.Fail:
			writeLine(out, Line{Tag: TagFail, Index: idx, Killer: detail})
		case testrunner.Timeout:
			writeLine(out, Line{Tag: TagTimeout, Index: idx})
		case testrunner.Err:
			writeLine(out, Line{Tag: TagErr, Index: idx, Description: detail})
		default:
			writeLine(out, Line{Tag: TagPass, Index: idx})
		}
	}
	writeLine(out, Line{Tag: TagDone})
	return nil
}

// RunWarmUp runs every test* method of testClass against the
// unmutated target and writes one WARMUP line per test with its
// elapsed time, followed by DONE. This is the "mutation-index = -1"
// invocation spec.md §4.F describes; the scheduler launches one of
// these per test class, concurrently, since warm-up has no
// first-failure short-circuit to serialise on (SPEC_FULL.md §4).
func RunWarmUp(cfg BatchConfig, testClass string, out io.Writer) error {
	shared := classloader.NewShared(cfg.Classpath, cfg.DeferredPrefixes, cfg.PlatformClasses)
	loader := classloader.New(cfg.TargetClass, cfg.TargetBytes, shared)
	runner := testrunner.New(loader, cfg.AssertionsEnabled)

	results, err := runner.Run(testClass, nil, cfg.DefaultBudget)
	if err != nil {
		return fmt.Errorf("worker: warm-up %s: %w", testClass, err)
	}
	for _, res := range results {
		switch res.Verdict {
		case testrunner.Pass:
			writeLine(out, Line{Tag: TagWarmup, Test: res.Name, ElapsedMS: res.Elapsed.Milliseconds()})
		case testrunner.Err:
			// A harness-local exception during warm-up is still a
			// baseline failure: the test never produced a verdict the
			// scheduler can trust, so spec.md §7's "warm-up fails"
			// exit applies just as much as an assertion failure would.
			// Index is meaningless during warm-up; -1 marks that.
			writeLine(out, Line{Tag: TagErr, Index: -1, Description: fmt.Sprintf("%s: %s", res.Name, res.Message)})
		default:
			// Index is meaningless here (warm-up has no mutation index);
			// the scheduler's warm-up reader treats any FAIL line as a
			// baseline failure naming the test in Killer, regardless of
			// Index.
			writeLine(out, Line{Tag: TagFail, Killer: res.Name})
		}
	}
	writeLine(out, Line{Tag: TagDone})
	return nil
}

// runMutant loads the mutated class, runs test classes in
// killer-first/warm-up order, and stops at the first failing test
// (spec.md's "first failure kills the mutant" policy). TestOrder
// ranks tests by name across every test class dispatched for the
// target, so test method names are assumed unique across those
// classes; the common one-test-class-per-target case always satisfies
// that. A testrunner.Err verdict short-circuits the same way a Fail
// does, but carries a reason string instead of a killer name: the
// harness couldn't execute the test at all, so no later test class in
// cfg.TestClasses gets a chance either.
func runMutant(cfg BatchConfig, result *mutate.Result, idx int) (testrunner.Verdict, string) {
	shared := classloader.NewShared(cfg.Classpath, cfg.DeferredPrefixes, cfg.PlatformClasses)
	loader := classloader.New(cfg.TargetClass, result.Bytes, shared)
	runner := testrunner.New(loader, cfg.AssertionsEnabled)

	pointKey := fmt.Sprintf("%s:%d", result.Method, idx)
	budgets := map[string]time.Duration{}
	var order []timing.TestTiming
	if cfg.Order != nil {
		order = cfg.Order.Tests(pointKey)
		for _, t := range order {
			budgets[t.Name] = t.Budget
		}
	}

	for _, testClass := range cfg.TestClasses {
		names := testNamesFor(runner, testClass, order)
		for _, name := range names {
			budget := cfg.DefaultBudget
			if d, ok := budgets[name]; ok {
				budget = d
			}
			res := runner.RunSingle(testClass, name, budget)
			switch res.Verdict {
			case testrunner.Fail:
				if cfg.Order != nil {
					cfg.Order.RecordKill(pointKey, name)
				}
				return testrunner.Fail, name
			case testrunner.Timeout:
				return testrunner.Timeout, name
			case testrunner.Err:
				return testrunner.Err, fmt.Sprintf("%s: %s", name, res.Message)
			}
		}
	}
	return testrunner.Pass, ""
}

// testNamesFor returns the test names to try for testClass: the
// pre-computed order if one was supplied (warm-up already ran), or
// every test* method discovered fresh otherwise (the batch was started
// without an order, e.g. no --order-file).
func testNamesFor(runner *testrunner.Runner, testClass string, order []timing.TestTiming) []string {
	if len(order) > 0 {
		names := make([]string, len(order))
		for i, t := range order {
			names[i] = t.Name
		}
		return names
	}
	names, err := runner.Names(testClass)
	if err != nil {
		return nil
	}
	return names
}

func writeLine(out io.Writer, l Line) {
	fmt.Fprintln(out, EncodeLine(l))
}
