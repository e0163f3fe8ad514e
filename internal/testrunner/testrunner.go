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

// Package testrunner is the façade a worker uses to run a test class's
// methods against a (possibly mutated) target class already resolvable
// through an internal/classloader.Loader. See SPEC_FULL.md §6.D.
package testrunner

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-jumble/gojumble/internal/classfile"
	"github.com/go-jumble/gojumble/internal/classfile/interp"
)

// testMethodPrefix is the standard test-framework naming convention
// gojumble's enumeration recognises: a public, void, no-argument method
// named test* is a test case.
const testMethodPrefix = "test"

// Runner runs one test class's methods to completion, each under its
// own budget, against classes resolved through resolver.
type Runner struct {
	resolver          interp.Resolver
	assertionsEnabled bool
}

// New builds a Runner. resolver is typically an
// *internal/classloader.Loader scoped to one worker invocation.
func New(resolver interp.Resolver, assertionsEnabled bool) *Runner {
	return &Runner{resolver: resolver, assertionsEnabled: assertionsEnabled}
}

// Run executes every test method of testClass, each under its own
// budget from budgets (falling back to defaultBudget for any test name
// budgets doesn't mention, which only happens during warm-up).
func (r *Runner) Run(testClass string, budgets map[string]time.Duration, defaultBudget time.Duration) ([]TestResult, error) {
	b, err := r.resolver.Resolve(testClass)
	if err != nil {
		return nil, fmt.Errorf("testrunner: resolving %s: %w", testClass, err)
	}
	img, err := classfile.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("testrunner: parsing %s: %w", testClass, err)
	}

	var results []TestResult
	for i := range img.Methods {
		m := &img.Methods[i]
		name := m.Name(img.Pool)
		if !isTestMethod(m, img.Pool) {
			continue
		}
		budget := defaultBudget
		if d, ok := budgets[name]; ok {
			budget = d
		}
		results = append(results, r.runOne(testClass, name, budget))
	}
	return results, nil
}

// Names lists the test* methods of testClass without running any of
// them. The warm-up pass uses this before a TestOrder exists yet: it
// needs to know what to time before it has anything to order.
func (r *Runner) Names(testClass string) ([]string, error) {
	b, err := r.resolver.Resolve(testClass)
	if err != nil {
		return nil, fmt.Errorf("testrunner: resolving %s: %w", testClass, err)
	}
	img, err := classfile.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("testrunner: parsing %s: %w", testClass, err)
	}
	var names []string
	for i := range img.Methods {
		m := &img.Methods[i]
		if isTestMethod(m, img.Pool) {
			names = append(names, m.Name(img.Pool))
		}
	}
	return names, nil
}

func isTestMethod(m *classfile.Method, pool *classfile.ConstantPool) bool {
	name := m.Name(pool)
	if !strings.HasPrefix(name, testMethodPrefix) {
		return false
	}
	if m.Descriptor(pool) != "()V" {
		return false
	}
	return m.AccessFlags&classfile.AccPublic != 0
}

// RunSingle runs one named test method of testClass under budget. The
// scheduler's first-failure-kills-the-mutant policy needs to stop after
// the first FAIL rather than always running a whole class, which Run
// doesn't support; RunSingle is what internal/worker drives test order
// through instead.
func (r *Runner) RunSingle(testClass, name string, budget time.Duration) TestResult {
	return r.runOne(testClass, name, budget)
}

// runOne runs a single test method under budget, converting a panic
// from the interpreter into an Err verdict rather than letting it
// escape to the worker process. An *interp.AssertionError is the one
// error runOne treats as a Fail: it's the test deliberately reporting a
// wrong value, which is what mutation testing is trying to provoke.
// Any other error (an unresolved class, a malformed method, an
// interpreter fault) is a worker-local exception per spec.md §7: it
// means the harness couldn't run the test at all, not that the test
// ran and passed judgment on the mutant.
func (r *Runner) runOne(testClass, name string, budget time.Duration) TestResult {
	machine := interp.NewMachineWithResolver(r.resolver, r.assertionsEnabled)

	type outcome struct {
		res TestResult
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		res := TestResult{Name: name, Verdict: Pass}
		defer func() {
			if rec := recover(); rec != nil {
				res.Verdict = Err
				res.Message = fmt.Sprintf("panic: %v", rec)
			}
			res.Elapsed = time.Since(start)
			done <- outcome{res: res}
		}()

		_, err := machine.Invoke(testClass, name, "()V", nil)
		if err != nil {
			if ae, ok := err.(*interp.AssertionError); ok {
				res.Verdict = Fail
				res.Message = ae.Message
				return
			}
			res.Verdict = Err
			res.Message = err.Error()
		}
	}()

	select {
	case o := <-done:
		return o.res
	case <-time.After(budget):
		// The goroutine above is abandoned; gojumble's interpreter has
		// no cooperative cancellation point, so a timed-out test leaks
		// its goroutine until the interpreter itself returns (or never
		// does, for a genuine infinite loop). The worker process is
		// killed by the scheduler's SIGTERM/SIGKILL teardown in that
		// case, which reclaims it.
		return TestResult{Name: name, Verdict: Timeout}
	}
}
