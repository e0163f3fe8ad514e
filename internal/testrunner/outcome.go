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

package testrunner

import "time"

// Verdict is the result of running one test method.
type Verdict int

const (
	Pass Verdict = iota
	Fail
	Timeout
	// Err marks a worker-local exception: the interpreter couldn't
	// execute the test at all (an unresolved class, a malformed
	// invocation target, and the like), as opposed to Fail, which
	// means the test ran and its own assertion caught the mutant.
	// spec.md §7 calls these out as a case that must not be confused
	// with an ordinary assertion failure, since it says nothing about
	// whether the mutant is actually detectable.
	Err
)

// String renders a Verdict the way it appears on the worker protocol's
// stdout line (SPEC_FULL.md §6.G).
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Timeout:
		return "TIMEOUT"
	default:
		return "ERR"
	}
}

// TestResult is one test method's outcome and timing. Elapsed is
// unset (zero) for a Timeout verdict, since the goroutine running it
// is abandoned rather than waited on (internal/testrunner.Runner's
// runOne doc comment explains why).
type TestResult struct {
	Name    string
	Verdict Verdict
	Message string
	Elapsed time.Duration
}
