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
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-jumble/gojumble/internal/execution"
	"github.com/go-jumble/gojumble/internal/timing"
	"github.com/go-jumble/gojumble/internal/worker"
)

// warmUpJob is one test class's worm-up dispatch, the unit of work
// handed to the bounded pool of warmUp below: every test class gets its
// own worker subprocess, and unlike a live mutant run there is no
// first-failure short-circuit between classes, so they can all run at
// once (SPEC_FULL.md §4).
type warmUpJob struct {
	class string
	lines []worker.Line
	err   error
}

// WarmUp runs the warm-up pass for every test class concurrently,
// bounded by runtime.NumCPU(), and merges the resulting per-test
// timings into a single TestOrder. A FAIL line from any class is a
// baseline failure: mutation testing is refused (spec.md's "Baseline
// failure" exit, surfaced here as an *execution.ExitError).
func (e *Executor) WarmUp(ctx context.Context, testClasses []string, budget time.Duration) (*timing.TestOrder, error) {
	jobs := make(chan string)
	results := make(chan warmUpJob, len(testClasses))

	workers := runtime.NumCPU()
	if workers > len(testClasses) {
		workers = len(testClasses)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for class := range jobs {
				lines, err := e.RunWarmUp(ctx, class, budget, nil)
				results <- warmUpJob{class: class, lines: lines, err: err}
			}
		}()
	}

	go func() {
		for _, c := range testClasses {
			jobs <- c
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var timings []timing.TestTiming
	for r := range results {
		for _, l := range r.lines {
			switch l.Tag {
			case worker.TagWarmup:
				timings = append(timings, timing.TestTiming{
					Name:    l.Test,
					Elapsed: time.Duration(l.ElapsedMS) * time.Millisecond,
				})
			case worker.TagFail:
				return nil, execution.NewExitErr(execution.BaselineFailure,
					fmt.Sprintf("warm-up: %s fails against the unmutated target", l.Killer))
			case worker.TagErr:
				return nil, execution.NewExitErr(execution.BaselineFailure,
					fmt.Sprintf("warm-up: %s", l.Description))
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("scheduler: warm-up %s: %w", r.class, r.err)
		}
	}
	return timing.NewTestOrder(timings), nil
}
