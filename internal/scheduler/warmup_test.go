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

package scheduler_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-jumble/gojumble/internal/execution"
	"github.com/go-jumble/gojumble/internal/scheduler"
)

func TestWarmUpMergesTimingsAcrossTestClasses(t *testing.T) {
	byClass := map[string][]string{
		"FooTest": {"WARMUP\ttestA\t30", "DONE"},
		"BarTest": {"WARMUP\ttestB\t5", "DONE"},
	}
	exec := scheduler.NewExecutor(scheduler.Config{WorkerBin: "gojumble-worker"},
		scheduler.WithExecContext(fakeExecCommandByClass(byClass, 0)))

	order, err := exec.WarmUp(context.Background(), []string{"FooTest", "BarTest"}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := order.Names()
	if len(names) != 2 || names[0] != "testB" || names[1] != "testA" {
		t.Errorf("expected testB (faster) before testA, got %v", names)
	}
}

func TestWarmUpReportsBaselineFailure(t *testing.T) {
	byClass := map[string][]string{
		"FooTest": {"FAIL\t0\ttestA"},
	}
	exec := scheduler.NewExecutor(scheduler.Config{WorkerBin: "gojumble-worker"},
		scheduler.WithExecContext(fakeExecCommandByClass(byClass, 0)))

	_, err := exec.WarmUp(context.Background(), []string{"FooTest"}, time.Second)
	var exitErr *execution.ExitError
	if !errors.As(err, &exitErr) || exitErr.Type() != execution.BaselineFailure {
		t.Fatalf("expected a baseline failure exit error, got %v", err)
	}
}

// fakeExecCommandByClass picks which canned lines to emit based on the
// --test-class value in the dispatched args, since a concurrent warm-up
// dispatches one subprocess per class through the same execContext.
func fakeExecCommandByClass(byClass map[string][]string, sleep time.Duration) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		class := ""
		for i, a := range args {
			if a == "--test-class" && i+1 < len(args) {
				class = args[i+1]
				break
			}
		}
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		// #nosec G204 - test-only re-exec of this same binary
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			"GO_TEST_PROCESS=1",
			"GOJUMBLE_TEST_LINES=" + strings.Join(byClass[class], "|"),
			"GOJUMBLE_TEST_SLEEP=" + sleep.String(),
		}
		return cmd
	}
}
