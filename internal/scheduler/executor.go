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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/worker"
)

// TerminationGrace is how long a worker is given to exit after
// terminateProcessGroup before killProcessGroup is used instead
// (spec.md §5: "SIGTERM then SIGKILL after 2s grace").
const TerminationGrace = 2 * time.Second

// ErrBatchTimedOut is returned by Executor.RunBatch and Executor.RunWarmUp
// when the per-batch budget elapses before the worker sends DONE. The
// caller (scheduler.go) turns the index the worker was stuck on into a
// Timeout verdict.
var ErrBatchTimedOut = errors.New("scheduler: worker exceeded its time budget")

// execContext is the injection point for exec.CommandContext, overridden
// in tests with a stub that re-execs the test binary itself.
type execContext = func(ctx context.Context, name string, args ...string) *exec.Cmd

// Config is everything an Executor needs to build a gojumble-worker
// command line, independent of any one batch.
type Config struct {
	WorkerBin         string
	TargetClass       string
	Classpath         string
	DeferredPrefixes  []string
	PlatformClasses   []string
	TestClasses       []string
	EnabledKinds      []mutate.Kind
	Excluded          []string
	OrderFile         string
	DefaultBudget     time.Duration
	AssertionsEnabled bool
}

// BatchSpec is one contiguous run of mutation indices dispatched to a
// single worker subprocess.
type BatchSpec struct {
	Start, End int
}

// Executor dispatches gojumble-worker subprocesses and streams their
// protocol lines back to a caller, replacing the "go test" invocation a
// mutation tester for a compiled-from-source language would use with
// invocation of the class-file interpreter worker (SPEC_FULL.md §4).
type Executor struct {
	cfg         Config
	execContext execContext
}

// ExecutorOption configures an Executor at construction time.
type ExecutorOption func(*Executor)

// WithExecContext overrides the default exec.CommandContext, letting
// tests stub out process creation entirely.
func WithExecContext(c execContext) ExecutorOption {
	return func(e *Executor) { e.execContext = c }
}

// NewExecutor builds an Executor dispatching against cfg.
func NewExecutor(cfg Config, opts ...ExecutorOption) *Executor {
	e := &Executor{cfg: cfg, execContext: exec.CommandContext}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// commonArgs renders the parts of the command line shared by every
// invocation of this Executor's worker, appending extra for the
// invocation-specific flags (--start/--end or --warmup/--test-class).
func (e *Executor) commonArgs(extra ...string) []string {
	args := []string{
		"--target", e.cfg.TargetClass,
		"--classpath", e.cfg.Classpath,
	}
	for _, p := range e.cfg.DeferredPrefixes {
		args = append(args, "--defer-class", p)
	}
	for _, p := range e.cfg.PlatformClasses {
		args = append(args, "--platform-class", p)
	}
	for _, k := range e.cfg.EnabledKinds {
		args = append(args, "--kind", k.Flag())
	}
	for _, m := range e.cfg.Excluded {
		args = append(args, "--exclude", m)
	}
	if e.cfg.OrderFile != "" {
		args = append(args, "--order-file", e.cfg.OrderFile)
	}
	args = append(args, "--default-budget", e.cfg.DefaultBudget.String())
	args = append(args, "--assertions-enabled", strconv.FormatBool(e.cfg.AssertionsEnabled))
	return append(args, extra...)
}

// RunBatch dispatches one worker subprocess for the indices in spec,
// applying all configured test classes, and invokes onLine for each
// verdict line as it arrives off the worker's stdout. budget bounds the
// whole batch; the worker is torn down (SIGTERM, then SIGKILL after
// TerminationGrace) if it's still running when budget elapses, and
// RunBatch returns ErrBatchTimedOut. lines holds every verdict line
// successfully parsed before that point, regardless of outcome, so a
// caller can tell which indices in the batch still need a result.
func (e *Executor) RunBatch(ctx context.Context, spec BatchSpec, budget time.Duration, onLine func(worker.Line)) (lines []worker.Line, err error) {
	extra := append(testClassArgs(e.cfg.TestClasses), "--start", strconv.Itoa(spec.Start), "--end", strconv.Itoa(spec.End))
	args := e.commonArgs(extra...)
	return e.run(ctx, args, budget, onLine)
}

// RunWarmUp dispatches one worker subprocess running the warm-up pass
// for a single test class. As with RunBatch, every parsed line except
// DONE, WARMUP lines included, is forwarded to onLine.
func (e *Executor) RunWarmUp(ctx context.Context, testClass string, budget time.Duration, onLine func(worker.Line)) (lines []worker.Line, err error) {
	args := e.commonArgs("--test-class", testClass, "--warmup")
	return e.run(ctx, args, budget, onLine)
}

func testClassArgs(classes []string) []string {
	args := make([]string, 0, len(classes)*2)
	for _, c := range classes {
		args = append(args, "--test-class", c)
	}
	return args
}

func (e *Executor) run(parent context.Context, args []string, budget time.Duration, onLine func(worker.Line)) (lines []worker.Line, err error) {
	cmd := e.execContext(context.Background(), e.cfg.WorkerBin, args...)
	setupProcessGroup(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("scheduler: worker stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("scheduler: starting worker: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, budget)
	defer cancel()

	exited := make(chan struct{})
	go e.supervise(ctx, cmd, exited)

	complete := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line, perr := worker.ParseLine(scanner.Text())
		if perr != nil {
			continue
		}
		if line.Tag == worker.TagDone {
			complete = true
			continue
		}
		lines = append(lines, line)
		if onLine != nil {
			onLine(line)
		}
	}

	waitErr := cmd.Wait()
	close(exited)

	if ctx.Err() != nil {
		return lines, ErrBatchTimedOut
	}
	if !complete {
		return lines, fmt.Errorf("scheduler: worker exited before completing its batch: %w (stderr: %s)", waitErr, stderr.String())
	}
	return lines, nil
}

// supervise tears the worker down once ctx is done: SIGTERM to the
// process group first, then SIGKILL if it hasn't exited within
// TerminationGrace. It returns as soon as either the process exits on
// its own or the teardown it performed has run its course.
func (e *Executor) supervise(ctx context.Context, cmd *exec.Cmd, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}
	_ = terminateProcessGroup(cmd)
	select {
	case <-exited:
	case <-time.After(TerminationGrace):
		_ = killProcessGroup(cmd)
	}
}
