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

package worker_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jumble/gojumble/internal/classfile/classfiletest"
	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/worker"
)

type fakeClasspath struct {
	classes map[string][]byte
}

func (f fakeClasspath) Find(name string) ([]byte, error) {
	b, ok := f.classes[name]
	if !ok {
		return nil, errors.New("class not found")
	}
	return b, nil
}

func newFixture(t *testing.T) (target []byte, testClass []byte) {
	t.Helper()
	target = classfiletest.Build(t, classfiletest.SimpleReturn{Value: 10})
	testClass = classfiletest.BuildCallerTest(t, classfiletest.CallerTest{
		ClassName:        "SampleTest",
		TestName:         "testValue",
		TargetClass:      "Sample",
		TargetMethod:     "value",
		TargetDescriptor: "()I",
		Expect:           10,
	})
	return target, testClass
}

func TestRunBatchReportsNoSuchPointWhenNoKindApplies(t *testing.T) {
	t.Parallel()
	target, testClass := newFixture(t)

	// inline-constants on a bipush pushes a *different* int constant,
	// so every point this fixture has is behavior-changing; swap-arith
	// has no arithmetic operator to find, so Mutate reports no point
	// and the batch ends with NOSUCHPOINT at index 0.
	cfg := worker.BatchConfig{
		TargetClass:       "Sample",
		TargetBytes:       target,
		Classpath:         fakeClasspath{classes: map[string][]byte{"SampleTest": testClass}},
		TestClasses:       []string{"SampleTest"},
		Enabled:           mutate.MapEnabledSet{mutate.SwapArith: true},
		DefaultBudget:     time.Second,
		AssertionsEnabled: true,
	}

	var out bytes.Buffer
	if err := worker.RunBatch(cfg, 0, 0, &out); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	lines := splitLines(t, out.String())
	if len(lines) != 1 {
		t.Fatalf("expected one NOSUCHPOINT line, got %v", lines)
	}
	got, err := worker.ParseLine(lines[0])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got.Tag != worker.TagNoSuchPoint || got.Index != 0 {
		t.Fatalf("got %+v, want NOSUCHPOINT 0", got)
	}
}

func TestRunBatchKillsMutantThatChangesBehavior(t *testing.T) {
	t.Parallel()
	target, testClass := newFixture(t)

	cfg := worker.BatchConfig{
		TargetClass:       "Sample",
		TargetBytes:       target,
		Classpath:         fakeClasspath{classes: map[string][]byte{"SampleTest": testClass}},
		TestClasses:       []string{"SampleTest"},
		Enabled:           mutate.MapEnabledSet{mutate.InlineConstants: true},
		DefaultBudget:     time.Second,
		AssertionsEnabled: true,
	}

	var out bytes.Buffer
	if err := worker.RunBatch(cfg, 0, 0, &out); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	lines := splitLines(t, out.String())
	if len(lines) != 2 {
		t.Fatalf("expected a FAIL then a DONE line, got %v", lines)
	}
	fail, err := worker.ParseLine(lines[0])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if fail.Tag != worker.TagFail || fail.Index != 0 || fail.Killer != "testValue" {
		t.Fatalf("got %+v, want a FAIL 0 killed by testValue", fail)
	}
	done, err := worker.ParseLine(lines[1])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if done.Tag != worker.TagDone {
		t.Fatalf("got %+v, want DONE", done)
	}
}

func TestRunBatchReportsErrWhenTestClassCannotResolve(t *testing.T) {
	t.Parallel()
	target, _ := newFixture(t)
	// A test method invoking a class absent from the classpath fails to
	// resolve rather than raising an AssertionError: the harness itself
	// couldn't run the test, which is an ERR verdict, not a FAIL one.
	testClass := classfiletest.BuildCallerTest(t, classfiletest.CallerTest{
		ClassName:        "SampleTest",
		TestName:         "testValue",
		TargetClass:      "Missing",
		TargetMethod:     "value",
		TargetDescriptor: "()I",
		Expect:           10,
	})

	cfg := worker.BatchConfig{
		TargetClass:       "Sample",
		TargetBytes:       target,
		Classpath:         fakeClasspath{classes: map[string][]byte{"SampleTest": testClass}},
		TestClasses:       []string{"SampleTest"},
		Enabled:           mutate.MapEnabledSet{mutate.InlineConstants: true},
		DefaultBudget:     time.Second,
		AssertionsEnabled: true,
	}

	var out bytes.Buffer
	if err := worker.RunBatch(cfg, 0, 0, &out); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	lines := splitLines(t, out.String())
	if len(lines) != 2 {
		t.Fatalf("expected an ERR then a DONE line, got %v", lines)
	}
	got, err := worker.ParseLine(lines[0])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got.Tag != worker.TagErr || got.Index != 0 || got.Description == "" {
		t.Fatalf("got %+v, want an ERR 0 with a non-empty reason", got)
	}
	done, err := worker.ParseLine(lines[1])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if done.Tag != worker.TagDone {
		t.Fatalf("got %+v, want DONE", done)
	}
}

func TestRunBatchReportsNoSuchPointPastEnumeration(t *testing.T) {
	t.Parallel()
	target, testClass := newFixture(t)

	cfg := worker.BatchConfig{
		TargetClass:       "Sample",
		TargetBytes:       target,
		Classpath:         fakeClasspath{classes: map[string][]byte{"SampleTest": testClass}},
		TestClasses:       []string{"SampleTest"},
		Enabled:           mutate.MapEnabledSet{mutate.NegateConditional: true},
		DefaultBudget:     time.Second,
		AssertionsEnabled: true,
	}

	var out bytes.Buffer
	if err := worker.RunBatch(cfg, 0, 3, &out); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	lines := splitLines(t, out.String())
	if len(lines) != 1 {
		t.Fatalf("expected a single NOSUCHPOINT line, got %v", lines)
	}
	got, err := worker.ParseLine(lines[0])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got.Tag != worker.TagNoSuchPoint || got.Index != 0 {
		t.Fatalf("got %+v, want NOSUCHPOINT 0", got)
	}
}

func TestRunWarmUpEmitsOneLinePerTestThenDone(t *testing.T) {
	t.Parallel()
	target, testClass := newFixture(t)

	cfg := worker.BatchConfig{
		TargetClass:       "Sample",
		TargetBytes:       target,
		Classpath:         fakeClasspath{classes: map[string][]byte{"SampleTest": testClass}},
		DefaultBudget:     time.Second,
		AssertionsEnabled: true,
	}

	var out bytes.Buffer
	if err := worker.RunWarmUp(cfg, "SampleTest", &out); err != nil {
		t.Fatalf("RunWarmUp: %v", err)
	}

	lines := splitLines(t, out.String())
	if len(lines) != 2 {
		t.Fatalf("expected a WARMUP then a DONE line, got %v", lines)
	}
	warm, err := worker.ParseLine(lines[0])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if warm.Tag != worker.TagWarmup || warm.Test != "testValue" {
		t.Fatalf("got %+v, want WARMUP for testValue", warm)
	}
	done, err := worker.ParseLine(lines[1])
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if done.Tag != worker.TagDone {
		t.Fatalf("got %+v, want DONE", done)
	}
}

func splitLines(t *testing.T, s string) []string {
	t.Helper()
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
