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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-jumble/gojumble/internal/cache"
	"github.com/go-jumble/gojumble/internal/classfile"
	"github.com/go-jumble/gojumble/internal/diffscope"
	"github.com/go-jumble/gojumble/internal/execution"
	"github.com/go-jumble/gojumble/internal/log"
	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/timing"
	"github.com/go-jumble/gojumble/internal/worker"
)

// maxConsecutiveAbnormalExits is how many times the same index may be
// the apparent cause of a worker's abnormal exit before the scheduler
// gives up on it and records an engine error (spec.md §5's failure
// policy).
const maxConsecutiveAbnormalExits = 3

// Options configures one Scheduler run against a single target class.
type Options struct {
	Executor    *Executor
	Listener    Listener
	Cache       *cache.Store // nil disables the on-disk cache entirely
	TargetClass string
	TargetBytes []byte
	TestClasses []string
	// TestClassBytes aligns by index with TestClasses and is used only to
	// compute the test-list fingerprint that invalidates a cached
	// TestOrder when the test suite itself changes; may be left nil to
	// skip that check (a cached order is then trusted for as long as the
	// target class fingerprint matches).
	TestClassBytes [][]byte
	Enabled        mutate.EnabledSet
	Excluded       mutate.ExcludedMethods

	// Diff and SourcePath together restrict mutation to lines changed
	// since a git ref (the --since-ref flag, SPEC_FULL.md §4). Diff is
	// consulted against SourcePath, the conventional source file for
	// TargetClass (see diffscope.SourcePath); either left zero means
	// every mutation point is in scope.
	Diff       diffscope.Diff
	SourcePath string

	FirstMutation        int
	MaxExternalMutations int
	NoLoadCache          bool
	NoSaveCache          bool
	NoUseCache           bool
	NoOrder              bool
	DryRun               bool

	// OrderFilePath is where the warm-up TestOrder is written as JSON for
	// worker subprocesses to load via --order-file. Required unless
	// NoOrder is set.
	OrderFilePath string
}

// Scheduler implements the Fast Runner's state machine: Init, Counting,
// an optional WarmUp, Looping over batches of mutation indices, and
// Done (SPEC_FULL.md §6.F).
type Scheduler struct {
	opts Options
}

// New builds a Scheduler that will run against opts.TargetClass.
func New(opts Options) *Scheduler {
	if opts.MaxExternalMutations <= 0 {
		opts.MaxExternalMutations = 100
	}
	return &Scheduler{opts: opts}
}

// Run drives the whole state machine and returns the final Score. A
// baseline failure or unrecoverable engine error is returned as an
// *execution.ExitError so the caller can translate it straight to a
// process exit code.
func (s *Scheduler) Run(ctx context.Context) (Score, error) {
	o := &s.opts

	total, err := mutate.Count(o.TargetBytes, o.Enabled, o.Excluded)
	if err != nil {
		return Score{}, execution.NewExitErr(execution.EngineError, fmt.Sprintf("counting mutation points: %v", err))
	}

	o.Listener.Start(EventStart{Target: o.TargetClass, Total: total})
	if total == 0 {
		score := Score{Total: 0}
		o.Listener.End(EventEnd{Score: score})
		return score, nil
	}

	manifest, cacheHit := s.loadManifest()

	order := s.resolveOrder(manifest, cacheHit)
	if order == nil && !o.DryRun {
		var err error
		order, err = o.Executor.WarmUp(ctx, o.TestClasses, warmUpProcessBudget)
		if err != nil {
			return Score{}, err
		}
		if !o.NoSaveCache && o.Cache != nil {
			s.saveManifest(order, total, nil)
		}
	}
	if order == nil {
		order = timing.NewTestOrder(nil)
	}

	if !o.DryRun && !o.NoOrder && o.OrderFilePath != "" {
		if err := writeOrderFile(o.OrderFilePath, order); err != nil {
			return Score{}, execution.NewExitErr(execution.EngineError, fmt.Sprintf("writing order file: %v", err))
		}
	}

	records, score := s.loop(ctx, order, total)

	o.Listener.End(EventEnd{Score: score})

	if !o.DryRun && !o.NoSaveCache && o.Cache != nil {
		s.saveManifest(order, total, records)
	}

	return score, nil
}

// warmUpProcessBudget bounds one test class's warm-up subprocess. It is
// generous relative to a single test's own per-test budget (there is no
// per-test timeout derivation yet at warm-up time) since the cost of
// waiting a little longer here is paid once per run, not once per
// mutant.
const warmUpProcessBudget = 5 * time.Minute

// loadManifest consults the cache unless caching is fully disabled.
func (s *Scheduler) loadManifest() (*cache.RunManifest, bool) {
	o := &s.opts
	if o.NoUseCache || o.NoLoadCache || o.Cache == nil {
		return nil, false
	}
	manifest, ok, err := o.Cache.Load(o.TargetClass, o.TargetBytes)
	if err != nil {
		log.Errorf("cache: failed to load manifest for %s: %v", o.TargetClass, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if fp := testListFingerprint(o.TestClassBytes); fp != "" && manifest.TestListFingerprint != "" && fp != manifest.TestListFingerprint {
		return nil, false
	}
	return manifest, true
}

// resolveOrder returns a TestOrder reusable without a fresh warm-up, or
// nil if WarmUp must run.
func (s *Scheduler) resolveOrder(manifest *cache.RunManifest, cacheHit bool) *timing.TestOrder {
	if s.opts.NoOrder || !cacheHit || manifest == nil {
		return nil
	}
	if len(manifest.TestOrder.Tests) == 0 {
		return nil
	}
	return timing.Restore(manifest.TestOrder)
}

func testListFingerprint(classBytes [][]byte) string {
	if len(classBytes) == 0 {
		return ""
	}
	var joined []byte
	for _, b := range classBytes {
		joined = append(joined, []byte(classfile.Fingerprint256(b))...)
	}
	return string(classfile.Fingerprint256(joined))
}

func writeOrderFile(path string, order *timing.TestOrder) error {
	b, err := json.Marshal(order.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding test order: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func (s *Scheduler) saveManifest(order *timing.TestOrder, total int, records []cache.MutantRecord) {
	o := &s.opts
	manifest := &cache.RunManifest{
		Fingerprint:         string(classfile.Fingerprint256(o.TargetBytes)),
		TestListFingerprint: testListFingerprint(o.TestClassBytes),
		TargetClass:         o.TargetClass,
		Total:               total,
		TestOrder:           order.Snapshot(),
		Mutants:             records,
	}
	var total64 int64
	for _, t := range manifest.TestOrder.Tests {
		total64 += t.Elapsed.Milliseconds()
	}
	manifest.TotalWarmUpTime = total64
	if err := o.Cache.Save(o.TargetClass, manifest); err != nil {
		log.Errorf("cache: failed to save manifest for %s: %v", o.TargetClass, err)
	}
}

// loop runs the Looping state: batches of mutation indices dispatched to
// worker subprocesses, re-queueing on abnormal exit and giving up on an
// index (EngineError) after maxConsecutiveAbnormalExits.
func (s *Scheduler) loop(ctx context.Context, order *timing.TestOrder, total int) ([]cache.MutantRecord, Score) {
	o := &s.opts
	var records []cache.MutantRecord
	var score Score
	score.Total = total

	fails := map[int]int{}
	next := o.FirstMutation
	if next < 0 {
		next = 0
	}

	for next < total {
		end := next + o.MaxExternalMutations - 1
		if end >= total {
			end = total - 1
		}

		metas := s.announce(next, end)
		if len(metas) == 0 {
			_, ok, merr := mutate.Mutate(o.TargetBytes, next, o.Enabled, o.Excluded)
			if merr != nil || !ok {
				// No mutation points left to enumerate in this range;
				// mutate.Count and mutate.Mutate have disagreed, which can
				// only mean the class bytes changed under us. Stop rather
				// than spin.
				break
			}
			// The point exists but announce stopped on it because it falls
			// outside the diff scope; skip just this one index and keep going.
			score.Skipped++
			o.Listener.Verdict(EventVerdict{Index: next, Outcome: Skipped})
			next++
			continue
		}
		// metas may be shorter than [next, end] if enumeration ran out
		// early; shrink the batch to match what's actually mutatable.
		batchEnd := next + len(metas) - 1

		if o.DryRun {
			for idx := next; idx <= batchEnd; idx++ {
				score.Skipped++
				o.Listener.Verdict(EventVerdict{Index: idx, Outcome: Skipped})
			}
			next = batchEnd + 1
			continue
		}

		lines, err := o.Executor.RunBatch(ctx, BatchSpec{Start: next, End: batchEnd}, order.TotalBudget()*time.Duration(len(metas)), func(l worker.Line) {
			s.report(&score, &records, metas, l)
		})

		resolved := map[int]bool{}
		for _, l := range lines {
			resolved[l.Index] = true
		}

		switch {
		case err == nil:
			next = batchEnd + 1
		case errors.Is(err, ErrBatchTimedOut):
			stuck := firstUnresolved(next, batchEnd, resolved)
			if stuck >= 0 {
				s.report(&score, &records, metas, worker.Line{Tag: worker.TagTimeout, Index: stuck})
				resolved[stuck] = true
			}
			next = requeueFrom(next, batchEnd, resolved, fails, &score, &records, metas, s)
		default:
			log.Errorf("worker batch [%d,%d] exited abnormally: %v", next, batchEnd, err)
			next = requeueFrom(next, batchEnd, resolved, fails, &score, &records, metas, s)
		}
	}
	return records, score
}

// announce builds and emits EventMutation for every index in [start,end]
// by recomputing mutate.Mutate locally, the same deterministic
// computation the worker performs, so the scheduler never needs the
// worker to send mutation metadata over the wire. It returns as soon as
// an index has no mutation point, which can legitimately happen at the
// very end of the class.
func (s *Scheduler) announce(start, end int) map[int]*mutate.Result {
	metas := make(map[int]*mutate.Result, end-start+1)
	for idx := start; idx <= end; idx++ {
		result, ok, err := mutate.Mutate(s.opts.TargetBytes, idx, s.opts.Enabled, s.opts.Excluded)
		if err != nil || !ok {
			break
		}
		if !s.inScope(result) {
			break
		}
		metas[idx] = result
		s.opts.Listener.Mutation(EventMutation{
			Index:       idx,
			Method:      result.Method,
			Line:        result.Line,
			Description: result.Description,
			Kind:        result.Kind,
		})
	}
	return metas
}

// inScope reports whether r falls within the configured diff, or true if
// no diff scoping was configured for this run.
func (s *Scheduler) inScope(r *mutate.Result) bool {
	if s.opts.Diff == nil || s.opts.SourcePath == "" {
		return true
	}
	return s.opts.Diff.IsChanged(diffscope.Position{File: s.opts.SourcePath, Line: r.Line})
}

// report turns one protocol line into a Score update, a Verdict event,
// and, when the index's mutation metadata is known, a cache record.
func (s *Scheduler) report(score *Score, records *[]cache.MutantRecord, metas map[int]*mutate.Result, l worker.Line) {
	meta := metas[l.Index]
	var outcome Outcome
	detail := ""
	switch l.Tag {
	case worker.TagFail:
		outcome = Killed
		score.Killed++
		detail = l.Killer
	case worker.TagTimeout:
		outcome = TimedOut
		score.TimedOut++
	case worker.TagErr:
		outcome = Errored
		score.Errored++
		detail = l.Description
	case worker.TagNoSuchPoint:
		return
	default:
		outcome = Lived
		score.Lived++
	}

	s.opts.Listener.Verdict(EventVerdict{Index: l.Index, Outcome: outcome, Killer: l.Killer, Detail: detail})

	if meta == nil {
		return
	}
	*records = append(*records, cache.MutantRecord{
		Index:       l.Index,
		Kind:        meta.Kind.Flag(),
		Method:      meta.Method,
		Line:        meta.Line,
		Description: meta.Description,
		Verdict:     outcome.String(),
		Killer:      l.Killer,
	})
}

func firstUnresolved(start, end int, resolved map[int]bool) int {
	for i := start; i <= end; i++ {
		if !resolved[i] {
			return i
		}
	}
	return -1
}

// requeueFrom bumps the fail count of the first unresolved index in
// [start,end]; once it reaches maxConsecutiveAbnormalExits the index is
// recorded as an engine error and skipped, otherwise the whole
// unresolved tail is retried starting from that same index.
func requeueFrom(start, end int, resolved map[int]bool, fails map[int]int, score *Score, records *[]cache.MutantRecord, metas map[int]*mutate.Result, s *Scheduler) int {
	stuck := firstUnresolved(start, end, resolved)
	if stuck < 0 {
		return end + 1
	}
	fails[stuck]++
	if fails[stuck] < maxConsecutiveAbnormalExits {
		return stuck
	}
	s.report(score, records, metas, worker.Line{
		Tag:         worker.TagErr,
		Index:       stuck,
		Description: "worker exited abnormally too many times",
	})
	delete(fails, stuck)
	return stuck + 1
}
