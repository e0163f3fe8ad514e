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

// Command gojumble-worker is the standalone entry point SPEC_FULL.md
// §6.G describes: it receives a classpath, a target class, an index
// range, enabled mutation kinds, exclusions, deferred prefixes, and
// optional warm-up timing, and streams internal/worker's line protocol
// to stdout. The scheduler is the only intended caller, launching one
// of these per dispatched batch.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/go-jumble/gojumble/internal/classpath"
	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/timing"
	"github.com/go-jumble/gojumble/internal/worker"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("gojumble-worker", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	classpathFlag := fs.String("classpath", "", "classpath to resolve classes from")
	target := fs.String("target", "", "target class name")
	start := fs.Int("start", 0, "first mutation index in this batch")
	end := fs.Int("end", 0, "last mutation index in this batch")
	kinds := fs.StringSlice("kind", nil, "enabled mutation kind (repeatable)")
	exclude := fs.StringSlice("exclude", nil, "method name to exclude (repeatable)")
	deferClass := fs.StringSlice("defer-class", nil, "deferred class name prefix (repeatable)")
	platform := fs.StringSlice("platform-class", nil, "class shared across every mutant in this process (repeatable)")
	testClasses := fs.StringSlice("test-class", nil, "test class to run against the target (repeatable)")
	budget := fs.Duration("default-budget", 2*time.Second, "fallback per-test budget when no warm-up order applies")
	orderFile := fs.String("order-file", "", "path to a JSON-encoded timing.Snapshot produced by warm-up")
	assertions := fs.Bool("assertions-enabled", true, "run the tests with assertions enabled in the interpreter")
	warmup := fs.Bool("warmup", false, "run the warm-up pass (ignores --start/--end/--kind) against the one given --test-class")
	// Accepted and forwarded only: the interpreter models no JVM system
	// property table or runtime flags for these to affect. See DESIGN.md.
	fs.StringSlice("jvm-arg", nil, "forwarded to the worker runtime")
	fs.StringSlice("define-property", nil, "forwarded to the worker runtime")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *target == "" {
		fmt.Fprintln(stderr, "gojumble-worker: --target is required")
		return 2
	}

	cp := classpath.Parse(*classpathFlag)
	targetBytes, err := cp.Find(*target)
	if err != nil {
		fmt.Fprintf(stderr, "gojumble-worker: %v\n", err)
		return 1
	}

	enabled := mutate.MapEnabledSet{}
	for _, k := range *kinds {
		kind, ok := mutate.ParseKind(k)
		if !ok {
			fmt.Fprintf(stderr, "gojumble-worker: unknown mutation kind %q\n", k)
			return 2
		}
		enabled[kind] = true
	}

	excluded := mutate.ExcludedMethods{}
	for _, m := range *exclude {
		excluded[m] = true
	}

	order, err := loadOrder(*orderFile)
	if err != nil {
		fmt.Fprintf(stderr, "gojumble-worker: %v\n", err)
		return 1
	}

	cfg := worker.BatchConfig{
		TargetClass:       *target,
		TargetBytes:       targetBytes,
		Classpath:         cp,
		DeferredPrefixes:  *deferClass,
		PlatformClasses:   *platform,
		TestClasses:       *testClasses,
		Enabled:           enabled,
		Excluded:          excluded,
		Order:             order,
		DefaultBudget:     *budget,
		AssertionsEnabled: *assertions,
	}

	if *warmup {
		if len(*testClasses) != 1 {
			fmt.Fprintln(stderr, "gojumble-worker: --warmup requires exactly one --test-class")
			return 2
		}
		if err := worker.RunWarmUp(cfg, (*testClasses)[0], stdout); err != nil {
			fmt.Fprintf(stderr, "gojumble-worker: %v\n", err)
			return 1
		}
		return 0
	}

	if err := worker.RunBatch(cfg, *start, *end, stdout); err != nil {
		fmt.Fprintf(stderr, "gojumble-worker: %v\n", err)
		return 1
	}
	return 0
}

func loadOrder(path string) (*timing.TestOrder, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading order file: %w", err)
	}
	var snap timing.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decoding order file: %w", err)
	}
	return timing.Restore(snap), nil
}
