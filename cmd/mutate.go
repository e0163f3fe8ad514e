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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-jumble/gojumble/cmd/internal/flags"
	"github.com/go-jumble/gojumble/internal/cache"
	"github.com/go-jumble/gojumble/internal/classpath"
	"github.com/go-jumble/gojumble/internal/configuration"
	"github.com/go-jumble/gojumble/internal/diffscope"
	"github.com/go-jumble/gojumble/internal/execution"
	"github.com/go-jumble/gojumble/internal/log"
	"github.com/go-jumble/gojumble/internal/mutate"
	"github.com/go-jumble/gojumble/internal/scheduler"
)

type mutateCmd struct {
	cmd *cobra.Command
}

const (
	commandName = "mutate"

	paramVerbose       = "verbose"
	paramExclude       = "exclude"
	paramEmacs         = "emacs"
	paramPrinter       = "printer"
	paramFirstMutation = "first-mutation"
	paramClasspath     = "classpath"
	paramNoOrder       = "no-order"
	paramNoSaveCache   = "no-save-cache"
	paramNoLoadCache   = "no-load-cache"
	paramNoUseCache    = "no-use-cache"
	paramDeferClass    = "defer-class"
	paramMaxExternal   = "max-external-mutations"
	paramJVMArg        = "jvm-arg"
	paramDefineProp    = "define-property"
	paramSinceRef      = "since-ref"
	paramNoDummy       = "no-dummy-rewrite"
	paramDryRun        = "dry-run"

	defaultWorkerBinary = "gojumble-worker"
)

func newMutateCmd(ctx context.Context) (*mutateCmd, error) {
	cmd := &cobra.Command{
		Use:     fmt.Sprintf("%s CLASS [TESTCLASS...]", commandName),
		Aliases: []string{"m"},
		Args:    cobra.MinimumNArgs(1),
		Short:   "Run class-level mutation testing against a single target class",
		Long:    longExplainer(),
		RunE:    runMutate(ctx),
	}

	if err := setFlagsOnCmd(cmd); err != nil {
		return nil, err
	}

	return &mutateCmd{cmd: cmd}, nil
}

func longExplainer() string {
	return heredoc.Doc(`
		Mutate runs Gojumble's class-level mutation engine against one compiled
		class, exercising it with one or more compiled test classes.

		It counts the mutation points the enabled mutation kinds produce, warms
		up a test-timing order, then dispatches batches of mutants to
		gojumble-worker subprocesses and reports which mutants were killed,
		survived, or timed out.

		If no test class is given, one is derived from CLASS by stripping any
		inner-class suffix, rewriting an Abstract... prefix to Dummy..., and
		appending Test.
	`)
}

func runMutate(ctx context.Context) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		target := args[0]
		testClasses := args[1:]
		if len(testClasses) == 0 {
			rewrite := !configuration.Get[bool](configuration.MutateNoDummyRewriteKey)
			testClasses = []string{defaultTestClass(target, rewrite)}
		}

		if configuration.Get[bool](configuration.MutateVerboseKey) {
			log.Init(os.Stdout, os.Stderr)
		}

		cp := classpath.Parse(configuration.Get[string](configuration.MutateClasspathKey))

		targetBytes, err := cp.Find(target)
		if err != nil {
			return execution.NewExitErr(execution.EngineError, err.Error())
		}

		testClassBytes := make([][]byte, 0, len(testClasses))
		for _, tc := range testClasses {
			b, ferr := cp.Find(tc)
			if ferr != nil {
				return execution.NewExitErr(execution.EngineError, fmt.Sprintf("resolving test class %s: %v", tc, ferr))
			}
			testClassBytes = append(testClassBytes, b)
		}

		excluded := mutate.DefaultExcluded()
		for _, m := range configuration.Get[[]string](configuration.MutateExcludeKey) {
			excluded[m] = true
		}

		enabled := configEnabledSet{}

		printerName := configuration.Get[string](configuration.MutatePrinterKey)
		if configuration.Get[bool](configuration.MutateEmacsKey) {
			printerName = "emacs"
		}
		listener, err := scheduler.NewListener(printerName, os.Stdout)
		if err != nil {
			return execution.NewExitErr(execution.UsageError, err.Error())
		}

		var diff diffscope.Diff
		sourcePath := ""
		if ref := configuration.Get[string](configuration.MutateSinceRefKey); ref != "" {
			diff, err = diffscope.New(ref)
			if err != nil {
				return execution.NewExitErr(execution.EngineError, err.Error())
			}
			sourcePath = diffscope.SourcePath(target)
		}

		noUseCache := configuration.Get[bool](configuration.MutateNoUseCacheKey)
		var store *cache.Store
		if !noUseCache {
			if dir, derr := defaultCacheDir(); derr == nil {
				if s, serr := cache.NewStore(dir); serr == nil {
					store = s
				} else {
					log.Errorf("cache: %v\n", serr)
				}
			}
		}

		noOrder := configuration.Get[bool](configuration.MutateNoOrderKey)
		orderPath := ""
		if !noOrder {
			f, operr := os.CreateTemp("", "gojumble-order-*.json")
			if operr == nil {
				orderPath = f.Name()
				_ = f.Close()
				defer os.Remove(orderPath)
			}
		}

		executor := scheduler.NewExecutor(scheduler.Config{
			WorkerBin:         defaultWorkerBinary,
			TargetClass:       target,
			Classpath:         cp.String(),
			DeferredPrefixes:  configuration.Get[[]string](configuration.MutateDeferClassKey),
			TestClasses:       testClasses,
			EnabledKinds:      enabledKindsList(enabled),
			Excluded:          excludedNames(excluded),
			OrderFile:         orderPath,
			DefaultBudget:     2 * time.Second,
			AssertionsEnabled: true,
		})

		sched := scheduler.New(scheduler.Options{
			Executor:             executor,
			Listener:             listener,
			Cache:                store,
			TargetClass:          target,
			TargetBytes:          targetBytes,
			TestClasses:          testClasses,
			TestClassBytes:       testClassBytes,
			Enabled:              enabled,
			Excluded:             excluded,
			Diff:                 diff,
			SourcePath:           sourcePath,
			FirstMutation:        configuration.Get[int](configuration.MutateFirstMutationKey),
			MaxExternalMutations: configuration.Get[int](configuration.MutateMaxExternalKey),
			NoLoadCache:          configuration.Get[bool](configuration.MutateNoLoadCacheKey),
			NoSaveCache:          configuration.Get[bool](configuration.MutateNoSaveCacheKey),
			NoUseCache:           noUseCache,
			NoOrder:              noOrder,
			DryRun:               configuration.Get[bool](configuration.MutateDryRunKey),
			OrderFilePath:        orderPath,
		})

		_, err = sched.Run(ctx)
		return err
	}
}

// defaultTestClass derives the conventional test class name for class
// when none is given on the command line (spec.md §6's default
// test-class naming rule): strip an inner-class $... suffix, rewrite a
// leading Abstract... to Dummy... when rewrite is set, then append Test.
func defaultTestClass(class string, rewrite bool) string {
	simple := class
	if i := strings.Index(simple, "$"); i >= 0 {
		simple = simple[:i]
	}
	if rewrite {
		dot := strings.LastIndex(simple, ".")
		prefix, name := "", simple
		if dot >= 0 {
			prefix, name = simple[:dot+1], simple[dot+1:]
		}
		if strings.HasPrefix(name, "Abstract") {
			name = "Dummy" + strings.TrimPrefix(name, "Abstract")
		}
		simple = prefix + name
	}
	return simple + "Test"
}

// configEnabledSet adapts viper-backed per-kind flags to mutate.EnabledSet.
// NegateConditional and SwapArith carry no flag of their own: spec.md §6
// says they're always on, so they're reported enabled unconditionally
// rather than through a configuration key nothing ever sets.
type configEnabledSet struct{}

func (configEnabledSet) Enabled(k mutate.Kind) bool {
	switch k {
	case mutate.NegateConditional, mutate.SwapArith:
		return true
	default:
		return configuration.Get[bool](configuration.KindEnabledKey(k))
	}
}

func enabledKindsList(enabled mutate.EnabledSet) []mutate.Kind {
	var out []mutate.Kind
	for _, k := range mutate.AllKinds {
		if enabled.Enabled(k) {
			out = append(out, k)
		}
	}
	return out
}

func excludedNames(excluded mutate.ExcludedMethods) []string {
	out := make([]string, 0, len(excluded))
	for name := range excluded {
		out = append(out, name)
	}
	return out
}

func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gojumble"), nil
}

// kindFlag pairs a mutate.Kind with the CLI flag name spec.md §6 gives
// it; these don't all match Kind.Flag()'s longer config-key form
// (e.g. --cpool vs. "constant-pool").
type kindFlag struct {
	kind mutate.Kind
	name string
}

var togglableKinds = []kindFlag{
	{mutate.ReturnValues, "return-vals"},
	{mutate.InlineConstants, "inline-consts"},
	{mutate.Increments, "increments"},
	{mutate.ConstantPool, "cpool"},
	{mutate.Switch, "switch"},
	{mutate.Stores, "stores"},
}

func setFlagsOnCmd(cmd *cobra.Command) error {
	cmd.Flags().SortFlags = false
	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		name = strings.ReplaceAll(name, ".", "-")
		name = strings.ReplaceAll(name, "_", "-")
		return pflag.NormalizedName(name)
	})

	fls := []*flags.Flag{
		{Name: paramVerbose, CfgKey: configuration.MutateVerboseKey, Shorthand: "v", DefaultV: false, Usage: "emit progress events to stderr"},
		{Name: paramExclude, CfgKey: configuration.MutateExcludeKey, DefaultV: []string(nil), Usage: "method name to exclude from mutation (repeatable)"},
		{Name: paramEmacs, CfgKey: configuration.MutateEmacsKey, DefaultV: false, Usage: "select the emacs-format listener"},
		{Name: paramPrinter, CfgKey: configuration.MutatePrinterKey, DefaultV: "default", Usage: "select a named listener"},
		{Name: paramFirstMutation, CfgKey: configuration.MutateFirstMutationKey, DefaultV: 0, Usage: "start at mutation index N"},
		{Name: paramClasspath, CfgKey: configuration.MutateClasspathKey, DefaultV: "", Usage: "classpath for resolving the target and test classes"},
		{Name: paramNoOrder, CfgKey: configuration.MutateNoOrderKey, DefaultV: false, Usage: "disable test-timing warm-up ordering"},
		{Name: paramNoSaveCache, CfgKey: configuration.MutateNoSaveCacheKey, DefaultV: false, Usage: "don't persist the cache after this run"},
		{Name: paramNoLoadCache, CfgKey: configuration.MutateNoLoadCacheKey, DefaultV: false, Usage: "don't read a previously persisted cache"},
		{Name: paramNoUseCache, CfgKey: configuration.MutateNoUseCacheKey, DefaultV: false, Usage: "disable the cache entirely"},
		{Name: paramDeferClass, CfgKey: configuration.MutateDeferClassKey, DefaultV: []string(nil), Usage: "class name prefix the worker's classloader defers to the parent (repeatable)"},
		{Name: paramMaxExternal, CfgKey: configuration.MutateMaxExternalKey, DefaultV: 100, Usage: "worker batch size cap"},
		{Name: paramJVMArg, CfgKey: configuration.MutateJVMArgKey, DefaultV: []string(nil), Usage: "forwarded to the worker runtime (repeatable)"},
		{Name: paramDefineProp, CfgKey: configuration.MutateDefinePropertyKey, DefaultV: []string(nil), Usage: "forwarded to the worker runtime (repeatable)"},
		{Name: paramSinceRef, CfgKey: configuration.MutateSinceRefKey, DefaultV: "", Usage: "restrict mutation to lines changed since this git ref"},
		{Name: paramNoDummy, CfgKey: configuration.MutateNoDummyRewriteKey, DefaultV: false, Usage: "disable the Abstract...->Dummy... default test-class rewrite"},
		{Name: paramDryRun, CfgKey: configuration.MutateDryRunKey, DefaultV: false, Usage: "enumerate mutation points but don't dispatch any worker"},
	}

	for _, f := range fls {
		if err := flags.Set(cmd, f); err != nil {
			return err
		}
	}

	return setKindFlags(cmd)
}

func setKindFlags(cmd *cobra.Command) error {
	for _, kf := range togglableKinds {
		usage := fmt.Sprintf("enable the %q mutation kind", kf.kind.String())
		err := flags.Set(cmd, &flags.Flag{
			Name:     kf.name,
			CfgKey:   configuration.KindEnabledKey(kf.kind),
			DefaultV: configuration.IsDefaultEnabled(kf.kind),
			Usage:    usage,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
