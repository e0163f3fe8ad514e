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
	"testing"

	"github.com/go-jumble/gojumble/internal/configuration"
	"github.com/go-jumble/gojumble/internal/mutate"
)

func TestNewMutateCmd(t *testing.T) {
	c, err := newMutateCmd(context.Background())
	if err != nil {
		t.Fatal("newMutateCmd should not fail")
	}
	cmd := c.cmd

	if cmd.Name() != "mutate" {
		t.Errorf("expected %q, got %q", "mutate", cmd.Name())
	}

	fset := cmd.Flags()

	testCases := []struct {
		name      string
		shorthand string
		flagType  string
		defValue  string
	}{
		{name: "verbose", shorthand: "v", flagType: "bool", defValue: "false"},
		{name: "emacs", flagType: "bool", defValue: "false"},
		{name: "printer", flagType: "string", defValue: "default"},
		{name: "first-mutation", flagType: "int", defValue: "0"},
		{name: "classpath", flagType: "string", defValue: ""},
		{name: "no-order", flagType: "bool", defValue: "false"},
		{name: "no-save-cache", flagType: "bool", defValue: "false"},
		{name: "no-load-cache", flagType: "bool", defValue: "false"},
		{name: "no-use-cache", flagType: "bool", defValue: "false"},
		{name: "max-external-mutations", flagType: "int", defValue: "100"},
		{name: "since-ref", flagType: "string", defValue: ""},
		{name: "no-dummy-rewrite", flagType: "bool", defValue: "false"},
		{name: "dry-run", flagType: "bool", defValue: "false"},
		{name: "exclude", flagType: "stringSlice", defValue: "[]"},
		{name: "defer-class", flagType: "stringSlice", defValue: "[]"},
		{name: "jvm-arg", flagType: "stringSlice", defValue: "[]"},
		{name: "define-property", flagType: "stringSlice", defValue: "[]"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := fset.Lookup(tc.name)
			if f == nil {
				t.Fatalf("expected flag %q to be registered", tc.name)
			}
			if tc.shorthand != "" && f.Shorthand != tc.shorthand {
				t.Errorf("expected %q to have shorthand %q, got %q", tc.name, tc.shorthand, f.Shorthand)
			}
			if f.Value.Type() != tc.flagType {
				t.Errorf("expected %q to be type %q, got %q", tc.name, tc.flagType, f.Value.Type())
			}
			if f.DefValue != tc.defValue {
				t.Errorf("expected %q to have default %q, got %q", tc.name, tc.defValue, f.DefValue)
			}
		})
	}

	for _, kf := range togglableKinds {
		f := fset.Lookup(kf.name)
		if f == nil {
			t.Errorf("expected a flag for mutation kind %s", kf.kind)
			continue
		}
		wantDef := fmt.Sprintf("%v", configuration.IsDefaultEnabled(kf.kind))
		if f.DefValue != wantDef {
			t.Errorf("expected %q to default to %q, got %q", kf.name, wantDef, f.DefValue)
		}
	}
}

func TestDefaultTestClass(t *testing.T) {
	tests := []struct {
		class   string
		rewrite bool
		want    string
	}{
		{class: "Sample", rewrite: true, want: "SampleTest"},
		{class: "Sample$Inner", rewrite: true, want: "SampleTest"},
		{class: "AbstractWidget", rewrite: true, want: "DummyWidgetTest"},
		{class: "com.acme.AbstractWidget", rewrite: true, want: "com.acme.DummyWidgetTest"},
		{class: "AbstractWidget", rewrite: false, want: "AbstractWidgetTest"},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			if got := defaultTestClass(tt.class, tt.rewrite); got != tt.want {
				t.Errorf("defaultTestClass(%q, %v) = %q, want %q", tt.class, tt.rewrite, got, tt.want)
			}
		})
	}
}

func TestConfigEnabledSetAlwaysOnKinds(t *testing.T) {
	defer configuration.Reset()
	enabled := configEnabledSet{}
	if !enabled.Enabled(mutate.NegateConditional) {
		t.Error("expected negate-conditional to always be enabled")
	}
	if !enabled.Enabled(mutate.SwapArith) {
		t.Error("expected swap-arith to always be enabled")
	}
	if enabled.Enabled(mutate.ReturnValues) {
		t.Error("expected return-values to default to disabled")
	}
}

func TestEnabledKindsList(t *testing.T) {
	enabled := mutate.MapEnabledSet{mutate.NegateConditional: true, mutate.Stores: true}
	got := enabledKindsList(enabled)
	if len(got) != 2 || got[0] != mutate.NegateConditional || got[1] != mutate.Stores {
		t.Errorf("enabledKindsList() = %v", got)
	}
}
