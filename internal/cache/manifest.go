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

package cache

import "github.com/go-jumble/gojumble/internal/timing"

// MutantRecord is one mutation point's last known verdict, keyed by its
// index into the Mutater's deterministic enumeration.
type MutantRecord struct {
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	Method      string `json:"method"`
	Line        int    `json:"line"`
	Description string `json:"description"`
	Verdict     string `json:"verdict"`
	Killer      string `json:"killer,omitempty"`
}

// RunManifest is the payload gojumble caches per target class, keyed by
// the class's content fingerprint (SPEC_FULL.md §5: "{ target-class
// fingerprint, test-list fingerprint, TestOrder, total-warm-up-time }").
// Restoring a manifest lets a run whose class bytes and test list
// haven't changed since the cached run skip re-deriving test order from
// a fresh warm-up. The recorded Mutants are not consulted when loading;
// every mutant is re-run. --no-order, --no-load-cache and --no-use-cache
// each turn that reuse off.
type RunManifest struct {
	Fingerprint         string          `json:"fingerprint"`
	TestListFingerprint string          `json:"test_list_fingerprint"`
	TargetClass         string          `json:"target_class"`
	Total               int             `json:"total"`
	TestOrder           timing.Snapshot `json:"test_order"`
	TotalWarmUpTime     int64           `json:"total_warm_up_time_ms"`
	Mutants             []MutantRecord  `json:"mutants"`
}
