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

package classfile

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the content hash of a class file's raw bytes, used by
// internal/cache to key a RunManifest to the exact class body it was
// computed for (SPEC_FULL.md §5).
type Fingerprint string

// Fingerprint256 hashes b with SHA-256. A cryptographic hash is
// overkill for collision-avoidance alone, but it is the only hash
// already present in the standard library with negligible accidental
// collision risk across the lifetime of a cache directory, and no
// example repo in the retrieval pack wires a faster non-cryptographic
// hash (e.g. xxhash) for this kind of content-addressing, so the
// stdlib implementation is used directly; see DESIGN.md.
func Fingerprint256(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}
