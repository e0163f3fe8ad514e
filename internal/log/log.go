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

// Package log provides a process-wide, lazily initialised logger for
// progress and error messages.
package log

import (
	"fmt"
	"io"
	"sync"
)

type logger struct {
	out io.Writer
	err io.Writer
}

var (
	mutex    sync.Mutex
	instance *logger
)

// Init initialises the singleton logger. out receives informational
// messages, err receives errors. Either may be nil, in which case the
// corresponding channel becomes a no-op.
func Init(out, err io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	instance = &logger{out: out, err: err}
}

// Reset clears the singleton, mainly for test isolation.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	instance = nil
}

// Infof logs a formatted informational message.
func Infof(f string, args ...any) {
	if instance == nil || instance.out == nil {
		return
	}
	_, _ = fmt.Fprintf(instance.out, f, args...)
}

// Infoln logs an informational line.
func Infoln(a any) {
	if instance == nil || instance.out == nil {
		return
	}
	_, _ = fmt.Fprintln(instance.out, a)
}

// Errorf logs a formatted error message.
func Errorf(f string, args ...any) {
	if instance == nil || instance.err == nil {
		return
	}
	_, _ = fmt.Fprintf(instance.err, f, args...)
}

// Errorln logs an error line.
func Errorln(a any) {
	if instance == nil || instance.err == nil {
		return
	}
	_, _ = fmt.Fprintln(instance.err, a)
}
