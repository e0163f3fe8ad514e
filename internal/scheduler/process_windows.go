//go:build windows

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
	"os/exec"
	"syscall"
)

// setupProcessGroup configures the worker to start its own Windows
// process group. Windows process-group semantics are weaker than
// Unix's; this is best-effort, as in the rest of this file.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags = syscall.CREATE_NEW_PROCESS_GROUP
}

// terminateProcessGroup has no SIGTERM equivalent on Windows; the
// worker is given no grace period here; killProcessGroup performs the
// actual teardown immediately on the next step.
func terminateProcessGroup(*exec.Cmd) error {
	return nil
}

// killProcessGroup kills the worker process. Windows has no process
// group to target, so only the direct child is reliably terminated.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
