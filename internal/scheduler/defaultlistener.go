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
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/hako/durafmt"
)

var (
	fgGreen   = color.New(color.FgGreen).SprintFunc()
	fgHiGreen = color.New(color.FgHiGreen).SprintFunc()
	fgRed     = color.New(color.FgRed).SprintFunc()
	fgHiBlack = color.New(color.FgHiBlack).SprintFunc()
)

// DefaultListener is the built-in printer: a dot stream during the
// run, one line per surviving mutant, and a summary at the end,
// matching spec.md §6's "default prints a line per verdict (. killed,
// M … survived, T … timeout) and a final percentage".
type DefaultListener struct {
	out   io.Writer
	start time.Time
}

// NewDefaultListener builds the default printer, usable directly or
// via the name "default" in the Listener registry.
func NewDefaultListener(out io.Writer) Listener {
	return &DefaultListener{out: out}
}

func (l *DefaultListener) Start(e EventStart) {
	l.start = time.Now()
	fmt.Fprintf(l.out, "%s: %d mutation point(s)\n", e.Target, e.Total)
}

func (l *DefaultListener) Mutation(EventMutation) {}

func (l *DefaultListener) Verdict(e EventVerdict) {
	switch e.Outcome {
	case Killed:
		fmt.Fprint(l.out, fgHiGreen("."))
	case TimedOut:
		fmt.Fprint(l.out, fgGreen("T"))
	case Errored:
		fmt.Fprint(l.out, fgHiBlack("E"))
	case Skipped:
		fmt.Fprint(l.out, fgHiBlack("-"))
	case Lived:
		fmt.Fprintf(l.out, "\n%s mutant %d survived", fgRed("M"), e.Index)
		if e.Detail != "" {
			fmt.Fprintf(l.out, ": %s", e.Detail)
		}
		fmt.Fprintln(l.out)
	}
}

func (l *DefaultListener) End(e EventEnd) {
	elapsed := durafmt.Parse(time.Since(l.start)).LimitFirstN(2)
	fmt.Fprintf(l.out, "\n\nCompleted in %s\n", elapsed)
	fmt.Fprintf(l.out, "Killed: %s, Survived: %s, Timed out: %s, Errored: %s, Skipped: %s\n",
		fgHiGreen(e.Score.Killed), fgRed(e.Score.Lived), fgGreen(e.Score.TimedOut), fgHiBlack(e.Score.Errored), fgHiBlack(e.Score.Skipped))
	fmt.Fprintf(l.out, "Mutation score: %.2f%% (%d/%d)\n", e.Score.Percent(), e.Score.Detected(), e.Score.Total)
}
