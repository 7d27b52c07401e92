/*
 * Copyright 2022 The Gremlins Authors
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

package report

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hako/durafmt"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

var (
	fgRed     = color.New(color.FgRed).SprintFunc()
	fgGreen   = color.New(color.FgGreen).SprintFunc()
	fgYellow  = color.New(color.FgYellow).SprintFunc()
	fgHiBlack = color.New(color.FgHiBlack).SprintFunc()
)

// Summarize writes a human console summary of a completed run to out,
// mirroring the teacher's own mutation-status tally with cargo's own
// outcome vocabulary.
func Summarize(out *os.File, lo mutant.LabOutcome) {
	counts := lo.Counts()
	elapsed := durafmt.Parse(lo.EndTime.Sub(lo.StartTime)).LimitFirstN(2)

	fmt.Fprintf(out, "%s %s\n", fgGreen("Caught:"), countOf(counts, mutant.SummaryCaughtMutant))
	fmt.Fprintf(out, "%s %s\n", fgRed("Missed:"), countOf(counts, mutant.SummaryMissedMutant))
	fmt.Fprintf(out, "%s %s\n", fgYellow("Timeout:"), countOf(counts, mutant.SummaryTimeout))
	fmt.Fprintf(out, "%s %s\n", fgHiBlack("Unviable:"), countOf(counts, mutant.SummaryUnviable))
	fmt.Fprintf(out, "Elapsed: %s\n", elapsed)
}

func countOf(counts map[mutant.Summary]int, s mutant.Summary) string {
	return fmt.Sprintf("%d", counts[s])
}

// AnnotateGitHubActions emits one "::warning" line per missed mutant in
// GitHub Actions' own workflow-command annotation format, auto-detected by
// the presence of the GITHUB_ACTION environment variable per spec §6.
func AnnotateGitHubActions(out *os.File, lo mutant.LabOutcome) {
	if os.Getenv("GITHUB_ACTION") == "" {
		return
	}

	for _, o := range lo.Outcomes {
		if o.Summary() != mutant.SummaryMissedMutant || o.Scenario.Mutant == nil {
			continue
		}
		m := o.Scenario.Mutant
		fmt.Fprintf(out, "::warning file=%s,line=%d,endLine=%d,col=%d,endColumn=%d::mutant survived: %s\n",
			m.SourceFile.TreeRelativePath,
			m.Span.Start.Line, m.Span.End.Line,
			m.Span.Start.Column, m.Span.End.Column,
			m.Name())
	}
}
