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

package lab

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/scenario"
	"github.com/cargo-gremlins/gremlins/internal/span"
)

func scenarioConfigWithCargoBin(cargoBin string) scenario.Config {
	return scenario.Config{
		CargoBin: cargoBin,
		Packages: scenario.PackageSelection{Workspace: true},
	}
}

func TestRunNoMutantsReturnsErr(t *testing.T) {
	res := Run(context.Background(), Options{})
	assert.ErrorIs(t, res.Err, ErrNoMutants)
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		res  Result
		want int
	}{
		{"error", Result{Err: assertErr}, 1},
		{"baseline failed", Result{BaselineFailed: true}, 4},
		{"any timeout", Result{Outcome: outcomeWith(mutant.SummaryTimeout)}, 3},
		{"any missed", Result{Outcome: outcomeWith(mutant.SummaryMissedMutant)}, 2},
		{"all caught", Result{Outcome: outcomeWith(mutant.SummaryCaughtMutant)}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.res))
		})
	}
}

var assertErr = os.ErrInvalid

func outcomeWith(s mutant.Summary) mutant.LabOutcome {
	var pr mutant.PhaseResult
	switch s {
	case mutant.SummaryTimeout:
		pr = mutant.PhaseResult{Phase: mutant.Test, Exit: mutant.Exit{Kind: mutant.Timeout}}
	case mutant.SummaryMissedMutant:
		pr = mutant.PhaseResult{Phase: mutant.Test, Exit: mutant.Exit{Kind: mutant.Success}}
	default:
		pr = mutant.PhaseResult{Phase: mutant.Test, Exit: mutant.Exit{Kind: mutant.Failure}}
	}

	return mutant.LabOutcome{Outcomes: []mutant.ScenarioOutcome{
		{Scenario: mutant.Scenario{Kind: mutant.MutantScenario, Mutant: &mutant.Mutant{}}, PhaseResults: []mutant.PhaseResult{pr}},
	}}
}

func TestQueuePopDrainsInOrderThenReportsEmpty(t *testing.T) {
	m1 := mutant.Mutant{ShortReplaced: "a"}
	m2 := mutant.Mutant{ShortReplaced: "b"}
	q := newQueue([]mutant.Mutant{m1, m2})

	got1, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, m1, got1)

	got2, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, m2, got2)

	_, ok = q.pop()
	assert.False(t, ok)
}

func TestAggregatorRecordInvokesCallback(t *testing.T) {
	var seen []mutant.ScenarioOutcome
	agg := &aggregator{onOutcome: func(o mutant.ScenarioOutcome) { seen = append(seen, o) }}

	o := mutant.ScenarioOutcome{Scenario: mutant.Scenario{Kind: mutant.BaselineScenario}}
	agg.record(o)

	assert.Len(t, seen, 1)
	assert.Len(t, agg.outcomes, 1)
}

func TestCalibrateSkipUsesExplicitTimeout(t *testing.T) {
	testTimeout, buildTimeout, outcome, failed := calibrate(context.Background(), Options{
		Baseline:            BaselineSkip,
		ExplicitTestTimeout: 42 * time.Second,
	}, "")

	assert.Equal(t, 42*time.Second, testTimeout)
	assert.Zero(t, buildTimeout)
	assert.Nil(t, outcome)
	assert.False(t, failed)
}

func TestCalibrateSkipWithoutExplicitTimeoutFallsBackAndWarns(t *testing.T) {
	var warning string
	testTimeout, _, _, failed := calibrate(context.Background(), Options{
		Baseline:  BaselineSkip,
		OnWarning: func(msg string) { warning = msg },
	}, "")

	assert.Equal(t, fallbackTestTimeout, testTimeout)
	assert.False(t, failed)
	assert.Contains(t, warning, "fallback")
}

// TestRunEndToEndWithFakeCargo exercises the full lab sequence — baseline
// calibration, build-directory provisioning and the worker pool — against a
// fake cargo binary standing in for the toolchain, the way the teacher
// avoids invoking the real go tool in its own execution tests.
func TestRunEndToEndWithFakeCargo(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"p\"\nversion = \"0.1.0\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "lib.rs"), []byte("pub fn f() -> bool { true }\n"), 0o644))

	fakeCargo := writeFakeCargo(t)

	m := mutant.Mutant{
		SourceFile:    &mutant.SourceFile{TreeRelativePath: "src/lib.rs"},
		ShortReplaced: "true",
		Replacement:   "false",
		Span:          span.Span{Start: span.Position{Line: 1, Column: 22}, End: span.Position{Line: 1, Column: 26}},
	}

	buildBase := t.TempDir()

	var recorded []mutant.ScenarioOutcome
	res := Run(context.Background(), Options{
		Mutants:       []mutant.Mutant{m},
		WorkspaceRoot: root,
		BuildDirBase:  buildBase,
		Jobs:          1,
		ScenarioTemplate: scenarioConfigWithCargoBin(fakeCargo),
		OnOutcome: func(o mutant.ScenarioOutcome) { recorded = append(recorded, o) },
	})

	require.NoError(t, res.Err)
	require.False(t, res.BaselineFailed)
	require.Len(t, res.Outcome.Outcomes, 2) // baseline + one mutant
	assert.Equal(t, mutant.SummarySuccess, res.Outcome.Outcomes[0].Summary())
	assert.Equal(t, mutant.SummaryCaughtMutant, res.Outcome.Outcomes[1].Summary())
	assert.Len(t, recorded, 2)
}

func TestRunClampsExcessiveJobsWithWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"p\"\n"), 0o644))
	fakeCargo := writeFakeCargo(t)

	m := mutant.Mutant{SourceFile: &mutant.SourceFile{TreeRelativePath: "src/lib.rs"}, Span: span.Span{Start: span.Position{Line: 1, Column: 1}, End: span.Position{Line: 1, Column: 1}}}

	var warnings []string
	res := Run(context.Background(), Options{
		Mutants:          []mutant.Mutant{m},
		WorkspaceRoot:    root,
		BuildDirBase:     t.TempDir(),
		Jobs:             100,
		ScenarioTemplate: scenarioConfigWithCargoBin(fakeCargo),
		OnWarning:        func(msg string) { warnings = append(warnings, msg) },
	})

	require.NoError(t, res.Err)
	found := false
	for _, w := range warnings {
		if w != "" {
			found = true
		}
	}
	assert.True(t, found)
}

// writeFakeCargo writes a tiny shell script that stands in for the cargo
// binary: "build"/"check" always succeed, "test" fails whenever the word
// "false" appears anywhere under the working directory's src tree, which is
// exactly what the "true"->"false" mutant above produces.
func writeFakeCargo(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo script requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "cargo")
	script := `#!/bin/sh
case "$1" in
  test)
    if grep -rq "false" src 2>/dev/null; then
      exit 101
    fi
    exit 0
    ;;
  *)
    exit 0
    ;;
esac
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}
