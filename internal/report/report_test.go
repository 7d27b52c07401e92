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

package report_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/report"
)

func newPathSet(t *testing.T) report.PathSet {
	t.Helper()
	ps, err := report.NewPathSet(t.TempDir())
	require.NoError(t, err)

	return ps
}

func sampleMutant() mutant.Mutant {
	sf := &mutant.SourceFile{TreeRelativePath: "src/lib.rs"}

	return mutant.Mutant{
		SourceFile:  sf,
		Genre:       mutant.BinaryOperator,
		Replacement: "-",
	}
}

func TestPrepareOutputDirRotatesExisting(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, report.OutDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644))

	ps, err := report.PrepareOutputDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, ps.Root)

	_, err = os.Stat(filepath.Join(dir+".old", "marker"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "marker"))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireAndReleaseLock(t *testing.T) {
	ps := newPathSet(t)

	require.NoError(t, report.AcquireLock(ps, "0.1.0"))
	err := report.AcquireLock(ps, "0.1.0")
	assert.Error(t, err)

	require.NoError(t, report.ReleaseLock(ps))
	assert.NoError(t, report.AcquireLock(ps, "0.1.0"))
}

func TestWriteMutants(t *testing.T) {
	ps := newPathSet(t)

	require.NoError(t, report.WriteMutants(ps, []mutant.Mutant{sampleMutant()}))

	data, err := os.ReadFile(filepath.Join(ps.Root, "mutants.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "BinaryOperator")
}

func TestRunRecordsAndFinalizes(t *testing.T) {
	ps := newPathSet(t)

	run, err := report.NewRun(ps, "0.1.0")
	require.NoError(t, err)

	m := sampleMutant()
	outcome := mutant.ScenarioOutcome{
		Scenario: mutant.Scenario{Kind: mutant.MutantScenario, Mutant: &m},
		PhaseResults: []mutant.PhaseResult{
			{Phase: mutant.Test, Exit: mutant.Exit{Kind: mutant.Failure, Code: 1}},
		},
	}
	run.Record(outcome)
	require.NoError(t, run.Finalize())
	run.Close()

	data, err := os.ReadFile(filepath.Join(ps.Root, "outcomes.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"caught"`)

	caught, err := os.ReadFile(filepath.Join(ps.Root, "caught.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(caught), "src/lib.rs")
}

func TestWritePreviouslyCaughtAppendsCaughtAndUnviable(t *testing.T) {
	ps := newPathSet(t)

	m1 := sampleMutant()
	m2 := sampleMutant()
	lo := mutant.LabOutcome{
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Outcomes: []mutant.ScenarioOutcome{
			{
				Scenario:     mutant.Scenario{Kind: mutant.MutantScenario, Mutant: &m1},
				PhaseResults: []mutant.PhaseResult{{Phase: mutant.Test, Exit: mutant.Exit{Kind: mutant.Failure}}},
			},
			{
				Scenario:     mutant.Scenario{Kind: mutant.MutantScenario, Mutant: &m2},
				PhaseResults: []mutant.PhaseResult{{Phase: mutant.Build, Exit: mutant.Exit{Kind: mutant.Failure}}},
			},
		},
	}

	require.NoError(t, report.WritePreviouslyCaught(ps, lo))

	data, err := os.ReadFile(filepath.Join(ps.Root, "previously_caught.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "src/lib.rs")
}
