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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

type outcomeDoc struct {
	Mutant   string `json:"mutant,omitempty"`
	Summary  string `json:"summary"`
	LogPath  string `json:"log_path,omitempty"`
	DiffPath string `json:"diff_path,omitempty"`
}

type outcomesDoc struct {
	StartTime           time.Time      `json:"start_time"`
	EndTime              time.Time      `json:"end_time"`
	CargoMutantsVersion string         `json:"cargo_mutants_version"`
	Counts              map[string]int `json:"counts"`
	Outcomes             []outcomeDoc   `json:"outcomes"`
}

var listFileFor = map[mutant.Summary]string{
	mutant.SummaryCaughtMutant: "caught.txt",
	mutant.SummaryMissedMutant: "missed.txt",
	mutant.SummaryTimeout:      "timeout.txt",
	mutant.SummaryUnviable:     "unviable.txt",
}

// Run incrementally persists a lab run's output directory: outcomes.json is
// rewritten after every scenario, and the per-summary text lists are
// appended to as outcomes arrive, matching spec §6's "rewritten after each
// scenario" requirement for outcomes.json without re-deriving the whole
// file's on-disk history from memory alone.
type Run struct {
	ps      PathSet
	version string

	mu       sync.Mutex
	start    time.Time
	outcomes []mutant.ScenarioOutcome
	lists    map[string]*os.File
}

// NewRun opens (or creates) the text list files inside ps and returns a Run
// ready to receive outcomes.
func NewRun(ps PathSet, version string) (*Run, error) {
	r := &Run{ps: ps, version: version, start: time.Now(), lists: map[string]*os.File{}}
	for _, name := range listFileFor {
		f, err := os.OpenFile(filepath.Join(ps.Root, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			r.Close()

			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		r.lists[name] = f
	}

	return r, nil
}

// Record appends one outcome, updates the matching text list and rewrites
// outcomes.json. It is safe to use as a lab.Options.OnOutcome callback.
func (r *Run) Record(o mutant.ScenarioOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, o)

	if o.Scenario.Mutant != nil {
		if name, ok := listFileFor[o.Summary()]; ok {
			if f := r.lists[name]; f != nil {
				_, _ = fmt.Fprintln(f, o.Scenario.Mutant.Name())
			}
		}
	}

	if err := r.writeOutcomesLocked(time.Time{}); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
	}
}

// Finalize writes the final outcomes.json with an end time set. It leaves
// the list files open; Close releases them.
func (r *Run) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeOutcomesLocked(time.Now())
}

// Close releases the text list file handles. Safe to call after Finalize.
func (r *Run) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.lists {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (r *Run) writeOutcomesLocked(end time.Time) error {
	doc := outcomesDoc{
		StartTime:           r.start,
		EndTime:              end,
		CargoMutantsVersion: r.version,
		Counts:              map[string]int{},
	}
	for _, o := range r.outcomes {
		s := o.Summary().String()
		doc.Counts[s]++
		entry := outcomeDoc{Summary: s, LogPath: o.LogPath, DiffPath: o.DiffPath}
		if o.Scenario.Mutant != nil {
			entry.Mutant = o.Scenario.Mutant.Name()
		}
		doc.Outcomes = append(doc.Outcomes, entry)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding outcomes.json: %w", err)
	}
	if err := validateAgainst(outcomesSchema, data); err != nil {
		return fmt.Errorf("outcomes.json: %w", err)
	}

	return os.WriteFile(filepath.Join(r.ps.Root, "outcomes.json"), data, 0o644)
}

// WritePreviouslyCaught appends every caught or unviable mutant's name from
// lo to previously_caught.txt, accumulating across iterate runs per spec §6.
func WritePreviouslyCaught(ps PathSet, lo mutant.LabOutcome) error {
	f, err := os.OpenFile(filepath.Join(ps.Root, "previously_caught.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening previously_caught.txt: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, o := range lo.Outcomes {
		if o.Scenario.Mutant == nil {
			continue
		}
		s := o.Summary()
		if s == mutant.SummaryCaughtMutant || s == mutant.SummaryUnviable {
			fmt.Fprintln(w, o.Scenario.Mutant.Name())
		}
	}

	return w.Flush()
}
