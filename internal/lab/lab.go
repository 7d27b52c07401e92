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

// Package lab orchestrates a full mutation run: baseline calibration, a
// worker pool of build directories each running scenarios against a share
// of the mutant queue, and exit-code derivation — the way the teacher's
// internal/engine.Engine drives mutator.Mutator execution over its own
// workerpool, generalized here to cargo scenarios and real subprocess
// timeouts instead of Go-native test execution.
package lab

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cargo-gremlins/gremlins/internal/builddir"
	"github.com/cargo-gremlins/gremlins/internal/lab/workerpool"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/report"
	"github.com/cargo-gremlins/gremlins/internal/scenario"
)

// BaselineMode selects whether the lab calibrates timeouts by running a
// baseline scenario first.
type BaselineMode int

const (
	BaselineRun BaselineMode = iota
	BaselineSkip
)

const (
	defaultTestMultiplier     = 5
	defaultMinimumTestTimeout = 20 * time.Second
	fallbackTestTimeout       = 300 * time.Second
	maxRecommendedJobs        = 8
)

// Options configures one lab run.
type Options struct {
	Mutants []mutant.Mutant

	WorkspaceRoot string
	BuildDirBase  string
	BuildOptions  builddir.Options

	ScenarioTemplate scenario.Config // WorkDir/LogPath/DiffPath/PhaseTimeout are filled in per scenario

	Baseline               BaselineMode
	ExplicitTestTimeout    time.Duration // required when Baseline == BaselineSkip and > 0
	MinimumTestTimeout     time.Duration
	TestTimeoutMultiplier  float64
	BuildTimeoutMultiplier float64 // scales the baseline build duration into a build timeout; mutant scenarios do not apply it (see worker.runOne)

	Jobs int

	Paths     report.PathSet
	Basenames *report.Basenames

	// OnOutcome is invoked after every scenario, including the baseline, so
	// a caller can persist outcomes.json and the text lists incrementally.
	// It runs after the aggregator lock is released, so calls from several
	// workers can overlap; the callback does its own locking.
	OnOutcome func(mutant.ScenarioOutcome)
	// OnWarning surfaces a non-fatal advisory (e.g. jobs clamped, unexpected
	// nextest exit code) without aborting the run.
	OnWarning func(string)

	Interrupt scenario.Interrupt
}

// Result is the outcome of a whole lab run.
type Result struct {
	Outcome        mutant.LabOutcome
	BaselineFailed bool
	Err            error
}

// ErrNoMutants is returned when Options.Mutants is empty after filtering.
var ErrNoMutants = errors.New("no mutants to test")

// Run executes the full lab sequence of spec §4.G.
func Run(ctx context.Context, opts Options) Result {
	if len(opts.Mutants) == 0 {
		return Result{Err: ErrNoMutants}
	}

	warn := opts.OnWarning
	if warn == nil {
		warn = func(string) {}
	}

	dealer := builddir.NewDealer(opts.WorkspaceRoot, opts.BuildDirBase, opts.BuildOptions)

	baselineDir, err := dealer.Provision("baseline")
	if err != nil {
		return Result{Err: fmt.Errorf("provisioning baseline build directory: %w", err)}
	}

	outcome := mutant.LabOutcome{StartTime: time.Now()}

	testTimeout, buildTimeout, baselineOutcome, baselineFailed := calibrate(ctx, opts, baselineDir)
	if baselineOutcome != nil {
		outcome.Outcomes = append(outcome.Outcomes, *baselineOutcome)
		if opts.OnOutcome != nil {
			opts.OnOutcome(*baselineOutcome)
		}
	}
	if baselineFailed {
		outcome.EndTime = time.Now()

		return Result{Outcome: outcome, BaselineFailed: true}
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > maxRecommendedJobs {
		warn(fmt.Sprintf("jobs=%d exceeds the recommended maximum of %d", jobs, maxRecommendedJobs))
		jobs = maxRecommendedJobs
	}

	q := newQueue(opts.Mutants)
	agg := &aggregator{onOutcome: opts.OnOutcome}

	var wg sync.WaitGroup
	errs := make(chan error, jobs)

	pool := workerpool.Initialize("lab", jobs)
	pool.Start()

	for i := 0; i < jobs; i++ {
		wg.Add(1)
		workerDir := baselineDir
		if i > 0 {
			workerDir, err = dealer.Provision(fmt.Sprintf("w%d", i))
			if err != nil {
				wg.Done()
				errs <- fmt.Errorf("provisioning build directory for worker %d: %w", i, err)

				continue
			}
		}
		pool.AppendExecutor(&worker{
			dir:          workerDir,
			queue:        q,
			agg:          agg,
			cfg:          opts.ScenarioTemplate,
			testTimeout:  testTimeout,
			buildTimeout: buildTimeout,
			paths:        opts.Paths,
			basenames:    opts.Basenames,
			interrupt:    opts.Interrupt,
			done:         wg.Done,
		})
	}
	pool.Stop()

	close(errs)
	var firstErr error
	for e := range errs {
		if firstErr == nil {
			firstErr = e
		}
	}

	outcome.Outcomes = append(outcome.Outcomes, agg.outcomes...)
	outcome.EndTime = time.Now()

	dealer.CleanAll()

	return Result{Outcome: outcome, Err: firstErr}
}

// calibrate runs or skips the baseline per spec §4.G step 2, returning the
// derived per-phase timeouts.
func calibrate(ctx context.Context, opts Options, baselineDir string) (testTimeout, buildTimeout time.Duration, outcome *mutant.ScenarioOutcome, failed bool) {
	minTestTimeout := opts.MinimumTestTimeout
	if minTestTimeout <= 0 {
		minTestTimeout = defaultMinimumTestTimeout
	}
	multiplier := opts.TestTimeoutMultiplier
	if multiplier <= 0 {
		multiplier = defaultTestMultiplier
	}

	if opts.Baseline == BaselineSkip {
		testTimeout = opts.ExplicitTestTimeout
		if testTimeout <= 0 {
			testTimeout = fallbackTestTimeout
			if opts.OnWarning != nil {
				opts.OnWarning("no test timeout configured and baseline skipped; using fallback of 300s")
			}
		}

		return testTimeout, 0, nil, false
	}

	cfg := opts.ScenarioTemplate
	cfg.WorkDir = baselineDir
	cfg.PhaseTimeout = 0 // scenario's default cap: 10 minutes per phase
	if opts.Paths.Root != "" && opts.Basenames != nil {
		sc := mutant.Scenario{Kind: mutant.BaselineScenario}
		basename := opts.Basenames.For(sc)
		cfg.LogPath = opts.Paths.LogPath(basename)
	}

	start := time.Now()
	var buildDuration time.Duration
	res := scenario.Run(ctx, mutant.Scenario{Kind: mutant.BaselineScenario}, cfg, opts.Interrupt)
	for _, pr := range res.PhaseResults {
		if pr.Phase == mutant.Build {
			buildDuration = pr.Duration
		}
	}
	testDuration := time.Since(start)

	if res.Summary() != mutant.SummarySuccess {
		return 0, 0, &res, true
	}

	testTimeout = testDuration * time.Duration(multiplier)
	if testTimeout < minTestTimeout {
		testTimeout = minTestTimeout
	}

	if opts.BuildTimeoutMultiplier > 0 {
		buildTimeout = time.Duration(float64(buildDuration) * opts.BuildTimeoutMultiplier)
	}

	return testTimeout, buildTimeout, &res, false
}

// queue is a mutex-guarded FIFO popped by every worker.
type queue struct {
	mu      sync.Mutex
	mutants []mutant.Mutant
	next    int
}

func newQueue(mutants []mutant.Mutant) *queue {
	return &queue{mutants: mutants}
}

func (q *queue) pop() (mutant.Mutant, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.mutants) {
		return mutant.Mutant{}, false
	}
	m := q.mutants[q.next]
	q.next++

	return m, true
}

// aggregator collects scenario outcomes under a single lock, per spec §5's
// shared-state model.
type aggregator struct {
	mu        sync.Mutex
	outcomes  []mutant.ScenarioOutcome
	onOutcome func(mutant.ScenarioOutcome)
}

func (a *aggregator) record(o mutant.ScenarioOutcome) {
	a.mu.Lock()
	a.outcomes = append(a.outcomes, o)
	cb := a.onOutcome
	a.mu.Unlock()

	if cb != nil {
		cb(o)
	}
}

// worker implements workerpool.Executor: it owns one build directory and
// drains the shared queue until empty or interrupted.
type worker struct {
	dir          string
	queue        *queue
	agg          *aggregator
	cfg          scenario.Config
	testTimeout  time.Duration
	buildTimeout time.Duration
	paths        report.PathSet
	basenames    *report.Basenames
	interrupt    scenario.Interrupt
	done         func()
}

func (w *worker) Start(_ *workerpool.Worker) {
	defer w.done()

	for {
		if interrupted(w.interrupt) {
			return
		}

		m, ok := w.queue.pop()
		if !ok {
			return
		}

		w.runOne(m)
	}
}

func (w *worker) runOne(m mutant.Mutant) {
	sc := mutant.Scenario{Kind: mutant.MutantScenario, Mutant: &m}

	cfg := w.cfg
	cfg.WorkDir = w.dir
	// scenario.Config has a single PhaseTimeout, so the test timeout bounds
	// the build phase as well; w.buildTimeout is not applied.
	cfg.PhaseTimeout = w.testTimeout
	if w.basenames != nil {
		basename := w.basenames.For(sc)
		if w.paths.Root != "" {
			cfg.LogPath = w.paths.LogPath(basename)
			cfg.DiffPath = w.paths.DiffPath(basename)
		}
	}

	original, err := applyMutant(w.dir, m)
	if err != nil {
		w.agg.record(mutant.ScenarioOutcome{Scenario: sc})

		return
	}
	defer func() { _ = revertMutant(w.dir, m, original) }()

	outcome := scenario.Run(context.Background(), sc, cfg, w.interrupt)
	w.agg.record(outcome)
}

func applyMutant(dir string, m mutant.Mutant) ([]byte, error) {
	return builddir.Apply(dir, m)
}

func revertMutant(dir string, m mutant.Mutant, original []byte) error {
	return builddir.Revert(dir, m, original)
}

func interrupted(i scenario.Interrupt) bool {
	if i == nil {
		return false
	}
	select {
	case <-i:
		return true
	default:
		return false
	}
}

// ExitCode derives the process exit code from a lab run's result per spec
// §4.G step 6: 0 all caught/success, 2 any missed, 3 any timeout, 4 baseline
// failed.
func ExitCode(r Result) int {
	if r.Err != nil {
		return 1
	}
	if r.BaselineFailed {
		return 4
	}

	counts := r.Outcome.Counts()
	if counts[mutant.SummaryTimeout] > 0 {
		return 3
	}
	if counts[mutant.SummaryMissedMutant] > 0 {
		return 2
	}

	return 0
}
