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

// Package scenario runs one Scenario (a baseline or a mutant trial) as an
// ordered sequence of cargo subprocesses in a build directory, the way the
// teacher's internal/engine executor runs `go test` for one mutator.Mutator
// — except here a scenario is a whole phase pipeline instead of one command,
// and the tool is cargo/nextest instead of the go toolchain.
package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// Tool selects the build/test command the scenario runner invokes.
type Tool int

const (
	ToolCargo Tool = iota
	ToolNextest
)

// PackageSelection describes which packages a phase's argv targets.
type PackageSelection struct {
	Workspace bool
	Packages  []string // package names, each becomes a --package flag
	ManifestPath string // set when targeting exactly one package by manifest
}

// Config holds everything a Run needs beyond the scenario itself: the
// working directory, tool choice, package selection, timeouts and extra
// user args, mirroring the knobs of spec §6's .cargo/mutants.toml.
type Config struct {
	WorkDir            string
	CargoBin           string
	Tool               Tool
	CheckOnly          bool
	Packages           PackageSelection
	PhaseTimeout       time.Duration
	AdditionalCargoArgs     []string
	AdditionalCargoTestArgs []string
	Features           []string
	AllFeatures        bool
	NoDefaultFeatures  bool
	LogPath            string
	DiffPath           string
}

// execContext is overridden in tests.
type execContext = func(ctx context.Context, name string, args ...string) *exec.Cmd

var defaultExecContext execContext = exec.CommandContext

// Interrupt is checked between phases and while waiting for a phase's
// subprocess; a closed channel requests the scenario abort as if it had
// timed out.
type Interrupt <-chan struct{}

// phasesFor returns the ordered phase list for a scenario per spec §4.F:
// [Check] for a check-only run, else [Build, Test].
func phasesFor(checkOnly bool) []mutant.Phase {
	if checkOnly {
		return []mutant.Phase{mutant.Check}
	}

	return []mutant.Phase{mutant.Build, mutant.Test}
}

// Run executes sc's phase pipeline in cfg.WorkDir and returns the recorded
// outcome. A failing phase (other than Test) short-circuits the remaining
// phases, since there is nothing left to learn from running them.
func Run(ctx context.Context, sc mutant.Scenario, cfg Config, interrupt Interrupt) mutant.ScenarioOutcome {
	return run(ctx, sc, cfg, interrupt, defaultExecContext)
}

func run(ctx context.Context, sc mutant.Scenario, cfg Config, interrupt Interrupt, execCmd execContext) mutant.ScenarioOutcome {
	outcome := mutant.ScenarioOutcome{Scenario: sc, LogPath: cfg.LogPath, DiffPath: cfg.DiffPath}

	var logBuf bytes.Buffer
	writeHeader(&logBuf, sc, cfg)

	for _, phase := range phasesFor(cfg.CheckOnly) {
		argv := buildArgv(phase, cfg)
		pr, out, errOut := runPhase(ctx, execCmd, cfg, phase, argv, interrupt)

		fmt.Fprintf(&logBuf, "\n--- %s ---\n$ %s\n", phase, strings.Join(argv, " "))
		logBuf.Write(out)
		logBuf.Write(errOut)
		fmt.Fprintf(&logBuf, "\nexit: %s (%d) in %s\n", pr.Exit, pr.Exit.Code, pr.Duration)

		outcome.PhaseResults = append(outcome.PhaseResults, pr)

		if pr.Failed() && phase != mutant.Test {
			break
		}
	}

	if cfg.LogPath != "" {
		_ = os.WriteFile(cfg.LogPath, logBuf.Bytes(), 0o644) //nolint:gosec // log output, not sensitive
	}

	return outcome
}

func writeHeader(buf *bytes.Buffer, sc mutant.Scenario, cfg Config) {
	if sc.Kind == mutant.BaselineScenario {
		fmt.Fprintf(buf, "baseline scenario in %s\n", cfg.WorkDir)

		return
	}
	m := sc.Mutant
	fmt.Fprintf(buf, "mutant scenario: %s\n", m.Name())
	if m.SourceFile != nil {
		fmt.Fprintf(buf, "%s\n", span(m))
	}
}

func span(m *mutant.Mutant) string {
	return fmt.Sprintf("%s:%d:%d -> %d:%d replace with %s",
		m.SourceFile.TreeRelativePath, m.Span.Start.Line, m.Span.Start.Column,
		m.Span.End.Line, m.Span.End.Column, m.Replacement)
}

// buildArgv constructs the subprocess argument vector for phase, following
// spec §4.F item 3: tool choice, package selection, extra args.
func buildArgv(phase mutant.Phase, cfg Config) []string {
	var args []string

	switch {
	case phase == mutant.Check:
		args = append(args, "check")
	case phase == mutant.Build:
		args = append(args, "build")
	case cfg.Tool == ToolNextest:
		args = append(args, "nextest", "run")
	default:
		args = append(args, "test")
	}

	args = append(args, packageArgs(cfg.Packages)...)

	if cfg.AllFeatures {
		args = append(args, "--all-features")
	}
	if cfg.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(cfg.Features) > 0 {
		args = append(args, "--features", strings.Join(cfg.Features, ","))
	}

	args = append(args, cfg.AdditionalCargoArgs...)

	if phase == mutant.Test && len(cfg.AdditionalCargoTestArgs) > 0 {
		args = append(args, "--")
		args = append(args, cfg.AdditionalCargoTestArgs...)
	}

	return args
}

func packageArgs(sel PackageSelection) []string {
	switch {
	case sel.ManifestPath != "":
		return []string{"--manifest-path", sel.ManifestPath}
	case sel.Workspace:
		return []string{"--workspace"}
	default:
		var args []string
		for _, p := range sel.Packages {
			args = append(args, "--package", p)
		}

		return args
	}
}

// runPhase spawns one phase's subprocess, applying the timeout/interrupt
// handling and mutated-code environment of spec §4.F items 2 and 4: a
// process group so the whole cargo/rustc/test tree can be killed together,
// CARGO_ENCODED_RUSTFLAGS augmented with --cap-lints=allow, and snapshot
// self-updates disabled.
func runPhase(ctx context.Context, execCmd execContext, cfg Config, phase mutant.Phase, argv []string, interrupt Interrupt) (mutant.PhaseResult, []byte, []byte) {
	start := time.Now()

	cargoBin := cfg.CargoBin
	if cargoBin == "" {
		cargoBin = "cargo"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, effectiveTimeout(cfg.PhaseTimeout))
	defer cancel()

	cmd := execCmd(timeoutCtx, cargoBin, argv...)
	cmd.Dir = cfg.WorkDir
	cmd.Env = mutatedEnv(os.Environ())
	setupProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return mutant.PhaseResult{Phase: phase, Duration: time.Since(start), Argv: argv,
			Exit: mutant.Exit{Kind: mutant.Other, Code: -1}}, stdout.Bytes(), stderr.Bytes()
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-timeoutCtx.Done():
		err = waitOutAfterSignal(cmd, done, terminateProcessGroup)

		return mutant.PhaseResult{Phase: phase, Duration: time.Since(start), Argv: argv,
			Exit: mutant.Exit{Kind: mutant.Timeout}}, stdout.Bytes(), stderr.Bytes()
	case <-interruptChan(interrupt):
		err = waitOutAfterSignal(cmd, done, terminateProcessGroup)

		return mutant.PhaseResult{Phase: phase, Duration: time.Since(start), Argv: argv,
			Exit: mutant.Exit{Kind: mutant.Other, Signal: "interrupted"}}, stdout.Bytes(), stderr.Bytes()
	}

	dur := time.Since(start)
	exit := classifyExit(err, phase, cfg.Tool)

	return mutant.PhaseResult{Phase: phase, Duration: dur, Argv: argv, Exit: exit}, stdout.Bytes(), stderr.Bytes()
}

func interruptChan(i Interrupt) <-chan struct{} {
	if i == nil {
		return nil
	}

	return i
}

// waitOutAfterSignal sends the given process-group signal, gives the
// process group 10s to exit on its own, then force-kills it, per spec
// §4.F item 4.
func waitOutAfterSignal(cmd *exec.Cmd, done <-chan error, signal func(*exec.Cmd) error) error {
	_ = signal(cmd)

	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		_ = killProcessGroup(cmd)

		return <-done
	}
}

func effectiveTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Minute
	}

	return d
}

// mutatedEnv augments the inherited environment the way spec §4.F item 4
// requires: CARGO_ENCODED_RUSTFLAGS gains --cap-lints=allow so mutated code's
// new warnings can't turn into build failures, and INSTA_UPDATE is forced
// off so snapshot tests can't silently rewrite themselves under mutation.
func mutatedEnv(base []string) []string {
	env := make([]string, 0, len(base)+2)
	var rustflags []string
	hasInsta := false
	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, "CARGO_ENCODED_RUSTFLAGS="):
			existing := strings.TrimPrefix(kv, "CARGO_ENCODED_RUSTFLAGS=")
			if existing != "" {
				rustflags = strings.Split(existing, "\x1f")
			}
		case strings.HasPrefix(kv, "RUSTFLAGS="):
			existing := strings.TrimPrefix(kv, "RUSTFLAGS=")
			if existing != "" {
				rustflags = append(rustflags, strings.Fields(existing)...)
			}
		case strings.HasPrefix(kv, "INSTA_UPDATE="):
			hasInsta = true
			env = append(env, "INSTA_UPDATE=no")
		default:
			env = append(env, kv)
		}
	}
	rustflags = append(rustflags, "--cap-lints=allow")
	env = append(env, "CARGO_ENCODED_RUSTFLAGS="+strings.Join(rustflags, "\x1f"))
	if !hasInsta {
		env = append(env, "INSTA_UPDATE=no")
	}

	return env
}

// nextestUnexpectedExit is the documented "test run failed" exit code
// cargo-nextest uses to report ordinary test failure.
const nextestUnexpectedExit = 100

// classifyExit maps a finished subprocess's error into an Exit per spec
// §4.F item 3's tolerance rule: for a nextest test phase, only the
// documented failure code is an ordinary Failure; any other non-zero code
// is still a Failure but warrants a warning upstream.
func classifyExit(err error, phase mutant.Phase, tool Tool) mutant.Exit {
	if err == nil {
		return mutant.Exit{Kind: mutant.Success}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if tool == ToolNextest && phase == mutant.Test && code != nextestUnexpectedExit {
			return mutant.Exit{Kind: mutant.Failure, Code: code, Signal: "unexpected nextest exit code"}
		}

		return mutant.Exit{Kind: mutant.Failure, Code: code}
	}

	return mutant.Exit{Kind: mutant.Other, Code: -1, Signal: err.Error()}
}
