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

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cargo-gremlins/gremlins/cmd/internal/flags"
	"github.com/cargo-gremlins/gremlins/internal/builddir"
	"github.com/cargo-gremlins/gremlins/internal/configuration"
	"github.com/cargo-gremlins/gremlins/internal/diff"
	"github.com/cargo-gremlins/gremlins/internal/execution"
	"github.com/cargo-gremlins/gremlins/internal/filter"
	"github.com/cargo-gremlins/gremlins/internal/incremental"
	"github.com/cargo-gremlins/gremlins/internal/lab"
	"github.com/cargo-gremlins/gremlins/internal/log"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/report"
	"github.com/cargo-gremlins/gremlins/internal/scenario"
	"github.com/cargo-gremlins/gremlins/internal/shard"
)

type mutantsCmd struct {
	cmd *cobra.Command
}

const mutantsCommandName = "mutants"

func newMutantsCmd(ctx context.Context) (*mutantsCmd, error) {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [path]", mutantsCommandName),
		Args:  cobra.MaximumNArgs(1),
		Short: "Run the mutation testing lab against a Cargo workspace",
		Long:  mutantsLongExplainer(),
		RunE:  runMutants(ctx),
	}

	if err := setMutantsFlags(cmd); err != nil {
		return nil, err
	}

	return &mutantsCmd{cmd: cmd}, nil
}

func mutantsLongExplainer() string {
	return "Discovers mutants in a Cargo workspace, builds and tests each in an\n" +
		"isolated copy of the tree, and classifies the outcome as caught, missed,\n" +
		"unviable or timed out.\n"
}

// mutantsScalarFlags and mutantsMultiFlags are shared between the mutants
// and list commands. Each cobra.Command gets its own *pflag.FlagSet, so the
// flags themselves never collide; what must not collide is the single
// package-level viper instance's key->flag binding, which is why binding
// happens in bindMutantsFlags right before a command runs rather than at
// construction time, when only one of the two commands is actually live.
var mutantsScalarFlags = []*flags.Flag{
	{Name: "jobs", CfgKey: configuration.JobsKey, Shorthand: "j", DefaultV: float64(1), Usage: "number of parallel build directories"},
	{Name: "timeout", CfgKey: configuration.ExplicitTimeoutKey, DefaultV: float64(0), Usage: "explicit per-mutant test timeout in seconds, required with --no-baseline"},
	{Name: "no-baseline", CfgKey: configuration.NoBaselineKey, DefaultV: false, Usage: "skip the baseline scenario; requires --timeout"},
	{Name: "incremental", CfgKey: configuration.IncrementalKey, DefaultV: false, Usage: "skip mutants already caught or unviable in a prior run"},
	{Name: "shuffle", CfgKey: configuration.ShuffleKey, DefaultV: false, Usage: "randomize mutant execution order"},
	{Name: "shard", CfgKey: configuration.ShardSpecKey, DefaultV: "", Usage: "run only shard k of n, given as \"k/n\""},
	{Name: "diff", CfgKey: configuration.DiffFileKey, DefaultV: "", Usage: "restrict mutants to those intersecting a unified diff file"},
	{Name: "output", CfgKey: configuration.OutputKey, Shorthand: "o", DefaultV: "", Usage: "override the mutants.out output directory"},
	{Name: "test-tool", CfgKey: configuration.TestToolKey, DefaultV: "cargo", Usage: "test tool to use: cargo or nextest"},
}

var mutantsMultiFlags = []struct {
	name, cfgKey, usage string
}{
	{"package", configuration.PackagesKey, "restrict to an explicit workspace package (repeatable)"},
	{"examine-glob", configuration.ExamineGlobsKey, "only examine files matching this glob (repeatable)"},
	{"exclude-glob", configuration.ExcludeGlobsKey, "exclude files matching this glob (repeatable)"},
	{"examine-re", configuration.ExamineReKey, "only examine mutants whose name matches this regex (repeatable)"},
	{"exclude-re", configuration.ExcludeReKey, "exclude mutants whose name matches this regex (repeatable)"},
}

// allGenres lists every mutation genre spec.md's Mutant.genre enumerates,
// used to register one --<genre> bool enable flag per genre (turned off with
// --<genre>=false), grounded on the teacher's own per-mutator-type enable flags
// (internal/configuration/mutantenabled.go).
var allGenres = []mutant.Genre{
	mutant.FnValue,
	mutant.BinaryOperator,
	mutant.UnaryOperator,
	mutant.MatchArm,
	mutant.MatchArmGuard,
	mutant.StructField,
}

// setMutantsFlags registers every mutants/list flag on cmd's own FlagSet,
// without touching viper: binding is deferred to bindMutantsFlags so the
// two commands sharing these config keys don't fight over which one's
// flag object viper ends up pointing at.
func setMutantsFlags(cmd *cobra.Command) error {
	for _, f := range mutantsScalarFlags {
		if err := defineFlag(cmd, f); err != nil {
			return err
		}
	}
	for _, f := range mutantsMultiFlags {
		cmd.Flags().StringSlice(f.name, nil, f.usage)
	}
	for _, g := range allGenres {
		name := configuration.GenreFlagName(g)
		cmd.Flags().Bool(name, configuration.IsGenreDefaultEnabled(g), fmt.Sprintf("enable the %s mutation genre", g))
	}

	return nil
}

// enabledGenres reads the per-genre enable flags bound by bindMutantsFlags
// into a lookup table for filtering discovered mutants.
func enabledGenres() map[mutant.Genre]bool {
	enabled := make(map[mutant.Genre]bool, len(allGenres))
	for _, g := range allGenres {
		enabled[g] = configuration.Get[bool](configuration.GenreEnabledKey(g))
	}

	return enabled
}

func defineFlag(cmd *cobra.Command, f *flags.Flag) error {
	switch dv := f.DefaultV.(type) {
	case bool:
		cmd.Flags().BoolP(f.Name, f.Shorthand, dv, f.Usage)
	case string:
		cmd.Flags().StringP(f.Name, f.Shorthand, dv, f.Usage)
	case float64:
		cmd.Flags().Float64P(f.Name, f.Shorthand, dv, f.Usage)
	}

	return nil
}

// bindMutantsFlags re-binds every mutants/list config key onto cmd's own
// flags. Call it first thing in RunE, before reading any configuration.Get
// value.
func bindMutantsFlags(cmd *cobra.Command) error {
	for _, f := range mutantsScalarFlags {
		if err := viper.BindPFlag(f.CfgKey, cmd.Flags().Lookup(f.Name)); err != nil {
			return err
		}
	}
	for _, f := range mutantsMultiFlags {
		if err := viper.BindPFlag(f.cfgKey, cmd.Flags().Lookup(f.name)); err != nil {
			return err
		}
	}
	for _, g := range allGenres {
		name := configuration.GenreFlagName(g)
		if err := viper.BindPFlag(configuration.GenreEnabledKey(g), cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	return nil
}

func runMutants(ctx context.Context) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := bindMutantsFlags(cmd); err != nil {
			return err
		}

		path, _ := os.Getwd()
		if len(args) > 0 {
			path = args[0]
		}

		filterOpts, err := buildFilterOptions(path)
		if err != nil {
			return err
		}

		mutants, ws, err := discoverMutants(ctx, path, configuration.GetStringSlice(configuration.PackagesKey), filterOpts)
		if err != nil {
			return err
		}
		if len(mutants) == 0 {
			log.Infoln("no mutants found")

			return nil
		}
		log.Infof("%d mutants to test\n", len(mutants))

		outDirName := configuration.Get[string](configuration.OutputKey)
		if outDirName == "" {
			outDirName = report.OutDirName
		}
		ps, err := report.PrepareOutputDir(filepath.Join(ws.Root, outDirName))
		if err != nil {
			return fmt.Errorf("preparing output directory: %w", err)
		}

		if err := report.AcquireLock(ps, rootVersion); err != nil {
			return err
		}
		defer func() { _ = report.ReleaseLock(ps) }()

		if err := report.WriteMutants(ps, mutants); err != nil {
			return err
		}

		debugLog, err := report.OpenDebugLog(ps)
		if err != nil {
			return err
		}
		defer debugLog.Close()
		debugLog.Tracef("starting run over %d mutants", len(mutants))

		run, err := report.NewRun(ps, rootVersion)
		if err != nil {
			return err
		}
		defer run.Close()

		buildBase, err := os.MkdirTemp("", "gremlins-build-")
		if err != nil {
			return fmt.Errorf("creating build base directory: %w", err)
		}
		defer os.RemoveAll(buildBase)

		opts := lab.Options{
			Mutants:       mutants,
			WorkspaceRoot: ws.Root,
			BuildDirBase:  buildBase,
			BuildOptions: builddir.Options{
				CopyTarget: configuration.Get[bool](configuration.CopyTargetKey),
				CopyVCS:    configuration.Get[bool](configuration.CopyVCSKey),
				Gitignore:  configuration.Get[bool](configuration.GitignoreKey),
			},
			ScenarioTemplate: scenario.Config{
				Tool:                    testTool(),
				Packages:                scenario.PackageSelection{Workspace: true},
				AdditionalCargoArgs:     configuration.GetStringSlice(configuration.AdditionalCargoArgsKey),
				AdditionalCargoTestArgs: configuration.GetStringSlice(configuration.AdditionalCargoTestArgsKey),
				Features:                configuration.GetStringSlice(configuration.FeaturesKey),
				AllFeatures:             configuration.Get[bool](configuration.AllFeaturesKey),
				NoDefaultFeatures:       configuration.Get[bool](configuration.NoDefaultFeaturesKey),
			},
			MinimumTestTimeout:     durationFromSeconds(configuration.Get[float64](configuration.MinimumTestTimeoutKey)),
			TestTimeoutMultiplier:  configuration.Get[float64](configuration.TimeoutMultiplierKey),
			BuildTimeoutMultiplier: configuration.Get[float64](configuration.BuildTimeoutMultiplierKey),
			Jobs:                   int(configuration.Get[float64](configuration.JobsKey)),
			Paths:                  ps,
			Basenames:              report.NewBasenames(),
			OnOutcome:              run.Record,
			OnWarning:              func(w string) { log.Infof("warning: %s\n", w) },
			Interrupt:              ctx.Done(),
		}

		if configuration.Get[bool](configuration.NoBaselineKey) {
			opts.Baseline = lab.BaselineSkip
			opts.ExplicitTestTimeout = durationFromSeconds(configuration.Get[float64](configuration.ExplicitTimeoutKey))
		}

		result := lab.Run(ctx, opts)
		_ = run.Finalize()
		if result.Err != nil {
			return fmt.Errorf("lab run failed: %w", result.Err)
		}

		if err := report.WritePreviouslyCaught(ps, result.Outcome); err != nil {
			log.Errorf("writing previously_caught.txt: %s\n", err)
		}

		report.Summarize(os.Stdout, result.Outcome)
		report.AnnotateGitHubActions(os.Stdout, result.Outcome)

		switch exitCode := lab.ExitCode(result); exitCode {
		case 0:
			return nil
		case 2:
			return execution.NewExitErr(execution.MissedMutants)
		case 3:
			return execution.NewExitErr(execution.TimedOut)
		case 4:
			return execution.NewExitErr(execution.BaselineFailed)
		default:
			return fmt.Errorf("lab run ended with exit code %d", exitCode)
		}
	}
}

func testTool() scenario.Tool {
	if configuration.Get[string](configuration.TestToolKey) == "nextest" {
		return scenario.ToolNextest
	}

	return scenario.ToolCargo
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func buildFilterOptions(workspacePath string) (filter.Options, error) {
	opts := filter.Options{
		GlobInclude:  configuration.GetStringSlice(configuration.ExamineGlobsKey),
		GlobExclude:  configuration.GetStringSlice(configuration.ExcludeGlobsKey),
		RegexInclude: configuration.GetStringSlice(configuration.ExamineReKey),
		RegexExclude: configuration.GetStringSlice(configuration.ExcludeReKey),
		Shuffle:      configuration.Get[bool](configuration.ShuffleKey),
	}

	if spec := configuration.Get[string](configuration.ShardSpecKey); spec != "" {
		s, err := parseShardSpec(spec)
		if err != nil {
			return opts, err
		}
		opts.Shard = s
	}

	if diffPath := configuration.Get[string](configuration.DiffFileKey); diffPath != "" {
		d, err := diff.FromFile(diffPath)
		if err != nil {
			return opts, fmt.Errorf("reading diff file: %w", err)
		}
		opts.Diff = d
	}

	if configuration.Get[bool](configuration.IncrementalKey) {
		outDirName := configuration.Get[string](configuration.OutputKey)
		if outDirName == "" {
			outDirName = report.OutDirName
		}
		prior, err := incremental.Load(filepath.Join(workspacePath, outDirName))
		if err != nil {
			return opts, fmt.Errorf("loading prior run for --incremental: %w", err)
		}
		opts.PreviouslyCaught = prior
	}

	return opts, nil
}

func parseShardSpec(spec string) (shard.Spec, error) {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) != 2 {
		return shard.Spec{}, fmt.Errorf("invalid --shard %q, expected \"k/n\"", spec)
	}
	k, err := strconv.Atoi(parts[0])
	if err != nil {
		return shard.Spec{}, fmt.Errorf("invalid --shard %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return shard.Spec{}, fmt.Errorf("invalid --shard %q: %w", spec, err)
	}

	return shard.Spec{K: k, N: n}, nil
}
