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

// Package configuration loads and exposes the .cargo/mutants.toml settings,
// the way the teacher's own configuration package loads .gremlins.yaml —
// same viper-backed Init/Get/Set idiom, generalized from a YAML config
// living anywhere on a search path to a TOML config scoped to a cargo
// workspace's .cargo directory.
package configuration

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// The complete set of keys a .cargo/mutants.toml file may set, per spec §6.
// Init rejects any other key found in the file; CARGO_MUTANTS_* environment
// variables are not checked against this set.
const (
	AdditionalCargoArgsKey     = "additional_cargo_args"
	AdditionalCargoTestArgsKey = "additional_cargo_test_args"
	FeaturesKey                = "features"
	AllFeaturesKey             = "all_features"
	NoDefaultFeaturesKey       = "no_default_features"
	BuildTimeoutMultiplierKey  = "build_timeout_multiplier"
	CopyTargetKey              = "copy_target"
	CopyVCSKey                 = "copy_vcs"
	ErrorValuesKey             = "error_values"
	ExamineGlobsKey            = "examine_globs"
	ExamineReKey               = "examine_re"
	ExcludeGlobsKey            = "exclude_globs"
	ExcludeReKey               = "exclude_re"
	GitignoreKey               = "gitignore"
	MinimumTestTimeoutKey      = "minimum_test_timeout"
	OutputKey                  = "output"
	ProfileKey                 = "profile"
	SkipCallsKey               = "skip_calls"
	SkipCallsDefaultsKey       = "skip_calls_defaults"
	TestPackageKey             = "test_package"
	TestToolKey                = "test_tool"
	TestWorkspaceKey           = "test_workspace"
	TimeoutMultiplierKey       = "timeout_multiplier"
	JobsKey                    = "jobs"
	ShuffleKey                 = "shuffle"

	// GremlinsSilentKey is a CLI-only switch, bound to the root command's
	// persistent --silent flag rather than a .cargo/mutants.toml key.
	GremlinsSilentKey = "silent"

	// The remaining keys are CLI-only: they configure one invocation of the
	// mutants command itself (timeout override, baseline mode, sharding,
	// diff file, explicit package selection, incremental mode) rather than
	// a workspace-wide default, so they are deliberately absent from
	// knownKeys and rejected if a user puts them in mutants.toml.
	ExplicitTimeoutKey = "timeout"
	NoBaselineKey      = "no_baseline"
	IncrementalKey     = "incremental"
	ShardSpecKey       = "shard"
	DiffFileKey        = "diff"
	PackagesKey        = "package"
)

var knownKeys = map[string]bool{
	AdditionalCargoArgsKey:     true,
	AdditionalCargoTestArgsKey: true,
	FeaturesKey:                true,
	AllFeaturesKey:             true,
	NoDefaultFeaturesKey:       true,
	BuildTimeoutMultiplierKey:  true,
	CopyTargetKey:              true,
	CopyVCSKey:                 true,
	ErrorValuesKey:             true,
	ExamineGlobsKey:            true,
	ExamineReKey:               true,
	ExcludeGlobsKey:            true,
	ExcludeReKey:               true,
	GitignoreKey:               true,
	MinimumTestTimeoutKey:      true,
	OutputKey:                  true,
	ProfileKey:                 true,
	SkipCallsKey:               true,
	SkipCallsDefaultsKey:       true,
	TestPackageKey:             true,
	TestToolKey:                true,
	TestWorkspaceKey:           true,
	TimeoutMultiplierKey:       true,
	JobsKey:                    true,
	ShuffleKey:                 true,
}

const (
	configName     = "mutants"
	configType     = "toml"
	configSubdir   = ".cargo"
	envVarPrefix   = "CARGO_MUTANTS"
)

// ErrUnknownKey is returned by Init when the config file sets a key outside
// the closed set spec §6 defines.
type ErrUnknownKey struct {
	Key string
}

func (e *ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown configuration key %q", e.Key)
}

// Init loads .cargo/mutants.toml from workspaceRoot (or the given explicit
// file, when cfgFile names one directly) into viper, along with
// CARGO_MUTANTS_* environment overrides. It fails on any key outside the
// known set.
//
// The unknown-key check runs against a throwaway viper instance that reads
// only the config file itself: the package-level viper instance also carries
// CLI flag bindings (the root command's --silent flag, bound via
// flags.SetPersistent before Init runs, and the mutants/list flags, bound
// later by bindMutantsFlags), and those flag-bound keys must not be mistaken
// for config-file keys when validating the file's contents.
func Init(workspaceRoot, cfgFile string) error {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	fileViper := viper.New()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		fileViper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType(configType)
		viper.AddConfigPath(filepath.Join(workspaceRoot, configSubdir))
		fileViper.SetConfigName(configName)
		fileViper.SetConfigType(configType)
		fileViper.AddConfigPath(filepath.Join(workspaceRoot, configSubdir))
	}

	if err := fileViper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return nil
		}

		return fmt.Errorf("reading configuration: %w", err)
	}

	for _, k := range fileViper.AllKeys() {
		if !knownKeys[k] {
			return &ErrUnknownKey{Key: k}
		}
	}

	if err := viper.MergeInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}

	return nil
}

var mutex sync.RWMutex

// Set offers synchronised access to Viper.
func Set[T any](k string, v T) {
	mutex.Lock()
	defer mutex.Unlock()
	viper.Set(k, v)
}

// Get offers synchronised access to Viper. Numeric and string values are
// coerced with cast rather than asserted directly: a TOML integer decodes
// as int64, so Get[float64] or Get[int] on a "jobs = 4" key would silently
// come back zero under a bare type assertion.
func Get[T any](k string) T {
	mutex.RLock()
	raw := viper.Get(k)
	mutex.RUnlock()

	var out T
	switch any(out).(type) {
	case int:
		v, _ := cast.ToIntE(raw)
		out = any(v).(T)
	case int64:
		v, _ := cast.ToInt64E(raw)
		out = any(v).(T)
	case float64:
		v, _ := cast.ToFloat64E(raw)
		out = any(v).(T)
	case bool:
		v, _ := cast.ToBoolE(raw)
		out = any(v).(T)
	case string:
		v, _ := cast.ToStringE(raw)
		out = any(v).(T)
	default:
		out, _ = raw.(T)
	}

	return out
}

// GetStringSlice reads a string-list key, going through viper's own
// GetStringSlice rather than Get[[]string]: viper decodes TOML arrays as
// []interface{}, which a bare type assertion to []string would silently
// fail on.
func GetStringSlice(k string) []string {
	mutex.RLock()
	defer mutex.RUnlock()

	return viper.GetStringSlice(k)
}

// Reset is used mainly for testing purposes, in order to clean up the Viper
// instance.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	viper.Reset()
}
