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

package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

func TestPhasesFor(t *testing.T) {
	assert.Equal(t, []mutant.Phase{mutant.Check}, phasesFor(true))
	assert.Equal(t, []mutant.Phase{mutant.Build, mutant.Test}, phasesFor(false))
}

func TestBuildArgvCheckOnly(t *testing.T) {
	argv := buildArgv(mutant.Check, Config{})
	assert.Equal(t, []string{"check"}, argv)
}

func TestBuildArgvPackageSelection(t *testing.T) {
	cfg := Config{Packages: PackageSelection{Packages: []string{"a", "b"}}}
	argv := buildArgv(mutant.Test, cfg)
	assert.Equal(t, []string{"test", "--package", "a", "--package", "b"}, argv)
}

func TestBuildArgvWorkspace(t *testing.T) {
	cfg := Config{Packages: PackageSelection{Workspace: true}, Tool: ToolNextest}
	argv := buildArgv(mutant.Test, cfg)
	assert.Equal(t, []string{"nextest", "run", "--workspace"}, argv)
}

func TestBuildArgvManifestPath(t *testing.T) {
	cfg := Config{Packages: PackageSelection{ManifestPath: "crates/foo/Cargo.toml"}}
	argv := buildArgv(mutant.Build, cfg)
	assert.Equal(t, []string{"build", "--manifest-path", "crates/foo/Cargo.toml"}, argv)
}

func TestBuildArgvExtraTestArgsAfterSeparator(t *testing.T) {
	cfg := Config{AdditionalCargoTestArgs: []string{"--nocapture"}}
	argv := buildArgv(mutant.Test, cfg)
	assert.Equal(t, []string{"test", "--", "--nocapture"}, argv)
}

func TestMutatedEnvAddsCapLintsAndInstaUpdate(t *testing.T) {
	env := mutatedEnv([]string{"PATH=/usr/bin"})

	var sawCapLints, sawInsta bool
	for _, kv := range env {
		if strings.HasPrefix(kv, "CARGO_ENCODED_RUSTFLAGS=") && strings.Contains(kv, "--cap-lints=allow") {
			sawCapLints = true
		}
		if kv == "INSTA_UPDATE=no" {
			sawInsta = true
		}
	}
	assert.True(t, sawCapLints)
	assert.True(t, sawInsta)
}

func TestMutatedEnvMergesExistingRustflags(t *testing.T) {
	env := mutatedEnv([]string{"RUSTFLAGS=-D warnings"})

	var flags string
	for _, kv := range env {
		if strings.HasPrefix(kv, "CARGO_ENCODED_RUSTFLAGS=") {
			flags = strings.TrimPrefix(kv, "CARGO_ENCODED_RUSTFLAGS=")
		}
	}
	assert.Contains(t, flags, "-D")
	assert.Contains(t, flags, "--cap-lints=allow")
}

func TestClassifyExitSuccess(t *testing.T) {
	exit := classifyExit(nil, mutant.Test, ToolCargo)
	assert.Equal(t, mutant.Success, exit.Kind)
}
