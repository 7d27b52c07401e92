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

package builddir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargo-gremlins/gremlins/internal/builddir"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/span"
)

func TestProvisionCopiesTreeAndSkipsTargetAndGit(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[package]\nname = \"p\"\n")
	write(t, root, "src/lib.rs", "pub fn f() {}\n")
	write(t, root, "target/debug/marker", "x")
	write(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	base := t.TempDir()
	dealer := builddir.NewDealer(root, base, builddir.Options{})

	dst, err := dealer.Provision("w0")
	require.NoError(t, err)
	defer dealer.CleanAll()

	assert.FileExists(t, filepath.Join(dst, "Cargo.toml"))
	assert.FileExists(t, filepath.Join(dst, "src", "lib.rs"))
	assert.NoFileExists(t, filepath.Join(dst, "target", "debug", "marker"))
	assert.NoFileExists(t, filepath.Join(dst, ".git", "HEAD"))
}

func TestProvisionCopiesTargetWhenEnabled(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[package]\nname = \"p\"\n")
	write(t, root, "target/debug/marker", "x")

	base := t.TempDir()
	dealer := builddir.NewDealer(root, base, builddir.Options{CopyTarget: true})

	dst, err := dealer.Provision("w0")
	require.NoError(t, err)
	defer dealer.CleanAll()

	assert.FileExists(t, filepath.Join(dst, "target", "debug", "marker"))
}

func TestApplyAndRevertRoundTrips(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[package]\nname = \"p\"\n")
	write(t, root, "src/lib.rs", "pub fn f() -> bool { true }\n")

	base := t.TempDir()
	dealer := builddir.NewDealer(root, base, builddir.Options{})
	dst, err := dealer.Provision("w0")
	require.NoError(t, err)
	defer dealer.CleanAll()

	sf := &mutant.SourceFile{TreeRelativePath: "src/lib.rs", Code: "pub fn f() -> bool { true }\n"}
	m := mutant.Mutant{
		SourceFile:    sf,
		Span:          span.Span{Start: span.Position{Line: 1, Column: 22}, End: span.Position{Line: 1, Column: 26}},
		ShortReplaced: "true",
		Replacement:   "false",
	}

	original, err := builddir.Apply(dst, m)
	require.NoError(t, err)

	mutated, err := os.ReadFile(filepath.Join(dst, "src", "lib.rs")) //nolint:gosec // test fixture
	require.NoError(t, err)
	assert.Contains(t, string(mutated), "false")

	require.NoError(t, builddir.Revert(dst, m, original))

	reverted, err := os.ReadFile(filepath.Join(dst, "src", "lib.rs")) //nolint:gosec // test fixture
	require.NoError(t, err)
	assert.Equal(t, sf.Code, string(reverted))
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}
