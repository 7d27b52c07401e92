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

package cargoconf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargo-gremlins/gremlins/internal/cargoconf"
)

func TestRewriteManifestPathsLeavesSiblingDependencyAlone(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "Cargo.toml", "[package]\nname = \"root\"\n\n[dependencies]\nsibling = { path = \"sibling\" }\n")
	writeFile(t, src, "sibling/Cargo.toml", "[package]\nname = \"sibling\"\n")

	dst := t.TempDir()
	copyDir(t, src, dst)

	require.NoError(t, cargoconf.RewriteManifestPaths(src, dst))

	m, err := cargoconf.ReadManifest(filepath.Join(dst, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sibling", m.Dependencies["sibling"].Path)
}

func TestRewriteManifestPathsRewritesEscapingDependency(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, outside, "Cargo.toml", "[package]\nname = \"outside\"\n")

	src := t.TempDir()
	rel, err := filepath.Rel(src, outside)
	require.NoError(t, err)
	writeFile(t, src, "Cargo.toml",
		"[package]\nname = \"root\"\n\n[dependencies]\noutside = { path = \""+filepath.ToSlash(rel)+"\" }\n")

	dst := t.TempDir()
	copyDir(t, src, dst)

	require.NoError(t, cargoconf.RewriteManifestPaths(src, dst))

	m, err := cargoconf.ReadManifest(filepath.Join(dst, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(outside), m.Dependencies["outside"].Path)
}

func TestRewriteManifestPathsLeavesAbsolutePathAlone(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "Cargo.toml",
		"[package]\nname = \"root\"\n\n[dependencies]\nabs = { path = \"/somewhere/fixed\" }\n")

	dst := t.TempDir()
	copyDir(t, src, dst)

	require.NoError(t, cargoconf.RewriteManifestPaths(src, dst))

	m, err := cargoconf.ReadManifest(filepath.Join(dst, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/fixed", m.Dependencies["abs"].Path)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func copyDir(t *testing.T, src, dst string) {
	t.Helper()
	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(p) //nolint:gosec // test fixture path
		if err != nil {
			return err
		}

		return os.WriteFile(target, data, info.Mode())
	})
	require.NoError(t, err)
}
