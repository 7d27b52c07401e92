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

// Package cargoconf reads and rewrites the Cargo manifests of a workspace
// copy, the way the teacher's gomodule package inspects go.mod — except
// here the manifest also needs local path dependencies rewritten so a
// workspace copied to a build directory elsewhere on disk still resolves
// them, which go.mod never requires since Go modules address dependencies
// by module path rather than by relative filesystem path.
package cargoconf

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is a parsed Cargo.toml, keeping only the keys the lab cares
// about: package identity and the tables that can carry path dependencies.
type Manifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Workspace struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
	Dependencies    map[string]Dependency `toml:"dependencies"`
	DevDependencies map[string]Dependency `toml:"dev-dependencies"`
	BuildDependencies map[string]Dependency `toml:"build-dependencies"`
	Replace map[string]Dependency `toml:"replace"`
	Patch   map[string]map[string]Dependency `toml:"patch"`
}

// Dependency is the subset of a Cargo dependency table entry relevant to
// path rewriting. A dependency given as a bare version string (no path)
// unmarshals with an empty Path and is left untouched.
type Dependency struct {
	Path    string `toml:"path,omitempty"`
	Version string `toml:"version,omitempty"`
}

// ReadManifest parses the Cargo.toml at path.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	//nolint:gosec // path is a manifest discovered inside a workspace the caller already trusts
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = toml.Unmarshal(data, &m)

	return m, err
}

// RewriteManifestPaths walks every Cargo.toml under dstRoot (a copy of
// srcRoot) and rewrites each path dependency that pointed outside the
// workspace so it still resolves from dstRoot's new location. Workspace
// manifests whose path dependencies point to sibling member crates need no
// rewriting, since both sides of the path moved together with the copy;
// only dependencies whose path escapes srcRoot need adjusting.
func RewriteManifestPaths(srcRoot, dstRoot string) error {
	err := filepath.WalkDir(dstRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "target" {
				return filepath.SkipDir
			}

			return nil
		}
		if d.Name() != "Cargo.toml" {
			return nil
		}

		return rewriteOneManifest(p, srcRoot, dstRoot)
	})
	if err != nil {
		return err
	}

	return rewriteCargoConfigPaths(srcRoot, dstRoot)
}

// rewriteCargoConfigPaths rewrites the `paths = [...]` entry of
// .cargo/config.toml the same way RewriteManifestPaths rewrites manifest
// path dependencies: an entry relative to the config file that would
// escape srcRoot is rewritten to its original absolute location.
func rewriteCargoConfigPaths(srcRoot, dstRoot string) error {
	configPath := filepath.Join(dstRoot, ".cargo", "config.toml")
	//nolint:gosec // configPath is a fixed, well-known filename under a directory we just copied
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	doc, err := decodeGeneric(data)
	if err != nil {
		return err
	}

	raw, ok := doc["paths"].([]interface{})
	if !ok {
		return nil
	}

	srcConfigDir := filepath.Join(srcRoot, ".cargo")
	changed := false
	for i, entry := range raw {
		rawPath, ok := entry.(string)
		if !ok || rawPath == "" || filepath.IsAbs(rawPath) {
			continue
		}

		abs := filepath.Join(srcConfigDir, rawPath)
		rel, err := filepath.Rel(srcRoot, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			raw[i] = filepath.ToSlash(abs)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	doc["paths"] = raw

	out, err := toml.Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, out, 0o600)
}

func rewriteOneManifest(manifestPath, srcRoot, dstRoot string) error {
	//nolint:gosec // manifestPath comes from walking a directory we just copied ourselves
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	doc, err := decodeGeneric(data)
	if err != nil {
		return err
	}

	manifestDir := filepath.Dir(manifestPath)
	relDir, err := filepath.Rel(dstRoot, manifestDir)
	if err != nil {
		return err
	}
	srcManifestDir := filepath.Join(srcRoot, relDir)

	changed := false
	for _, table := range []string{"dependencies", "dev-dependencies", "build-dependencies"} {
		if rewriteDependencyTable(doc, table, srcManifestDir, srcRoot) {
			changed = true
		}
	}
	if rewriteReplaceTable(doc, srcManifestDir, srcRoot) {
		changed = true
	}
	if rewritePatchTable(doc, srcManifestDir, srcRoot) {
		changed = true
	}

	if !changed {
		return nil
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(manifestPath, out, 0o600)
}

func decodeGeneric(data []byte) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func rewriteDependencyTable(doc map[string]interface{}, table, srcManifestDir, srcRoot string) bool {
	raw, ok := doc[table].(map[string]interface{})
	if !ok {
		return false
	}

	return rewritePathEntries(raw, srcManifestDir, srcRoot)
}

func rewriteReplaceTable(doc map[string]interface{}, srcManifestDir, srcRoot string) bool {
	raw, ok := doc["replace"].(map[string]interface{})
	if !ok {
		return false
	}

	return rewritePathEntries(raw, srcManifestDir, srcRoot)
}

func rewritePatchTable(doc map[string]interface{}, srcManifestDir, srcRoot string) bool {
	raw, ok := doc["patch"].(map[string]interface{})
	if !ok {
		return false
	}
	changed := false
	for _, registry := range raw {
		sub, ok := registry.(map[string]interface{})
		if !ok {
			continue
		}
		if rewritePathEntries(sub, srcManifestDir, srcRoot) {
			changed = true
		}
	}

	return changed
}

// rewritePathEntries adjusts path dependencies that point outside srcRoot.
// A dependency pointing at a sibling crate inside srcRoot needs no change:
// the whole tree moved together with the copy, so its relative path to
// srcManifestDir still resolves from the copy too. A dependency pointing
// outside srcRoot moved relative to nothing, so it is rewritten to its
// original absolute path.
func rewritePathEntries(table map[string]interface{}, srcManifestDir, srcRoot string) bool {
	changed := false
	for name, entry := range table {
		dep, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		rawPath, ok := dep["path"].(string)
		if !ok || rawPath == "" || filepath.IsAbs(rawPath) {
			continue
		}

		abs := filepath.Join(srcManifestDir, rawPath)

		rel, err := filepath.Rel(srcRoot, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			// escapes srcRoot: point straight at the original location
			dep["path"] = filepath.ToSlash(abs)
			table[name] = dep
			changed = true

			continue
		}
	}

	return changed
}
