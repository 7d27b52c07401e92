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

// Package cargoworkspace resolves the Cargo workspace root and its member
// packages from a starting directory, the way internal/gomodule resolves a
// Go module root — but by querying `cargo` rather than parsing a manifest
// by hand.
package cargoworkspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// Workspace represents the current execution context: the Cargo workspace
// root, the tool used to query it, and its member packages.
type Workspace struct {
	Root        string
	CallingDir  string
	CargoBin    string
	Members     []mutant.Package
	DefaultMembers []string
}

// execCommand is overridden in tests.
type execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd

var defaultExecCommand execCommand = exec.CommandContext

// Open resolves the workspace root containing startDir by invoking
// `cargo locate-project --workspace`, then loads workspace metadata with
// `cargo metadata --no-deps --format-version 1`.
func Open(ctx context.Context, startDir, cargoBin string) (*Workspace, error) {
	return open(ctx, startDir, cargoBin, defaultExecCommand)
}

func open(ctx context.Context, startDir, cargoBin string, run execCommand) (*Workspace, error) {
	if cargoBin == "" {
		cargoBin = "cargo"
	}

	root, err := locateProjectRoot(ctx, startDir, cargoBin, run)
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a cargo project: %w", startDir, err)
	}

	meta, err := loadMetadata(ctx, startDir, cargoBin, run)
	if err != nil {
		return nil, fmt.Errorf("reading cargo metadata: %w", err)
	}

	rel, err := filepath.Rel(root, startDir)
	if err != nil {
		rel = "."
	}

	ws := &Workspace{
		Root:           root,
		CallingDir:     rel,
		CargoBin:       cargoBin,
		DefaultMembers: meta.defaultMemberNames(),
	}
	for _, pkg := range meta.Packages {
		if !meta.isWorkspaceMember(pkg.ID) {
			continue
		}
		dir := filepath.Dir(pkg.ManifestPath)
		relDir, _ := filepath.Rel(root, dir)
		ws.Members = append(ws.Members, mutant.Package{
			Name:        pkg.Name,
			Version:     pkg.Version,
			RelativeDir: relDir,
			TopSources:  pkg.topSources(dir),
		})
	}

	return ws, nil
}

func locateProjectRoot(ctx context.Context, startDir, cargoBin string, run execCommand) (string, error) {
	cmd := run(ctx, cargoBin, "locate-project", "--workspace", "--message-format", "plain")
	cmd.Dir = startDir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	manifestPath := string(bytes.TrimSpace(out))

	return filepath.Dir(manifestPath), nil
}

type cargoMetadata struct {
	Packages        []cargoPackage `json:"packages"`
	WorkspaceMembers []string      `json:"workspace_members"`
	WorkspaceDefaultMembers []string `json:"workspace_default_members"`
}

type cargoPackage struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	ManifestPath string        `json:"manifest_path"`
	Targets      []cargoTarget `json:"targets"`
}

type cargoTarget struct {
	Name     string   `json:"name"`
	Kind     []string `json:"kind"`
	SrcPath  string   `json:"src_path"`
}

func (p cargoPackage) topSources(pkgDir string) []string {
	var sources []string
	for _, t := range p.Targets {
		rel, err := filepath.Rel(pkgDir, t.SrcPath)
		if err != nil {
			continue
		}
		sources = append(sources, filepath.ToSlash(rel))
	}

	return sources
}

func (m cargoMetadata) isWorkspaceMember(id string) bool {
	for _, wm := range m.WorkspaceMembers {
		if wm == id {
			return true
		}
	}

	return false
}

func (m cargoMetadata) defaultMemberNames() []string {
	byID := make(map[string]string, len(m.Packages))
	for _, p := range m.Packages {
		byID[p.ID] = p.Name
	}
	var names []string
	for _, id := range m.WorkspaceDefaultMembers {
		if n, ok := byID[id]; ok {
			names = append(names, n)
		}
	}

	return names
}

func loadMetadata(ctx context.Context, dir, cargoBin string, run execCommand) (*cargoMetadata, error) {
	cmd := run(ctx, cargoBin, "metadata", "--no-deps", "--format-version", "1")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var meta cargoMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("parsing cargo metadata output: %w", err)
	}

	return &meta, nil
}

// SelectPackages applies the package selection policy of spec §4.B: an
// explicit name list picks packages by exact name (unknown names only
// warn); otherwise the package containing startDir (if any) is selected,
// else the workspace's default members, else every member.
func (ws *Workspace) SelectPackages(startDir string, explicit []string) (selected []mutant.Package, warnings []string) {
	if len(explicit) > 0 {
		byName := make(map[string]mutant.Package, len(ws.Members))
		for _, m := range ws.Members {
			byName[m.Name] = m
		}
		for _, name := range explicit {
			if p, ok := byName[name]; ok {
				selected = append(selected, p)
			} else {
				warnings = append(warnings, fmt.Sprintf("package %q not found in workspace", name))
			}
		}

		return selected, warnings
	}

	if rel, err := filepath.Rel(ws.Root, startDir); err == nil {
		var best *mutant.Package
		for i, m := range ws.Members {
			if m.RelativeDir == rel || strings.HasPrefix(rel, m.RelativeDir+string(filepath.Separator)) {
				if best == nil || len(m.RelativeDir) > len(best.RelativeDir) {
					best = &ws.Members[i]
				}
			}
		}
		if best != nil {
			return []mutant.Package{*best}, nil
		}
	}

	if len(ws.DefaultMembers) > 0 {
		byName := make(map[string]mutant.Package, len(ws.Members))
		for _, m := range ws.Members {
			byName[m.Name] = m
		}
		for _, name := range ws.DefaultMembers {
			if p, ok := byName[name]; ok {
				selected = append(selected, p)
			}
		}
		if len(selected) > 0 {
			return selected, nil
		}
	}

	return ws.Members, nil
}
