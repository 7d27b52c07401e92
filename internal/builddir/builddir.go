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

// Package builddir provisions isolated copies of a Cargo workspace for
// mutation trials, the way the teacher's engine/workdir provisions a copy
// of a Go module — generalized here with manifest path rewriting so a
// workspace copied elsewhere on disk still resolves its path dependencies,
// and with single-file mutation apply/revert instead of whole-AST rewrite.
package builddir

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cargo-gremlins/gremlins/internal/cargoconf"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// defaultSkipDirs are never copied into a build directory regardless of
// configuration: version-control metadata never participates in a build.
var defaultSkipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
}

// Options configures how a Dealer provisions each build directory.
type Options struct {
	CopyTarget   bool // copy the existing target/ build cache rather than rebuild it
	CopyVCS      bool // copy .git/.hg/.svn metadata (normally skipped)
	Gitignore    bool // carried from configuration only: copyTree does not read .gitignore, so ignored files are copied too
	PriorOutputDirs []string // output directories from earlier runs to always skip
}

// Dealer provisions and tears down per-worker build directories, each a
// full copy of the workspace root with its Cargo manifests rewritten so
// path dependencies still resolve from the new location.
type Dealer struct {
	root    string
	baseDir string
	opts    Options

	mu    sync.Mutex
	dirs  []string
}

// NewDealer returns a Dealer that provisions copies of root under baseDir.
func NewDealer(root, baseDir string, opts Options) *Dealer {
	return &Dealer{root: root, baseDir: baseDir, opts: opts}
}

// Provision creates one new build directory named after idf and returns
// its path. Each call creates a fresh copy; callers that want one
// directory per worker are responsible for caching the returned path
// themselves.
func (d *Dealer) Provision(idf string) (string, error) {
	dst, err := os.MkdirTemp(d.baseDir, "gremlins-"+idf+"-*")
	if err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}

	if err := d.copyTree(dst); err != nil {
		return "", fmt.Errorf("provisioning build directory: %w", err)
	}

	if err := cargoconf.RewriteManifestPaths(d.root, dst); err != nil {
		return "", fmt.Errorf("rewriting manifest paths: %w", err)
	}

	d.mu.Lock()
	d.dirs = append(d.dirs, dst)
	d.mu.Unlock()

	return dst, nil
}

// CleanAll removes every build directory this Dealer has provisioned.
func (d *Dealer) CleanAll() {
	d.mu.Lock()
	dirs := d.dirs
	d.dirs = nil
	d.mu.Unlock()

	for _, dir := range dirs {
		_ = os.RemoveAll(dir)
	}
}

func (d *Dealer) copyTree(dst string) error {
	return filepath.Walk(d.root, func(src string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, src)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.skip(rel, info) {
			if info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, rel)
		if info.Mode()&os.ModeSymlink != 0 {
			return recreateSymlink(src, target)
		}
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}

		return copyFile(src, target, info.Mode())
	})
}

func (d *Dealer) skip(rel string, info fs.FileInfo) bool {
	base := filepath.Base(rel)
	if defaultSkipDirs[base] && !d.opts.CopyVCS {
		return true
	}
	if base == "target" && info.IsDir() && !d.opts.CopyTarget {
		return true
	}
	for _, out := range d.opts.PriorOutputDirs {
		if rel == out {
			return true
		}
	}

	return false
}

func recreateSymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}

	return os.Symlink(target, dst)
}

func copyFile(src, dst string, mode fs.FileMode) error {
	//nolint:gosec // src is a path discovered by walking the workspace we were asked to copy
	s, err := os.Open(src)
	if err != nil {
		return err
	}
	defer s.Close()

	//nolint:gosec // dst lives under our own freshly-created temp directory
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, s)

	return err
}

var fileLocks = make(map[string]*sync.Mutex)
var fileLocksMu sync.RWMutex

func lockFor(path string) *sync.Mutex {
	fileLocksMu.RLock()
	lock, ok := fileLocks[path]
	fileLocksMu.RUnlock()
	if ok {
		return lock
	}

	fileLocksMu.Lock()
	defer fileLocksMu.Unlock()
	if lock, ok = fileLocks[path]; ok {
		return lock
	}
	lock = &sync.Mutex{}
	fileLocks[path] = lock

	return lock
}

// Apply writes m's mutated source over its file inside workDir, returning
// the original bytes so the caller can Revert later. The file is removed
// and rewritten rather than truncated-in-place, since it may be a hard
// link shared with another build directory.
func Apply(workDir string, m mutant.Mutant) (original []byte, err error) {
	target := filepath.Join(workDir, filepath.FromSlash(m.SourceFile.TreeRelativePath))
	lock := lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	//nolint:gosec // target is resolved from an internally discovered source tree
	original, err = os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("reading %s before mutation: %w", target, err)
	}

	mutated := m.Apply()

	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("removing %s before mutation: %w", target, err)
	}
	if err := os.WriteFile(target, []byte(mutated), 0o600); err != nil {
		return nil, fmt.Errorf("writing mutated %s: %w", target, err)
	}

	return original, nil
}

// Revert restores target's original bytes, undoing a prior Apply.
func Revert(workDir string, m mutant.Mutant, original []byte) error {
	target := filepath.Join(workDir, filepath.FromSlash(m.SourceFile.TreeRelativePath))
	lock := lockFor(target)
	lock.Lock()
	defer lock.Unlock()

	return os.WriteFile(target, original, 0o600)
}
