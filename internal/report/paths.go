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

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// OutDirName is the default output directory name created inside the
// workspace root, mirroring cargo-mutants' own mutants.out.
const OutDirName = "mutants.out"

// PathSet is the layout of one run's output directory.
type PathSet struct {
	Root string
}

// PrepareOutputDir rotates an existing dir to dir+".old" (replacing any
// prior rotation) before creating a fresh PathSet at dir, matching spec
// §6's "on entering an existing output directory, the previous one is
// rotated" rule.
func PrepareOutputDir(dir string) (PathSet, error) {
	if _, err := os.Stat(dir); err == nil {
		old := dir + ".old"
		if err := os.RemoveAll(old); err != nil {
			return PathSet{}, fmt.Errorf("removing stale %s: %w", old, err)
		}
		if err := os.Rename(dir, old); err != nil {
			return PathSet{}, fmt.Errorf("rotating %s to %s: %w", dir, old, err)
		}
	}

	return NewPathSet(dir)
}

// NewPathSet creates the output directory layout rooted at dir, including
// its log/ and diff/ subdirectories.
func NewPathSet(dir string) (PathSet, error) {
	ps := PathSet{Root: dir}
	for _, sub := range []string{"log", "diff"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return ps, fmt.Errorf("creating output directory %s: %w", sub, err)
		}
	}

	return ps, nil
}

// Basenames hands out collision-free basenames derived from a mutant's
// file/line/col, appending a numeric suffix on collision.
type Basenames struct {
	mu   sync.Mutex
	seen map[string]int
}

// NewBasenames returns a fresh, empty basename allocator.
func NewBasenames() *Basenames {
	return &Basenames{seen: map[string]int{}}
}

// For returns the basename for a mutant scenario, or "baseline" for the
// baseline scenario, deduplicated against every name handed out so far.
func (b *Basenames) For(sc mutant.Scenario) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	base := "baseline"
	if sc.Kind == mutant.MutantScenario {
		base = sanitize(sc.Mutant)
	}

	n := b.seen[base]
	b.seen[base] = n + 1
	if n == 0 {
		return base
	}

	return fmt.Sprintf("%s_%d", base, n)
}

func sanitize(m *mutant.Mutant) string {
	path := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(m.SourceFile.TreeRelativePath)

	return fmt.Sprintf("%s_%d_%d", path, m.Span.Start.Line, m.Span.Start.Column)
}

// LogPath returns the per-scenario log file path for basename.
func (ps PathSet) LogPath(basename string) string {
	return filepath.Join(ps.Root, "log", basename+".log")
}

// DiffPath returns the per-mutant diff file path for basename.
func (ps PathSet) DiffPath(basename string) string {
	return filepath.Join(ps.Root, "diff", basename+".diff")
}
