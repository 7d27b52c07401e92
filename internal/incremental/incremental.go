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

// Package incremental skips mutants a prior run already classified, the
// way cargo-mutants' own incremental.rs filters against a prior run's
// positive outcomes — except our prior run is read from the lab's own
// output directory's text lists rather than a JSON outcome file, since
// that's the persisted format spec.md's report component defines.
package incremental

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// PreviouslyCaught is the set of canonical mutant names a prior run already
// recorded as caught or unviable: a mutant already known to be killable
// doesn't need re-testing.
type PreviouslyCaught map[string]bool

// Load reads caught.txt and unviable.txt from a prior run's output
// directory. A missing output directory or missing list files are not
// errors: they mean there's nothing to skip yet.
func Load(priorOutputDir string) (PreviouslyCaught, error) {
	seen := PreviouslyCaught{}
	for _, name := range []string{"caught.txt", "unviable.txt"} {
		if err := loadList(filepath.Join(priorOutputDir, name), seen); err != nil {
			return nil, err
		}
	}

	return seen, nil
}

func loadList(path string, into PreviouslyCaught) error {
	//nolint:gosec // path is built from a caller-supplied output directory, not external input
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		into[line] = true
	}

	return scanner.Err()
}

// Skip reports whether m was already caught or found unviable by the prior
// run referenced by seen.
func (seen PreviouslyCaught) Skip(m mutant.Mutant) bool {
	return seen[m.Name()]
}
