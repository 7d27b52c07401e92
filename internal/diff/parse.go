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

package diff

import (
	"fmt"
	"os"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FromFile parses the unified diff file at path into a Diff. An empty path
// means no diff was supplied, and Intersects then admits every mutant.
func FromFile(path string) (Diff, error) {
	if path == "" {
		return nil, nil
	}

	//nolint:gosec // path is an explicit user-supplied flag, not attacker-controlled input
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening diff file %s: %w", path, err)
	}
	defer f.Close()

	files, _, err := gitdiff.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing diff file %s: %w", path, err)
	}

	return newDiff(files), nil
}
