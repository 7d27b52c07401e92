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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// mutantDoc is one entry of mutants.json's "mutants" array.
type mutantDoc struct {
	Name    string `json:"name"`
	Genre   string `json:"genre"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Replace string `json:"replacement"`
}

type mutantsDoc struct {
	Mutants []mutantDoc `json:"mutants"`
}

// WriteMutants persists the full discovered-and-filtered mutant list to
// mutants.json.
func WriteMutants(ps PathSet, mutants []mutant.Mutant) error {
	doc := mutantsDoc{Mutants: make([]mutantDoc, 0, len(mutants))}
	for _, m := range mutants {
		doc.Mutants = append(doc.Mutants, mutantDoc{
			Name:    m.Name(),
			Genre:   m.Genre.String(),
			File:    m.SourceFile.TreeRelativePath,
			Line:    m.Span.Start.Line,
			Column:  m.Span.Start.Column,
			Replace: m.Replacement,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mutants.json: %w", err)
	}
	if err := validateAgainst(mutantsSchema, data); err != nil {
		return fmt.Errorf("mutants.json: %w", err)
	}

	return os.WriteFile(filepath.Join(ps.Root, "mutants.json"), data, 0o644)
}
