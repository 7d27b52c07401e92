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

// Package mutant holds the core data model shared across the mutation lab:
// packages, source files, functions, mutants and scenario outcomes.
package mutant

import (
	"fmt"

	"github.com/cargo-gremlins/gremlins/internal/span"
)

// Genre is the kind of syntactic mutation a Mutant represents.
type Genre int

// The closed set of mutation genres the engine supports.
const (
	FnValue Genre = iota
	BinaryOperator
	UnaryOperator
	MatchArm
	MatchArmGuard
	StructField
)

func (g Genre) String() string {
	switch g {
	case FnValue:
		return "FnValue"
	case BinaryOperator:
		return "BinaryOperator"
	case UnaryOperator:
		return "UnaryOperator"
	case MatchArm:
		return "MatchArm"
	case MatchArmGuard:
		return "MatchArmGuard"
	case StructField:
		return "StructField"
	default:
		return "Unknown"
	}
}

// Package is an immutable record of one workspace member, as reported by
// the Cargo metadata the workspace model queries.
type Package struct {
	Name        string
	Version     string
	RelativeDir string
	TopSources  []string
}

// SourceFile is a single Rust source file loaded once and shared by
// reference across every Mutant discovered within it.
type SourceFile struct {
	Package           *Package
	TreeRelativePath  string
	Code              string
	IsTop             bool
}

// Function is the enclosing function-like item of a Mutant, identified by
// its fully qualified name at the point of discovery.
type Function struct {
	QualifiedName  string
	ReturnTypeText string
	Span           span.Span
}

// Mutant is one concrete mutation at a specific site in a specific file.
type Mutant struct {
	SourceFile     *SourceFile
	Function       *Function
	Span           span.Span
	ShortReplaced  string
	Replacement    string
	Genre          Genre
}

// Name is the canonical, stable identifier of a Mutant: "path:line:col: description".
func (m Mutant) Name() string {
	return fmt.Sprintf("%s:%d:%d: replace %s with %s",
		m.SourceFile.TreeRelativePath, m.Span.Start.Line, m.Span.Start.Column,
		m.describeOriginal(), m.Replacement)
}

func (m Mutant) describeOriginal() string {
	if m.ShortReplaced != "" {
		return m.ShortReplaced
	}

	return span.Extract(m.SourceFile.Code, m.Span)
}

// Apply returns the source text of m.SourceFile with the mutation applied.
func (m Mutant) Apply() string {
	return span.Replace(m.SourceFile.Code, m.Span, m.Replacement)
}
