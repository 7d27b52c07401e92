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

// Package filter applies the lab's inclusion/exclusion pipeline to a
// discovered mutant list, the way the teacher's exclusion/rules.go applies
// skip rules to Go mutators — generalized here into the fixed six-stage
// pipeline of glob, regex, shard, diff, previously-caught and shuffle.
package filter

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/cargo-gremlins/gremlins/internal/diff"
	"github.com/cargo-gremlins/gremlins/internal/incremental"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/shard"
)

// Options configures every stage of the pipeline. A zero-value field
// disables its stage.
type Options struct {
	GlobInclude []string
	GlobExclude []string

	RegexInclude []string
	RegexExclude []string

	Shard shard.Spec

	Diff diff.Diff

	PreviouslyCaught incremental.PreviouslyCaught

	Shuffle   bool
	RandSource *rand.Rand // nil uses a package-level default source
}

// Apply runs mutants through every configured stage in the fixed order of
// glob, regex, shard, diff, previously-caught, shuffle, returning the
// surviving subset.
func Apply(mutants []mutant.Mutant, opts Options) ([]mutant.Mutant, error) {
	out, err := filterGlobs(mutants, opts.GlobInclude, opts.GlobExclude)
	if err != nil {
		return nil, err
	}

	out, err = filterRegex(out, opts.RegexInclude, opts.RegexExclude)
	if err != nil {
		return nil, err
	}

	out = shard.Select(out, opts.Shard)

	out = filterDiff(out, opts.Diff)

	out = filterPreviouslyCaught(out, opts.PreviouslyCaught)

	if opts.Shuffle {
		out = shuffle(out, opts.RandSource)
	}

	return out, nil
}

func filterDiff(mutants []mutant.Mutant, d diff.Diff) []mutant.Mutant {
	if len(d) == 0 {
		return mutants
	}

	var out []mutant.Mutant
	for _, m := range mutants {
		if d.Intersects(m) {
			out = append(out, m)
		}
	}

	return out
}

func filterPreviouslyCaught(mutants []mutant.Mutant, seen incremental.PreviouslyCaught) []mutant.Mutant {
	if len(seen) == 0 {
		return mutants
	}

	var out []mutant.Mutant
	for _, m := range mutants {
		if !seen.Skip(m) {
			out = append(out, m)
		}
	}

	return out
}

func shuffle(mutants []mutant.Mutant, src *rand.Rand) []mutant.Mutant {
	out := make([]mutant.Mutant, len(mutants))
	copy(out, mutants)

	r := src
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // shuffle order has no security relevance
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}

// filterGlobs applies spec.md §4.D stage 1: a glob containing a path
// separator matches the whole relative path; one without matches any
// path segment (file or directory) anywhere in the tree.
func filterGlobs(mutants []mutant.Mutant, include, exclude []string) ([]mutant.Mutant, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return mutants, nil
	}

	includeGlobs, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	excludeGlobs, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}

	var out []mutant.Mutant
	for _, m := range mutants {
		path := m.SourceFile.TreeRelativePath
		if len(includeGlobs) > 0 && !matchesAny(includeGlobs, path) {
			continue
		}
		if matchesAny(excludeGlobs, path) {
			continue
		}
		out = append(out, m)
	}

	return out, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	return out, nil
}

func matchesAny(globs []glob.Glob, path string) bool {
	segments := strings.Split(path, "/")
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
		for _, seg := range segments {
			if g.Match(seg) {
				return true
			}
		}
	}

	return false
}

// filterRegex applies spec.md §4.D stage 2: matched unanchored against the
// mutant's canonical name unless the pattern begins with '^'.
func filterRegex(mutants []mutant.Mutant, include, exclude []string) ([]mutant.Mutant, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return mutants, nil
	}

	includeRe, err := compileRegexes(include)
	if err != nil {
		return nil, err
	}
	excludeRe, err := compileRegexes(exclude)
	if err != nil {
		return nil, err
	}

	var out []mutant.Mutant
	for _, m := range mutants {
		name := m.Name()
		if len(includeRe) > 0 && !matchesAnyRegex(includeRe, name) {
			continue
		}
		if matchesAnyRegex(excludeRe, name) {
			continue
		}
		out = append(out, m)
	}

	return out, nil
}

func compileRegexes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}

	return out, nil
}

func matchesAnyRegex(res []*regexp.Regexp, name string) bool {
	for _, re := range res {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}
