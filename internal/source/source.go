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

// Package source discovers every Rust file reachable from a package's top
// sources by following `mod` declarations, the way go/internal source
// discovery in the teacher walks an fs.FS — except here the graph is driven
// by `mod` statements rather than directory structure.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/rustparse"
)

// Discover walks the top sources of pkg and every file reachable from them
// via `mod` declarations, returning one *mutant.SourceFile per file found.
// Traversal continues through files later excluded by globs so that
// modules nested under an excluded file can still be reached; exclusion is
// only applied when building the final returned list.
func Discover(root string, pkg mutant.Package, include, exclude []string) ([]*mutant.SourceFile, []string, error) {
	d := &discoverer{root: filepath.Join(root, pkg.RelativeDir), pkg: pkg, seen: map[string]bool{}}

	var queue []queueItem
	for _, ts := range pkg.TopSources {
		queue = append(queue, queueItem{path: filepath.ToSlash(ts), isTop: true})
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].path < queue[j].path })

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if d.seen[item.path] {
			continue
		}
		d.seen[item.path] = true

		sf, children, err := d.loadOne(item.path, item.isTop)
		if err != nil {
			return nil, nil, err
		}
		if sf != nil {
			d.files = append(d.files, sf)
		}
		queue = append(queue, children...)
	}

	sort.Slice(d.files, func(i, j int) bool {
		return d.files[i].TreeRelativePath < d.files[j].TreeRelativePath
	})

	var result []*mutant.SourceFile
	for _, f := range d.files {
		if isExcluded(f.TreeRelativePath, include, exclude) {
			continue
		}
		result = append(result, f)
	}

	return result, d.warnings, nil
}

type queueItem struct {
	path  string
	isTop bool
}

type discoverer struct {
	root     string
	pkg      mutant.Package
	seen     map[string]bool
	files    []*mutant.SourceFile
	warnings []string
}

func (d *discoverer) loadOne(relPath string, isTop bool) (*mutant.SourceFile, []queueItem, error) {
	abs := filepath.Join(d.root, filepath.FromSlash(relPath))
	raw, err := os.ReadFile(abs) //nolint:gosec // internally-resolved path within the workspace copy
	if err != nil {
		d.warnings = append(d.warnings, "mod referent not found: "+relPath)

		return nil, nil, nil
	}
	code := normalizeNewlines(string(raw))

	sf := &mutant.SourceFile{
		Package:          &d.pkg,
		TreeRelativePath: relPath,
		Code:             code,
		IsTop:            isTop,
	}

	tree, err := rustparse.Parse([]byte(code))
	if err != nil {
		// A file that fails to parse contributes no further `mod` edges;
		// Component C will raise the fatal parse error when it visits it.
		return sf, nil, nil
	}
	defer tree.Close()

	children := findModReferences(tree, relPath, isTop)

	return sf, children, nil
}

// findModReferences walks the file's top-level item list (and nested
// inline `mod { ... }` blocks) looking for `mod name;` declarations with no
// inline body, resolving each per spec §4.B.
func findModReferences(tree *rustparse.Tree, filePath string, isTop bool) []queueItem {
	var out []queueItem
	var walk func(n *sitter.Node, dirStack []string)
	walk = func(n *sitter.Node, dirStack []string) {
		if n == nil {
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			c := n.Child(i)
			if c == nil || c.Type() != "mod_item" {
				continue
			}
			name := modItemName(tree, c)
			if name == "" {
				continue
			}
			body := modItemBody(c)
			pathAttr := attributePathValue(tree, n, i)

			if body != nil {
				nextStack := dirStack
				if pathAttr != "" {
					nextStack = append(append([]string{}, dirStack...), pathAttrDir(pathAttr))
				} else {
					nextStack = append(append([]string{}, dirStack...), name)
				}
				walk(body, nextStack)

				continue
			}

			candidates := resolveModTarget(filePath, isTop, dirStack, name, pathAttr)
			for _, cand := range candidates {
				out = append(out, queueItem{path: cand})
			}
		}
	}
	walk(tree.Root, nil)

	return out
}

// modItemName returns the identifier of a mod_item node.
func modItemName(tree *rustparse.Tree, modItem *sitter.Node) string {
	n := modItem.ChildByFieldName("name")
	if n == nil {
		n = rustparse.ChildByType(modItem, "identifier")
	}

	return tree.Text(n)
}

// modItemBody returns the declaration_list of an inline `mod foo { ... }`,
// or nil for an external `mod foo;` declaration.
func modItemBody(modItem *sitter.Node) *sitter.Node {
	return rustparse.ChildByType(modItem, "declaration_list")
}

// attributePathValue looks at the sibling immediately preceding child index
// idx within parent for an `#[path = "..."]` attribute attached to it.
func attributePathValue(tree *rustparse.Tree, parent *sitter.Node, idx int) string {
	if idx == 0 {
		return ""
	}
	prev := parent.Child(idx - 1)
	if prev == nil || prev.Type() != "attribute_item" {
		return ""
	}
	text := tree.Text(prev)
	const marker = "path"
	i := strings.Index(text, marker)
	if i < 0 {
		return ""
	}
	rest := text[i+len(marker):]
	start := strings.IndexByte(rest, '"')
	if start < 0 {
		return ""
	}
	rest = rest[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}

	return rest[:end]
}

func pathAttrDir(pathAttr string) string {
	return strings.TrimSuffix(filepath.Base(pathAttr), filepath.Ext(pathAttr))
}

// resolveModTarget implements the four-step resolution rule of spec §4.B.
func resolveModTarget(filePath string, isTop bool, dirStack []string, modName, pathAttr string) []string {
	if pathAttr != "" {
		if strings.HasPrefix(pathAttr, "/") {
			return nil
		}
		base := baseDir(filePath, isTop, len(dirStack) == 0 && pathAttr != "")
		full := filepath.ToSlash(filepath.Join(append([]string{base}, dirStack...)...))

		return []string{filepath.ToSlash(filepath.Join(full, pathAttr))}
	}

	base := baseDir(filePath, isTop, false)
	dir := filepath.ToSlash(filepath.Join(append([]string{base}, dirStack...)...))

	return []string{
		filepath.ToSlash(filepath.Join(dir, modName+".rs")),
		filepath.ToSlash(filepath.Join(dir, modName, "mod.rs")),
	}
}

func baseDir(filePath string, isTop, pathAttrNoEnclosing bool) string {
	if isTop || strings.HasSuffix(filePath, "mod.rs") || pathAttrNoEnclosing {
		return filepath.ToSlash(filepath.Dir(filePath))
	}

	return strings.TrimSuffix(filePath, filepath.Ext(filePath))
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// isExcluded applies the include/exclude glob stage used when collecting
// the final file list (spec §4.B). A pattern without '/' matches any single
// path component, a directory name as well as the file's basename; a
// pattern containing '/' matches the whole relative path.
func isExcluded(path string, include, exclude []string) bool {
	if len(include) > 0 && !anyGlobMatches(include, path) {
		return true
	}

	return anyGlobMatches(exclude, path)
}

func anyGlobMatches(patterns []string, path string) bool {
	for _, p := range patterns {
		if globMatch(p, path) {
			return true
		}
	}

	return false
}

func globMatch(pattern, path string) bool {
	if strings.Contains(pattern, "/") {
		ok, _ := filepath.Match(pattern, path)

		return ok
	}
	base := filepath.Base(path)
	if ok, _ := filepath.Match(pattern, base); ok {
		return true
	}
	for _, part := range strings.Split(path, "/") {
		if ok, _ := filepath.Match(pattern, part); ok {
			return true
		}
	}

	return false
}
