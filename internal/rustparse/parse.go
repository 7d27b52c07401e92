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

// Package rustparse wraps the tree-sitter Rust grammar binding behind the
// single entry point the rest of the lab needs: turn source bytes into a
// walkable tree.
package rustparse

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/cargo-gremlins/gremlins/internal/span"
)

// Tree is a parsed Rust source file together with the bytes it was parsed
// from, which tree-sitter nodes need in order to resolve their text.
type Tree struct {
	Root   *sitter.Node
	Source []byte
	raw    *sitter.Tree

	lineStarts []int // byte offset of the first byte of each line, built lazily
}

// Text returns the source text spanned by n.
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}

	return n.Content(t.Source)
}

// Span converts a tree-sitter node's byte range into a 1-based line/column
// span.Span over t.Source, counting columns in UTF-8 scalars as span.Position
// requires. Source is expected to already use LF line endings, as the
// workspace source loader normalizes before parsing.
func (t *Tree) Span(n *sitter.Node) span.Span {
	if n == nil {
		return span.Span{}
	}
	t.ensureLineStarts()

	return span.Span{
		Start: t.position(int(n.StartByte())),
		End:   t.position(int(n.EndByte())),
	}
}

func (t *Tree) ensureLineStarts() {
	if t.lineStarts != nil {
		return
	}
	t.lineStarts = []int{0}
	for i, b := range t.Source {
		if b == '\n' {
			t.lineStarts = append(t.lineStarts, i+1)
		}
	}
}

func (t *Tree) position(byteOffset int) span.Position {
	line := 0
	for line+1 < len(t.lineStarts) && t.lineStarts[line+1] <= byteOffset {
		line++
	}
	col := 1
	for i := t.lineStarts[line]; i < byteOffset && i < len(t.Source); {
		_, size := utf8.DecodeRune(t.Source[i:])
		if size <= 0 {
			size = 1
		}
		i += size
		col++
	}

	return span.Position{Line: line + 1, Column: col}
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

// Parse parses Rust source code and returns its syntax tree. A parse
// failure is reported as an error rather than a partial tree, since
// Component C cannot reliably discover mutants from a broken AST (spec §7:
// Parse errors are fatal for the whole invocation).
func Parse(code []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	raw, err := parser.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, fmt.Errorf("parsing rust source: %w", err)
	}
	root := raw.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing rust source: tree-sitter returned no root node")
	}
	if root.HasError() {
		return nil, fmt.Errorf("parsing rust source: syntax error")
	}

	return &Tree{Root: root, Source: code, raw: raw}, nil
}

// Walk calls visit for every node in the tree in depth-first pre-order.
// visit returns false to skip the node's children.
func Walk(n *sitter.Node, visit func(n *sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		Walk(n.Child(i), visit)
	}
}

// ChildByType returns the first direct child of n whose Type() equals
// typ, or nil.
func ChildByType(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			return c
		}
	}

	return nil
}

// ChildrenByType returns every direct child of n whose Type() equals typ.
func ChildrenByType(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	if n == nil {
		return out
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			out = append(out, c)
		}
	}

	return out
}
