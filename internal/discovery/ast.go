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

package discovery

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cargo-gremlins/gremlins/internal/rustparse"
)

// skipAttributes reports whether n carries one of the attributes that take
// it (and its whole subtree) out of consideration: #[cfg(test)], #[test],
// #[mutants::skip] or a #[cfg_attr(..., mutants::skip)].
func skipAttributes(tree *rustparse.Tree, n *sitter.Node) bool {
	for _, attr := range precedingAttributes(tree, n) {
		text := tree.Text(attr)
		switch {
		case strings.Contains(text, "cfg(test)"):
			return true
		case strings.Contains(text, "test") && isBareTestAttr(text):
			return true
		case strings.Contains(text, "mutants::skip") || strings.Contains(text, "mutants :: skip"):
			return true
		case strings.Contains(text, "cfg_attr") && strings.Contains(text, "mutants") && strings.Contains(text, "skip"):
			return true
		}
	}

	return false
}

func isBareTestAttr(text string) bool {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "#[]"))

	return trimmed == "test"
}

// precedingAttributes returns every attribute_item that is a sibling
// immediately preceding n in its parent's child list.
func precedingAttributes(tree *rustparse.Tree, n *sitter.Node) []*sitter.Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	var attrs []*sitter.Node
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		c := parent.Child(i)
		if c == n {
			break
		}
		if c != nil && c.Type() == "attribute_item" {
			attrs = append(attrs, c)
		} else {
			attrs = nil
		}
	}

	return attrs
}

func modName(tree *rustparse.Tree, modItem *sitter.Node) string {
	n := modItem.ChildByFieldName("name")
	if n == nil {
		n = rustparse.ChildByType(modItem, "identifier")
	}

	return tree.Text(n)
}

func fnName(tree *rustparse.Tree, fnItem *sitter.Node) string {
	n := fnItem.ChildByFieldName("name")
	if n == nil {
		n = rustparse.ChildByType(fnItem, "identifier")
	}

	return tree.Text(n)
}

// implLabel describes the namespace contributed by an impl block: the bare
// type name for an inherent impl, or "Trait for Type" for a trait impl.
func implLabel(tree *rustparse.Tree, implItem *sitter.Node) string {
	typeNode := implItem.ChildByFieldName("type")
	traitNode := implItem.ChildByFieldName("trait")
	typeText := tree.Text(typeNode)
	if traitNode != nil {
		return tree.Text(traitNode) + " for " + typeText
	}

	return typeText
}

func traitName(tree *rustparse.Tree, traitItem *sitter.Node) string {
	n := traitItem.ChildByFieldName("name")

	return tree.Text(n)
}

// isDefaultImpl reports whether implItem is `impl Default for T`, excluded
// from FnValue discovery per spec §4.C.
func isDefaultImpl(tree *rustparse.Tree, implItem *sitter.Node) bool {
	traitNode := implItem.ChildByFieldName("trait")
	if traitNode == nil {
		return false
	}

	return strings.TrimSpace(tree.Text(traitNode)) == "Default"
}

func hasUnsafe(tree *rustparse.Tree, fnItem *sitter.Node) bool {
	count := int(fnItem.ChildCount())
	for i := 0; i < count; i++ {
		c := fnItem.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == "function_modifiers" {
			return strings.Contains(tree.Text(c), "unsafe")
		}
		if c.Type() == "body_block" || c.Type() == "block" {
			break
		}
	}

	return false
}

func isEmptyBody(tree *rustparse.Tree, fnItem *sitter.Node) bool {
	body := fnItem.ChildByFieldName("body")
	if body == nil {
		return true // a trait method declaration with no body; nothing to mutate
	}

	return strings.TrimSpace(tree.Text(body)) == "{}"
}

func returnTypeText(tree *rustparse.Tree, fnItem *sitter.Node) string {
	n := fnItem.ChildByFieldName("return_type")
	if n == nil {
		return "()"
	}

	return strings.TrimSpace(tree.Text(n))
}
