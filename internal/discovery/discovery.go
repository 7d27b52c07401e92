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

// Package discovery walks the Rust AST of a source file, applying the
// closed set of operator rules to emit candidate mutants, the way the
// teacher's internal/engine walks a Go AST — except here the visitor
// descends a tree-sitter parse tree instead of go/ast, and the operator
// table works against Rust's surface syntax.
package discovery

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/rustparse"
	"github.com/cargo-gremlins/gremlins/internal/span"
)

// Options configures a single discovery pass.
type Options struct {
	// SkipCalls lists call names whose argument expressions are never mutated.
	SkipCalls []string
	// ErrorExprs are user-supplied Rust expressions used as Err(_) replacements
	// for Result-returning FnValue mutants.
	ErrorExprs []string
}

// DefaultSkipCalls mirrors spec §4.C's default call-site skip list.
var DefaultSkipCalls = []string{"with_capacity"}

type walker struct {
	tree       *rustparse.Tree
	sf         *mutant.SourceFile
	opts       Options
	modStack   []string
	nsStack    []string
	fnStack    []*mutant.Function
	mutants    []mutant.Mutant
}

// Discover walks sf's parsed tree and returns every candidate Mutant found,
// in deterministic AST visitation order.
func Discover(tree *rustparse.Tree, sf *mutant.SourceFile, opts Options) []mutant.Mutant {
	if len(opts.SkipCalls) == 0 {
		opts.SkipCalls = DefaultSkipCalls
	}
	w := &walker{tree: tree, sf: sf, opts: opts}
	w.visit(tree.Root)

	return w.mutants
}

func (w *walker) visit(n *sitter.Node) {
	if n == nil || skipAttributes(w.tree, n) {
		return
	}

	switch n.Type() {
	case "mod_item":
		name := modName(w.tree, n)
		w.modStack = append(w.modStack, name)
		defer func() { w.modStack = w.modStack[:len(w.modStack)-1] }()
	case "impl_item":
		label := implLabel(w.tree, n)
		if isDefaultImpl(w.tree, n) {
			return
		}
		w.nsStack = append(w.nsStack, label)
		defer func() { w.nsStack = w.nsStack[:len(w.nsStack)-1] }()
	case "trait_item":
		label := traitName(w.tree, n)
		w.nsStack = append(w.nsStack, label)
		defer func() { w.nsStack = w.nsStack[:len(w.nsStack)-1] }()
	case "function_item":
		if w.enterFunction(n) {
			defer func() { w.fnStack = w.fnStack[:len(w.fnStack)-1] }()
		} else {
			return
		}
	case "binary_expression":
		w.emitBinaryOperator(n)
	case "compound_assignment_expr":
		w.emitCompoundAssignment(n)
	case "unary_expression":
		w.emitUnaryOperator(n)
	case "struct_expression":
		w.emitStructField(n)
	case "match_expression":
		w.emitMatchArms(n)
	case "call_expression", "arguments":
		if w.inSkippedCallArgs(n) {
			return
		}
	}

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		w.visit(n.Child(i))
	}
}

// inSkippedCallArgs reports whether n is the argument list of a call whose
// callee name is configured to never have its arguments mutated (spec §4.C's
// call-site skip list, e.g. Vec::with_capacity).
func (w *walker) inSkippedCallArgs(n *sitter.Node) bool {
	if n.Type() != "arguments" {
		return false
	}
	parent := n.Parent()
	if parent == nil || parent.Type() != "call_expression" {
		return false
	}
	callee := parent.ChildByFieldName("function")
	if callee == nil {
		return false
	}
	name := w.tree.Text(callee)
	for _, skip := range w.opts.SkipCalls {
		if name == skip || strings.HasSuffix(name, "::"+skip) {
			return true
		}
	}

	return false
}

// enterFunction applies the function-level skip rules of spec §4.C and, if
// the function is eligible, pushes it onto fnStack and emits its FnValue
// mutants. It returns false if the function (and its subtree) must be
// skipped entirely.
func (w *walker) enterFunction(n *sitter.Node) bool {
	if hasUnsafe(w.tree, n) || isEmptyBody(w.tree, n) {
		return false
	}
	name := fnName(w.tree, n)
	if name == "new" && len(w.nsStack) > 0 {
		return false
	}

	qualified := strings.Join(append(append([]string{}, w.modStack...), append(append([]string{}, w.nsStack...), name)...), "::")
	fn := &mutant.Function{
		QualifiedName:  qualified,
		ReturnTypeText: returnTypeText(w.tree, n),
		Span:           w.tree.Span(n),
	}
	w.fnStack = append(w.fnStack, fn)

	w.emitFnValue(n, fn)

	return true
}

func (w *walker) currentFunction() *mutant.Function {
	if len(w.fnStack) == 0 {
		return nil
	}

	return w.fnStack[len(w.fnStack)-1]
}

// emit records one candidate mutant at n's span, skipping it when the
// replacement is textually identical to the original (a self-equivalent
// mutant per spec §9).
func (w *walker) emit(n *sitter.Node, replacement, short string, genre mutant.Genre) {
	original := w.tree.Text(n)
	if strings.TrimSpace(original) == strings.TrimSpace(replacement) {
		return
	}
	w.mutants = append(w.mutants, mutant.Mutant{
		SourceFile:    w.sf,
		Function:      w.currentFunction(),
		Span:          w.tree.Span(n),
		ShortReplaced: short,
		Replacement:   replacement,
		Genre:         genre,
	})
}

// emitSpan is like emit but mutates an explicit sub-span of n (used for
// operator-token mutations, where only the operator substring is replaced)
// rather than n's whole text.
func (w *walker) emitSpan(sp span.Span, original, replacement, short string, genre mutant.Genre) {
	if strings.TrimSpace(original) == strings.TrimSpace(replacement) {
		return
	}
	w.mutants = append(w.mutants, mutant.Mutant{
		SourceFile:    w.sf,
		Function:      w.currentFunction(),
		Span:          sp,
		ShortReplaced: short,
		Replacement:   replacement,
		Genre:         genre,
	})
}
