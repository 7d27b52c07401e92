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
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

// binaryOperatorTable is the closed replacement set of spec §4.C item 2:
// arithmetic operators swap with their "opposite" operator, comparisons
// swap within their family, and boolean operators swap with each other.
var binaryOperatorTable = map[string][]string{
	"+": {"-"},
	"-": {"+"},
	"*": {"/"},
	"/": {"*"},
	"%": {"*"},

	"&": {"|"},
	"|": {"&"},
	"^": {"&"},

	"<<": {">>"},
	">>": {"<<"},

	"&&": {"||"},
	"||": {"&&"},

	"==": {"!="},
	"!=": {"=="},
	"<":  {">=", "<="},
	">":  {"<=", ">="},
	"<=": {">", "<"},
	">=": {"<", ">"},
}

// compoundAssignOperatorTable covers the `x op= y` forms: spec §4.C item 2
// extends the same operator families to compound assignment.
var compoundAssignOperatorTable = map[string][]string{
	"+=":  {"-="},
	"-=":  {"+="},
	"*=":  {"/="},
	"/=":  {"*="},
	"%=":  {"*="},
	"&=":  {"|="},
	"|=":  {"&="},
	"^=":  {"&="},
	"<<=": {">>="},
	">>=": {"<<="},
}

// emitBinaryOperator handles a binary_expression node: the operator token
// is a named child field ("operator"); only its own span is mutated,
// leaving the operand expressions untouched.
func (w *walker) emitBinaryOperator(n *sitter.Node) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return
	}
	op := w.tree.Text(opNode)
	replacements, ok := binaryOperatorTable[op]
	if !ok {
		return
	}
	opSpan := w.tree.Span(opNode)
	for _, repl := range replacements {
		w.emitSpan(opSpan, op, repl, op+" -> "+repl, mutant.BinaryOperator)
	}
}

// emitCompoundAssignment handles the `x op= y` forms, which tree-sitter-rust
// parses as compound_assignment_expr nodes with their own "operator" field,
// mirroring emitBinaryOperator.
func (w *walker) emitCompoundAssignment(n *sitter.Node) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return
	}
	op := w.tree.Text(opNode)
	replacements, ok := compoundAssignOperatorTable[op]
	if !ok {
		return
	}
	opSpan := w.tree.Span(opNode)
	for _, repl := range replacements {
		w.emitSpan(opSpan, op, repl, op+" -> "+repl, mutant.BinaryOperator)
	}
}
