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

// unaryDeletable is the closed set of prefix operators that spec §4.C
// item 3 deletes outright: `!x` becomes `x`, `-x` becomes `x`. `*x` and
// `&x` are left alone since removing them changes the expression's type,
// not just its value.
var unaryDeletable = map[string]bool{
	"!": true,
	"-": true,
}

// emitUnaryOperator handles a unary_expression node by deleting its
// operator token, replacing the whole expression with its operand.
func (w *walker) emitUnaryOperator(n *sitter.Node) {
	operand := n.ChildByFieldName("argument")
	if operand == nil || n.ChildCount() == 0 {
		return
	}
	opNode := n.Child(0) // tree-sitter-rust gives the operator token no field name
	op := w.tree.Text(opNode)
	if !unaryDeletable[op] {
		return
	}
	w.emit(n, w.tree.Text(operand), "delete "+op, mutant.UnaryOperator)
}
