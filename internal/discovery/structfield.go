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
	"github.com/cargo-gremlins/gremlins/internal/rustparse"
)

// emitStructField covers the optional StructField genre: a struct literal's
// field initializer values are pairwise swapped, which catches a
// constructor that assigns the right values to the wrong fields.
func (w *walker) emitStructField(n *sitter.Node) {
	body := rustparse.ChildByType(n, "field_initializer_list")
	if body == nil {
		return
	}
	fields := rustparse.ChildrenByType(body, "field_initializer")
	var values []*sitter.Node
	for _, f := range fields {
		v := f.ChildByFieldName("value")
		if v == nil {
			continue // shorthand `Point { x, y }`; nothing distinct to swap in
		}
		values = append(values, v)
	}
	for i := 0; i+1 < len(values); i++ {
		a, b := values[i], values[i+1]
		aText, bText := w.tree.Text(a), w.tree.Text(b)
		w.emitSpan(w.tree.Span(a), aText, bText, "field value -> "+bText, mutant.StructField)
		w.emitSpan(w.tree.Span(b), bText, aText, "field value -> "+aText, mutant.StructField)
	}
}
