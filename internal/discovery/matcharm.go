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

// emitMatchArms covers the two optional genres built on match_expression:
// MatchArm, which swaps the value of one arm for its neighbour's, and
// MatchArmGuard, which forces a guard condition to always or never match.
func (w *walker) emitMatchArms(n *sitter.Node) {
	body := rustparse.ChildByType(n, "match_block")
	if body == nil {
		return
	}
	arms := rustparse.ChildrenByType(body, "match_arm")
	w.emitMatchArmSwaps(arms)
	for _, arm := range arms {
		w.emitMatchArmGuard(arm)
	}
}

// emitMatchArmSwaps swaps each arm's value expression with the next arm's,
// skipping any arm carrying a guard since the guard changes what "swapped"
// semantics would mean.
func (w *walker) emitMatchArmSwaps(arms []*sitter.Node) {
	for i := 0; i+1 < len(arms); i++ {
		a, b := arms[i], arms[i+1]
		if rustparse.ChildByType(a, "match_guard") != nil || rustparse.ChildByType(b, "match_guard") != nil {
			continue
		}
		av, bv := a.ChildByFieldName("value"), b.ChildByFieldName("value")
		if av == nil || bv == nil {
			continue
		}
		aText, bText := w.tree.Text(av), w.tree.Text(bv)
		w.emitSpan(w.tree.Span(av), aText, bText, "arm value -> "+bText, mutant.MatchArm)
		w.emitSpan(w.tree.Span(bv), bText, aText, "arm value -> "+aText, mutant.MatchArm)
	}
}

// emitMatchArmGuard forces a match arm's guard condition to `true` and to
// `false`, the same always/never-matches idea FnValue applies to bool
// returns, applied here to a guard's selectivity.
func (w *walker) emitMatchArmGuard(arm *sitter.Node) {
	guard := rustparse.ChildByType(arm, "match_guard")
	if guard == nil {
		return
	}
	var cond *sitter.Node
	count := int(guard.ChildCount())
	for i := 0; i < count; i++ {
		c := guard.Child(i)
		if c != nil && c.Type() != "if" {
			cond = c
		}
	}
	if cond == nil {
		return
	}
	condText := w.tree.Text(cond)
	w.emitSpan(w.tree.Span(cond), condText, "true", "guard -> true", mutant.MatchArmGuard)
	w.emitSpan(w.tree.Span(cond), condText, "false", "guard -> false", mutant.MatchArmGuard)
}
