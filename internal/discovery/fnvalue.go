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

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

var numericReturnTypes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

var signedReturnTypes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
}

// emitFnValue applies the FnValue genre: replace a whole function body with
// a small set of literal values drawn from the return-type table of
// spec §4.C item 1.
func (w *walker) emitFnValue(fnItem *sitter.Node, fn *mutant.Function) {
	body := fnItem.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, cand := range fnValueCandidates(fn.ReturnTypeText, w.opts.ErrorExprs) {
		w.emitSpan(w.tree.Span(body), w.tree.Text(body), "{ "+cand.value+" }", cand.short, mutant.FnValue)
	}
}

type fnValueCandidate struct {
	value string
	short string
}

// fnValueCandidates returns the replacement-value candidates for a function
// whose return type renders as retType, following the closed type-pattern
// table of spec §4.C item 1. Option, Result and the Box/Arc/Rc/Cell/RefCell/
// Mutex wrappers recurse one level into their type parameter so e.g.
// Option<bool> yields both None and Some(true)/Some(false); a wrapper uses
// only the first inner candidate. Vec, VecDeque, the map and set types and
// Cow get a single empty or default value without recursing.
func fnValueCandidates(retType string, errorExprs []string) []fnValueCandidate {
	t := strings.TrimSpace(retType)
	t = strings.TrimPrefix(t, "-> ")
	t = strings.TrimSpace(t)

	switch {
	case t == "" || t == "()":
		return nil
	case t == "!":
		return nil // a diverging function has no value to substitute
	case t == "bool":
		return []fnValueCandidate{{"true", "true"}, {"false", "false"}}
	case signedReturnTypes[t]:
		return []fnValueCandidate{{"0", "0"}, {"1", "1"}, {"-1", "-1"}}
	case numericReturnTypes[t]:
		return []fnValueCandidate{{"0", "0"}, {"1", "1"}}
	case t == "String":
		return []fnValueCandidate{{`String::new()`, `String::new()`}}
	case t == "&str" || t == "&'static str":
		return []fnValueCandidate{{`""`, `""`}}
	case t == "char":
		return []fnValueCandidate{{`'A'`, `'A'`}}
	case strings.HasPrefix(t, "Option<"):
		inner := genericArg(t, "Option")
		out := []fnValueCandidate{{"None", "None"}}
		for _, c := range fnValueCandidates(inner, errorExprs) {
			out = append(out, fnValueCandidate{"Some(" + c.value + ")", "Some(" + c.short + ")"})
		}
		if len(out) == 1 {
			out = append(out, fnValueCandidate{"Some(Default::default())", "Some(Default::default())"})
		}

		return out
	case strings.HasPrefix(t, "Result<"):
		okType, errType := splitResultArgs(t)
		var out []fnValueCandidate
		okCands := fnValueCandidates(okType, errorExprs)
		if len(okCands) == 0 {
			out = append(out, fnValueCandidate{"Ok(Default::default())", "Ok(Default::default())"})
		}
		for _, c := range okCands {
			out = append(out, fnValueCandidate{"Ok(" + c.value + ")", "Ok(" + c.short + ")"})
		}
		exprs := errorExprs
		if len(exprs) == 0 {
			exprs = defaultErrorExprsFor(errType)
		}
		for _, e := range exprs {
			out = append(out, fnValueCandidate{"Err(" + e + ")", "Err(" + e + ")"})
		}

		return out
	case strings.HasPrefix(t, "Vec<"), strings.HasPrefix(t, "VecDeque<"):
		return []fnValueCandidate{{"vec![]", "vec![]"}}
	case strings.HasPrefix(t, "HashMap<"), strings.HasPrefix(t, "BTreeMap<"),
		strings.HasPrefix(t, "HashSet<"), strings.HasPrefix(t, "BTreeSet<"):
		return []fnValueCandidate{{"Default::default()", "Default::default()"}}
	case strings.HasPrefix(t, "Cow<"):
		return []fnValueCandidate{{"Default::default()", "Default::default()"}}
	case strings.HasPrefix(t, "Box<"), strings.HasPrefix(t, "Arc<"), strings.HasPrefix(t, "Rc<"),
		strings.HasPrefix(t, "Cell<"), strings.HasPrefix(t, "RefCell<"), strings.HasPrefix(t, "Mutex<"):
		inner := genericArgAny(t)
		for _, c := range fnValueCandidates(inner, errorExprs) {
			return []fnValueCandidate{{wrapperCtor(t) + "(" + c.value + ")", wrapperCtor(t) + "(" + c.short + ")"}}
		}

		return []fnValueCandidate{{"Default::default()", "Default::default()"}}
	case strings.HasPrefix(t, "impl Iterator"):
		return []fnValueCandidate{{"std::iter::empty()", "std::iter::empty()"}}
	case strings.HasPrefix(t, "&["), strings.HasPrefix(t, "&mut ["), strings.HasPrefix(t, "["):
		return []fnValueCandidate{{"&[]", "&[]"}}
	case strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")"):
		return []fnValueCandidate{{"Default::default()", "Default::default()"}}
	default:
		return []fnValueCandidate{{"Default::default()", "Default::default()"}}
	}
}

func wrapperCtor(t string) string {
	for _, w := range []string{"Box", "Arc", "Rc", "Cell", "RefCell", "Mutex"} {
		if strings.HasPrefix(t, w+"<") {
			return w + "::new"
		}
	}

	return "Default::default"
}

// genericArg extracts the single type parameter of a one-argument generic
// type named name, e.g. genericArg("Option<bool>", "Option") == "bool".
func genericArg(t, name string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(t, name+"<"), ">")

	return strings.TrimSpace(inner)
}

func genericArgAny(t string) string {
	i := strings.IndexByte(t, '<')
	if i < 0 || !strings.HasSuffix(t, ">") {
		return ""
	}

	return strings.TrimSpace(t[i+1 : len(t)-1])
}

// splitResultArgs splits "Result<T, E>" into T and E, respecting nested
// angle brackets.
func splitResultArgs(t string) (okType, errType string) {
	inner := strings.TrimSuffix(strings.TrimPrefix(t, "Result<"), ">")
	depth := 0
	for i, r := range inner {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(inner[:i]), strings.TrimSpace(inner[i+1:])
			}
		}
	}

	return strings.TrimSpace(inner), ""
}

// defaultErrorExprsFor produces a best-effort Err(_) replacement when the
// caller configured no explicit error expressions. Without a user-supplied
// expression there is no generically safe way to construct an arbitrary
// error type, so only the unit error type gets a default candidate; any
// other error type is left to configuration.
func defaultErrorExprsFor(errType string) []string {
	if strings.TrimSpace(errType) == "()" {
		return []string{"()"}
	}

	return nil
}
