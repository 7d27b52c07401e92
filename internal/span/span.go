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

// Package span models line/column positions and text-region replacement
// over Rust source strings.
package span

import "strings"

// Position is a 1-based line/column location in a source string. Column
// counts UTF-8 scalars, not bytes; a tab counts as a single column. A '\r'
// immediately preceding a '\n' shares the column of the character before
// it rather than occupying a column of its own, so line length for column
// purposes excludes a trailing '\r'.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p sorts strictly before o in reading order.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}

	return p.Column < o.Column
}

// Span is a half-open, end-exclusive region of a source string.
type Span struct {
	Start Position
	End   Position
}

// Valid reports whether the span is well-formed, i.e. End is not before Start.
func (s Span) Valid() bool {
	return !s.End.Before(s.Start)
}

// Contains reports whether p lies within [Start, End).
func (s Span) Contains(p Position) bool {
	return !p.Before(s.Start) && p.Before(s.End)
}

// IntersectsLine reports whether the span touches the given 1-based line.
func (s Span) IntersectsLine(line int) bool {
	if line < s.Start.Line || line > s.End.Line {
		return false
	}
	if line == s.End.Line && s.End.Column == 1 && s.End.Line > s.Start.Line {
		return line < s.End.Line
	}

	return true
}

// lineTable indexes a source string by line so that a Position can be
// converted to a rune offset into the full text, in O(1) per lookup after
// the initial O(n) scan.
type lineTable struct {
	full   []rune
	starts []int // rune offset of the first character of each line
	visLen []int // number of columns on each line, excluding a trailing \r
}

func newLineTable(src string) lineTable {
	r := []rune(src)
	lt := lineTable{full: r, starts: []int{0}}
	for i, c := range r {
		if c == '\n' {
			lt.starts = append(lt.starts, i+1)
		}
	}
	lt.visLen = make([]int, len(lt.starts))
	for i, start := range lt.starts {
		end := len(r)
		if i+1 < len(lt.starts) {
			end = lt.starts[i+1] - 1 // drop the '\n'
		}
		if end > start && r[end-1] == '\r' {
			end--
		}
		lt.visLen[i] = end - start

		_ = i
	}

	return lt
}

// offset maps a 1-based Position to a rune index into the full text.
func (lt lineTable) offset(p Position) int {
	idx := p.Line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(lt.starts) {
		return len(lt.full)
	}
	col := p.Column - 1
	if col < 0 {
		col = 0
	}
	if col > lt.visLen[idx] {
		col = lt.visLen[idx]
	}

	return lt.starts[idx] + col
}

// Extract returns the characters from span.Start up to, but not including,
// span.End.
func Extract(src string, sp Span) string {
	lt := newLineTable(src)
	start := lt.offset(sp.Start)
	end := lt.offset(sp.End)
	if start > end {
		start = end
	}

	return string(lt.full[start:end])
}

// Replace returns src with the region covered by sp substituted by repl.
// It is defined as prefix(src, Start) ++ repl ++ suffix(src, End), and is
// an involution when repl == Extract(src, sp).
func Replace(src string, sp Span, repl string) string {
	lt := newLineTable(src)
	start := lt.offset(sp.Start)
	end := lt.offset(sp.End)
	if start > end {
		start = end
	}

	var b strings.Builder
	b.WriteString(string(lt.full[:start]))
	b.WriteString(repl)
	b.WriteString(string(lt.full[end:]))

	return b.String()
}
