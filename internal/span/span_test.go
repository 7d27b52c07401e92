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

package span_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargo-gremlins/gremlins/internal/span"
)

func TestExtract(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		sp       span.Span
		expected string
	}{
		{
			name: "empty span at start",
			src:  "fn main() {}",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 1},
				End:   span.Position{Line: 1, Column: 1},
			},
			expected: "",
		},
		{
			name: "empty span in the middle",
			src:  "fn main() {}",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 4},
				End:   span.Position{Line: 1, Column: 4},
			},
			expected: "",
		},
		{
			name: "whole first line",
			src:  "abc\ndef",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 1},
				End:   span.Position{Line: 2, Column: 1},
			},
			expected: "abc\n",
		},
		{
			name: "spans entire file",
			src:  "abc\ndef",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 1},
				End:   span.Position{Line: 2, Column: 4},
			},
			expected: "abc\ndef",
		},
		{
			name: "single token on second line",
			src:  "let a = 1;\nlet b = 2;\n",
			sp: span.Span{
				Start: span.Position{Line: 2, Column: 9},
				End:   span.Position{Line: 2, Column: 10},
			},
			expected: "2",
		},
		{
			name: "straddles CR before LF",
			src:  "abc\r\ndef",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 2},
				End:   span.Position{Line: 2, Column: 2},
			},
			expected: "bc\r\nd",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := span.Extract(tc.src, tc.sp)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestReplace(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		sp       span.Span
		repl     string
		expected string
	}{
		{
			name: "replace whole file",
			src:  "abc",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 1},
				End:   span.Position{Line: 1, Column: 4},
			},
			repl:     "xyz",
			expected: "xyz",
		},
		{
			name: "insert at empty span",
			src:  "ac",
			sp: span.Span{
				Start: span.Position{Line: 1, Column: 2},
				End:   span.Position{Line: 1, Column: 2},
			},
			repl:     "b",
			expected: "abc",
		},
		{
			name: "replace token on second line",
			src:  "let a = 1;\nlet b = 2;\n",
			sp: span.Span{
				Start: span.Position{Line: 2, Column: 9},
				End:   span.Position{Line: 2, Column: 10},
			},
			repl:     "99",
			expected: "let a = 1;\nlet b = 99;\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := span.Replace(tc.src, tc.sp, tc.repl)
			assert.Equal(t, tc.expected, got)
		})
	}
}

// TestReplaceIsInvolutionUnderIdentity verifies property 2 of §8: replacing
// a span with its own extracted text is a no-op.
func TestReplaceIsInvolutionUnderIdentity(t *testing.T) {
	samples := []string{
		"fn add(a: i32, b: i32) -> i32 { a + b }",
		"struct S { x: i32, y: i32 }\nimpl S {}\n",
		"",
		"a\r\nb\r\nc",
	}
	spans := []span.Span{
		{Start: span.Position{1, 1}, End: span.Position{1, 1}},
		{Start: span.Position{1, 1}, End: span.Position{2, 1}},
	}
	for _, src := range samples {
		for _, sp := range spans {
			extracted := span.Extract(src, sp)
			got := span.Replace(src, sp, extracted)
			assert.Equal(t, src, got)
		}
	}
}
