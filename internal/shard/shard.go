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

// Package shard partitions an ordered mutant list deterministically across
// a fixed number of workers, for splitting one mutation run across several
// machines or CI jobs.
package shard

// Strategy selects how items are assigned to a shard.
type Strategy int

const (
	// Sliced keeps item i iff floor(i*n/total) == k: contiguous runs,
	// sizes differing by at most ceil(total/n). The default strategy.
	Sliced Strategy = iota
	// RoundRobin keeps item i iff i mod n == k: sizes differ by at most 1.
	RoundRobin
)

// Spec identifies one shard (k of n) and how to select it.
type Spec struct {
	K        int
	N        int
	Strategy Strategy
}

// Keep reports whether the item at index i (of total items) belongs to s.
// An N of 0 (no sharding requested) keeps everything.
func (s Spec) Keep(i, total int) bool {
	if s.N <= 0 {
		return true
	}
	if s.Strategy == RoundRobin {
		return i%s.N == s.K
	}

	return i*s.N/total == s.K
}

// Select returns the items that belong to s, in their original order,
// implementing the partition: the union over k=0..n-1 of Select
// reproduces every item exactly once.
func Select[T any](items []T, s Spec) []T {
	if s.N <= 0 {
		return items
	}

	total := len(items)
	out := make([]T, 0, total/s.N+1)
	for i, item := range items {
		if s.Keep(i, total) {
			out = append(out, item)
		}
	}

	return out
}
