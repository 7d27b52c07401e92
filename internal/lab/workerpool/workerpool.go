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

// Package workerpool runs Executors over a fixed number of Worker
// goroutines, the way the teacher's engine/workerpool dispatches
// mutator.Mutator executions — here each Executor instead owns one build
// directory and runs mutant scenarios from the lab's shared queue until it
// is empty.
package workerpool

import "sync"

// Executor is one unit of work a Worker runs.
type Executor interface {
	Start(w *Worker)
}

// Worker identifies one pool goroutine to the Executor it runs, so an
// Executor can report which build directory slot it was assigned.
type Worker struct {
	Name string
	ID   int
}

// Pool runs Executors appended to it across Concurrency worker goroutines.
type Pool struct {
	Name        string
	Concurrency int

	jobs    chan Executor
	wg      sync.WaitGroup
	once    sync.Once
	stopped chan struct{}
}

// Initialize returns a Pool with concurrency worker goroutines, ready to
// Start. concurrency is clamped to at least 1.
func Initialize(name string, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Pool{
		Name:        name,
		Concurrency: concurrency,
		jobs:        make(chan Executor),
		stopped:     make(chan struct{}),
	}
}

// Start launches the pool's worker goroutines. They run until Stop closes
// the job channel and every in-flight Executor returns.
func (p *Pool) Start() {
	for i := 0; i < p.Concurrency; i++ {
		p.wg.Add(1)
		w := &Worker{Name: p.Name, ID: i}
		go func(w *Worker) {
			defer p.wg.Done()
			for job := range p.jobs {
				job.Start(w)
			}
		}(w)
	}
}

// AppendExecutor enqueues ex to be run by the next available worker. It
// blocks if every worker is busy, providing the pool's back-pressure.
func (p *Pool) AppendExecutor(ex Executor) {
	select {
	case <-p.stopped:
	case p.jobs <- ex:
	}
}

// Stop closes the job queue and waits for every worker to finish its
// current Executor. It is safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.stopped)
		close(p.jobs)
	})
	p.wg.Wait()
}
