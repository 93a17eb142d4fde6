/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package sched implements the cooperative task/timer scheduler consumed by
// the health-check driver.
//
// This is deliberately a small, single-threaded event loop: the core (see
// package driver) only ever queues, reschedules and wakes tasks, never
// manages goroutines or locking directly. A Task is identified by its
// current expire Tick; the scheduler fires Run exactly once per expiry and
// lets the callee decide the next expire Tick before returning.
package sched

import (
	"sync"

	"github.com/sabouaram/healthcheck/clock"
)

// Runner is invoked by the Scheduler when a Task's expire Tick has been
// reached, or when the task is explicitly woken. now is the Tick at which
// the callback runs.
type Runner func(now clock.Tick)

// Task is a single schedulable unit of work.
type Task interface {
	// Expire returns the Tick at which the task should next run.
	Expire() clock.Tick
	// SetExpire rearms the task at t. Passing clock.Eternity disables it
	// until a wake forces it to run again.
	SetExpire(t clock.Tick)
	// run executes the task's Runner; unexported so only the scheduler
	// that created the Task may invoke it.
	run(now clock.Tick)
}

type task struct {
	mu     sync.Mutex
	expire clock.Tick
	fn     Runner
	index  int // heap index, maintained by the scheduler's heap.Interface
}

func (t *task) Expire() clock.Tick {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expire
}

func (t *task) SetExpire(at clock.Tick) {
	t.mu.Lock()
	t.expire = at
	t.mu.Unlock()
}

func (t *task) run(now clock.Tick) {
	t.fn(now)
}

// taskHeap is a min-heap on Task.Expire(), skipping Eternity tasks (they are
// simply never popped; a wake runs them out of band).
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	a, b := h[i].Expire(), h[j].Expire()
	if a.IsEternity() {
		return false
	}
	if b.IsEternity() {
		return true
	}
	return a < b
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
