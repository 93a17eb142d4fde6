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

package sched

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/sabouaram/healthcheck/clock"
)

// Scheduler is the cooperative task/timer multiplexer. The health-check core
// is the only caller of Queue/Reschedule/Wake; Scheduler owns the single
// goroutine that decides when a Task's Runner actually executes, so all
// Runner invocations are serialized with respect to one another.
type Scheduler interface {
	// NewTask creates a Task bound to fn, initially disabled (Eternity).
	NewTask(fn Runner) Task
	// Queue arms t at the given Tick and inserts it into the wait heap.
	Queue(t Task, at clock.Tick)
	// Reschedule moves t to a new expire Tick.
	Reschedule(t Task, at clock.Tick)
	// Wake runs t's Runner immediately, out of the normal expiry order,
	// without altering its current expire Tick. Used by connection
	// callbacks (see package conn) on read/write/handshake edges.
	Wake(t Task)
	// Start runs the event loop until ctx is cancelled or Stop is called.
	Start(ctx context.Context)
	// Stop halts the event loop; safe to call more than once.
	Stop()
}

type wakeReq struct {
	t *task
}

type heapScheduler struct {
	mu      sync.Mutex
	h       taskHeap
	wake    chan wakeReq
	stopped chan struct{}
	once    sync.Once
}

// New returns an in-process Scheduler implementing the cooperative event
// loop described in §4.1/§5 of the design: one goroutine, no cross-task
// locking, edge-triggered wakes folded into the same serialized stream as
// timer expiries.
func New() Scheduler {
	return &heapScheduler{
		wake:    make(chan wakeReq, 64),
		stopped: make(chan struct{}),
	}
}

func (s *heapScheduler) NewTask(fn Runner) Task {
	return &task{expire: clock.Eternity, fn: fn, index: -1}
}

func (s *heapScheduler) Queue(t Task, at clock.Tick) {
	tt, ok := t.(*task)
	if !ok {
		return
	}
	tt.SetExpire(at)

	s.mu.Lock()
	defer s.mu.Unlock()
	if tt.index >= 0 {
		heap.Fix(&s.h, tt.index)
		return
	}
	heap.Push(&s.h, tt)
}

func (s *heapScheduler) Reschedule(t Task, at clock.Tick) {
	s.Queue(t, at)
}

func (s *heapScheduler) Wake(t Task) {
	tt, ok := t.(*task)
	if !ok {
		return
	}
	select {
	case s.wake <- wakeReq{t: tt}:
	case <-s.stopped:
	}
}

func (s *heapScheduler) Stop() {
	s.once.Do(func() { close(s.stopped) })
}

func (s *heapScheduler) Start(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		d := s.nextDelay()
		resetTimer(timer, d)

		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case req := <-s.wake:
			req.t.run(clock.Now())
		case <-timer.C:
			s.fireExpired()
		}
	}
}

func (s *heapScheduler) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.h) == 0 {
		return time.Hour
	}
	top := s.h[0].Expire()
	if top.IsEternity() {
		return time.Hour
	}
	d := top.Sub(clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// fireExpired runs every task whose expire Tick has passed, one at a time,
// so each Runner observes a consistent snapshot of "now" and can itself
// requeue without racing the next pop.
func (s *heapScheduler) fireExpired() {
	now := clock.Now()
	for {
		s.mu.Lock()
		if len(s.h) == 0 || !clock.Expired(s.h[0].Expire(), now) {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.h).(*task)
		s.mu.Unlock()

		t.run(now)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
