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

// Package clock provides the monotonic millisecond clock and the tick
// comparator used by the health-check scheduler.
//
// Every check, task and connection in this module reasons about time in
// "ticks" : a monotonic millisecond counter that never observes wall-clock
// adjustments (NTP slews, DST changes). A Tick is either expired (in the
// past or now), pending (strictly in the future) or Eternity (never fires).
package clock

import (
	"sync/atomic"
	"time"
)

// Tick is a monotonic millisecond timestamp.
type Tick int64

// Eternity is the sentinel Tick value meaning "never expires".
const Eternity Tick = -1

// base is the origin of every Tick, fixed when the package is initialised.
var base = time.Now()

// Now returns the current monotonic Tick, expressed in milliseconds elapsed
// since the package was initialised.
func Now() Tick {
	return Tick(time.Since(base).Milliseconds())
}

// Add returns t advanced by d.
func (t Tick) Add(d time.Duration) Tick {
	if t == Eternity {
		return Eternity
	}
	return t + Tick(d.Milliseconds())
}

// Sub returns the duration between t and u (t-u).
func (t Tick) Sub(u Tick) time.Duration {
	return time.Duration(int64(t)-int64(u)) * time.Millisecond
}

// IsEternity reports whether t is the Eternity sentinel.
func (t Tick) IsEternity() bool {
	return t == Eternity
}

// Expired reports whether t is not Eternity and is at or before now.
func Expired(t Tick, now Tick) bool {
	return !t.IsEternity() && t <= now
}

// Time converts t to a wall-clock deadline, for handing to APIs (like
// net.Conn.SetDeadline) that only understand time.Time. Eternity converts to
// the zero time, meaning "no deadline".
func Time(t Tick) time.Time {
	if t.IsEternity() {
		return time.Time{}
	}
	return base.Add(time.Duration(t) * time.Millisecond)
}

// Pending reports whether t is strictly in the future.
func Pending(t Tick, now Tick) bool {
	return !t.IsEternity() && t > now
}

// atomicTick is a concurrency-safe box around a Tick. No package in this
// module uses it: sched's task guards its expire Tick with its own mutex.
type atomicTick struct {
	v atomic.Int64
}

func newAtomicTick(t Tick) *atomicTick {
	a := &atomicTick{}
	a.v.Store(int64(t))
	return a
}

func (a *atomicTick) Load() Tick {
	return Tick(a.v.Load())
}

func (a *atomicTick) Store(t Tick) {
	a.v.Store(int64(t))
}
