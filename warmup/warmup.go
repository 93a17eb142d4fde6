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

// Package warmup implements the slow-start weight ramp (§4.7): a server that
// just transitioned to UP after a period DOWN has its effective weight
// raised linearly over its configured slow-start duration instead of jumping
// straight to its full uweight, giving the rest of the system time to
// rebalance traffic onto it gradually.
package warmup

import (
	"time"

	libclk "github.com/sabouaram/healthcheck/clock"
	libsch "github.com/sabouaram/healthcheck/sched"
	libsrv "github.com/sabouaram/healthcheck/server"
)

// tickEvery is how often the ramp recomputes eweight while WARMINGUP is set.
// HAProxy recomputes once per second; that granularity is plenty for a
// ramp that, by definition, runs for tens of seconds to minutes.
const tickEvery = time.Second

// minRampWeight is the floor applied to the ramp's first tick so a server
// never advertises literally zero weight the instant it goes UP (§4.7: "the
// ramp's first step must still carry a sliver of traffic").
const minRampWeight = 1

// Task drives one server's slow-start ramp to completion.
type Task struct {
	Server *libsrv.Server
	Sched  libsch.Scheduler
	Pool   libsrv.PendingQueue

	task  libsch.Task
	start time.Time
}

// New wires (but does not arm) a warmup Task for srv.
func New(srv *libsrv.Server, sched libsch.Scheduler, pool libsrv.PendingQueue) *Task {
	t := &Task{Server: srv, Sched: sched, Pool: pool}
	t.task = sched.NewTask(t.run)
	return t
}

// Start begins the ramp now; verdict.Engine.OnEnterWarmup calls this the
// instant a server's Set-UP procedure puts it into WARMINGUP (§4.2 step 3).
func (t *Task) Start(now time.Time) {
	t.start = now
	t.Sched.Queue(t.task, libclk.Now().Add(tickEvery))
}

func (t *Task) run(_ libclk.Tick) {
	if !t.Server.State().Has(libsrv.WarmingUp) {
		return
	}

	ss := t.Server.SlowStart()
	if ss <= 0 {
		t.finish()
		return
	}

	elapsed := time.Since(t.start)
	if elapsed >= ss {
		t.finish()
		return
	}

	pct := float64(elapsed) / float64(ss)
	w := uint16(float64(t.Server.UWeight) * pct)
	if w < minRampWeight {
		w = minRampWeight
	}
	if w > t.Server.UWeight {
		w = t.Server.UWeight
	}
	t.Server.SetEWeight(w)

	if t.Pool != nil {
		t.Pool.RequeueToServer(t.Server)
	}

	t.Sched.Reschedule(t.task, libclk.Now().Add(tickEvery))
}

// finish completes the ramp: full uweight, WARMINGUP cleared, one last
// pending-session pull (§4.7: "on completion, behave exactly like any other
// already-UP server").
func (t *Task) finish() {
	t.Server.SetEWeight(t.Server.UWeight)
	t.Server.ClearState(libsrv.WarmingUp)
	if t.Pool != nil {
		t.Pool.RequeueToServer(t.Server)
	}
}
