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

package check

import (
	"bytes"
	"sync"
	"time"

	libdur "github.com/sabouaram/healthcheck/duration"
)

// Check is the probe instance (§3): the unit the driver suspends and
// resumes, and the unit the verdict engine folds into server health.
type Check struct {
	mu sync.Mutex

	Type  Type
	state State

	Rise int
	Fall int

	// health is clamped to [0, Rise+Fall-1] (§3 invariant). Entering
	// MAINTAIN snaps it to Rise (§3: "maintenance forces health to rise,
	// i.e. instantaneously UP from the health counter's point of view").
	health int

	Result Result
	Status Status
	Code   int
	Desc   string

	Start    time.Time
	Duration time.Duration

	Inter     libdur.Duration
	FastInter libdur.Duration
	DownInter libdur.Duration

	Port int

	bi *bytes.Buffer
	bo *bytes.Buffer

	// CurrentStep/LastStartedStep index the tcp-check rule list (§4.5) so a
	// failure can be reported against the rule that produced it.
	CurrentStep     int
	LastStartedStep int
}

// New returns a Check ready to run its first round. health starts at 0
// (DOWN) unless startAsUp requests the conventional warm boot stance of
// starting a freshly configured server as UP until the first check fails
// (§4.8 boot/fanout note).
func New(t Type, rise, fall int, startAsUp bool) *Check {
	c := &Check{
		Type: t,
		Rise: rise,
		Fall: fall,
		bi:   &bytes.Buffer{},
		bo:   &bytes.Buffer{},
	}
	if startAsUp {
		c.health = rise
	}
	return c
}

func (c *Check) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Check) SetState(bit State) {
	c.mu.Lock()
	c.state.Set(bit)
	c.mu.Unlock()
}

func (c *Check) ClearState(bit State) {
	c.mu.Lock()
	c.state.Clear(bit)
	c.mu.Unlock()
}

// Health returns the current rise/fall counter.
func (c *Check) Health() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// clampHealth enforces the §3 invariant 0 <= health <= Rise+Fall-1.
func (c *Check) clampHealth() {
	if max := c.Rise + c.Fall - 1; c.health > max {
		c.health = max
	}
	if c.health < 0 {
		c.health = 0
	}
}

// IncrHealth advances health towards Rise by one step (a PASSED round) and
// reports whether health is now at or above Rise (the UP threshold).
func (c *Check) IncrHealth() (reachedUp bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health++
	c.clampHealth()
	return c.health >= c.Rise
}

// DecrHealth regresses health towards 0 by one step and reports whether
// health is now 0. General-purpose counter step; the verdict engine's actual
// FAILED-round rule is ApplyFailed, which treats the rise boundary
// specially (§4.2, §9 open question on the clamp).
func (c *Check) DecrHealth() (reachedDown bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health--
	c.clampHealth()
	return c.health <= 0
}

// ApplyFailed implements the §4.2 FAILED counter update: while health is
// strictly above rise, a failure only steps it down by one (still on the UP
// side); once health is at or below rise, a failure snaps it straight to 0.
// This is what makes "exactly fall consecutive failures from
// rise+fall-1" the precise distance from UP to DOWN (§8): fall-1 single
// steps bring health from rise+fall-1 down to rise, and the fall-th failure
// is the snap to 0.
func (c *Check) ApplyFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.health > c.Rise {
		c.health--
		return
	}
	c.health = 0
}

// ForceHealthUp snaps health to Rise. Nothing in this module calls it.
func (c *Check) ForceHealthUp() {
	c.mu.Lock()
	c.health = c.Rise
	c.mu.Unlock()
}

// ForceHealthDown snaps health to 0. Nothing in this module calls it.
func (c *Check) ForceHealthDown() {
	c.mu.Lock()
	c.health = 0
	c.mu.Unlock()
}

// InBuffer returns the ingress byte buffer owned by this check (§3: "bi, bo:
// ingress/egress byte buffers owned by the check" -- the connection facade
// only ever sees plain []byte slices handed to it by the probe logic).
func (c *Check) InBuffer() *bytes.Buffer { return c.bi }

// OutBuffer returns the egress byte buffer owned by this check.
func (c *Check) OutBuffer() *bytes.Buffer { return c.bo }

// Reset clears the per-round scratch state before a new process_chk
// invocation starts (§4.1): buffers, step counters and the previous round's
// diagnostic fields, but never Rise/Fall/health, which persist across rounds.
func (c *Check) Reset() {
	c.bi.Reset()
	c.bo.Reset()
	c.CurrentStep = 0
	c.Result = ResultUnknown
	c.Status = StatusUnknown
	c.Code = 0
	c.Desc = ""
	c.Start = time.Time{}
	c.Duration = 0
}
