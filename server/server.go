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

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	libatm "github.com/sabouaram/healthcheck/atomic"
)

// Proxy is the minimal view of the owning proxy the verdict engine needs:
// whether it is still running and its own down-transition bookkeeping
// (§4.2 Set-DOWN step 7, Set-UP step 2). Proxy life-cycle and routing are
// out of scope (§1); only this narrow slice is modeled here.
type Proxy struct {
	ID string

	mu        sync.Mutex
	Stopped   bool
	DownTime  time.Duration
	DownTrans uint64
	LastChange time.Time

	// ActiveUsable/BackupUsable are maintained by the owner (outside this
	// package) and read by the verdict engine to detect the 0-usable-
	// server edge (§4.2 Set-DOWN step 7).
	ActiveUsable int
	BackupUsable int

	Hooks    LBHooks
	Pending  PendingQueue
	Alerts   AlertSink
	Sessions SessionSink
}

func (p *Proxy) IsStopped() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Stopped
}

func (p *Proxy) UsableCount() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ActiveUsable + p.BackupUsable
}

// Server is the unit of health described in §3.
type Server struct {
	ID      string
	ProxyID string
	Proxy   *Proxy

	Address      string
	CheckAddress string
	CheckPort    int

	UWeight uint16
	eweight libatm.Value[uint16]

	stateMu sync.RWMutex
	state   State

	trackMu  sync.Mutex
	trackers []*Server

	Observe      Observe
	OnErr        OnError
	OnMarkedDown SessionAction
	OnMarkedUp   SessionAction
	ConsecutiveErrorsLimit uint32

	downTrans        libatm.Value[uint64]
	downTime         libatm.Value[int64] // nanoseconds, accumulated
	failedChecks     libatm.Value[uint64]
	failedHana       libatm.Value[uint64]
	consecutiveErrs  libatm.Value[uint32]

	lastChangeMu sync.Mutex
	lastChange   time.Time

	slowstart time.Duration
}

// New returns a Server with a generated identity and the given uweight.
func New(proxyID, address string, uweight uint16) *Server {
	return &Server{
		ID:      uuid.NewString(),
		ProxyID: proxyID,
		Address: address,
		UWeight: uweight,

		eweight:         libatm.NewValue[uint16](),
		downTrans:       libatm.NewValue[uint64](),
		downTime:        libatm.NewValue[int64](),
		failedChecks:    libatm.NewValue[uint64](),
		failedHana:      libatm.NewValue[uint64](),
		consecutiveErrs: libatm.NewValue[uint32](),
	}
}

// State returns a snapshot of the server's runtime state bits.
func (s *Server) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Server) SetState(bit State) {
	s.stateMu.Lock()
	s.state.Set(bit)
	s.stateMu.Unlock()
}

func (s *Server) ClearState(bit State) {
	s.stateMu.Lock()
	s.state.Clear(bit)
	s.stateMu.Unlock()
}

// EWeight returns the effective weight, adjusted by slow-start (§4.7).
func (s *Server) EWeight() uint16 { return s.eweight.Load() }

func (s *Server) SetEWeight(w uint16) { s.eweight.Store(w) }

// SlowStart returns the configured slow-start ramp duration (0 disables it).
func (s *Server) SlowStart() time.Duration { return s.slowstart }

func (s *Server) SetSlowStart(d time.Duration) { s.slowstart = d }

// Trackers returns the servers whose verdict mirrors this one (§3, §9: a
// vector of weak references, walked as a local fold that never re-enters a
// MAINTAIN node).
func (s *Server) Trackers() []*Server {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	out := make([]*Server, len(s.trackers))
	copy(out, s.trackers)
	return out
}

// AddTracker registers dst as tracking s's verdict.
func (s *Server) AddTracker(dst *Server) {
	s.trackMu.Lock()
	s.trackers = append(s.trackers, dst)
	s.trackMu.Unlock()
}

func (s *Server) LastChange() time.Time {
	s.lastChangeMu.Lock()
	defer s.lastChangeMu.Unlock()
	return s.lastChange
}

func (s *Server) SetLastChange(t time.Time) {
	s.lastChangeMu.Lock()
	s.lastChange = t
	s.lastChangeMu.Unlock()
}

func (s *Server) DownTrans() uint64        { return s.downTrans.Load() }
func (s *Server) IncrDownTrans()           { s.downTrans.Store(s.downTrans.Load() + 1) }
func (s *Server) DownTime() time.Duration  { return time.Duration(s.downTime.Load()) }
func (s *Server) AddDownTime(d time.Duration) {
	s.downTime.Store(s.downTime.Load() + int64(d))
}
func (s *Server) FailedChecks() uint64 { return s.failedChecks.Load() }
func (s *Server) IncrFailedChecks()    { s.failedChecks.Store(s.failedChecks.Load() + 1) }
func (s *Server) FailedHana() uint64   { return s.failedHana.Load() }
func (s *Server) IncrFailedHana()      { s.failedHana.Store(s.failedHana.Load() + 1) }

func (s *Server) ConsecutiveErrors() uint32 { return s.consecutiveErrs.Load() }
func (s *Server) ResetConsecutiveErrors()   { s.consecutiveErrs.Store(0) }
func (s *Server) IncrConsecutiveErrors() uint32 {
	v := s.consecutiveErrs.Load() + 1
	s.consecutiveErrs.Store(v)
	return v
}
