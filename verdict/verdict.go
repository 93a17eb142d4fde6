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

// Package verdict implements the verdict engine (§4.2): it folds a probe
// round's result into a server's rise/fall health counter and drives the
// Set-DOWN / Set-UP / Set-DRAIN / Set-UNDRAIN transitions, including
// tracker propagation. Of the observe-mode passive-error path it only
// resets a server's consecutive-error count on a passing round; it has no
// entry point that counts passive errors.
package verdict

import (
	"time"

	libchk "github.com/sabouaram/healthcheck/check"
	liblog "github.com/sabouaram/healthcheck/healthlog"
	libsrv "github.com/sabouaram/healthcheck/server"
)

// Engine applies check outcomes to servers. now is injected so the engine
// stays deterministic under test; production callers pass time.Now.
type Engine struct {
	Now func() time.Time

	// OnEnterWarmup is invoked when a server transitions into WARMINGUP,
	// letting the caller schedule the warmup task (§4.7) without this
	// package depending on the scheduler.
	OnEnterWarmup func(srv *libsrv.Server)

	// Log, when set, receives one line per Set-UP/Set-DOWN/Set-DRAIN
	// transition (§6). Nil is a valid zero value: the engine stays silent.
	Log *liblog.Logger

	// Metrics, when set, mirrors every transition onto a Prometheus
	// collector. Defined as a narrow interface here, rather than importing
	// package metrics directly, so verdict never depends on the exposition
	// format its caller chooses.
	Metrics Metrics
}

// Metrics is the subset of metrics.Collector the verdict engine drives.
type Metrics interface {
	ObserveTransition(proxyID, serverID, state string, up bool)
}

// New returns an Engine using time.Now.
func New() *Engine {
	return &Engine{Now: time.Now}
}

func (e *Engine) logTransition(srv *libsrv.Server, msg string) {
	if e.Log == nil {
		return
	}
	e.Log.ForServer(srv.ProxyID, srv.ID).Info(msg, nil)
}

func (e *Engine) observeTransition(srv *libsrv.Server, state string, up bool) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.ObserveTransition(srv.ProxyID, srv.ID, state, up)
}

// Apply is the §4.2 entry point: route one completed check round's result
// onto its server, cascading to trackers and the LB/pending hooks.
func (e *Engine) Apply(srv *libsrv.Server, c *libchk.Check) {
	// Agent secondary-check carve-out (§4.2, §3 invariant): a FAILED agent
	// round that isn't an explicit L7STS verdict must never move health.
	if c.State().Has(libchk.StateAgent) && c.Result == libchk.ResultFailed && c.Status != libchk.StatusL7Status {
		return
	}

	switch c.Result {
	case libchk.ResultFailed:
		e.onFailed(srv, c)
	case libchk.ResultPassed, libchk.ResultCondPass:
		e.onPassed(srv, c)
	}
}

func (e *Engine) onFailed(srv *libsrv.Server, c *libchk.Check) {
	wasRunning := srv.State().Has(libsrv.Running)
	c.ApplyFailed()
	if wasRunning && c.Health() == 0 {
		e.setDown(srv, c)
	}
}

func (e *Engine) onPassed(srv *libsrv.Server, c *libchk.Check) {
	wasDrain := srv.State().Has(libsrv.GoingDown)

	reachedUp := c.IncrHealth()

	if srv.State().Has(libsrv.Running) {
		// Slow-start/DISABLE404 drain coupling (§4.1): flipping CONDPASS on
		// moves a RUNNING server to DRAIN; flipping it off moves it back.
		if c.Result == libchk.ResultCondPass && !wasDrain {
			e.setDrain(srv)
		} else if c.Result != libchk.ResultCondPass && wasDrain {
			e.setUndrain(srv)
		}
	}

	if reachedUp && !srv.State().Has(libsrv.Running) {
		e.setUp(srv, c)
	}

	if srv.Observe != libsrv.ObserveNone {
		srv.ResetConsecutiveErrors()
	}
}

// setDown implements the §4.2 Set-DOWN procedure.
func (e *Engine) setDown(srv *libsrv.Server, c *libchk.Check) {
	now := e.Now()
	srv.SetLastChange(now)
	srv.ClearState(libsrv.Running)
	srv.ClearState(libsrv.GoingDown)
	e.logTransition(srv, "server entered DOWN state")
	e.observeTransition(srv, "down", false)

	hadUsable := srv.Proxy != nil && srv.Proxy.UsableCount() > 0
	if srv.Proxy != nil && srv.Proxy.Hooks != nil {
		srv.Proxy.Hooks.SetServerDown(srv)
	}

	if srv.OnMarkedDown.Has(libsrv.ShutdownSessions) && srv.Proxy != nil && srv.Proxy.Sessions != nil {
		srv.Proxy.Sessions.ShutdownSessions(srv)
	}

	// Redistribute pending (§4.2 step 5): unconditional, independent of
	// onmarkeddown, which only governs the stronger "kill live sessions"
	// reaction above.
	if srv.Proxy != nil && srv.Proxy.Pending != nil {
		srv.Proxy.Pending.RedistributeFromServer(srv)
	}

	srv.IncrDownTrans()

	if hadUsable && srv.Proxy.UsableCount() == 0 && srv.Proxy.Alerts != nil {
		srv.Proxy.Alerts.NoServerAvailable(srv.Proxy.ID)
	}

	for _, t := range srv.Trackers() {
		if !t.State().Has(libsrv.Maintain) {
			e.propagateDown(t)
		}
	}
}

// setUp implements the §4.2 Set-UP procedure.
func (e *Engine) setUp(srv *libsrv.Server, c *libchk.Check) {
	now := e.Now()
	srv.ClearState(libsrv.Maintain)
	c.ClearState(libchk.StatePaused)

	last := srv.LastChange()
	if !last.IsZero() {
		srv.AddDownTime(now.Sub(last))
	}
	srv.SetLastChange(now)
	srv.SetState(libsrv.Running)
	e.logTransition(srv, "server entered UP state")
	e.observeTransition(srv, "up", true)

	if ss := srv.SlowStart(); ss > 0 {
		srv.SetState(libsrv.WarmingUp)
		if e.OnEnterWarmup != nil {
			e.OnEnterWarmup(srv)
		}
	}

	if srv.Proxy != nil && srv.Proxy.Hooks != nil {
		srv.Proxy.Hooks.RecomputeWeight(srv)
		srv.Proxy.Hooks.SetServerUp(srv)
	}

	if srv.OnMarkedUp.Has(libsrv.ShutdownBackupSessions) && !srv.State().Has(libsrv.Backup) &&
		srv.EWeight() > 0 && srv.Proxy != nil && srv.Proxy.Sessions != nil {
		srv.Proxy.Sessions.ShutdownBackupSessions(srv.Proxy.ID)
	}

	if srv.Proxy != nil && srv.Proxy.Pending != nil {
		srv.Proxy.Pending.RequeueToServer(srv)
	}

	for _, t := range srv.Trackers() {
		if !t.State().Has(libsrv.Maintain) {
			e.propagateUp(t)
		}
	}
}

func (e *Engine) setDrain(srv *libsrv.Server) {
	srv.SetState(libsrv.GoingDown)
	e.logTransition(srv, "server entered DRAIN state")
	e.observeTransition(srv, "drain", false)
	if srv.Proxy != nil && srv.Proxy.Hooks != nil {
		srv.Proxy.Hooks.SetServerDown(srv)
	}
	if srv.Proxy != nil && srv.Proxy.Pending != nil {
		srv.Proxy.Pending.RedistributeFromServer(srv)
	}
	for _, t := range srv.Trackers() {
		if !t.State().Has(libsrv.Maintain) {
			e.setDrain(t)
		}
	}
}

func (e *Engine) setUndrain(srv *libsrv.Server) {
	srv.ClearState(libsrv.GoingDown)
	e.observeTransition(srv, "up", true)
	if srv.Proxy != nil && srv.Proxy.Hooks != nil {
		srv.Proxy.Hooks.SetServerUp(srv)
	}
	if srv.Proxy != nil && srv.Proxy.Pending != nil {
		srv.Proxy.Pending.RequeueToServer(srv)
	}
	for _, t := range srv.Trackers() {
		if !t.State().Has(libsrv.Maintain) {
			e.setUndrain(t)
		}
	}
}

// propagateDown mirrors a tracked server's DOWN verdict onto t (§4.2 step
// 8, §9: "a local fold that never re-enters a node in MAINTAIN").
func (e *Engine) propagateDown(t *libsrv.Server) {
	t.SetLastChange(e.Now())
	t.ClearState(libsrv.Running)
	t.ClearState(libsrv.GoingDown)
	if t.Proxy != nil && t.Proxy.Hooks != nil {
		t.Proxy.Hooks.SetServerDown(t)
	}
	for _, tt := range t.Trackers() {
		if !tt.State().Has(libsrv.Maintain) {
			e.propagateDown(tt)
		}
	}
}

func (e *Engine) propagateUp(t *libsrv.Server) {
	t.SetLastChange(e.Now())
	t.SetState(libsrv.Running)
	if t.Proxy != nil && t.Proxy.Hooks != nil {
		t.Proxy.Hooks.SetServerUp(t)
	}
	for _, tt := range t.Trackers() {
		if !tt.State().Has(libsrv.Maintain) {
			e.propagateUp(tt)
		}
	}
}
