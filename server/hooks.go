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

// LBHooks is the narrow surface the verdict engine uses to reach the
// load-balancer map and the pending-connection queue (§9 design notes).
// Both collaborators live outside this module's scope; callers plug in
// their own implementation (e.g. backed by a consistent-hash ring or a
// round-robin map) when wiring a Server into a pool.
type LBHooks interface {
	// SetServerUp recomputes the LB map now that srv is eligible again.
	SetServerUp(srv *Server)
	// SetServerDown recomputes the LB map now that srv is excluded.
	SetServerDown(srv *Server)
	// RecomputeWeight is invoked after a Set-UP transition so the map can
	// pick up an updated effective weight (§4.2 step 5).
	RecomputeWeight(srv *Server)
}

// PendingQueue is the pending-connection collaborator (§9): sessions queued
// on a server or a proxy, redistributed on failure and drained on recovery.
type PendingQueue interface {
	// RedistributeFromServer detaches every redispatchable pending session
	// bound to srv, and wakes each one's task so the balancer re-picks
	// (§4.2 Set-DOWN step 5, Set-DRAIN).
	RedistributeFromServer(srv *Server)
	// RequeueToServer pulls pending sessions off the proxy-level queue and
	// targets them at srv while it has spare capacity (§4.2 Set-UP step 7,
	// §4.7).
	RequeueToServer(srv *Server)
}

// AlertSink receives operator-facing notifications the verdict engine emits
// on proxy-wide state changes (§4.2 Set-DOWN step 7).
type AlertSink interface {
	NoServerAvailable(proxyID string)
}

// SessionSink is the collaborator that forcibly ends live sessions, driven
// by onmarkeddown/onmarkedup (§4.2 Set-DOWN step 4, Set-UP step 6). Session
// life-cycle itself is out of scope (§1); this is the narrow notification
// surface the verdict engine needs.
type SessionSink interface {
	// ShutdownSessions terminates every session currently bound to srv.
	ShutdownSessions(srv *Server)
	// ShutdownBackupSessions terminates sessions on every backup server of
	// the proxy that now has a non-backup server back UP.
	ShutdownBackupSessions(proxyID string)
}
