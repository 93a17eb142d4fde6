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

// Package server models the unit of health (§3): a backend Server, its
// weight and runtime state bits, and the tracker chain that mirrors one
// server's verdict onto others.
package server

import "strings"

// State is a bitset of the runtime flags drawn from
// {RUNNING, GOINGDOWN, BACKUP, WARMINGUP, MAINTAIN} (§3).
type State uint8

const (
	// Running marks the server eligible for traffic.
	Running State = 1 << iota
	// GoingDown (a.k.a. DRAIN) keeps the server RUNNING but excluded from
	// new load-balancing decisions.
	GoingDown
	// Backup marks a server only used when no primary server is UP.
	Backup
	// WarmingUp marks a server in its slow-start ramp (§4.7).
	WarmingUp
	// Maintain forces the server DOWN regardless of check results.
	Maintain
)

func (s State) Has(bit State) bool { return s&bit != 0 }

func (s *State) Set(bit State)   { *s |= bit }
func (s *State) Clear(bit State) { *s &^= bit }

// Up reports whether the server is reported UP: RUNNING and not MAINTAIN
// (§3 invariant "a server is reported UP iff RUNNING and not MAINTAIN").
func (s State) Up() bool {
	return s.Has(Running) && !s.Has(Maintain)
}

func (s State) String() string {
	var parts []string
	if s.Has(Running) {
		parts = append(parts, "RUNNING")
	}
	if s.Has(GoingDown) {
		parts = append(parts, "GOINGDOWN")
	}
	if s.Has(Backup) {
		parts = append(parts, "BACKUP")
	}
	if s.Has(WarmingUp) {
		parts = append(parts, "WARMINGUP")
	}
	if s.Has(Maintain) {
		parts = append(parts, "MAINTAIN")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Observe selects which layer's errors feed consecutive_errors from passive
// traffic analysis (§3, §4.2).
type Observe uint8

const (
	ObserveNone Observe = iota
	ObserveLayer4
	ObserveLayer7
)

// OnError selects the reaction when consecutive_errors reaches its limit
// while Observe is active (§4.2).
type OnError uint8

const (
	OnErrorFastInter OnError = iota
	OnErrorSuddenDeath
	OnErrorFailCheck
	OnErrorMarkDown
)

// SessionAction is a bitset used by OnMarkedDown/OnMarkedUp (§4.2).
type SessionAction uint8

const (
	// ShutdownSessions terminates sessions bound to the server that just
	// went DOWN (OnMarkedDown).
	ShutdownSessions SessionAction = 1 << iota
	// ShutdownBackupSessions terminates sessions on backup servers of the
	// same proxy when the primary comes back UP (OnMarkedUp).
	ShutdownBackupSessions
)
