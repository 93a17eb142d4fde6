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

package tcpcheck

import (
	"bytes"
	"fmt"
	"strings"

	libchk "github.com/sabouaram/healthcheck/check"
)

// Kind is the action the driver must take in response to a Step (§4.5).
type Kind uint8

const (
	// KindFlush asks the driver to send bo's contents before Advance is
	// called again.
	KindFlush Kind = iota
	// KindConnect asks the driver to (re)connect per the given step options.
	KindConnect
	// KindRecv asks the driver to read more bytes into bi and call Advance again.
	KindRecv
	// KindVerdict means the script has reached a final result.
	KindVerdict
)

// Step is the engine's suspend/resume unit: the driver calls Advance whenever
// it has new information (connect completed, bytes flushed, bytes arrived)
// until it gets a verdict.
type Step struct {
	Kind Kind

	ConnectPort int
	ConnectOpts ConnOpt

	Outcome libchk.Status
	Code    int
	Desc    string
}

// Engine runs one Program against one check's shared bi/bo buffers and
// connection lifecycle (§4.5).
type Engine struct {
	prog Program

	// CurrentStep/LastStartedStep mirror the Check record fields (§3); kept
	// here because only the engine advances them.
	CurrentStep     int
	LastStartedStep int

	connected bool
}

// NewEngine returns an engine positioned at the first rule.
func NewEngine(prog Program) *Engine {
	return &Engine{prog: prog}
}

// StepID is the 1-based diagnostic index used in failure messages (§4.5):
// "1 + (zero-based position of last_started_step)"; before any step has
// started it is 1.
func (e *Engine) StepID() int {
	return e.LastStartedStep + 1
}

// NotifyConnected tells the engine a CONNECT step's socket is now connected,
// letting the next Step call advance past it.
func (e *Engine) NotifyConnected() {
	e.connected = true
}

// NotifyReconnecting tells the engine a new CONNECT step is about to be
// issued, so the next Step call re-suspends on it until NotifyConnected.
func (e *Engine) NotifyReconnecting() {
	e.connected = false
}

// Advance runs the script forward as far as it can from bo/bi's current
// contents without further I/O, returning the next required driver action.
func (e *Engine) Advance(bo, bi *bytes.Buffer, done bool) Step {
	for {
		if e.CurrentStep >= len(e.prog) {
			if bo.Len() > 0 {
				return Step{Kind: KindFlush}
			}
			return Step{Kind: KindVerdict, Outcome: libchk.StatusL7OK, Desc: "(tcp-check)"}
		}

		rule := e.prog[e.CurrentStep]
		e.LastStartedStep = e.CurrentStep

		switch rule.Action {
		case ActionConnect:
			if bo.Len() > 0 {
				return Step{Kind: KindFlush}
			}
			if !e.connected {
				return Step{Kind: KindConnect, ConnectPort: rule.Port, ConnectOpts: rule.ConnOpts}
			}
			e.CurrentStep++
			continue

		case ActionSend:
			if len(rule.String) > bo.Cap() && bo.Cap() > 0 {
				return Step{
					Kind:    KindVerdict,
					Outcome: libchk.StatusL7Resp,
					Desc:    fmt.Sprintf("tcp-check SEND string too large at step %d", e.StepID()),
				}
			}
			bo.WriteString(rule.String)
			e.CurrentStep++
			continue

		case ActionExpect:
			if bo.Len() > 0 {
				return Step{Kind: KindFlush}
			}
			body := bi.Bytes()
			if len(body) == 0 {
				if done {
					return Step{Kind: KindVerdict, Outcome: libchk.StatusL7Resp, Desc: "empty response"}
				}
				return Step{Kind: KindRecv}
			}

			matched := matchExpect(rule, string(body))
			if matched == rule.Inverse {
				if !done {
					return Step{Kind: KindRecv}
				}
				pattern := rule.ExpectString
				if rule.ExpectRegex != nil {
					pattern = "(regex)"
				}
				return Step{
					Kind:    KindVerdict,
					Outcome: libchk.StatusL7Resp,
					Desc:    fmt.Sprintf("TCPCHK did not match content '%s' at step %d", pattern, e.StepID()),
				}
			}
			e.CurrentStep++
			bi.Reset()
			continue
		}

		return Step{Kind: KindVerdict, Outcome: libchk.StatusL7Resp, Desc: "unknown tcp-check action"}
	}
}

func matchExpect(rule Rule, body string) bool {
	if rule.ExpectRegex != nil {
		return rule.ExpectRegex.MatchString(body)
	}
	return strings.Contains(body, rule.ExpectString)
}

// Reset rewinds the engine so the same Program can drive a fresh round.
func (e *Engine) Reset() {
	e.CurrentStep = 0
	e.LastStartedStep = 0
	e.connected = false
}
