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

// Package check models the probe instance (§3): its type, granular status,
// verdict and rise/fall health counter, as tagged variants rather than
// integer enums relying on ordering tricks (§9 design notes).
package check

// Type identifies which prober drives a Check (§3).
type Type uint8

const (
	TypeNone Type = iota
	TypeHTTP
	TypeSSLHello
	TypeSMTP
	TypePgSQL
	TypeRedis
	TypeMySQL
	TypeLDAP
	TypeTCPScript
	TypeAgentLine
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeHTTP:
		return "HTTP"
	case TypeSSLHello:
		return "SSL-HELLO"
	case TypeSMTP:
		return "SMTP"
	case TypePgSQL:
		return "PGSQL"
	case TypeRedis:
		return "REDIS"
	case TypeMySQL:
		return "MYSQL"
	case TypeLDAP:
		return "LDAP"
	case TypeTCPScript:
		return "TCP-SCRIPT"
	case TypeAgentLine:
		return "AGENT-LINE"
	default:
		return "UNKNOWN"
	}
}

// ExpectsReply reports whether the prober waits for a server reply before
// reaching a verdict. TCP-SCRIPT decides this per-rule, so it answers true
// here and the script engine (§4.5) is free to shortcut.
func (t Type) ExpectsReply() bool {
	return t != TypeNone
}

// Result is the verdict of the current probe round (§3).
type Result uint8

const (
	ResultUnknown Result = iota
	ResultPassed
	ResultCondPass
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultPassed:
		return "PASSED"
	case ResultCondPass:
		return "CONDPASS"
	case ResultFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Passing reports whether r counts towards the rise side of health (§4.1:
// "the round PASSED (any flavour)").
func (r Result) Passing() bool {
	return r == ResultPassed || r == ResultCondPass
}

// Status is the granular diagnostic code of a probe round (§6).
type Status uint8

const (
	StatusUnknown Status = iota
	StatusInit
	StatusHANA
	StatusSockErr
	StatusL4OK
	StatusL4Timeout
	StatusL4Conn
	StatusL6OK
	StatusL6Timeout
	StatusL6Resp
	StatusL7Timeout
	StatusL7Resp
	StatusL7OK
	StatusL7OKCond
	StatusL7Status
)

// String returns the stable tag used in logs/telemetry (§6).
func (s Status) String() string {
	switch s {
	case StatusInit:
		return "INI"
	case StatusHANA:
		return "HANA"
	case StatusSockErr:
		return "SOCKERR"
	case StatusL4OK:
		return "L4OK"
	case StatusL4Timeout:
		return "L4TOUT"
	case StatusL4Conn:
		return "L4CON"
	case StatusL6OK:
		return "L6OK"
	case StatusL6Timeout:
		return "L6TOUT"
	case StatusL6Resp:
		return "L6RSP"
	case StatusL7Timeout:
		return "L7TOUT"
	case StatusL7Resp:
		return "L7RSP"
	case StatusL7OK:
		return "L7OK"
	case StatusL7OKCond:
		return "L7OKC"
	case StatusL7Status:
		return "L7STS"
	default:
		return "UNK"
	}
}

// Result maps a Status to the Result it implies (§6).
func (s Status) Result() Result {
	switch s {
	case StatusL4OK, StatusL6OK, StatusL7OK:
		return ResultPassed
	case StatusL7OKCond:
		return ResultCondPass
	case StatusL4Timeout, StatusL4Conn, StatusL6Timeout, StatusL6Resp,
		StatusL7Timeout, StatusL7Resp, StatusL7Status, StatusSockErr, StatusHANA:
		return ResultFailed
	default:
		return ResultUnknown
	}
}

// AllowsMarkDown encodes the only ordering ever relied upon in the original
// implementation -- "agent failure is allowed to mark down" -- as an
// explicit predicate rather than a numeric comparison on the Status enum
// (§9 design notes: avoid `status >= L7TOUT` tricks).
func (s Status) AllowsMarkDown() bool {
	switch s {
	case StatusL7Timeout, StatusL7Resp, StatusL7OK, StatusL7OKCond, StatusL7Status,
		StatusSockErr, StatusHANA:
		return true
	default:
		return false
	}
}

// State is a bitset drawn from {CONFIGURED, ENABLED, PAUSED, IN-PROGRESS, AGENT} (§3).
type State uint8

const (
	StateConfigured State = 1 << iota
	StateEnabled
	StatePaused
	StateInProgress
	StateAgent
)

func (s State) Has(bit State) bool { return s&bit != 0 }
func (s *State) Set(bit State)     { *s |= bit }
func (s *State) Clear(bit State)   { *s &^= bit }
