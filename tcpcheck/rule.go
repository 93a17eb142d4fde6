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

// Package tcpcheck implements the scripted TCP check engine (§4.5): a
// linear program of connect/send/expect steps sharing one check's
// connection and buffers across steps.
package tcpcheck

import (
	"regexp"

	liberr "github.com/sabouaram/healthcheck/errors"
)

// Action selects a rule's variant (§3 "Tcpcheck rule").
type Action uint8

const (
	ActionConnect Action = iota
	ActionSend
	ActionExpect
)

// ConnOpt is a bitset of CONNECT-rule options (§6 "conn_opts").
type ConnOpt uint8

const (
	OptSSL ConnOpt = 1 << iota
	OptSendProxy
)

// Rule is one step of the script (§3, §6).
type Rule struct {
	Action Action

	// CONNECT
	Port     int // 0 means "use the check's configured port"
	ConnOpts ConnOpt

	// SEND
	String string

	// EXPECT
	ExpectString string
	ExpectRegex  *regexp.Regexp
	Inverse      bool
}

// Program is a non-empty ordered rule list (§4.5, §8: "an empty rule list
// must be rejected at config time").
type Program []Rule

// NewProgram validates and wraps rules. An empty program is a config-time
// error so the engine can assume at least one rule exists (§8).
func NewProgram(rules []Rule) (Program, error) {
	if len(rules) == 0 {
		return nil, ErrorEmptyProgram.Error(nil)
	}
	return Program(rules), nil
}

const (
	ErrorEmptyProgram liberr.CodeError = iota + liberr.MinPkgHealthCheckTCPCheck
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorEmptyProgram)
	liberr.RegisterIdFctMessage(ErrorEmptyProgram, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorEmptyProgram:
		return "tcp-check program must contain at least one rule"
	}
	return ""
}
