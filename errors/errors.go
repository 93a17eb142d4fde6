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

// Package errors is a coded-error constructor for construction-time
// failures (a malformed TCP-check program, an invalid driver configuration,
// a dial that never reached the connect budget). It is the minimal surface
// the health-check packages actually call: a per-package code range
// (modules.go), a registered message function per range, and a CodeError
// that builds an error carrying that code and message.
//
// Connection-level and protocol-level outcomes that are expected data (a
// refused dial, a bad LDAP response) are never routed through this
// package — they become a check.Status/check.Result pair instead. This
// package is reserved for failures a caller mis-wired the subsystem, not
// failures a remote peer returned.
package errors

import "strings"

// CodeError is a numeric error code, grouped into per-package ranges by
// modules.go.
type CodeError uint16

const (
	// UnknownError is the fallback code when none was registered.
	UnknownError CodeError = 0

	UnknownMessage = "unknown error"
	NullMessage    = ""
)

// Message produces the text for a registered CodeError.
type Message func(code CodeError) (message string)

var idMsgFct = make(map[CodeError]Message)

// RegisterIdFctMessage registers the message function for every code in a
// package's range (the lowest code of that range is the map key; lookups
// fall back to the nearest registered range at or below a given code).
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	idMsgFct[minCode] = fct
}

// ExistInMapMessage reports whether code resolves to a non-empty message,
// used by each package's init() to guard against a code-range collision.
func ExistInMapMessage(code CodeError) bool {
	f, ok := idMsgFct[findCodeErrorInMapMessage(code)]
	if !ok {
		return false
	}
	return f(code) != NullMessage
}

func findCodeErrorInMapMessage(code CodeError) CodeError {
	var res CodeError
	for k := range idMsgFct {
		if k <= code && k > res {
			res = k
		}
	}
	return res
}

// Message returns the registered text for c, or UnknownMessage.
func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}
	if f, ok := idMsgFct[findCodeErrorInMapMessage(c)]; ok {
		if m := f(c); m != NullMessage {
			return m
		}
	}
	return UnknownMessage
}

// Error is a minimal coded error: the standard error interface plus its
// originating CodeError.
type Error interface {
	error
	GetCode() CodeError
	IsCode(code CodeError) bool
}

type ers struct {
	code CodeError
	msg  string
}

func (e *ers) Error() string { return e.msg }

func (e *ers) GetCode() CodeError { return e.code }

func (e *ers) IsCode(code CodeError) bool { return e.code == code }

// Error builds an Error from c, joining any non-nil parent error messages
// onto c's own registered message.
func (c CodeError) Error(parent ...error) Error {
	msg := c.Message()

	var extra []string
	for _, p := range parent {
		if p != nil {
			extra = append(extra, p.Error())
		}
	}
	if len(extra) > 0 {
		msg = msg + ": " + strings.Join(extra, ", ")
	}

	return &ers{code: c, msg: msg}
}
