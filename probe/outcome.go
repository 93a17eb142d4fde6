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

// Package probe implements the Layer-6/Layer-7 protocol parsers (§4.3): each
// one inspects the accumulated ingress bytes and decides more-needed, OK or
// FAIL. None of them touch the network directly -- the driver feeds them the
// bytes read off the connection facade and applies the Outcome they return.
package probe

import (
	libchk "github.com/sabouaram/healthcheck/check"
)

// Outcome is a prober's verdict on the bytes seen so far.
type Outcome struct {
	// NeedMore is true when the prober cannot decide yet and more bytes (or
	// the done=true edge) are required.
	NeedMore bool
	Status   libchk.Status
	Code     int
	Desc     string
}

func (o Outcome) Result() libchk.Result {
	if o.NeedMore {
		return libchk.ResultUnknown
	}
	return o.Status.Result()
}

func more() Outcome { return Outcome{NeedMore: true} }

func ok(status libchk.Status, code int, desc string) Outcome {
	return Outcome{Status: status, Code: code, Desc: desc}
}

func fail(status libchk.Status, code int, desc string) Outcome {
	return Outcome{Status: status, Code: code, Desc: desc}
}

// truncate bounds desc the way the original "trash" scratch buffer bounds a
// check's desc field (§3: "short human description (bounded length)").
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

const maxDesc = 256
