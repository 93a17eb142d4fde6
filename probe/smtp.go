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

package probe

import (
	"strconv"

	libchk "github.com/sabouaram/healthcheck/check"
)

const smtpMinLen = len("000\r")

// SMTP implements the §4.3 SMTP banner prober.
func SMTP(bi []byte, done bool) Outcome {
	if len(bi) < smtpMinLen {
		if done {
			return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
		}
		return more()
	}
	for i := 0; i < 3; i++ {
		if bi[i] < '0' || bi[i] > '9' {
			return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
		}
	}
	if bi[3] != ' ' && bi[3] != '\r' {
		return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
	}

	code, _ := strconv.Atoi(string(bi[0:3]))
	reason := ""
	if len(bi) > 4 {
		reason = truncate(firstLine(bi[4:]), maxDesc)
	}
	if code >= 200 && code < 300 {
		return ok(libchk.StatusL7OK, code, reason)
	}
	return fail(libchk.StatusL7Status, code, reason)
}
