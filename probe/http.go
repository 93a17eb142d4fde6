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
	"strings"

	libchk "github.com/sabouaram/healthcheck/check"
)

const httpMinLen = len("HTTP/1.0 000\r")

// HTTP implements the §4.3 HTTP prober. disable404/serverRunning implement
// the DISABLE404 CONDPASS carve-out; expect, when non-nil, takes over the
// verdict per §4.4.
func HTTP(bi []byte, done bool, expect *libchk.Expect, disable404, serverRunning bool) Outcome {
	if len(bi) < httpMinLen {
		if done {
			return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
		}
		return more()
	}

	if !strings.HasPrefix(string(bi[:7]), "HTTP/1.") {
		return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
	}
	if bi[12] != ' ' && bi[12] != '\r' {
		return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
	}
	for i := 9; i <= 11; i++ {
		if bi[i] < '0' || bi[i] > '9' {
			return fail(libchk.StatusL7Resp, 0, truncate(firstLine(bi), maxDesc))
		}
	}

	code, _ := strconv.Atoi(string(bi[9:12]))

	if disable404 && serverRunning && code == 404 {
		return ok(libchk.StatusL7OKCond, code, "")
	}

	if expect != nil && expect.Kind != libchk.ExpectNone {
		return httpExpect(bi, done, *expect, code)
	}

	if code >= 200 && code < 400 {
		return ok(libchk.StatusL7OK, code, truncate(reasonPhrase(bi), maxDesc))
	}
	return fail(libchk.StatusL7Status, code, truncate(reasonPhrase(bi), maxDesc))
}

func firstLine(bi []byte) string {
	if i := indexCRLF(bi); i >= 0 {
		return string(bi[:i])
	}
	return string(bi)
}

func reasonPhrase(bi []byte) string {
	line := firstLine(bi)
	if i := strings.IndexByte(line, ' '); i >= 0 {
		if j := strings.IndexByte(line[i+1:], ' '); j >= 0 {
			return line[i+1+j+1:]
		}
	}
	return line
}

func indexCRLF(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == '\r' || b[i] == '\n' {
			return i
		}
	}
	return -1
}

// httpExpect implements §4.4: STS/RSTS compare the status code region; STR/
// RSTR locate end-of-headers and search the body. INV inverts the verdict.
func httpExpect(bi []byte, done bool, e libchk.Expect, code int) Outcome {
	if !e.IsBody() {
		codeStr := string(bi[9:12])
		matched := e.Match(codeStr)
		if matched != e.Inverse {
			return ok(libchk.StatusL7OK, code, "")
		}
		return fail(libchk.StatusL7Status, code, "HTTP status check returned code "+codeStr)
	}

	bodyStart, lfCount := endOfHeaders(bi)
	if lfCount < 2 {
		if done {
			return fail(libchk.StatusL7Resp, code, truncate(firstLine(bi), maxDesc))
		}
		return more()
	}
	body := bi[bodyStart:]
	if len(body) > 0 && body[0] == 0 {
		return fail(libchk.StatusL7Resp, code, "empty response body")
	}

	matched := e.Match(string(body))
	switch {
	case matched && !e.Inverse:
		return ok(libchk.StatusL7OK, code, "")
	case matched && e.Inverse:
		return fail(libchk.StatusL7Resp, code, "matched unwanted content")
	case !matched && !e.Inverse:
		return fail(libchk.StatusL7Resp, code, "did not match")
	default: // !matched && e.Inverse
		return ok(libchk.StatusL7OK, code, "did not match unwanted content")
	}
}

// endOfHeaders scans for two consecutive LFs (CRs skipped) and returns the
// byte offset just past them plus the count of LFs seen, per §4.4.
func endOfHeaders(b []byte) (offset int, lfCount int) {
	for i := 0; i < len(b); i++ {
		if b[i] == '\r' {
			continue
		}
		if b[i] == '\n' {
			lfCount++
			if lfCount == 2 {
				return i + 1, lfCount
			}
		} else {
			lfCount = 0
		}
	}
	return len(b), lfCount
}
