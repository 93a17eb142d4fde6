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

package check

import (
	"regexp"
	"strings"
)

// ExpectKind selects the HTTP expect-rule variant (§4.4): status-string,
// status-regex, body-string or body-regex.
type ExpectKind uint8

const (
	ExpectNone ExpectKind = iota
	ExpectStatusString
	ExpectStatusRegex
	ExpectBodyString
	ExpectBodyRegex
)

// Expect is the configured expect rule consumed by the HTTP prober (§4.4)
// and reused, in its SEND/EXPECT form, by the tcp-check script engine (§4.5).
type Expect struct {
	Kind    ExpectKind
	Str     string
	Regex   *regexp.Regexp
	Inverse bool
}

// IsBody reports whether the rule inspects the response body rather than
// the status line.
func (e Expect) IsBody() bool {
	return e.Kind == ExpectBodyString || e.Kind == ExpectBodyRegex
}

// IsRegex reports whether the rule matches via regular expression.
func (e Expect) IsRegex() bool {
	return e.Kind == ExpectStatusRegex || e.Kind == ExpectBodyRegex
}

// Match runs the configured literal-or-regex test against s.
func (e Expect) Match(s string) bool {
	if e.IsRegex() {
		if e.Regex == nil {
			return false
		}
		return e.Regex.MatchString(s)
	}
	return strings.Contains(s, e.Str)
}
