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

package check_test

import (
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libchk "github.com/sabouaram/healthcheck/check"
)

var _ = Describe("Check health counter", func() {
	It("starts DOWN when startAsUp is false", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, false)
		Expect(c.Health()).To(Equal(0))
	})

	It("starts UP when startAsUp is true", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, true)
		Expect(c.Health()).To(Equal(2))
	})

	It("clamps health within [0, rise+fall-1]", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, false)
		for i := 0; i < 10; i++ {
			c.IncrHealth()
		}
		Expect(c.Health()).To(Equal(4))

		for i := 0; i < 10; i++ {
			c.DecrHealth()
		}
		Expect(c.Health()).To(Equal(0))
	})

	It("reports reaching the UP threshold exactly at rise", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, false)
		Expect(c.IncrHealth()).To(BeFalse())
		Expect(c.IncrHealth()).To(BeTrue())
	})

	It("reports reaching the DOWN threshold exactly at zero", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, true)
		Expect(c.DecrHealth()).To(BeFalse())
		Expect(c.DecrHealth()).To(BeTrue())
	})

	It("forces health to rise on ForceHealthUp", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, false)
		c.ForceHealthUp()
		Expect(c.Health()).To(Equal(2))
	})

	It("resets round-scoped fields but keeps rise/fall health", func() {
		c := libchk.New(libchk.TypeHTTP, 2, 3, false)
		c.IncrHealth()
		c.Status = libchk.StatusL7OK
		c.Result = libchk.ResultPassed
		c.Desc = "stale"
		c.Reset()

		Expect(c.Health()).To(Equal(1))
		Expect(c.Status).To(Equal(libchk.StatusUnknown))
		Expect(c.Result).To(Equal(libchk.ResultUnknown))
		Expect(c.Desc).To(Equal(""))
	})
})

var _ = Describe("Status", func() {
	It("maps granular statuses to the right result", func() {
		Expect(libchk.StatusL7OK.Result()).To(Equal(libchk.ResultPassed))
		Expect(libchk.StatusL7OKCond.Result()).To(Equal(libchk.ResultCondPass))
		Expect(libchk.StatusL7Timeout.Result()).To(Equal(libchk.ResultFailed))
	})

	It("only allows mark-down from L7-and-above statuses, SOCKERR and HANA", func() {
		Expect(libchk.StatusL7OK.AllowsMarkDown()).To(BeTrue())
		Expect(libchk.StatusSockErr.AllowsMarkDown()).To(BeTrue())
		Expect(libchk.StatusHANA.AllowsMarkDown()).To(BeTrue())
		Expect(libchk.StatusL4OK.AllowsMarkDown()).To(BeFalse())
		Expect(libchk.StatusL6OK.AllowsMarkDown()).To(BeFalse())
	})
})

var _ = Describe("Expect", func() {
	It("matches a literal substring", func() {
		e := libchk.Expect{Kind: libchk.ExpectStatusString, Str: "200"}
		Expect(e.Match("HTTP/1.1 200 OK")).To(BeTrue())
		Expect(e.Match("HTTP/1.1 404 Not Found")).To(BeFalse())
	})

	It("matches a compiled regex", func() {
		e := libchk.Expect{Kind: libchk.ExpectBodyRegex, Regex: regexp.MustCompile("^ok$")}
		Expect(e.IsBody()).To(BeTrue())
		Expect(e.IsRegex()).To(BeTrue())
		Expect(e.Match("ok")).To(BeTrue())
		Expect(e.Match("not ok")).To(BeFalse())
	})
})
