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

package probe_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libchk "github.com/sabouaram/healthcheck/check"
	libprb "github.com/sabouaram/healthcheck/probe"
)

var _ = Describe("HTTP prober", func() {
	It("passes a 200 response", func() {
		out := libprb.HTTP([]byte("HTTP/1.1 200 OK\r\n\r\n"), true, nil, false, false)
		Expect(out.NeedMore).To(BeFalse())
		Expect(out.Status).To(Equal(libchk.StatusL7OK))
		Expect(out.Code).To(Equal(200))
	})

	It("fails a 503 response", func() {
		out := libprb.HTTP([]byte("HTTP/1.1 503 \r\n"), true, nil, false, false)
		Expect(out.Status).To(Equal(libchk.StatusL7Status))
		Expect(out.Code).To(Equal(503))
	})

	It("asks for more on a short buffer that is not done", func() {
		out := libprb.HTTP([]byte("HTTP/1"), false, nil, false, false)
		Expect(out.NeedMore).To(BeTrue())
	})

	It("condpasses a 404 when DISABLE404 and the server is running", func() {
		out := libprb.HTTP([]byte("HTTP/1.1 404 Not Found\r\n\r\n"), true, nil, true, true)
		Expect(out.Status).To(Equal(libchk.StatusL7OKCond))
		Expect(out.Code).To(Equal(404))
	})
})

var _ = Describe("LDAP prober", func() {
	It("passes a successful bind response", func() {
		b := []byte{0x30, 0x0C, 0x02, 0x01, 0x01, 0x61, 0x07, 0x0A, 0x01, 0x00, 0x04, 0x00, 0x04, 0x00}
		out := libprb.LDAP(b, true)
		Expect(out.Status).To(Equal(libchk.StatusL7OK))
		Expect(out.Code).To(Equal(0))
	})

	It("fails a bind response with a non-zero result code", func() {
		b := []byte{0x30, 0x0C, 0x02, 0x01, 0x01, 0x61, 0x07, 0x0A, 0x01, 0x31, 0x04, 0x00, 0x04, 0x00}
		out := libprb.LDAP(b, true)
		Expect(out.Status).To(Equal(libchk.StatusL7Status))
		Expect(out.Code).To(Equal(0x31))
	})
})

var _ = Describe("Redis prober", func() {
	It("passes on +PONG", func() {
		out := libprb.Redis([]byte("+PONG\r\n"), true)
		Expect(out.Status).To(Equal(libchk.StatusL7OK))
	})

	It("fails on anything else once done", func() {
		out := libprb.Redis([]byte("-ERR\r\n"), true)
		Expect(out.Status).To(Equal(libchk.StatusL7Status))
	})
})

var _ = Describe("Agent prober", func() {
	It("decodes a weight percentage", func() {
		v := libprb.AgentLine([]byte("50%\n"), false, false)
		Expect(v.IsWeightChange).To(BeTrue())
		Expect(v.WeightPercent).To(Equal(50))
	})

	It("decodes drain as a zero-percent weight change", func() {
		v := libprb.AgentLine([]byte("drain\n"), false, false)
		Expect(v.IsWeightChange).To(BeTrue())
		Expect(v.WeightPercent).To(Equal(0))
	})

	It("forces a status failure on down/stopped/fail", func() {
		v := libprb.AgentLine([]byte("down\n"), false, false)
		Expect(v.Outcome.Status).To(Equal(libchk.StatusL7Status))
	})

	It("reports unknown feedback for anything else", func() {
		v := libprb.AgentLine([]byte("bogus\n"), false, false)
		Expect(v.Outcome.Status).To(Equal(libchk.StatusL7Resp))
	})

	It("waits when no terminator has arrived yet", func() {
		v := libprb.AgentLine([]byte("partial"), false, false)
		Expect(v.Outcome.NeedMore).To(BeTrue())
	})
})

var _ = Describe("MySQL legacy prober", func() {
	It("passes once the greeting exceeds the minimum length", func() {
		buf := make([]byte, libprb.MySQLLegacyGreetingMin+2)
		buf[4] = 10
		copy(buf[5:], []byte("5.7.30\x00"))
		out := libprb.MySQLLegacy(buf, true)
		Expect(out.Status).To(Equal(libchk.StatusL7OK))
	})

	It("fails on the error byte", func() {
		buf := make([]byte, 10)
		buf[4] = 0xFF
		copy(buf[7:], []byte("bad"))
		out := libprb.MySQLLegacy(buf, true)
		Expect(out.Status).To(Equal(libchk.StatusL7Status))
	})
})
