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

package tcpcheck_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libchk "github.com/sabouaram/healthcheck/check"
	libtcp "github.com/sabouaram/healthcheck/tcpcheck"
)

var _ = Describe("NewProgram", func() {
	It("rejects an empty rule list", func() {
		_, err := libtcp.NewProgram(nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Engine", func() {
	It("drives connect, send, expect to a passing verdict", func() {
		prog, err := libtcp.NewProgram([]libtcp.Rule{
			{Action: libtcp.ActionConnect, Port: 6379},
			{Action: libtcp.ActionSend, String: "PING\r\n"},
			{Action: libtcp.ActionExpect, ExpectString: "+PONG"},
		})
		Expect(err).ToNot(HaveOccurred())

		e := libtcp.NewEngine(prog)
		bo := &bytes.Buffer{}
		bi := &bytes.Buffer{}

		step := e.Advance(bo, bi, false)
		Expect(step.Kind).To(Equal(libtcp.KindConnect))
		Expect(step.ConnectPort).To(Equal(6379))

		e.NotifyConnected()
		step = e.Advance(bo, bi, false)
		Expect(step.Kind).To(Equal(libtcp.KindFlush))
		Expect(bo.String()).To(Equal("PING\r\n"))

		bo.Reset()
		step = e.Advance(bo, bi, false)
		Expect(step.Kind).To(Equal(libtcp.KindRecv))

		bi.WriteString("+PONG\r\n")
		step = e.Advance(bo, bi, false)
		Expect(step.Kind).To(Equal(libtcp.KindVerdict))
		Expect(step.Outcome).To(Equal(libchk.StatusL7OK))
		Expect(step.Desc).To(Equal("(tcp-check)"))
	})

	It("fails the expect step once done without a match", func() {
		prog, _ := libtcp.NewProgram([]libtcp.Rule{
			{Action: libtcp.ActionConnect},
			{Action: libtcp.ActionSend, String: "PING\r\n"},
			{Action: libtcp.ActionExpect, ExpectString: "PONG"},
		})
		e := libtcp.NewEngine(prog)
		bo := &bytes.Buffer{}
		bi := &bytes.Buffer{}

		e.Advance(bo, bi, false) // connect
		e.NotifyConnected()
		e.Advance(bo, bi, false) // flush
		bo.Reset()
		e.Advance(bo, bi, false) // recv

		bi.WriteString("-ERR\r\n")
		step := e.Advance(bo, bi, true)
		Expect(step.Kind).To(Equal(libtcp.KindVerdict))
		Expect(step.Outcome).To(Equal(libchk.StatusL7Resp))
		Expect(step.Desc).To(ContainSubstring("step 3"))
	})
})
