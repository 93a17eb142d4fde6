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

package healthlog_test

import (
	"bytes"

	"github.com/hashicorp/go-hclog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liblog "github.com/sabouaram/healthcheck/healthlog"
)

var _ = Describe("Logger", func() {
	It("includes scoped fields in every emitted line", func() {
		var buf bytes.Buffer
		l := liblog.New(hclog.Debug, &buf)

		scoped := l.ForServer("px1", "s1").ForCheck("HTTP")
		scoped.Info("server entered UP state", nil)

		out := buf.String()
		Expect(out).To(ContainSubstring("server entered UP state"))
		Expect(out).To(ContainSubstring("proxy=px1"))
		Expect(out).To(ContainSubstring("server=s1"))
		Expect(out).To(ContainSubstring("check=HTTP"))
	})

	It("merges call-site fields on top of scoped fields without mutating the parent", func() {
		var buf bytes.Buffer
		l := liblog.New(hclog.Debug, &buf)

		scoped := l.ForServer("px1", "s1")
		scoped.Warn("retrying", liblog.Fields{"attempt": 2})

		out := buf.String()
		Expect(out).To(ContainSubstring("attempt=2"))
		Expect(out).To(ContainSubstring("proxy=px1"))

		buf.Reset()
		scoped.Info("steady state", nil)
		Expect(buf.String()).NotTo(ContainSubstring("attempt="))
	})

	It("suppresses lines below the configured level", func() {
		var buf bytes.Buffer
		l := liblog.New(hclog.Warn, &buf)

		l.Debug("should not appear", nil)
		Expect(buf.String()).To(BeEmpty())

		l.Warn("should appear", nil)
		Expect(buf.String()).NotTo(BeEmpty())
	})
})
