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

package driver_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libdrv "github.com/sabouaram/healthcheck/driver"
	libtcp "github.com/sabouaram/healthcheck/tcpcheck"
)

var _ = Describe("Config.Validate", func() {
	It("accepts a zero-value config", func() {
		Expect(libdrv.Config{}.Validate()).To(Succeed())
	})

	It("rejects a negative connect timeout", func() {
		cfg := libdrv.Config{TimeoutConnect: -time.Second}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a spread percentage above 100", func() {
		cfg := libdrv.Config{SpreadChecksPct: 150}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects an unknown network family", func() {
		cfg := libdrv.Config{Network: "udp"}
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a non-nil but empty tcp-check program", func() {
		cfg := libdrv.Config{Program: libtcp.Program{}}
		Expect(cfg.Validate()).To(HaveOccurred())
	})
})
