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
	"context"
	"net"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libchk "github.com/sabouaram/healthcheck/check"
	libdrv "github.com/sabouaram/healthcheck/driver"
	libdur "github.com/sabouaram/healthcheck/duration"
	libsch "github.com/sabouaram/healthcheck/sched"
	libsrv "github.com/sabouaram/healthcheck/server"
	libvrd "github.com/sabouaram/healthcheck/verdict"
)

// fakeHooks records Set-UP/Set-DOWN transitions without touching an LB map.
type fakeHooks struct{ ups, downs int }

func (f *fakeHooks) SetServerUp(*libsrv.Server)     { f.ups++ }
func (f *fakeHooks) SetServerDown(*libsrv.Server)   { f.downs++ }
func (f *fakeHooks) RecomputeWeight(*libsrv.Server) {}

type fakePending struct{}

func (fakePending) RedistributeFromServer(*libsrv.Server) {}
func (fakePending) RequeueToServer(*libsrv.Server)         {}

func listenerPort(l net.Listener) int {
	return l.Addr().(*net.TCPAddr).Port
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		sched  libsch.Scheduler
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		sched = libsch.New()
		go sched.Start(ctx)
	})

	AfterEach(func() {
		cancel()
		sched.Stop()
	})

	It("drives a passing HTTP round to completion and reaches UP at rise=1", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		go func() {
			for {
				c, err := ln.Accept()
				if err != nil {
					return
				}
				_, _ = c.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
				_ = c.Close()
			}
		}()

		srv := libsrv.New("px1", "127.0.0.1:"+strconv.Itoa(listenerPort(ln)), 100)
		srv.Proxy = &libsrv.Proxy{ID: "px1", Hooks: &fakeHooks{}, Pending: fakePending{}}

		c := libchk.New(libchk.TypeHTTP, 1, 1, false)
		c.SetState(libchk.StateEnabled)
		c.Inter = libdur.ParseDuration(200 * time.Millisecond)

		cfg := libdrv.Config{Request: []byte("GET / HTTP/1.0"), TimeoutConnect: time.Second}
		d := libdrv.New(srv, c, cfg, sched, libvrd.New())
		d.Arm(0)

		Eventually(func() bool { return srv.State().Has(libsrv.Running) }, "2s", "10ms").Should(BeTrue())
		Expect(c.Status).To(Equal(libchk.StatusL7OK))
	})

	It("reaches DOWN when a previously-UP server stops answering", func() {
		srv := libsrv.New("px1", "127.0.0.1:1", 100)
		srv.Proxy = &libsrv.Proxy{ID: "px1", Hooks: &fakeHooks{}, Pending: fakePending{}}
		srv.SetState(libsrv.Running)

		c := libchk.New(libchk.TypeHTTP, 1, 1, true)
		c.SetState(libchk.StateEnabled)
		c.Inter = libdur.ParseDuration(200 * time.Millisecond)

		cfg := libdrv.Config{Request: []byte("GET / HTTP/1.0"), TimeoutConnect: 300 * time.Millisecond}
		d := libdrv.New(srv, c, cfg, sched, libvrd.New())
		d.Arm(0)

		Eventually(func() bool { return srv.State().Has(libsrv.Running) }, "2s", "10ms").Should(BeFalse())
		Expect(c.Health()).To(Equal(0))
	})

	It("renders the X-Haproxy-Server-State header for a healthy UP server", func() {
		srv := libsrv.New("px1", "127.0.0.1:80", 100)
		srv.SetState(libsrv.Running)
		c := libchk.New(libchk.TypeHTTP, 2, 3, true)
		c.SetState(libchk.StateEnabled)

		hdr := libdrv.StateHeader(srv, c)
		Expect(hdr).To(ContainSubstring("X-Haproxy-Server-State: UP"))
		Expect(hdr).To(ContainSubstring("name=px1/" + srv.ID))
	})
})
