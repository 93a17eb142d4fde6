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

package metrics_test

import (
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libmet "github.com/sabouaram/healthcheck/metrics"
)

var _ = Describe("Collector", func() {
	It("exposes observed checks and transitions on its own registry", func() {
		c := libmet.NewCollector()

		c.ObserveCheck("HTTP", "PASSED", 15*time.Millisecond)
		c.ObserveTransition("px1", "s1", "up", true)
		c.SetHealth("px1", "s1", 2)
		c.SetProxyUsable("px1", 3)
		c.SetEffectiveWeight("px1", "s1", 50)
		c.IncrNoServerAvailable("px1")

		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/metrics", nil)
		c.Handler().ServeHTTP(rr, req)

		body := rr.Body.String()
		Expect(rr.Code).To(Equal(200))
		Expect(body).To(ContainSubstring("healthcheck_checks_total"))
		Expect(body).To(ContainSubstring("healthcheck_server_transitions_total"))
		Expect(body).To(ContainSubstring("healthcheck_server_health"))
		Expect(body).To(ContainSubstring("healthcheck_proxy_usable_servers"))
		Expect(body).To(ContainSubstring("healthcheck_server_effective_weight"))
		Expect(body).To(ContainSubstring("healthcheck_no_server_available_total"))
	})

	It("isolates two independent collectors on two independent registries", func() {
		a := libmet.NewCollector()
		b := libmet.NewCollector()

		a.ObserveCheck("HTTP", "PASSED", time.Millisecond)

		rrA := httptest.NewRecorder()
		a.Handler().ServeHTTP(rrA, httptest.NewRequest("GET", "/metrics", nil))
		rrB := httptest.NewRecorder()
		b.Handler().ServeHTTP(rrB, httptest.NewRequest("GET", "/metrics", nil))

		Expect(rrA.Body.String()).To(ContainSubstring("healthcheck_checks_total"))
		Expect(rrB.Body.String()).NotTo(ContainSubstring("healthcheck_checks_total{"))
	})
})
