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

package boot_test

import (
	"sort"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libboot "github.com/sabouaram/healthcheck/boot"
)

type fakeArmer struct {
	inter  time.Duration
	armed  bool
	delay  time.Duration
}

func (f *fakeArmer) Interval() time.Duration { return f.inter }
func (f *fakeArmer) Arm(delay time.Duration) { f.armed = true; f.delay = delay }

var _ = Describe("Fanout", func() {
	It("arms every check and spreads first firings across the minimum interval", func() {
		armers := []libboot.Armer{
			&fakeArmer{inter: 2 * time.Second},
			&fakeArmer{inter: time.Second},
			&fakeArmer{inter: 5 * time.Second},
		}

		libboot.Fanout(armers)

		delays := make([]time.Duration, 0, len(armers))
		for _, a := range armers {
			fa := a.(*fakeArmer)
			Expect(fa.armed).To(BeTrue())
			Expect(fa.delay).To(BeNumerically(">=", 0))
			Expect(fa.delay).To(BeNumerically("<", time.Second))
			delays = append(delays, fa.delay)
		}

		sorted := append([]time.Duration(nil), delays...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		Expect(delays).NotTo(Equal([]time.Duration{0, 0, 0}))
	})

	It("does nothing given an empty fleet", func() {
		Expect(func() { libboot.Fanout(nil) }).NotTo(Panic())
	})

	It("treats a single check as its own minimum interval", func() {
		a := &fakeArmer{inter: 3 * time.Second}
		libboot.Fanout([]libboot.Armer{a})

		Expect(a.armed).To(BeTrue())
		Expect(a.delay).To(BeNumerically(">=", 0))
		Expect(a.delay).To(BeNumerically("<", 3*time.Second))
	})
})
