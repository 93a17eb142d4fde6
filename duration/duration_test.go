/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package duration_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libdur "github.com/sabouaram/healthcheck/duration"
)

var _ = Describe("Duration", func() {
	It("parses a plain Go duration string", func() {
		d, err := libdur.Parse("5s")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Time()).To(Equal(5 * time.Second))
	})

	It("strips surrounding quotes before parsing", func() {
		d, err := libdur.Parse(`"2s500ms"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Time()).To(Equal(2500 * time.Millisecond))
	})

	It("rejects an invalid duration string", func() {
		_, err := libdur.Parse("not-a-duration")
		Expect(err).To(HaveOccurred())
	})

	It("round-trips ParseDuration/Time", func() {
		d := libdur.ParseDuration(750 * time.Millisecond)
		Expect(d.Time()).To(Equal(750 * time.Millisecond))
	})

	It("formats sub-day durations like time.Duration", func() {
		d := libdur.ParseDuration(90 * time.Second)
		Expect(d.String()).To(Equal((90 * time.Second).String()))
	})

	It("prefixes a days component for multi-day durations", func() {
		d := libdur.ParseDuration(26 * time.Hour)
		Expect(d.Days()).To(Equal(int64(1)))
		Expect(d.String()).To(Equal("1d2h0m0s"))
	})
})
