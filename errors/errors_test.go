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

package errors_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/sabouaram/healthcheck/errors"
)

const testMinPkg liberr.CodeError = 9000

const (
	testErrorFirst liberr.CodeError = iota + testMinPkg
	testErrorSecond
)

func testGetMessage(code liberr.CodeError) string {
	switch code {
	case liberr.UnknownError:
		return ""
	case testErrorFirst:
		return "first test error"
	case testErrorSecond:
		return "second test error"
	}
	return ""
}

var _ = Describe("CodeError", func() {
	BeforeEach(func() {
		if !liberr.ExistInMapMessage(testErrorFirst) {
			liberr.RegisterIdFctMessage(testErrorFirst, testGetMessage)
		}
	})

	It("resolves the registered message for a known code", func() {
		err := testErrorFirst.Error(nil)
		Expect(err.Error()).To(Equal("first test error"))
		Expect(err.GetCode()).To(Equal(testErrorFirst))
		Expect(err.IsCode(testErrorFirst)).To(BeTrue())
		Expect(err.IsCode(testErrorSecond)).To(BeFalse())
	})

	It("falls back to the unknown message for an unregistered code", func() {
		Expect(liberr.UnknownError.Error(nil).Error()).To(Equal(liberr.UnknownMessage))
	})

	It("appends non-nil parent error text", func() {
		parent := testErrorSecond.Error(nil)
		err := testErrorFirst.Error(nil, parent)
		Expect(err.Error()).To(ContainSubstring("first test error"))
		Expect(err.Error()).To(ContainSubstring("second test error"))
	})

	It("ignores nil parents", func() {
		err := testErrorFirst.Error(nil)
		Expect(err.Error()).To(Equal("first test error"))
	})
})
