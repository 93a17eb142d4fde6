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

package driver

import (
	"sync"

	"github.com/go-playground/validator/v10"

	liberr "github.com/sabouaram/healthcheck/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// Validate checks cfg's struct tags (timeouts non-negative, spread percent
// in [0,100], network one of the dialable families) and the cross-field
// rule that a TCP-SCRIPT check needs a non-empty Program. Call before
// wiring a Driver from externally sourced configuration; a programmatically
// built Config that already satisfies these is never required to call it.
func (cfg Config) Validate() error {
	if err := getValidator().Struct(cfg); err != nil {
		return ErrorInvalidConfig.Error(err)
	}
	if cfg.Program != nil && len(cfg.Program) == 0 {
		return ErrorEmptyProgram.Error(nil)
	}
	return nil
}

const (
	ErrorInvalidConfig liberr.CodeError = iota + liberr.MinPkgHealthCheckDriver
	ErrorEmptyProgram
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorInvalidConfig)
	liberr.RegisterIdFctMessage(ErrorInvalidConfig, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return ""
	case ErrorInvalidConfig:
		return "invalid driver configuration"
	case ErrorEmptyProgram:
		return "tcp-check program must not be empty"
	}
	return ""
}
