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

// Package boot implements the boot/fanout sequence (§4.8): seed the shared
// RNG once, find the minimum configured check interval across the fleet,
// and stagger every check's first firing across that interval instead of
// firing every check at the exact same instant on process start.
package boot

import (
	"time"

	libclk "github.com/sabouaram/healthcheck/clock"
)

// Armer is the narrow surface boot needs from a driver: something with an
// inter and an Arm(delay) method. Defined here (rather than imported from
// package driver) so boot has no compile-time dependency on the driver's
// connection/probe machinery -- it only ever staggers start times.
type Armer interface {
	Interval() time.Duration
	Arm(delay time.Duration)
}

// Seed reseeds the shared spread RNG (§4.1 spread_checks) deterministically
// from seed, normally time.Now().UnixNano() in production and a fixed value
// under test.
func Seed(seed int64) {
	libclk.SeedRNG(seed)
}

// Fanout computes every Armer's minimum configured interval, then arms each
// one with a proportional offset into that interval so the whole fleet's
// first round doesn't land in the same instant (§4.8, §6 "avoid a thundering
// herd of checks at startup").
func Fanout(armers []Armer) {
	if len(armers) == 0 {
		return
	}

	min := armers[0].Interval()
	for _, a := range armers[1:] {
		if iv := a.Interval(); iv > 0 && (min <= 0 || iv < min) {
			min = iv
		}
	}

	n := len(armers)
	for i, a := range armers {
		a.Arm(libclk.Fanout(min, i, n))
	}
}
