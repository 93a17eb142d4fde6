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

package clock

import (
	"math/rand"
	"sync"
	"time"
)

// rngMu guards the shared, per-process RNG used to spread check intervals.
// The original engine shares one RNG per thread; here one per process is
// enough since the driver is single-threaded by contract (see package sched).
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// SeedRNG reseeds the shared RNG. Called once at boot (see package boot).
func SeedRNG(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

// Spread returns inter perturbed by a bounded random value in
// [-inter*pct/100, +inter*pct/100]. A pct <= 0 returns inter unchanged.
func Spread(inter time.Duration, pct int) time.Duration {
	if pct <= 0 || inter <= 0 {
		return inter
	}

	bound := int64(inter) * int64(pct) / 100
	if bound <= 0 {
		return inter
	}

	rngMu.Lock()
	rv := rng.Int63n(2*bound+1) - bound
	rngMu.Unlock()

	return inter + time.Duration(rv)
}

// Fanout returns the initial offset for the i-th check (0-based) out of n
// configured checks sharing minInterval, spreading first firings across the
// interval so not every server is probed at the same instant.
func Fanout(minInterval time.Duration, i, n int) time.Duration {
	if n <= 0 || minInterval <= 0 {
		return 0
	}
	return minInterval * time.Duration(i) / time.Duration(n)
}
