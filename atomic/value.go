/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package atomic provides Value[T], a type-safe box over sync/atomic.Value,
// for the mutable counters a server's single scheduler goroutine writes and
// any number of other goroutines (an LB map recomputation, a metrics
// scrape) may read concurrently.
package atomic

import "sync/atomic"

// Value is a lock-free box for a value of type T. The zero value of T is
// returned by Load until the first Store.
type Value[T any] interface {
	Load() T
	Store(v T)
}

type val[T any] struct {
	av atomic.Value
}

// NewValue returns a ready-to-use Value[T].
func NewValue[T any]() Value[T] {
	return &val[T]{}
}

func (o *val[T]) Load() T {
	v, ok := o.av.Load().(T)
	if !ok {
		var zero T
		return zero
	}
	return v
}

func (o *val[T]) Store(v T) {
	o.av.Store(v)
}
