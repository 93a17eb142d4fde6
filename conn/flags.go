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

// Package conn is the nonblocking byte-connection facade (§4.6): a pluggable
// plaintext/TLS transport exposing edge-triggered completion instead of a
// classic readable/writable poll, so a single-threaded task driver can
// suspend on an operation and resume when it is woken rather than blocking
// the shared scheduler goroutine on it.
package conn

// Flags is a bitset of the edges tracked on a Connection (§4.6).
type Flags uint16

const (
	// Connected is set once the transport dial has completed successfully.
	Connected Flags = 1 << iota
	// Error is set once any operation on the connection has failed.
	Error
	// ReadShut is set once the peer (or the probe logic) has shut the read
	// half down.
	ReadShut
	// WriteShut is set once the local side has shut the write half down.
	WriteShut
	// HandshakePending is set while a TLS handshake is in flight.
	HandshakePending
	// SendProxyPending is set when a PROXY protocol header must be written
	// before any probe bytes (§4.6, opt-in).
	SendProxyPending
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f *Flags) set(bit Flags)   { *f |= bit }
func (f *Flags) clear(bit Flags) { *f &^= bit }
