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

package conn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"
)

// Transport selects the byte-level wire underneath a Connection (§4.6).
type Transport uint8

const (
	// Plain is a raw TCP transport.
	Plain Transport = iota
	// TLS wraps the dialed socket in a TLS client handshake. It is opt-in
	// for any prober type; the SSL-HELLO prober writes its own raw
	// ClientHello and does not need it.
	TLS
)

// Connection is a single probe round's transport. It is not reused across
// rounds: the driver (§4.1) creates one per process_chk invocation and lets
// it go after the verdict is reached.
//
// Every blocking syscall (dial, handshake, read, write) runs on its own
// goroutine; completion is reported by invoking the wake callback supplied
// at construction, so the task driver never blocks the shared scheduler
// goroutine waiting on socket I/O -- it suspends by returning, and resumes
// when sched.Scheduler.Wake fires its task again.
type Connection struct {
	mu sync.Mutex

	transport Transport
	tlsConfig *tls.Config

	raw     net.Conn
	tlsConn *tls.Conn

	flags Flags

	dialErr  error
	lastN    int
	lastErr  error

	remoteAddr string
	wake       func()
}

// New returns a Connection for the given transport. wake is invoked (from a
// background goroutine) every time an in-flight operation completes; callers
// typically pass a closure over sched.Scheduler.Wake bound to the owning
// task.
func New(transport Transport, tlsConfig *tls.Config, wake func()) *Connection {
	return &Connection{transport: transport, tlsConfig: tlsConfig, wake: wake}
}

func (c *Connection) notify() {
	if c.wake != nil {
		c.wake()
	}
}

// Flags returns a snapshot of the connection's edge bits.
func (c *Connection) Flags() Flags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// DialErr returns the error from the most recently completed Dial, if any.
func (c *Connection) DialErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialErr
}

// LastResult returns the byte count and error of the most recently completed
// AsyncRead or AsyncWrite.
func (c *Connection) LastResult() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastN, c.lastErr
}

// RemoteAddr returns the dialed address, for X-Haproxy-Server-State and logs.
func (c *Connection) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteAddr
}

// Dial starts an asynchronous connect (and, for Transport==TLS, the
// handshake that follows it) and returns immediately. Completion -- success
// or failure -- is reported through the wake callback.
func (c *Connection) Dial(ctx context.Context, network, address string, timeout time.Duration) {
	c.mu.Lock()
	c.remoteAddr = address
	c.mu.Unlock()

	go func() {
		dialer := net.Dialer{Timeout: timeout}
		raw, err := dialer.DialContext(ctx, network, address)

		c.mu.Lock()
		if err != nil {
			c.dialErr = err
			c.flags.set(Error)
			c.mu.Unlock()
			c.notify()
			return
		}
		c.raw = raw
		c.flags.set(Connected)
		if c.transport == TLS {
			c.flags.set(HandshakePending)
		}
		c.mu.Unlock()

		if c.transport == TLS {
			c.handshake(ctx, timeout)
			return
		}
		c.notify()
	}()
}

func (c *Connection) handshake(ctx context.Context, timeout time.Duration) {
	c.mu.Lock()
	raw := c.raw
	cfg := c.tlsConfig
	if cfg == nil {
		cfg = &tls.Config{}
	}
	c.mu.Unlock()

	hctx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tconn := tls.Client(raw, cfg)
	err := tconn.HandshakeContext(hctx)

	c.mu.Lock()
	c.flags.clear(HandshakePending)
	if err != nil {
		c.flags.set(Error)
	} else {
		c.tlsConn = tconn
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Connection) activeConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tlsConn != nil {
		return c.tlsConn
	}
	return c.raw
}

// AsyncRead starts a read into buf and returns immediately; the result is
// retrieved with LastResult once wake fires. deadline of zero means no
// per-operation timeout beyond the connection's overall check budget.
func (c *Connection) AsyncRead(buf []byte, deadline time.Time) {
	conn := c.activeConn()
	if conn == nil {
		c.mu.Lock()
		c.lastErr = fmt.Errorf("conn: read before connect")
		c.flags.set(Error)
		c.mu.Unlock()
		c.notify()
		return
	}
	go func() {
		if !deadline.IsZero() {
			_ = conn.SetReadDeadline(deadline)
		}
		n, err := conn.Read(buf)
		c.mu.Lock()
		c.lastN, c.lastErr = n, err
		if err != nil {
			c.flags.set(Error)
		}
		c.mu.Unlock()
		c.notify()
	}()
}

// AsyncWrite starts a write of buf and returns immediately.
func (c *Connection) AsyncWrite(buf []byte, deadline time.Time) {
	conn := c.activeConn()
	if conn == nil {
		c.mu.Lock()
		c.lastErr = fmt.Errorf("conn: write before connect")
		c.flags.set(Error)
		c.mu.Unlock()
		c.notify()
		return
	}
	go func() {
		if !deadline.IsZero() {
			_ = conn.SetWriteDeadline(deadline)
		}
		n, err := conn.Write(buf)
		c.mu.Lock()
		c.lastN, c.lastErr = n, err
		if err != nil {
			c.flags.set(Error)
		}
		c.mu.Unlock()
		c.notify()
	}()
}

// SetSendProxyPending marks (or clears) the PROXY protocol preamble as owed
// before the first probe byte (§4.6, opt-in).
func (c *Connection) SetSendProxyPending(pending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pending {
		c.flags.set(SendProxyPending)
	} else {
		c.flags.clear(SendProxyPending)
	}
}

// ProxyHeader renders a PROXY protocol v1 header for the given 4-tuple.
func ProxyHeader(srcIP, dstIP string, srcPort, dstPort int) []byte {
	return []byte(fmt.Sprintf("PROXY TCP4 %s %s %d %d\r\n", srcIP, dstIP, srcPort, dstPort))
}

// ShutWrite marks the write half closed without touching the socket's read
// half (§4.6 edge tracking for half-duplex probes like SMTP's QUIT-less exit).
func (c *Connection) ShutWrite() {
	c.mu.Lock()
	c.flags.set(WriteShut)
	c.mu.Unlock()
}

// ShutRead marks the read half closed.
func (c *Connection) ShutRead() {
	c.mu.Lock()
	c.flags.set(ReadShut)
	c.mu.Unlock()
}

// Close releases the underlying socket. Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	raw := c.raw
	tconn := c.tlsConn
	c.raw, c.tlsConn = nil, nil
	c.mu.Unlock()

	var err error
	if tconn != nil {
		err = tconn.Close()
	} else if raw != nil {
		err = raw.Close()
	}
	return err
}
