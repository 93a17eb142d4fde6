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

package probe

import (
	"encoding/binary"
	"time"

	libchk "github.com/sabouaram/healthcheck/check"
)

// SSLHello implements the §4.3 SSL-hello (L6) prober: a handshake/alert
// byte (0x15 or 0x16) in the first position is enough to call the layer up.
func SSLHello(bi []byte, done bool) Outcome {
	if len(bi) < 5 {
		if done {
			return fail(libchk.StatusL6Resp, 0, "")
		}
		return more()
	}
	if bi[0] == 0x15 || bi[0] == 0x16 {
		return ok(libchk.StatusL6OK, 0, "")
	}
	return fail(libchk.StatusL6Resp, 0, "")
}

// ClientHelloTemplate returns a fixed SSLv3 ClientHello with the current
// Unix time inserted as a 4-byte big-endian field at offset 11 (§4.1).
func ClientHelloTemplate(now time.Time) []byte {
	hello := make([]byte, len(sslv3ClientHello))
	copy(hello, sslv3ClientHello)
	binary.BigEndian.PutUint32(hello[11:15], uint32(now.Unix()))
	return hello
}

// sslv3ClientHello is the fixed record HAProxy-style SSL-hello checks send:
// a TLS record header (handshake, SSLv3) wrapping a ClientHello with a
// conservative cipher-suite list, no extensions.
var sslv3ClientHello = []byte{
	0x16, 0x03, 0x00, 0x00, 0x4d, 0x01, 0x00, 0x00, 0x49, 0x03, 0x00,
	0x00, 0x00, 0x00, 0x00, // offset 11..14: Unix time, patched above
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00,
	0x00, 0x26,
	0x00, 0x39, 0x00, 0x38, 0x00, 0x35, 0x00, 0x16, 0x00, 0x19, 0x00,
	0x33, 0x00, 0x32, 0x00, 0x04, 0x00, 0x05, 0x00, 0x2f, 0x00, 0x96,
	0x00, 0x0a, 0x00, 0x15, 0x00, 0x12, 0x00, 0x09, 0x00, 0x14, 0x00,
	0x11, 0x00, 0x08, 0x00, 0x06, 0x00, 0x03, 0x00, 0xff,
	0x01,
	0x00,
}
