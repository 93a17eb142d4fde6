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
	libchk "github.com/sabouaram/healthcheck/check"
)

// PostgreSQL implements the §4.3 PostgreSQL startup-reply prober.
func PostgreSQL(bi []byte, done bool) Outcome {
	if len(bi) < 9 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}
	switch bi[0] {
	case 'R':
		return ok(libchk.StatusL7OK, 0, "")
	case 'E':
		if msg := bi[6:]; len(msg) > 0 && msg[0] != 0 {
			return fail(libchk.StatusL7Status, 0, truncate(cString(msg), maxDesc))
		}
		return fail(libchk.StatusL7Status, 0, "")
	default:
		return fail(libchk.StatusL7Resp, 0, "")
	}
}

// Redis implements the §4.3 Redis PING prober.
func Redis(bi []byte, done bool) Outcome {
	const want = "+PONG\r\n"
	if len(bi) < len(want) {
		if done {
			return fail(libchk.StatusL7Status, 0, truncate(string(bi), maxDesc))
		}
		return more()
	}
	if string(bi[:len(want)]) == want {
		return ok(libchk.StatusL7OK, 0, "")
	}
	return fail(libchk.StatusL7Status, 0, truncate(string(bi), maxDesc))
}

// cString returns b up to (excluding) its first NUL, or all of b if none.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// MySQLLegacyGreetingMin is the minimum greeting length the legacy MySQL
// prober requires before it will call the round PASSED (§9 design notes:
// named the literal 51 from the original "check->bi->i > 51").
const MySQLLegacyGreetingMin = 51

// MySQLLegacy implements the §4.3 legacy-mode MySQL prober (no configured
// challenge length): the handshake packet's protocol-version byte at offset
// 4 signals success, gated on a minimum greeting size.
func MySQLLegacy(bi []byte, done bool) Outcome {
	if len(bi) < 5 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}
	if bi[4] == 0xFF {
		return fail(libchk.StatusL7Status, 0, truncate(mysqlErrorText(bi), maxDesc))
	}
	if len(bi) > MySQLLegacyGreetingMin {
		return ok(libchk.StatusL7OK, 0, truncate(mysqlVersion(bi), maxDesc))
	}
	if done {
		return fail(libchk.StatusL7Resp, 0, "")
	}
	return more()
}

func mysqlErrorText(bi []byte) string {
	if len(bi) > 7 {
		return cString(bi[7:])
	}
	return ""
}

func mysqlVersion(bi []byte) string {
	if len(bi) > 5 {
		return cString(bi[5:])
	}
	return ""
}

// MySQLTwoPacket implements the §4.3 two-packet MySQL prober (a configured
// challenge length splits the handshake across a first and second packet).
func MySQLTwoPacket(bi []byte, done bool) Outcome {
	if len(bi) < 4 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}
	firstLen := int(bi[0]) | int(bi[1])<<8 | int(bi[2])<<16

	if len(bi) < firstLen+4 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}
	if bi[4] == 0xFF {
		if len(bi) > 7 {
			return fail(libchk.StatusL7Status, 0, truncate(cString(bi[7:]), maxDesc))
		}
		return fail(libchk.StatusL7Status, 0, "")
	}
	if len(bi) == firstLen+4 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}

	// second packet: 3-byte length + 1-byte seq at [firstLen+4 .. firstLen+8)
	if len(bi) < firstLen+8 {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}
	secondLen := int(bi[firstLen+4]) | int(bi[firstLen+5])<<8 | int(bi[firstLen+6])<<16
	total := firstLen + 4 + secondLen + 4
	if len(bi) < total {
		if done {
			return fail(libchk.StatusL7Resp, 0, "")
		}
		return more()
	}

	if bi[firstLen+8] == 0xFF {
		errOff := firstLen + 11
		if len(bi) > errOff {
			return fail(libchk.StatusL7Status, 0, truncate(cString(bi[errOff:]), maxDesc))
		}
		return fail(libchk.StatusL7Status, 0, "")
	}
	return ok(libchk.StatusL7OK, 0, "")
}
