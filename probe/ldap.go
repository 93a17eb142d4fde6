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

// LDAP implements the §4.3 LDAPv3 bind-response prober. The wire format is
// decoded by hand against the exact byte-offset rules the spec gives,
// rather than through a general BER library, since the check only ever
// needs to confirm three fixed tags (SEQUENCE, messageID, bindResponse) and
// pull out one ENUMERATED result code -- a full BER decoder would dwarf the
// check it serves.
func LDAP(bi []byte, done bool) Outcome {
	const minLen = 14
	if len(bi) < minLen {
		if done {
			return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
		}
		return more()
	}

	off := 0
	if bi[off] != 0x30 {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off++
	if off >= len(bi) {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off += berLengthSize(bi[off])

	// messageID ::= INTEGER, expect "02 01 01"
	if off+3 > len(bi) || bi[off] != 0x02 || bi[off+1] != 0x01 || bi[off+2] != 0x01 {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off += 3

	// bindResponse ::= [APPLICATION 1] tag 0x61
	if off >= len(bi) || bi[off] != 0x61 {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off++
	if off >= len(bi) {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off += berLengthSize(bi[off])

	// ldapResult.resultCode ::= ENUMERATED, expect "0A 01"
	if off+2 > len(bi) || bi[off] != 0x0A || bi[off+1] != 0x01 {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}
	off += 2
	if off >= len(bi) {
		return fail(libchk.StatusL7Resp, 0, "Not LDAPv3 protocol")
	}

	resultCode := int(bi[off])
	if resultCode == 0 {
		return ok(libchk.StatusL7OK, 0, "")
	}
	return fail(libchk.StatusL7Status, resultCode, "")
}

// berLengthSize returns how many bytes the BER length field occupies,
// including its leading indicator octet, using the §4.3/§8 rule: short form
// (high bit clear) carries no extra octets; long form's low 7 bits count the
// extra length octets that follow. The decoded length value itself is never
// needed -- every caller already knows the fixed tag that must follow.
func berLengthSize(b byte) int {
	if b&0x80 == 0 {
		return 1
	}
	return 1 + int(b&0x7F)
}
