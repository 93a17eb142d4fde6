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
	"strconv"
	"strings"

	libchk "github.com/sabouaram/healthcheck/check"
)

// AgentVerdict is the decoded instruction from one agent-protocol line
// (§4.3, §6 "Agent wire protocol").
type AgentVerdict struct {
	Outcome Outcome

	// IsWeightChange is true when the line carried a percentage, either a
	// plain "NN%" or the "drain" alias for "0%".
	IsWeightChange bool
	WeightPercent  int
}

// AgentLine implements the §4.3 agent line-protocol prober. It scans bi for
// a line terminator (CR or LF); with none present and not done, it waits.
func AgentLine(bi []byte, done bool, agentDisabled bool) AgentVerdict {
	idx := indexCRLF(bi)
	if idx < 0 {
		if !done {
			return AgentVerdict{Outcome: more()}
		}
		idx = len(bi)
	}
	line := strings.TrimSpace(string(bi[:idx]))
	lower := strings.ToLower(line)

	if strings.Contains(line, "%") && !agentDisabled {
		pct, err := strconv.Atoi(strings.TrimSuffix(line, "%"))
		if err == nil {
			return AgentVerdict{
				Outcome:        ok(libchk.StatusL7OK, 0, ""),
				IsWeightChange: true,
				WeightPercent:  pct,
			}
		}
	}

	if lower == "drain" {
		return AgentVerdict{
			Outcome:        ok(libchk.StatusL7OK, 0, ""),
			IsWeightChange: true,
			WeightPercent:  0,
		}
	}

	for _, kw := range []string{"down", "stopped", "fail"} {
		if rest, cut := strings.CutPrefix(lower, kw); cut {
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
				return AgentVerdict{Outcome: fail(libchk.StatusL7Status, 0, truncate(line, maxDesc))}
			}
		}
	}

	return AgentVerdict{Outcome: fail(libchk.StatusL7Resp, 0, "Unknown feedback string")}
}
