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

// Package healthlog wraps github.com/hashicorp/go-hclog with the field
// conventions the rest of this module expects: every check/server event
// carries a stable set of key/value pairs (proxy, server, check type) rather
// than a free-form message, so the driver's logging stays grep-able across a
// fleet of thousands of servers.
package healthlog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Fields is an immutable set of structured log attributes. Add returns a new
// Fields rather than mutating the receiver, so a logger's base fields can be
// shared safely across the goroutines that call With.
type Fields map[string]interface{}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	res := make(Fields, len(f)+1)
	for k, v := range f {
		res[k] = v
	}
	res[key] = val
	return res
}

// Merge returns a copy of f with every key of other overlaid on top.
func (f Fields) Merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	}
	res := make(Fields, len(f)+len(other))
	for k, v := range f {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}

// args flattens f into hclog's alternating key/value variadic form.
func (f Fields) args() []interface{} {
	out := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}

// Logger is a structured logger scoped to a fixed set of Fields.
type Logger struct {
	base   hclog.Logger
	fields Fields
}

// New builds a Logger backed by hclog's default JSON-capable text logger,
// named for the process ("healthcheck") so its lines are distinguishable in
// a shared haproxy log stream. Output defaults to os.Stderr.
func New(level hclog.Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		base: hclog.New(&hclog.LoggerOptions{
			Name:   "healthcheck",
			Level:  level,
			Output: output,
		}),
	}
}

// With returns a child Logger carrying fields merged on top of l's own.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{base: l.base, fields: l.fields.Merge(fields)}
}

func (l *Logger) Trace(msg string, fields Fields) { l.base.Trace(msg, l.fields.Merge(fields).args()...) }
func (l *Logger) Debug(msg string, fields Fields) { l.base.Debug(msg, l.fields.Merge(fields).args()...) }
func (l *Logger) Info(msg string, fields Fields)  { l.base.Info(msg, l.fields.Merge(fields).args()...) }
func (l *Logger) Warn(msg string, fields Fields)  { l.base.Warn(msg, l.fields.Merge(fields).args()...) }
func (l *Logger) Error(msg string, fields Fields) { l.base.Error(msg, l.fields.Merge(fields).args()...) }

// ForServer scopes l to one server's check events (§4.2, §6 log lines).
func (l *Logger) ForServer(proxyID, serverID string) *Logger {
	return l.With(Fields{"proxy": proxyID, "server": serverID})
}

// ForCheck further scopes to a check type, e.g. when a server runs both a
// regular check and an agent check concurrently.
func (l *Logger) ForCheck(checkType string) *Logger {
	return l.With(Fields{"check": checkType})
}
