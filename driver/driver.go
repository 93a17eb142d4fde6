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

// Package driver implements process_chk (§4.1): the single event-loop entry
// that launches a probe, advances it across suspensions, applies timeouts,
// and reschedules the next round.
package driver

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	libchk "github.com/sabouaram/healthcheck/check"
	libclk "github.com/sabouaram/healthcheck/clock"
	libconn "github.com/sabouaram/healthcheck/conn"
	libprb "github.com/sabouaram/healthcheck/probe"
	libsch "github.com/sabouaram/healthcheck/sched"
	libsrv "github.com/sabouaram/healthcheck/server"
	libtcp "github.com/sabouaram/healthcheck/tcpcheck"
	libvrd "github.com/sabouaram/healthcheck/verdict"
)

// maxCatchUpSteps bounds the §4.1/§9 "step expire forward by inter until it
// lies in the future" loop, so a driver woken after a very long pause cannot
// spin indefinitely re-walking its own backlog.
const maxCatchUpSteps = 1000

// readChunk is the scratch buffer size handed to each AsyncRead.
const readChunk = 16384

// Config bundles a check's static configuration: everything process_chk
// reads from the surrounding proxy/server config but does not itself own
// (§6 "Configuration options consumed by the core").
type Config struct {
	Request      []byte // HTTP: configured request line(s)/headers, no trailing CRLF
	SendStateHdr bool   // PR_O2_CHK_SNDST
	Expect       *libchk.Expect
	Disable404   bool
	UseTLS       bool
	TLSConfig    *tls.Config

	Program       libtcp.Program // non-nil selects TypeTCPScript driving
	AgentDisabled bool

	TimeoutConnect time.Duration `validate:"gte=0"`
	TimeoutCheck   time.Duration `validate:"gte=0"` // 0 means "follow inter only" (§9)

	SpreadChecksPct int    `validate:"gte=0,lte=100"` // global.spread_checks, 0 disables
	Network         string `validate:"omitempty,oneof=tcp tcp4 tcp6"`
}

// round is the live state of one in-flight probe (§3 conn/task fields).
type round struct {
	conn    *libconn.Connection
	engine  *libtcp.Engine // non-nil for TCP-SCRIPT
	armed   bool           // AsyncRead/AsyncWrite currently outstanding
	reading bool           // the outstanding op is a read, not a write
	scratch []byte         // buffer handed to the outstanding AsyncRead
}

func (r *round) startRead(conn *libconn.Connection, deadline time.Time) {
	r.scratch = make([]byte, readChunk)
	r.reading = true
	conn.AsyncRead(r.scratch, deadline)
}

// Metrics is the subset of metrics.Collector the driver drives directly
// (the verdict engine drives the rest via its own Metrics interface).
type Metrics interface {
	ObserveCheck(checkType, result string, duration time.Duration)
}

// Driver runs process_chk for one Check against one Server.
type Driver struct {
	Server  *libsrv.Server
	Check   *libchk.Check
	Config  Config
	Sched   libsch.Scheduler
	Verdict *libvrd.Engine
	Task    libsch.Task
	Metrics Metrics

	r *round
}

// New wires a driver and creates its scheduler task, disabled until Arm (or
// the boot/fanout sequencer) schedules the first round.
func New(srv *libsrv.Server, c *libchk.Check, cfg Config, sched libsch.Scheduler, verdict *libvrd.Engine) *Driver {
	d := &Driver{Server: srv, Check: c, Config: cfg, Sched: sched, Verdict: verdict}
	d.Task = sched.NewTask(d.run)
	return d
}

// Arm schedules the first firing at delay from now.
func (d *Driver) Arm(delay time.Duration) {
	d.Sched.Queue(d.Task, libclk.Now().Add(delay))
}

// Interval reports the check's steady-state interval, for boot-time fanout
// staggering (§4.8). It mirrors the "Up" branch of nextInterval since a
// freshly booted check hasn't run yet and has no result to weigh.
func (d *Driver) Interval() time.Duration {
	return d.Check.Inter.Time()
}

func (d *Driver) run(now libclk.Tick) {
	if d.r == nil {
		d.notInProgress(now)
		return
	}
	d.inProgress(now)
}

// notInProgress implements the §4.1 "Not in progress" branch.
func (d *Driver) notInProgress(now libclk.Tick) {
	if !libclk.Expired(d.Task.Expire(), now) {
		return
	}

	c := d.Check
	if c.State().Has(libchk.StatePaused) || !c.State().Has(libchk.StateEnabled) || d.Server.State().Has(libsrv.Maintain) || d.Server.Proxy.IsStopped() {
		d.reschedule(now, c.Inter.Time())
		return
	}

	c.Status = libchk.StatusInit
	c.Reset()
	c.Start = time.Now()
	c.SetState(libchk.StateInProgress)

	d.buildRequest()

	r := &round{}
	d.r = r

	transport := libconn.Plain
	if d.Config.UseTLS {
		transport = libconn.TLS
	}
	r.conn = libconn.New(transport, d.Config.TLSConfig, func() { d.Sched.Wake(d.Task) })

	if d.Config.Program != nil {
		r.engine = libtcp.NewEngine(d.Config.Program)
		d.driveScript(now)
		return
	}

	r.conn.Dial(context.Background(), d.network(), d.remoteAddressPort(d.Check.Port), d.connectTimeout())
	d.armConnectTimeout(now)
}

// inProgress implements the §4.1 "In progress" branch.
func (d *Driver) inProgress(now libclk.Tick) {
	r := d.r
	if r == nil {
		return
	}
	if r.engine != nil {
		d.driveScript(now)
		return
	}

	c := d.Check
	flags := r.conn.Flags()

	switch {
	case flags.Has(libconn.Error):
		d.classifyError(now, flags)
	case libclk.Expired(d.Task.Expire(), now) && !flags.Has(libconn.Connected):
		d.classifyError(now, flags)
	case flags.Has(libconn.Connected) && c.Type == libchk.TypeNone:
		d.finish(libchk.StatusL4OK, 0, "")
	case flags.Has(libconn.Connected):
		d.onConnected(now)
	}
}

// onConnected finishes wiring a newly connected, non-script round: it sends
// the prepared request (if any) and pumps reads until a prober decides
// (§4.6 on_readable/on_writable, collapsed into one wake-driven callback).
func (d *Driver) onConnected(now libclk.Tick) {
	c := d.Check
	r := d.r

	if !r.armed {
		r.armed = true
		if c.OutBuffer().Len() > 0 {
			r.reading = false
			r.conn.AsyncWrite(c.OutBuffer().Bytes(), libclk.Time(d.Task.Expire()))
			return
		}
		r.startRead(r.conn, libclk.Time(d.Task.Expire()))
		return
	}

	n, err := r.conn.LastResult()

	if !r.reading {
		// The outstanding op was the request write completing.
		c.OutBuffer().Reset()
		if err != nil {
			d.classifyError(now, r.conn.Flags())
			return
		}
		r.startRead(r.conn, libclk.Time(d.Task.Expire()))
		return
	}

	if n > 0 {
		c.InBuffer().Write(r.scratch[:n])
	}

	done := err != nil || libclk.Expired(d.Task.Expire(), now)
	d.pumpProbe(c.InBuffer().Bytes(), done, now)
}

// pumpProbe dispatches the accumulated bytes to the type-selected prober and
// either keeps reading or finishes the round (§4.3, §4.6 on_readable).
func (d *Driver) pumpProbe(bi []byte, done bool, now libclk.Tick) {
	c := d.Check
	r := d.r

	var out libprb.Outcome
	switch c.Type {
	case libchk.TypeHTTP:
		out = libprb.HTTP(bi, done, d.Config.Expect, d.Config.Disable404, d.Server.State().Has(libsrv.Running))
	case libchk.TypeSSLHello:
		out = libprb.SSLHello(bi, done)
	case libchk.TypeSMTP:
		out = libprb.SMTP(bi, done)
	case libchk.TypePgSQL:
		out = libprb.PostgreSQL(bi, done)
	case libchk.TypeRedis:
		out = libprb.Redis(bi, done)
	case libchk.TypeMySQL:
		out = libprb.MySQLLegacy(bi, done)
	case libchk.TypeLDAP:
		out = libprb.LDAP(bi, done)
	case libchk.TypeAgentLine:
		v := libprb.AgentLine(bi, done, d.Config.AgentDisabled)
		out = v.Outcome
	default:
		out = libprb.Outcome{Status: libchk.StatusL4OK}
	}

	if out.NeedMore {
		if done {
			d.classifyError(now, r.conn.Flags())
			return
		}
		r.startRead(r.conn, libclk.Time(d.Task.Expire()))
		return
	}
	d.finish(out.Status, out.Code, out.Desc)
}

// driveScript runs the tcp-check engine forward until it needs I/O the
// driver must perform, or reaches a verdict (§4.5).
func (d *Driver) driveScript(now libclk.Tick) {
	c := d.Check
	r := d.r
	done := libclk.Expired(d.Task.Expire(), now)

	if r.armed {
		r.armed = false
		n, err := r.conn.LastResult()
		if r.reading && n > 0 {
			c.InBuffer().Write(r.scratch[:n])
		}
		if err != nil {
			d.finish(libchk.StatusL7Resp, 0, fmt.Sprintf("tcp-check connection error at step %d", r.engine.StepID()))
			return
		}
	}
	if r.conn.Flags().Has(libconn.Error) {
		d.finish(libchk.StatusL4Conn, 0, fmt.Sprintf("tcp-check connect error at step %d", r.engine.StepID()))
		return
	}
	if r.conn.Flags().Has(libconn.Connected) {
		r.engine.NotifyConnected()
	}

	for {
		step := r.engine.Advance(c.OutBuffer(), c.InBuffer(), done)
		c.CurrentStep = r.engine.CurrentStep
		c.LastStartedStep = r.engine.LastStartedStep

		switch step.Kind {
		case libtcp.KindConnect:
			r.engine.NotifyReconnecting()
			if r.conn != nil {
				_ = r.conn.Close()
			}
			port := step.ConnectPort
			if port == 0 {
				port = d.Check.Port
			}
			transport := libconn.Plain
			if step.ConnectOpts&libtcp.OptSSL != 0 {
				transport = libconn.TLS
			}
			r.conn = libconn.New(transport, d.Config.TLSConfig, func() { d.Sched.Wake(d.Task) })
			if step.ConnectOpts&libtcp.OptSendProxy != 0 {
				r.conn.SetSendProxyPending(true)
			}
			r.conn.Dial(context.Background(), d.network(), d.remoteAddressPort(port), d.connectTimeout())
			d.armConnectTimeout(now)
			return

		case libtcp.KindFlush:
			if !r.conn.Flags().Has(libconn.Connected) {
				return
			}
			buf := append([]byte(nil), c.OutBuffer().Bytes()...)
			c.OutBuffer().Reset()
			r.armed, r.reading = true, false
			r.conn.AsyncWrite(buf, libclk.Time(d.Task.Expire()))
			return

		case libtcp.KindRecv:
			if done {
				// No more bytes will arrive; loop back so Advance sees
				// done=true and reaches a verdict instead of asking for a
				// read that would never complete.
				continue
			}
			r.startRead(r.conn, libclk.Time(d.Task.Expire()))
			return

		case libtcp.KindVerdict:
			d.finish(step.Outcome, step.Code, step.Desc)
			return
		}
	}
}

// finish applies §4.1's "On completion" tail: drain+close, route through the
// verdict engine, clear IN-PROGRESS, reschedule.
func (d *Driver) finish(status libchk.Status, code int, desc string) {
	c := d.Check
	if d.r != nil && d.r.conn != nil {
		_ = d.r.conn.Close()
	}
	d.r = nil

	c.Status = status
	c.Code = code
	c.Desc = desc
	c.Result = status.Result()
	c.Duration = time.Since(c.Start)

	d.Verdict.Apply(d.Server, c)

	if d.Metrics != nil {
		d.Metrics.ObserveCheck(c.Type.String(), c.Result.String(), c.Duration)
	}

	c.ClearState(libchk.StateInProgress)
	d.reschedule(libclk.Now(), d.nextInterval())
}

// classifyError implements the §7 classifier table for the phases this
// driver distinguishes directly: connect error (L4CON), connect expiry
// (L4TOUT), expiry once established (L6TOUT for SSL hello, L7TOUT otherwise)
// and any other error after connect (SOCKERR). A failed TLS handshake is not
// told apart from other post-connect errors. Protocol-level failures are
// produced by the probers themselves and reach finish through
// pumpProbe/driveScript instead.
func (d *Driver) classifyError(now libclk.Tick, flags libconn.Flags) {
	c := d.Check
	expired := libclk.Expired(d.Task.Expire(), now)
	connected := flags.Has(libconn.Connected)

	switch {
	case !connected && !expired:
		d.finish(libchk.StatusL4Conn, 0, "")
	case !connected && expired:
		d.finish(libchk.StatusL4Timeout, 0, "")
	case connected && expired && c.Type == libchk.TypeSSLHello:
		d.finish(libchk.StatusL6Timeout, 0, "")
	case connected && expired:
		d.finish(libchk.StatusL7Timeout, 0, "")
	default:
		d.finish(libchk.StatusSockErr, 0, "")
	}
}

func (d *Driver) buildRequest() {
	c := d.Check
	switch c.Type {
	case libchk.TypeHTTP:
		c.OutBuffer().Write(d.Config.Request)
		c.OutBuffer().WriteString("\r\n")
		if d.Config.SendStateHdr {
			c.OutBuffer().WriteString(StateHeader(d.Server, c))
			c.OutBuffer().WriteString("\r\n")
		}
		c.OutBuffer().WriteString("\r\n")
	case libchk.TypeSSLHello:
		c.OutBuffer().Write(libprb.ClientHelloTemplate(time.Now()))
	}
}

func (d *Driver) remoteAddressPort(port int) string {
	host := d.Server.CheckAddress
	if host == "" {
		host = d.Server.Address
	}
	if port != 0 {
		return hostOnly(host) + ":" + strconv.Itoa(port)
	}
	if d.Server.CheckPort != 0 {
		return hostOnly(host) + ":" + strconv.Itoa(d.Server.CheckPort)
	}
	return host
}

func hostOnly(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] == ':' {
			return host[:i]
		}
	}
	return host
}

func (d *Driver) network() string {
	if d.Config.Network != "" {
		return d.Config.Network
	}
	return "tcp"
}

func (d *Driver) connectTimeout() time.Duration {
	if d.Config.TimeoutConnect > 0 {
		return d.Config.TimeoutConnect
	}
	return d.Check.Inter.Time()
}

// armConnectTimeout implements §4.1 "arm the task at min(inter,
// timeout.connect) if timeout.check is set, else at inter".
func (d *Driver) armConnectTimeout(now libclk.Tick) {
	budget := d.Check.Inter.Time()
	if d.Config.TimeoutCheck > 0 && d.Config.TimeoutConnect > 0 && d.Config.TimeoutConnect < budget {
		budget = d.Config.TimeoutConnect
	}
	d.Sched.Reschedule(d.Task, now.Add(budget))
}

// nextInterval picks inter/fastinter/downinter per the server's current
// verdict and applies the bounded random spread (§4.1, §6 spread_checks).
func (d *Driver) nextInterval() time.Duration {
	c := d.Check
	base := c.Inter.Time()
	if !d.Server.State().Up() {
		if c.DownInter > 0 {
			base = c.DownInter.Time()
		}
	} else if c.Result == libchk.ResultFailed && c.FastInter > 0 {
		base = c.FastInter.Time()
	}

	if d.Config.SpreadChecksPct <= 0 || base <= 0 {
		return base
	}
	return libclk.Spread(base, d.Config.SpreadChecksPct)
}

// reschedule implements the §4.1 tail and the §9 bounded catch-up loop: a
// driver that was starved for a long time must not fire a burst of rounds
// back-to-back to "catch up" on every missed interval.
func (d *Driver) reschedule(now libclk.Tick, delay time.Duration) {
	next := now.Add(delay)
	steps := 0
	for libclk.Expired(next, now) && steps < maxCatchUpSteps {
		next = next.Add(delay)
		steps++
	}
	d.Sched.Reschedule(d.Task, next)
}

// StateHeader renders the §6 X-Haproxy-Server-State request header.
func StateHeader(srv *libsrv.Server, c *libchk.Check) string {
	state := stateTag(srv, c)
	throttle := ""
	if srv.State().Has(libsrv.WarmingUp) {
		throttle = fmt.Sprintf("; throttle=%d%%", throttlePercent(srv))
	}
	return fmt.Sprintf(
		"X-Haproxy-Server-State: %s; name=%s/%s; node=%s; weight=%d/%d; scur=0/0; qcur=0%s",
		state, srv.ProxyID, srv.ID, srv.ProxyID, srv.EWeight(), srv.UWeight, throttle,
	)
}

func stateTag(srv *libsrv.Server, c *libchk.Check) string {
	if !c.State().Has(libchk.StateEnabled) {
		return "no check"
	}
	st := srv.State()
	atMax := c.Health() >= c.Rise+c.Fall-1
	switch {
	case st.Has(libsrv.Running) && !st.Has(libsrv.GoingDown) && atMax:
		return "UP"
	case st.Has(libsrv.Running) && !st.Has(libsrv.GoingDown):
		return "UP h/r"
	case st.Has(libsrv.Running) && st.Has(libsrv.GoingDown) && atMax:
		return "NOLB"
	case st.Has(libsrv.Running) && st.Has(libsrv.GoingDown):
		return "NOLB h/r"
	case !st.Has(libsrv.Running) && c.Health() > 0:
		return "DOWN h/r"
	default:
		return "DOWN"
	}
}

func throttlePercent(srv *libsrv.Server) int {
	ss := srv.SlowStart()
	if ss <= 0 {
		return 100
	}
	last := srv.LastChange()
	pct := int(100 * time.Since(last) / ss)
	if pct < 1 {
		return 1
	}
	if pct > 100 {
		return 100
	}
	return pct
}
