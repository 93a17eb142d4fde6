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

// Package metrics exposes the health-check subsystem's own Prometheus
// metrics: one Collector per process, holding its own registry rather than
// registering onto the global default, so a test (or a second subsystem in
// the same binary) can spin up an isolated Collector without colliding on
// metric names.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric this subsystem emits.
type Collector struct {
	registry *prometheus.Registry

	checksTotal    *prometheus.CounterVec
	checkDuration  *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	serverHealth   *prometheus.GaugeVec
	serverUp       *prometheus.GaugeVec
	proxyUsable    *prometheus.GaugeVec
	warmupWeight   *prometheus.GaugeVec
	noServerAlerts *prometheus.CounterVec
}

// NewCollector builds a Collector on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcheck",
			Name:      "checks_total",
			Help:      "Total number of completed check rounds by check type and result.",
		}, []string{"type", "result"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthcheck",
			Name:      "check_duration_seconds",
			Help:      "Duration of a completed check round.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcheck",
			Name:      "server_transitions_total",
			Help:      "Total number of UP/DOWN state transitions by server.",
		}, []string{"proxy", "server", "state"}),
		serverHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck",
			Name:      "server_health",
			Help:      "Current rise/fall health counter value for a server.",
		}, []string{"proxy", "server"}),
		serverUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck",
			Name:      "server_up",
			Help:      "Whether a server is currently UP (1) or not (0).",
		}, []string{"proxy", "server"}),
		proxyUsable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck",
			Name:      "proxy_usable_servers",
			Help:      "Count of currently usable servers per proxy.",
		}, []string{"proxy"}),
		warmupWeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "healthcheck",
			Name:      "server_effective_weight",
			Help:      "Current effective weight of a server, including any slow-start ramp.",
		}, []string{"proxy", "server"}),
		noServerAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcheck",
			Name:      "no_server_available_total",
			Help:      "Total number of times a proxy ran out of usable servers.",
		}, []string{"proxy"}),
	}

	reg.MustRegister(
		c.checksTotal,
		c.checkDuration,
		c.transitions,
		c.serverHealth,
		c.serverUp,
		c.proxyUsable,
		c.warmupWeight,
		c.noServerAlerts,
	)

	return c
}

// Registry exposes the underlying registry, e.g. to mount promhttp.HandlerFor.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler returns an http.Handler serving this Collector's registry in the
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCheck records one completed check round (§4.1 process_chk finish).
func (c *Collector) ObserveCheck(checkType, result string, duration time.Duration) {
	c.checksTotal.WithLabelValues(checkType, result).Inc()
	c.checkDuration.WithLabelValues(checkType).Observe(duration.Seconds())
}

// ObserveTransition records a Set-UP/Set-DOWN/Set-DRAIN transition (§4.2)
// and the server's resulting up/down gauge value.
func (c *Collector) ObserveTransition(proxyID, serverID, state string, up bool) {
	c.transitions.WithLabelValues(proxyID, serverID, state).Inc()
	c.SetServerUp(proxyID, serverID, up)
}

// SetHealth mirrors a server's current rise/fall counter value.
func (c *Collector) SetHealth(proxyID, serverID string, health int) {
	c.serverHealth.WithLabelValues(proxyID, serverID).Set(float64(health))
}

// SetServerUp mirrors a server's current UP/DOWN status as 1/0.
func (c *Collector) SetServerUp(proxyID, serverID string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	c.serverUp.WithLabelValues(proxyID, serverID).Set(v)
}

// SetProxyUsable mirrors a proxy's usable-server count (§4.2 step 6).
func (c *Collector) SetProxyUsable(proxyID string, usable int) {
	c.proxyUsable.WithLabelValues(proxyID).Set(float64(usable))
}

// SetEffectiveWeight mirrors a server's current effective weight, including
// mid-ramp values during slow-start (§4.7).
func (c *Collector) SetEffectiveWeight(proxyID, serverID string, weight uint16) {
	c.warmupWeight.WithLabelValues(proxyID, serverID).Set(float64(weight))
}

// IncrNoServerAvailable records a proxy running out of usable servers
// (§4.2 step 6, the Alerts.NoServerAvailable hook).
func (c *Collector) IncrNoServerAvailable(proxyID string) {
	c.noServerAlerts.WithLabelValues(proxyID).Inc()
}
