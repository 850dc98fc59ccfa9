/**
 * Tencent is pleased to support the open source community by making polaris-go available.
 *
 * Copyright (C) 2019 THL A29 Limited, a Tencent company. All rights reserved.
 *
 * Licensed under the BSD 3-Clause License (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * https://opensource.org/licenses/BSD-3-Clause
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

// Package prom is a StatReporter that counts dispatch events (attempts,
// retries, fork timeouts) in a private prometheus.Registry and serves them
// over HTTP: this repo has no long-running agent process to push from, so a
// pull endpoint fits the library-embedding use case better than a
// push-gateway client.
package prom

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clustercore/pkg/extension"
	"clustercore/pkg/extension/common"
	"clustercore/pkg/log"
)

// Name is the registration key for this package's StatReporter.
const Name = "prom"

// DefaultListenAddress is where the plugin serves /metrics if Config.Address
// is left empty.
const DefaultListenAddress = "127.0.0.1:9092"

// Config configures the reporter. A zero Config is valid: it serves on
// DefaultListenAddress.
type Config struct {
	// Address is the host:port the metrics HTTP server listens on.
	Address string `yaml:"address"`
}

// SetDefault fills Address when unset.
func (c *Config) SetDefault() {
	if c.Address == "" {
		c.Address = DefaultListenAddress
	}
}

// Verify is a no-op: any non-empty Address string is accepted as-is and
// fails at http.ListenAndServe time if it's actually invalid.
func (c *Config) Verify() error { return nil }

var _ common.Plugin = (*Reporter)(nil)
var _ common.StatReporter = (*Reporter)(nil)

// Reporter is the StatReporter plugin. One counter vector, labeled by
// event/service/method, covers every StatEvent this repo emits.
type Reporter struct {
	cfg      Config
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	server   *http.Server
}

// New builds a Reporter bound to cfg, registering its metric family in a
// private prometheus.Registry (not the global DefaultRegisterer, so that
// embedding this library never collides with a host process's own metrics).
func New(cfg Config) *Reporter {
	cfg.SetDefault()
	registry := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clustercore",
		Subsystem: "dispatch",
		Name:      "events_total",
		Help:      "Count of dispatch-path events by type, service, and method.",
	}, []string{"event", "service", "method"})
	registry.MustRegister(events)

	return &Reporter{cfg: cfg, registry: registry, events: events}
}

// Init starts the metrics HTTP server. Safe to call once; Destroy shuts it
// down. A failure to bind is logged, not returned, since a dead metrics
// endpoint must never take down dispatch itself.
func (r *Reporter) Init() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	r.server = &http.Server{Addr: r.cfg.Address, Handler: mux}

	go func() {
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.GetBaseLogger().Errorf("prom: metrics server on %s stopped: %v", r.cfg.Address, err)
		}
	}()
}

// ReportStat increments the counter for event/service/method. Never blocks:
// CounterVec.WithLabelValues + Inc are both lock-free on the fast path.
func (r *Reporter) ReportStat(event common.StatEvent, service, method string) {
	r.events.WithLabelValues(string(event), service, method).Inc()
}

// Name identifies this registration.
func (r *Reporter) Name() string { return Name }

// Type declares this as a StatReporter.
func (r *Reporter) Type() common.Type { return common.TypeStatReporter }

// Destroy stops the metrics HTTP server. Idempotent.
func (r *Reporter) Destroy() error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(context.Background())
}

// Register adds this package's factory to registry under Name, using cfg.
// Unlike most plugin/* packages this isn't done in init(), because the
// listen address is a deployment-time choice, not a compile-time default.
func Register(registry *extension.Registry, cfg Config) {
	registry.Register(common.TypeStatReporter, Name, func() (common.Plugin, error) {
		reporter := New(cfg)
		reporter.Init()
		return reporter, nil
	})
}
