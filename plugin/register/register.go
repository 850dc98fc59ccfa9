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

// Package register is the process's single wiring point: blank-importing it
// pulls in every concrete plugin package (so their init()-based
// registrations - InvokerBuilder and logger creator - run), and Build
// assembles an *extension.Registry with every LoadBalancer plugin (and, when
// enabled, the prom StatReporter) named and defaulted per pkg/config's
// defaults; ServiceRouter rules are not registered there. Nothing
// elsewhere in this repo imports a concrete plugin/* package directly;
// everything is resolved by name through the registry this package builds.
package register

import (
	"clustercore/pkg/config"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/plugin/loadbalancer/adaptive"
	"clustercore/plugin/loadbalancer/consistenthash"
	"clustercore/plugin/loadbalancer/leastactive"
	"clustercore/plugin/loadbalancer/random"
	"clustercore/plugin/loadbalancer/roundrobin"
	"clustercore/plugin/statreporter/prom"

	// Blank-imported for their init()-based RegisterInvokerBuilder calls.
	_ "clustercore/plugin/invoker/broadcast"
	_ "clustercore/plugin/invoker/failback"
	_ "clustercore/plugin/invoker/failfast"
	_ "clustercore/plugin/invoker/failover"
	_ "clustercore/plugin/invoker/failsafe"
	_ "clustercore/plugin/invoker/forking"

	// Blank-imported for its init()-based RegisterLoggerCreator call.
	_ "clustercore/plugin/logger/zaplog"
)

// Options controls what Build wires in beyond the always-on load balancers.
type Options struct {
	// Cfg supplies the "loadbalance" default; zero value uses
	// config.NewDefaultConfig().
	Cfg *config.Config
	// EnableStatReporter registers the prom StatReporter under StatAddress.
	EnableStatReporter bool
	// StatAddress overrides prom.DefaultListenAddress when EnableStatReporter
	// is set and non-empty.
	StatAddress string
}

// Build assembles a fresh *extension.Registry with every LoadBalancer this
// repo ships registered by name, the adaptive LoadBalancer wired as
// TypeLoadBalancer's adaptive owner, and the configured default applied.
// ClusterInvoker selection goes through cluster.NewInvoker (its own builder
// table, populated by this package's blank imports) rather than through the
// returned Registry; ServiceRouter rules (condition.New, mock.New) are
// constructed directly per Directory, not resolved here either — see
// DESIGN.md's Open Question decisions for why both are direct-construction.
func Build(opts Options) *extension.Registry {
	cfg := opts.Cfg
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	registry := extension.NewRegistry()

	registry.Register(extcommon.TypeLoadBalancer, random.Name, func() (extcommon.Plugin, error) {
		return random.New(), nil
	})
	registry.Register(extcommon.TypeLoadBalancer, roundrobin.Name, func() (extcommon.Plugin, error) {
		return roundrobin.New(), nil
	})
	registry.Register(extcommon.TypeLoadBalancer, consistenthash.Name, func() (extcommon.Plugin, error) {
		return consistenthash.New(), nil
	})
	registry.Register(extcommon.TypeLoadBalancer, leastactive.Name, func() (extcommon.Plugin, error) {
		return leastactive.New(), nil
	})
	adaptive.Register(registry)
	registry.SetDefault(extcommon.TypeLoadBalancer, cfg.Cluster.LoadBalancer)

	if opts.EnableStatReporter {
		reporterCfg := prom.Config{Address: opts.StatAddress}
		prom.Register(registry, reporterCfg)
	}

	return registry
}
