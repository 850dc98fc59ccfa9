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

// Package adaptive is the LoadBalancer GetAdaptive resolves: a single
// registered instance that itself dispatches, per call, to whichever
// concrete LoadBalancer the consumer URL's "loadbalance" parameter names.
// It exists for callers that hold a LoadBalancer reference without knowing
// in advance which concrete strategy backs it — e.g. a future plugin that
// wants "the load balancer" without itself owning a Dispatcher — standing
// in for Dubbo's compiler-generated Adaptive$LoadBalance class with an
// explicit, hand-written equivalent.
package adaptive

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// Name is the registration name for the adaptive LoadBalancer instance.
const Name = "adaptive"

// LoadBalancer resolves and delegates to a concrete cluster.LoadBalancer per
// call, via Dispatcher. Its Dispatcher is built in Wire, not New: the
// registry calls Wire once, right after construction, which is how this
// plugin receives the dependency it needs instead of taking it as a
// constructor argument — the one concrete Wirer in this tree, exercising the
// registry's Wire-on-construction path end to end.
type LoadBalancer struct {
	dispatcher *extension.Dispatcher
}

// New builds an adaptive LoadBalancer with no Dispatcher yet; Wire supplies
// one.
func New() *LoadBalancer {
	return &LoadBalancer{}
}

// Wire builds this instance's Dispatcher from registry, satisfying
// extcommon.Wirer. Called once by the registry immediately after New.
func (a *LoadBalancer) Wire(registry extcommon.Registry) error {
	a.dispatcher = extension.NewDispatcher(registry, extcommon.TypeLoadBalancer,
		[]string{"loadbalance"}, "random", false)
	return nil
}

// Select resolves the concrete LoadBalancer named by consumerURL/call and
// delegates. Returns nil if no implementation (including the default) can
// be resolved — callers must treat a nil Endpoint as "no candidate".
func (a *LoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	plugin, err := a.dispatcher.Get(consumerURL, call)
	if err != nil {
		log.GetBaseLogger().Errorf("adaptive loadbalancer: %v", err)
		return nil
	}
	lb, ok := plugin.(cluster.LoadBalancer)
	if !ok {
		log.GetBaseLogger().Errorf("adaptive loadbalancer: %q does not implement LoadBalancer", plugin.Name())
		return nil
	}
	return lb.Select(endpoints, consumerURL, call)
}

// Name identifies this registration.
func (a *LoadBalancer) Name() string { return Name }

// Type declares this as a LoadBalancer.
func (a *LoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }

// Destroy is a no-op: the adaptive proxy owns no resources beyond the
// registry reference it was built with.
func (a *LoadBalancer) Destroy() error { return nil }

// Register adds the adaptive LoadBalancer to registry and marks it as
// TypeLoadBalancer's adaptive owner, resolvable via registry.GetAdaptive.
func Register(registry *extension.Registry) {
	registry.Register(extcommon.TypeLoadBalancer, Name, func() (extcommon.Plugin, error) {
		return New(), nil
	})
	registry.SetAdaptiveOwner(extcommon.TypeLoadBalancer, Name)
}

var _ cluster.LoadBalancer = (*LoadBalancer)(nil)
var _ extcommon.Plugin = (*LoadBalancer)(nil)
var _ extcommon.Wirer = (*LoadBalancer)(nil)
