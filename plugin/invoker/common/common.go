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

// Package common holds the base algorithm shared by every ClusterInvoker
// variant: directory.list, load-balancer resolution, and the no-provider
// check. Each plugin/invoker/* package embeds Base and implements only the
// dispatch behavior specific to its strategy.
package common

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Base is embedded by every ClusterInvoker variant. It wraps
// cluster.BaseInvoker (sticky-aware selection) with a load-balancer
// dispatcher resolved per call from the consumer URL's "loadbalance"
// parameter.
type Base struct {
	*cluster.BaseInvoker
	lb       *extension.Dispatcher
	reporter extcommon.StatReporter
}

// NewBase builds a Base bound to directory, resolving load balancers out of
// registry via the "loadbalance" URL parameter (default "random").
func NewBase(directory cluster.Directory, registry *extension.Registry, availableCheck bool) *Base {
	return &Base{
		BaseInvoker: cluster.NewBaseInvoker(directory, availableCheck),
		lb: extension.NewDispatcher(registry, extcommon.TypeLoadBalancer,
			[]string{"loadbalance"}, "random", false),
	}
}

// SetReporter attaches a StatReporter that every Invoke call site below
// reports through. Nil (the default) disables reporting entirely; callers
// that never opt in pay no cost beyond one nil check per event.
func (b *Base) SetReporter(reporter extcommon.StatReporter) {
	b.reporter = reporter
}

// Report fires event through the attached reporter, if any.
func (b *Base) Report(event extcommon.StatEvent, call *model.Call) {
	if b.reporter == nil {
		return
	}
	consumerURL := b.Directory.ConsumerURL()
	b.reporter.ReportStat(event, consumerURL.Path(), call.MethodName)
}

// LoadBalancer resolves the LoadBalancer for call.
func (b *Base) LoadBalancer(call *model.Call) (cluster.LoadBalancer, error) {
	plugin, err := b.lb.Get(b.Directory.ConsumerURL(), call)
	if err != nil {
		return nil, err
	}
	lb, ok := plugin.(cluster.LoadBalancer)
	if !ok {
		return nil, model.NewSDKError(model.ErrCodeConfig, nil,
			"loadbalance %q does not implement LoadBalancer", plugin.Name())
	}
	return lb, nil
}

// Dispatch invokes endpoint on call through lb: if lb implements
// cluster.InvokeTracker (e.g. the least-active LoadBalancer), the call goes
// through Track so its in-flight bookkeeping actually observes it; otherwise
// it falls through to endpoint.Invoke directly. Every ClusterInvoker variant
// that resolves a LoadBalancer before invoking routes through here rather
// than calling endpoint.Invoke itself.
func (b *Base) Dispatch(lb cluster.LoadBalancer, endpoint model.Endpoint, call *model.Call) *model.Result {
	if tracker, ok := lb.(cluster.InvokeTracker); ok {
		return tracker.Track(endpoint, call)
	}
	return endpoint.Invoke(call)
}

// Endpoints lists directory's current candidates for call, returning a
// NO_PROVIDER exception result instead of an empty list when there is
// nothing to dispatch to.
func (b *Base) Endpoints(call *model.Call) ([]model.Endpoint, *model.Result) {
	consumerURL := b.Directory.ConsumerURL()
	endpoints, err := b.Directory.List(call)
	if err != nil {
		return nil, model.NewExceptionResult(model.NewSDKErrorWithStack(model.ErrCodeNoProvider, err,
			"directory list failed for %s", consumerURL.Address()))
	}
	if res := cluster.CheckNoProvider(endpoints, consumerURL, call.MethodName); res != nil {
		return nil, res
	}
	return endpoints, nil
}
