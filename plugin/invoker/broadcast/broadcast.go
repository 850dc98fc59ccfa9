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

// Package broadcast implements the sequential fan-out ClusterInvoker
// variant: every candidate is invoked, in order, on the calling goroutine;
// the last Result is returned, with an aggregated exception raised if
// anything along the way failed.
package broadcast

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "broadcast"

// Invoker is the broadcast ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a broadcast Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// Invoke calls every candidate sequentially, recording but not stopping on
// failure, and returns the last Result obtained. If anything failed along
// the way, an aggregated exception is raised instead of that last Result.
// Broadcast never resolves a LoadBalancer or calls Select — it invokes every
// candidate unconditionally — so it has no lb to route through
// Base.Dispatch and an in-flight-tracking LoadBalancer (least-active) never
// observes broadcast traffic.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	consumerURL := inv.Directory.ConsumerURL()
	endpoints, failure := inv.Endpoints(call)
	if failure != nil {
		return failure
	}

	tried := cluster.NewEndpointSet()
	var lastErr error
	var last *model.Result

	for _, endpoint := range endpoints {
		inv.Report(extcommon.StatEventDispatch, call)
		result := endpoint.Invoke(call)
		last = result
		if result.HasException() {
			log.GetInvokerLogger().Warnf("broadcast: %s failed: %v", endpoint.URL().Address(), result.Err)
			tried.Add(endpoint)
			lastErr = result.Err
		}
	}

	if lastErr != nil {
		return model.NewExceptionResult(cluster.NewAggregatedError(model.ErrCodeNetwork, tried, lastErr, consumerURL))
	}
	return last
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
