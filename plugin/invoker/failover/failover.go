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

// Package failover implements the default ClusterInvoker strategy, grounded
// on dubbo's FailoverClusterInvoker.java: retry on a fresh directory listing
// until retries+1 attempts are spent, short-circuiting on a BIZ result.
package failover

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "failover"

// Invoker is the fail-over ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a fail-over Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// Invoke makes up to retries+1 attempts (default 3 total), re-listing the
// directory between attempts, short-circuiting on a BIZ result, and
// aggregating every tried endpoint into the terminal error.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	consumerURL := inv.Directory.ConsumerURL()
	retries := consumerURL.MethodParamInt(call.MethodName, "retries", 2)
	attempts := retries + 1

	tried := cluster.NewEndpointSet()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		endpoints, failure := inv.Endpoints(call)
		if failure != nil {
			return failure
		}
		lb, err := inv.LoadBalancer(call)
		if err != nil {
			return model.NewExceptionResult(model.NewSDKError(model.ErrCodeConfig, err,
				"failover: could not resolve load balancer"))
		}

		endpoint := inv.Select(lb, consumerURL, call, endpoints, tried)
		if endpoint == nil {
			break
		}

		inv.Report(extcommon.StatEventDispatch, call)
		result := inv.Dispatch(lb, endpoint, call)
		if !result.HasException() {
			return result
		}
		if result.IsBiz() {
			return result
		}

		tried.Add(endpoint)
		lastErr = result.Err
		if attempt+1 < attempts {
			inv.Report(extcommon.StatEventRetry, call)
		}
	}

	return model.NewExceptionResult(cluster.NewAggregatedError(model.ErrCodeNetwork, tried, lastErr, consumerURL))
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
