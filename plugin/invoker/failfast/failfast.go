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

// Package failfast implements the single-attempt, propagate-everything
// ClusterInvoker variant.
package failfast

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "failfast"

// Invoker is the fail-fast ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a fail-fast Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// Invoke makes exactly one attempt and surfaces whatever it returns,
// success or exception, unmodified.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	consumerURL := inv.Directory.ConsumerURL()
	endpoints, failure := inv.Endpoints(call)
	if failure != nil {
		return failure
	}
	lb, err := inv.LoadBalancer(call)
	if err != nil {
		return model.NewExceptionResult(model.NewSDKError(model.ErrCodeConfig, err,
			"failfast: could not resolve load balancer"))
	}

	endpoint := inv.Select(lb, consumerURL, call, endpoints, nil)
	inv.Report(extcommon.StatEventDispatch, call)
	return inv.Dispatch(lb, endpoint, call)
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
