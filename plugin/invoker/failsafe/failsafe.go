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

// Package failsafe implements the single-attempt, swallow-and-log
// ClusterInvoker variant: callers never see an exception.
package failsafe

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "failsafe"

// Invoker is the fail-safe ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a fail-safe Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// Invoke makes one attempt; any failure (no-provider, config, or the
// endpoint's own exception) is logged and swallowed, returning an empty
// successful Result instead.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	consumerURL := inv.Directory.ConsumerURL()
	endpoints, failure := inv.Endpoints(call)
	if failure != nil {
		log.GetInvokerLogger().Warnf("failsafe: %s: %v", consumerURL.Address(), failure.Err)
		return model.EmptyResult()
	}
	lb, err := inv.LoadBalancer(call)
	if err != nil {
		log.GetInvokerLogger().Warnf("failsafe: %s: %v", consumerURL.Address(), err)
		return model.EmptyResult()
	}

	endpoint := inv.Select(lb, consumerURL, call, endpoints, nil)
	inv.Report(extcommon.StatEventDispatch, call)
	result := inv.Dispatch(lb, endpoint, call)
	if result.HasException() {
		log.GetInvokerLogger().Warnf("failsafe: %s: swallowed exception: %v",
			endpoint.URL().Address(), result.Err)
		return model.EmptyResult()
	}
	return result
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
