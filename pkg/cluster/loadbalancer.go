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

package cluster

import "clustercore/pkg/model"

// LoadBalancer chooses one Endpoint from a non-empty candidate list. Each
// variant (random, round-robin, least-active, consistent-hash) is
// independently state-owning where it needs per-service state (e.g. the
// weighted round-robin node map).
type LoadBalancer interface {
	Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint
}

// InvokeTracker is the optional seam a LoadBalancer implements when Select's
// decision depends on which endpoints are currently in flight (e.g.
// least-active). A ClusterInvoker must dispatch through Track instead of
// calling endpoint.Invoke directly whenever the resolved LoadBalancer
// satisfies this interface, or the tracked counters never move and Select
// degenerates to an always-tied random pick.
type InvokeTracker interface {
	Track(endpoint model.Endpoint, call *model.Call) *model.Result
}
