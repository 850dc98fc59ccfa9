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

// Package random implements weighted random load balancing: the default
// load balancer, picking an endpoint with probability proportional to its
// configured weight.
package random

import (
	"math/rand"
	"sync"
	"time"

	"clustercore/pkg/cluster"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Name is the registration name applications wire this LoadBalancer under;
// it is also the default for the "loadbalance" URL parameter.
const Name = "random"

// LoadBalancer is the weighted-random cluster.LoadBalancer.
type LoadBalancer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a weighted-random LoadBalancer.
func New() *LoadBalancer {
	return &LoadBalancer{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Select picks one endpoint with probability proportional to its configured
// "weight" parameter (default 100). Falls back to uniform selection when
// every candidate has the same weight, including the all-zero case.
func (lb *LoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	if len(endpoints) == 1 {
		return endpoints[0]
	}

	weights := make([]int, len(endpoints))
	total := 0
	sameWeight := true
	for i, ep := range endpoints {
		weights[i] = ep.URL().ParamInt("weight", 100)
		total += weights[i]
		if weights[i] != weights[0] {
			sameWeight = false
		}
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	if total <= 0 || sameWeight {
		return endpoints[lb.rnd.Intn(len(endpoints))]
	}

	point := lb.rnd.Intn(total)
	for i, w := range weights {
		if point < w {
			return endpoints[i]
		}
		point -= w
	}
	return endpoints[len(endpoints)-1]
}

func (lb *LoadBalancer) Name() string         { return Name }
func (lb *LoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }
func (lb *LoadBalancer) Destroy() error       { return nil }

var _ cluster.LoadBalancer = (*LoadBalancer)(nil)
