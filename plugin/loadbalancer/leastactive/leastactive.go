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

// Package leastactive implements least-active-count load balancing: among
// the endpoints with the fewest in-flight calls, pick one at random
// weighted by configured weight (ties broken the same way random.LoadBalancer
// breaks them).
package leastactive

import (
	"math/rand"
	"sync"
	"time"

	"clustercore/pkg/cluster"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Name is the registration name applications wire this LoadBalancer under.
const Name = "leastactive"

type counter struct {
	active int64
}

// LoadBalancer is the least-active-count cluster.LoadBalancer. It tracks
// in-flight call counts per endpoint identity; Track wraps an Invoke routed
// through it to count the call and decrement on completion.
type LoadBalancer struct {
	mu       sync.Mutex
	counters map[string]*counter
	rnd      *rand.Rand
}

// New builds an empty least-active LoadBalancer.
func New() *LoadBalancer {
	return &LoadBalancer{
		counters: make(map[string]*counter),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (lb *LoadBalancer) counterFor(id string) *counter {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	c, ok := lb.counters[id]
	if !ok {
		c = &counter{}
		lb.counters[id] = c
	}
	return c
}

// Select picks among the least-active endpoints, weighted by configured
// "weight" among the tied set.
func (lb *LoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	if len(endpoints) == 1 {
		return endpoints[0]
	}

	least := int64(-1)
	var tied []model.Endpoint
	var weights []int
	totalWeight := 0

	for _, ep := range endpoints {
		c := lb.counterFor(ep.URL().Identity())
		lb.mu.Lock()
		active := c.active
		lb.mu.Unlock()

		switch {
		case least == -1 || active < least:
			least = active
			tied = []model.Endpoint{ep}
			weights = []int{ep.URL().ParamInt("weight", 100)}
			totalWeight = weights[0]
		case active == least:
			tied = append(tied, ep)
			w := ep.URL().ParamInt("weight", 100)
			weights = append(weights, w)
			totalWeight += w
		}
	}

	if len(tied) == 1 {
		return tied[0]
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()
	if totalWeight <= 0 {
		return tied[lb.rnd.Intn(len(tied))]
	}
	point := lb.rnd.Intn(totalWeight)
	for i, w := range weights {
		if point < w {
			return tied[i]
		}
		point -= w
	}
	return tied[len(tied)-1]
}

// Track wraps an Invoke call with the active-count bookkeeping this load
// balancer's Select depends on. Cluster invokers that want least-active
// accounting call this instead of endpoint.Invoke directly.
func (lb *LoadBalancer) Track(endpoint model.Endpoint, call *model.Call) *model.Result {
	c := lb.counterFor(endpoint.URL().Identity())
	lb.mu.Lock()
	c.active++
	lb.mu.Unlock()
	defer func() {
		lb.mu.Lock()
		c.active--
		lb.mu.Unlock()
	}()
	return endpoint.Invoke(call)
}

func (lb *LoadBalancer) Name() string         { return Name }
func (lb *LoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }
func (lb *LoadBalancer) Destroy() error       { return nil }

var _ cluster.LoadBalancer = (*LoadBalancer)(nil)
