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

// Package roundrobin implements weighted round-robin load balancing, one
// WeightedNode per (service, method, endpoint identity), recycled when idle.
package roundrobin

import (
	"sync"
	"sync/atomic"
	"time"

	"clustercore/pkg/cluster"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Name is the registration name applications wire this LoadBalancer under.
const Name = "roundrobin"

// recyclePeriod is how long an unselected node is kept before eviction.
const recyclePeriod = 60 * time.Second

// defaultWarmup is the linear warm-up horizon applied when an endpoint
// doesn't declare its own "warmup" parameter.
const defaultWarmup = 10 * time.Minute

type wrrNode struct {
	currentWeight int64
	firstSeen     time.Time
	lastUpdate    time.Time
}

// group holds the WeightedNode set for one (service, method) scope.
type group struct {
	mu    sync.Mutex
	nodes map[string]*wrrNode
}

// LoadBalancer is the weighted round-robin cluster.LoadBalancer.
type LoadBalancer struct {
	mu     sync.Mutex
	groups map[string]*group
}

// New builds an empty weighted round-robin LoadBalancer.
func New() *LoadBalancer {
	return &LoadBalancer{groups: make(map[string]*group)}
}

func (lb *LoadBalancer) groupFor(key string) *group {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	g, ok := lb.groups[key]
	if !ok {
		g = &group{nodes: make(map[string]*wrrNode)}
		lb.groups[key] = g
	}
	return g
}

// effectiveWeight applies the linear warm-up factor to an endpoint's
// configured weight: while the node's observed uptime (time since this
// load balancer first saw it) is under the warm-up horizon, weight scales
// linearly from 1 up to the configured value, never below 1.
func effectiveWeight(configured int64, uptime, warmup time.Duration) int64 {
	if warmup <= 0 || uptime >= warmup {
		return configured
	}
	scaled := int64(float64(configured) * float64(uptime) / float64(warmup))
	if scaled < 1 {
		return 1
	}
	if scaled > configured {
		return configured
	}
	return scaled
}

// Select picks the endpoint whose WeightedNode has accumulated the highest
// currentWeight after this round's update, then debits it by the round's
// total effective weight — the classic smooth weighted round-robin
// algorithm, extended with linear warm-up and idle-node recycling.
func (lb *LoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	key := consumerURL.Path() + "#" + call.MethodName
	g := lb.groupFor(key)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	present := make(map[string]bool, len(endpoints))

	var maxNode *wrrNode
	var maxEndpoint model.Endpoint
	var totalWeight int64

	for _, ep := range endpoints {
		id := ep.URL().Identity()
		present[id] = true

		n, ok := g.nodes[id]
		if !ok {
			n = &wrrNode{firstSeen: now}
			g.nodes[id] = n
		}

		configured := int64(ep.URL().ParamInt("weight", 100))
		warmupMs := ep.URL().ParamInt("warmup", int(defaultWarmup/time.Millisecond))
		ew := effectiveWeight(configured, now.Sub(n.firstSeen), time.Duration(warmupMs)*time.Millisecond)

		atomic.AddInt64(&n.currentWeight, ew)
		n.lastUpdate = now
		totalWeight += ew

		if maxNode == nil || n.currentWeight > maxNode.currentWeight {
			maxNode = n
			maxEndpoint = ep
		}
	}

	for id, n := range g.nodes {
		if present[id] {
			continue
		}
		if now.Sub(n.lastUpdate) > recyclePeriod {
			delete(g.nodes, id)
		}
	}

	atomic.AddInt64(&maxNode.currentWeight, -totalWeight)
	return maxEndpoint
}

func (lb *LoadBalancer) Name() string         { return Name }
func (lb *LoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }
func (lb *LoadBalancer) Destroy() error       { return nil }

var _ cluster.LoadBalancer = (*LoadBalancer)(nil)
