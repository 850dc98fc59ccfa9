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

import (
	"sync"
	"sync/atomic"

	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// ClusterInvoker is the dispatch strategy: fail-over, fail-fast, fail-safe,
// fail-back, forking, or broadcast. Each variant composes Directory, the
// router pipeline (run inside Directory.List), and a LoadBalancer; this
// interface is what application code calls.
type ClusterInvoker interface {
	Invoke(call *model.Call) *model.Result
	Destroy()
}

// EndpointSet is a small identity-keyed set of endpoints, used for the
// tried/selected bookkeeping every strategy needs. Keyed by URL().Identity(),
// which is assigned once per URL construction and so survives a Directory
// re-list only if the same *model.URL value is reused — fail-over's
// tried-set is therefore advisory, not exact, matching Dubbo's own behavior.
type EndpointSet struct {
	mu   sync.RWMutex
	byID map[string]model.Endpoint
}

// NewEndpointSet builds an empty EndpointSet.
func NewEndpointSet() *EndpointSet {
	return &EndpointSet{byID: make(map[string]model.Endpoint)}
}

// Add records ep in the set.
func (s *EndpointSet) Add(ep model.Endpoint) {
	s.mu.Lock()
	s.byID[ep.URL().Identity()] = ep
	s.mu.Unlock()
}

// Contains reports whether ep is in the set.
func (s *EndpointSet) Contains(ep model.Endpoint) bool {
	s.mu.RLock()
	_, ok := s.byID[ep.URL().Identity()]
	s.mu.RUnlock()
	return ok
}

// List returns a snapshot of the set's members.
func (s *EndpointSet) List() []model.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Endpoint, 0, len(s.byID))
	for _, ep := range s.byID {
		out = append(out, ep)
	}
	return out
}

// URLs renders the set's member addresses, for the aggregated terminal error.
func (s *EndpointSet) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byID))
	for _, ep := range s.byID {
		out = append(out, ep.URL().Address())
	}
	return out
}

// Len reports the number of members.
func (s *EndpointSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func containsEndpoint(list []model.Endpoint, target model.Endpoint) bool {
	for _, ep := range list {
		if ep.URL().Identity() == target.URL().Identity() {
			return true
		}
	}
	return false
}

func indexOfEndpoint(list []model.Endpoint, target model.Endpoint) int {
	for i, ep := range list {
		if ep.URL().Identity() == target.URL().Identity() {
			return i
		}
	}
	return -1
}

// BaseInvoker implements the sticky-aware selection helper shared by every
// ClusterInvoker variant (AbstractClusterInvoker.select/doSelect/reselect).
// Concrete invokers embed it and call Select from their Invoke/doInvoke.
type BaseInvoker struct {
	Directory      Directory
	AvailableCheck bool

	stickyMu sync.Mutex
	sticky   model.Endpoint

	destroyed int32
}

// NewBaseInvoker builds a BaseInvoker over directory with the given
// cluster.availablecheck URL parameter setting.
func NewBaseInvoker(directory Directory, availableCheck bool) *BaseInvoker {
	return &BaseInvoker{Directory: directory, AvailableCheck: availableCheck}
}

// Destroy tears down the underlying Directory. Idempotent.
func (b *BaseInvoker) Destroy() {
	if atomic.CompareAndSwapInt32(&b.destroyed, 0, 1) {
		b.Directory.Destroy()
	}
}

// IsDestroyed reports whether Destroy has run.
func (b *BaseInvoker) IsDestroyed() bool {
	return atomic.LoadInt32(&b.destroyed) != 0
}

// Select is the sticky-aware selection helper shared by every
// ClusterInvoker variant: it falls through to doSelect/reselect/index+1 when
// the sticky endpoint is absent, tried, or unavailable.
func (b *BaseInvoker) Select(lb LoadBalancer, consumerURL *model.URL, call *model.Call,
	candidates []model.Endpoint, tried *EndpointSet) model.Endpoint {
	if len(candidates) == 0 {
		return nil
	}

	sticky := consumerURL.MethodParam(call.MethodName, "sticky", "false") == "true"

	b.stickyMu.Lock()
	if b.sticky != nil && !containsEndpoint(candidates, b.sticky) {
		b.sticky = nil
	}
	current := b.sticky
	b.stickyMu.Unlock()

	if sticky && current != nil && (tried == nil || !tried.Contains(current)) {
		if !b.AvailableCheck || current.IsAvailable() {
			return current
		}
	}

	picked := b.doSelect(lb, consumerURL, call, candidates, tried)

	if sticky {
		b.stickyMu.Lock()
		b.sticky = picked
		b.stickyMu.Unlock()
	}
	return picked
}

func (b *BaseInvoker) doSelect(lb LoadBalancer, consumerURL *model.URL, call *model.Call,
	candidates []model.Endpoint, tried *EndpointSet) model.Endpoint {
	if len(candidates) == 1 {
		return candidates[0]
	}

	picked := lb.Select(candidates, consumerURL, call)
	needsReselect := (tried != nil && tried.Contains(picked)) ||
		(b.AvailableCheck && !picked.IsAvailable())
	if !needsReselect {
		return picked
	}

	if reselected := b.reselect(lb, consumerURL, call, candidates, tried); reselected != nil {
		return reselected
	}

	idx := indexOfEndpoint(candidates, picked)
	if idx < 0 {
		log.GetInvokerLogger().Warnf("cluster: picked endpoint missing from candidates, " +
			"list may have changed concurrently; keeping load balancer's choice")
		return picked
	}
	return candidates[(idx+1)%len(candidates)]
}

// reselect builds a candidate list excluding tried, invoking the load
// balancer on it; when that's empty, falls back to tried members that have
// since become available.
func (b *BaseInvoker) reselect(lb LoadBalancer, consumerURL *model.URL, call *model.Call,
	candidates []model.Endpoint, tried *EndpointSet) model.Endpoint {
	fresh := make([]model.Endpoint, 0, len(candidates))
	for _, ep := range candidates {
		if b.AvailableCheck && !ep.IsAvailable() {
			continue
		}
		if tried != nil && tried.Contains(ep) {
			continue
		}
		fresh = append(fresh, ep)
	}
	if len(fresh) > 0 {
		return lb.Select(fresh, consumerURL, call)
	}

	if tried != nil {
		for _, ep := range tried.List() {
			if ep.IsAvailable() && !containsEndpoint(fresh, ep) {
				fresh = append(fresh, ep)
			}
		}
	}
	if len(fresh) > 0 {
		return lb.Select(fresh, consumerURL, call)
	}
	return nil
}

// StickyEndpoint returns the currently cached sticky endpoint, or nil.
func (b *BaseInvoker) StickyEndpoint() model.Endpoint {
	b.stickyMu.Lock()
	defer b.stickyMu.Unlock()
	return b.sticky
}
