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

// Package consistenthash implements consistent-hash-ring load balancing:
// calls carrying the same hash key land on the same endpoint as long as the
// candidate set doesn't change, so that a membership change only remaps the
// calls that hashed near the departed/arrived node instead of reshuffling
// everything.
package consistenthash

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"clustercore/pkg/algorithm/hash"
	"clustercore/pkg/cluster"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Name is the registration name applications wire this LoadBalancer under.
const Name = "consistenthash"

// defaultVirtualNodes is how many ring points each endpoint gets when it
// doesn't declare its own "hash.nodes" parameter.
const defaultVirtualNodes = 160

// defaultHashArgIndex is which call argument (by position) is hashed to pick
// a ring point when the consumer URL doesn't declare "hash.arguments".
const defaultHashArgIndex = 0

// ring is the selector built for one (service, method) scope. It is rebuilt
// whenever the candidate endpoint set's fingerprint changes, mirroring
// dubbo's ConsistentHashSelector invalidation-by-invokers-identity scheme.
type ring struct {
	fingerprint string
	points      []uint64
	byPoint     map[uint64]model.Endpoint
}

// LoadBalancer is the consistent-hash cluster.LoadBalancer.
type LoadBalancer struct {
	mu    sync.Mutex
	rings map[string]*ring
}

// New builds an empty consistent-hash LoadBalancer.
func New() *LoadBalancer {
	return &LoadBalancer{rings: make(map[string]*ring)}
}

func fingerprintOf(endpoints []model.Endpoint) string {
	ids := make([]string, len(endpoints))
	for i, ep := range endpoints {
		ids[i] = ep.URL().Identity()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func hashKey(call *model.Call, argIndexes []int) string {
	var b strings.Builder
	for _, idx := range argIndexes {
		if idx < 0 || idx >= len(call.Arguments) {
			continue
		}
		fmt.Fprintf(&b, "%v,", call.Arguments[idx])
	}
	if b.Len() == 0 {
		return call.MethodName
	}
	return b.String()
}

func parseArgIndexes(spec string) []int {
	parts := strings.Split(spec, ",")
	idxs := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			idxs = append(idxs, n)
		}
	}
	if len(idxs) == 0 {
		return []int{defaultHashArgIndex}
	}
	return idxs
}

func buildRing(endpoints []model.Endpoint, fingerprint string) (*ring, error) {
	hashFunc, err := hash.GetHashFunc(hash.DefaultHashFuncName)
	if err != nil {
		return nil, err
	}

	r := &ring{fingerprint: fingerprint, byPoint: make(map[uint64]model.Endpoint)}
	for _, ep := range endpoints {
		nodes := ep.URL().ParamInt("hash.nodes", defaultVirtualNodes)
		id := ep.URL().Identity()
		for i := 0; i < nodes; i++ {
			point, herr := hashFunc([]byte(fmt.Sprintf("%s-%d", id, i)), 0)
			if herr != nil {
				return nil, herr
			}
			r.byPoint[point] = ep
			r.points = append(r.points, point)
		}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
	return r, nil
}

func (r *ring) pick(key []byte) (model.Endpoint, error) {
	hashFunc, err := hash.GetHashFunc(hash.DefaultHashFuncName)
	if err != nil {
		return nil, err
	}
	point, err := hashFunc(key, 0)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= point })
	if i == len(r.points) {
		i = 0
	}
	return r.byPoint[r.points[i]], nil
}

// Select hashes the call's configured argument positions onto the ring for
// this (service, method), rebuilding the ring whenever the candidate
// endpoint set has changed since the last call.
func (lb *LoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	if len(endpoints) == 1 {
		return endpoints[0]
	}

	ringKey := consumerURL.Path() + "#" + call.MethodName
	fingerprint := fingerprintOf(endpoints)

	lb.mu.Lock()
	r, ok := lb.rings[ringKey]
	if !ok || r.fingerprint != fingerprint {
		built, err := buildRing(endpoints, fingerprint)
		if err != nil {
			lb.mu.Unlock()
			// hash function unavailable: fall back to first candidate rather
			// than panic, since Select has no error return.
			return endpoints[0]
		}
		r = built
		lb.rings[ringKey] = r
	}
	lb.mu.Unlock()

	argSpec := consumerURL.MethodParam(call.MethodName, "hash.arguments", "")
	key := hashKey(call, parseArgIndexes(argSpec))
	ep, err := r.pick([]byte(key))
	if err != nil || ep == nil {
		return endpoints[0]
	}
	return ep
}

func (lb *LoadBalancer) Name() string         { return Name }
func (lb *LoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }
func (lb *LoadBalancer) Destroy() error       { return nil }

var _ cluster.LoadBalancer = (*LoadBalancer)(nil)
