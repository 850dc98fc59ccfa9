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

// Package directory holds concrete model.Endpoint and cluster.Directory
// implementations: a Static directory over an endpoint list fixed at construction,
// and an etcd-watch-backed Directory that tracks a live service registry.
package directory

import (
	"sync/atomic"

	"clustercore/pkg/model"
)

// InvokeFunc is how a concrete Endpoint actually performs a call. The
// dispatch engine has no transport of its own; callers supply the function
// that knows how to reach endpointURL over whatever wire protocol they use.
type InvokeFunc func(endpointURL *model.URL, call *model.Call) *model.Result

// Endpoint is a model.Endpoint over a URL and a pluggable invoke function,
// with an atomically-flippable availability bit so a health-check loop
// (outside this package's scope) can mark it down without racing callers.
type Endpoint struct {
	url       *model.URL
	invoke    InvokeFunc
	available int32
}

// NewEndpoint builds an Endpoint, available from construction.
func NewEndpoint(url *model.URL, invoke InvokeFunc) *Endpoint {
	return &Endpoint{url: url, invoke: invoke, available: 1}
}

// Invoke delegates to the configured InvokeFunc.
func (e *Endpoint) Invoke(call *model.Call) *model.Result {
	return e.invoke(e.url, call)
}

// IsAvailable reports the current health flag.
func (e *Endpoint) IsAvailable() bool { return atomic.LoadInt32(&e.available) != 0 }

// SetAvailable flips the health flag.
func (e *Endpoint) SetAvailable(available bool) {
	var v int32
	if available {
		v = 1
	}
	atomic.StoreInt32(&e.available, v)
}

// Destroy is a no-op: Endpoint holds no resources of its own beyond the URL.
func (e *Endpoint) Destroy() {}

// URL returns the endpoint's address and parameters.
func (e *Endpoint) URL() *model.URL { return e.url }

var _ model.Endpoint = (*Endpoint)(nil)
