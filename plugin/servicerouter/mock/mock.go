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

// Package mock implements the terminal mock-selection router: it runs last
// (priority math.MaxInt32) in any Directory whose router list includes it.
// A call flagged to need mocking is routed to "mock" endpoints exclusively,
// and every other call excludes them. No Directory adds this router on its
// own; it runs only when the caller passes it in with the other routers.
package mock

import (
	"math"

	"clustercore/pkg/cluster"
	"clustercore/pkg/model"
)

// Name is the registration name for this router.
const Name = "mock"

// ProtocolMock is the URL protocol a mock endpoint is registered under.
const ProtocolMock = "mock"

// Router is the terminal mock/non-mock partition. It always runs last
// (MaxInt32 priority) and re-evaluates on every call (Runtime() is true)
// since the need-mock attachment is call-scoped, not connection-scoped.
type Router struct {
	url *model.URL
}

// New builds the mock router bound to url (used only for pipeline
// tie-breaking; it carries no rule parameters of its own).
func New(url *model.URL) *Router {
	return &Router{url: url}
}

// Route keeps mock endpoints only when the call asked for one, and strips
// them out otherwise.
func (r *Router) Route(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) []model.Endpoint {
	needMock := call != nil && call.Attachment(model.AttachmentNeedMock) == "true"

	kept := make([]model.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		isMock := ep.URL().Protocol() == ProtocolMock
		if isMock == needMock {
			kept = append(kept, ep)
		}
	}
	return kept
}

func (r *Router) Priority() int   { return math.MaxInt32 }
func (r *Router) Runtime() bool   { return true }
func (r *Router) URL() *model.URL { return r.url }

var _ cluster.Router = (*Router)(nil)
