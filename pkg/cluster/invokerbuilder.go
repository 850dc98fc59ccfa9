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

	"clustercore/pkg/extension"
	"clustercore/pkg/model"
)

// InvokerBuilder constructs a fresh ClusterInvoker bound to one Directory.
// Unlike Router/LoadBalancer, a ClusterInvoker owns per-service sticky state
// (cluster.BaseInvoker), so it cannot be resolved as one of
// extension.Registry's process-wide singletons the way a plain plugin is —
// each call-site needs its own instance. plugin/invoker/* packages register
// a builder here by name in their init(); the name is the same "cluster" URL
// parameter value the registry would otherwise look up.
type InvokerBuilder func(directory Directory, registry *extension.Registry, availableCheck bool) ClusterInvoker

var (
	invokerBuildersMu sync.RWMutex
	invokerBuilders   = make(map[string]InvokerBuilder)
)

// RegisterInvokerBuilder installs b under name. Called from plugin/invoker/*
// package init() functions.
func RegisterInvokerBuilder(name string, b InvokerBuilder) {
	invokerBuildersMu.Lock()
	defer invokerBuildersMu.Unlock()
	invokerBuilders[name] = b
}

// NewInvoker builds a ClusterInvoker named name, bound to directory.
func NewInvoker(name string, directory Directory, registry *extension.Registry, availableCheck bool) (ClusterInvoker, error) {
	invokerBuildersMu.RLock()
	b, ok := invokerBuilders[name]
	invokerBuildersMu.RUnlock()
	if !ok {
		return nil, model.NewSDKError(model.ErrCodeNoSuchExtension, nil,
			"no such cluster invoker %q", name)
	}
	return b(directory, registry, availableCheck), nil
}
