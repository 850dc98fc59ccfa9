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

package directory

import (
	"clustercore/pkg/cluster"
	"clustercore/pkg/model"
)

// Static is a cluster.Directory over a fixed endpoint set, configured once
// at construction and never changing membership. Its runtime=false routers
// are applied once, at construction; its runtime=true routers run on every
// List call.
type Static struct {
	*cluster.AbstractDirectory
}

// NewStatic builds a Static directory over endpoints, running routers
// through the shared AbstractDirectory template method.
func NewStatic(consumerURL *model.URL, routers []cluster.Router, endpoints []model.Endpoint) (*Static, error) {
	fixed := append([]model.Endpoint(nil), endpoints...)
	base, err := cluster.NewAbstractDirectory(consumerURL, routers, func() ([]model.Endpoint, error) {
		return append([]model.Endpoint(nil), fixed...), nil
	})
	if err != nil {
		return nil, err
	}
	return &Static{AbstractDirectory: base}, nil
}

var _ cluster.Directory = (*Static)(nil)
