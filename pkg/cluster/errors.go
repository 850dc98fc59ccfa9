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
	"github.com/pkg/errors"

	"clustercore/pkg/model"
)

// CheckNoProvider implements the "no-provider" invariant: if Directory.List
// returns empty, every strategy must fail with NO_PROVIDER before
// contacting any endpoint.
func CheckNoProvider(endpoints []model.Endpoint, consumerURL *model.URL, methodName string) *model.Result {
	if len(endpoints) > 0 {
		return nil
	}
	err := model.NewSDKError(model.ErrCodeNoProvider, nil,
		"no provider available for method %s on consumer %s", methodName, consumerURL.Address())
	return model.NewExceptionResult(err)
}

// NewAggregatedError builds the terminal exception fail-over and broadcast
// raise once every tried endpoint has failed: it names every tried
// endpoint and the last error, wrapped with errors.WithStack so that
// formatting the aggregate with %+v prints the stack recorded here.
func NewAggregatedError(code model.ErrCode, tried *EndpointSet, lastErr error,
	consumerURL *model.URL) *model.AggregatedError {
	return &model.AggregatedError{
		Code:         code,
		TriedURLs:    tried.URLs(),
		LastErr:      errors.WithStack(lastErr),
		ServiceKey:   consumerURL.Path(),
		ConsumerAddr: consumerURL.Address(),
	}
}
