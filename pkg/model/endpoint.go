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

package model

// Endpoint is the abstract handle the cluster dispatch engine consumes; wire
// protocol, serialization, and the transport connection behind invoke are
// external collaborators. Within one dispatch an Endpoint reference is
// stable; IsAvailable may flip at any time; Destroy is idempotent.
type Endpoint interface {
	// Invoke performs the remote call. Failures are reported through
	// Result, not a Go error return, so ClusterInvoker can inspect ErrCode
	// without type assertions.
	Invoke(call *Call) *Result

	// IsAvailable reports current health; cheap and non-blocking.
	IsAvailable() bool

	// Destroy releases any resources held by this endpoint. Idempotent.
	Destroy()

	// URL describes this endpoint's address and parameters.
	URL() *URL
}
