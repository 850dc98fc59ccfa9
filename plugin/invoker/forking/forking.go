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

// Package forking implements the parallel fork-join ClusterInvoker variant,
// grounded on dubbo's ForkingClusterInvoker.java. Where the source shares a
// cached java.util.concurrent thread pool across every Forking invoker, this
// port spawns a goroutine per fork directly: Go goroutines are cheap enough
// that the pool dubbo needs to avoid thread exhaustion has no equivalent
// cost here, so nothing process-wide is kept except the per-call fan-in,
// which uses extcommon.Notifier (one per Invoke call, not shared) rather
// than a bespoke channel+counter pair.
package forking

import (
	"sync/atomic"
	"time"

	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "forking"

// Invoker is the forking ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a forking Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// buildSelected picks forks distinct endpoints one at a time, each added to
// tried for the next pick. If forks <= 0 or forks >= len(candidates), every
// candidate is forked.
func (inv *Invoker) buildSelected(lb cluster.LoadBalancer, consumerURL *model.URL, call *model.Call,
	candidates []model.Endpoint, forks int) []model.Endpoint {
	if forks <= 0 || forks >= len(candidates) {
		return candidates
	}
	tried := cluster.NewEndpointSet()
	selected := make([]model.Endpoint, 0, forks)
	for i := 0; i < forks; i++ {
		ep := inv.Select(lb, consumerURL, call, candidates, tried)
		if ep == nil {
			break
		}
		selected = append(selected, ep)
		tried.Add(ep)
	}
	return selected
}

// Invoke forks onto up to `forks` endpoints and returns whichever result (or
// the last failure) arrives first on the completion channel, bounded by
// `timeout` ms. Attachments are cleared on every exit path, matching
// ForkingClusterInvoker's finally block.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	defer call.ClearAttachments()

	consumerURL := inv.Directory.ConsumerURL()
	endpoints, failure := inv.Endpoints(call)
	if failure != nil {
		return failure
	}
	lb, err := inv.LoadBalancer(call)
	if err != nil {
		return model.NewExceptionResult(model.NewSDKError(model.ErrCodeConfig, err,
			"forking: could not resolve load balancer"))
	}

	forks := consumerURL.MethodParamInt(call.MethodName, "forks", 2)
	timeoutMs := consumerURL.MethodParamInt(call.MethodName, "timeout", 1000)

	selected := inv.buildSelected(lb, consumerURL, call, endpoints, forks)
	if len(selected) == 0 {
		return cluster.CheckNoProvider(nil, consumerURL, call.MethodName)
	}

	// notifier is the fan-in: every fork goroutine races to Notify it, and the
	// first one through wins the read below regardless of how many others
	// are still in flight when the select fires (a reader that has already
	// left on timeout is never blocked on by a late writer, since Notify's
	// cancel is idempotent).
	notifier := extcommon.NewNotifier()
	var winner atomic.Value // *model.Result, set by the first fork to succeed
	var lastCause atomic.Value // error, the most recent fork failure's cause
	tried := cluster.NewEndpointSet()
	var failCount int32

	for _, ep := range selected {
		tried.Add(ep)
		endpoint := ep
		forkCall := call.Clone()
		inv.Report(extcommon.StatEventDispatch, call)
		go func() {
			result := inv.Dispatch(lb, endpoint, forkCall)
			if !result.HasException() {
				winner.Store(result)
				notifier.Notify(nil)
				return
			}
			if result.Err != nil {
				lastCause.Store(result.Err)
			}
			if atomic.AddInt32(&failCount, 1) >= int32(len(selected)) {
				notifier.Notify(model.NewSDKError(model.ErrCodeNetwork, nil,
					"forking: all %d forks failed", len(selected)))
			}
		}()
	}

	select {
	case <-notifier.Done():
		if sdkErr := notifier.GetError(); sdkErr != nil {
			var cause error
			if c, ok := lastCause.Load().(error); ok {
				cause = c
			}
			return model.NewExceptionResult(cluster.NewAggregatedError(model.ErrCodeNetwork, tried, cause, consumerURL))
		}
		return winner.Load().(*model.Result)
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		inv.Report(extcommon.StatEventForkTimeout, call)
		return model.NewExceptionResult(model.NewSDKError(model.ErrCodeTimeout, nil,
			"forking: timed out after %dms waiting for %s", timeoutMs, consumerURL.Address()))
	}
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
