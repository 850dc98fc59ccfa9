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

// Package failback implements the background-retry ClusterInvoker variant:
// the caller gets an immediate empty success, and a single process-wide
// timer worker keeps retrying in the background every 5s until it succeeds
// or the bounded queue drops it.
package failback

import (
	"sync"
	"time"

	"clustercore/pkg/cluster"
	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
	invokercommon "clustercore/plugin/invoker/common"
)

const name = "failback"

// retryInterval is the background worker's retry period.
const retryInterval = 5 * time.Second

// queueCapacity bounds the retry backlog; a call that doesn't fit is
// dropped with a warning rather than blocking the original caller.
const queueCapacity = 1024

type retryTask struct {
	inv  *Invoker
	call *model.Call
}

var (
	workerOnce sync.Once
	queue      chan retryTask
	workerRun  *extcommon.RunContext
)

func ensureWorker() {
	workerOnce.Do(func() {
		queue = make(chan retryTask, queueCapacity)
		workerRun = extcommon.NewRunContext()
		go worker(workerRun)
	})
}

// StopWorker tears down the shared background retry thread, if one was ever
// started. Idempotent; safe to call even when no fail-back Invoker has run
// yet. Exists mainly so tests can leave no goroutine behind them.
func StopWorker() {
	if workerRun != nil {
		workerRun.Destroy()
	}
}

// worker is the single background retry thread shared by every fail-back
// Invoker in the process, bounded by run so it can be torn down instead of
// living for the rest of the process.
func worker(run *extcommon.RunContext) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	var pending []retryTask
	for {
		select {
		case <-run.Done():
			return
		case t := <-queue:
			pending = append(pending, t)
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			remaining := pending[:0]
			for _, t := range pending {
				t.inv.Report(extcommon.StatEventRetry, t.call)
				if t.inv.attempt(t.call) {
					continue
				}
				remaining = append(remaining, t)
			}
			pending = remaining
		}
	}
}

func enqueue(t retryTask) {
	ensureWorker()
	select {
	case queue <- t:
	default:
		log.GetInvokerLogger().Warnf("failback: retry queue full, dropping retry for %s", t.call.MethodName)
	}
}

// Invoker is the fail-back ClusterInvoker.
type Invoker struct {
	*invokercommon.Base
}

// New builds a fail-back Invoker bound to directory.
func New(directory cluster.Directory, registry *extension.Registry, availableCheck bool) cluster.ClusterInvoker {
	return &Invoker{Base: invokercommon.NewBase(directory, registry, availableCheck)}
}

// attempt makes one select+invoke attempt, reporting success.
func (inv *Invoker) attempt(call *model.Call) bool {
	consumerURL := inv.Directory.ConsumerURL()
	endpoints, failure := inv.Endpoints(call)
	if failure != nil {
		return false
	}
	lb, err := inv.LoadBalancer(call)
	if err != nil {
		return false
	}
	endpoint := inv.Select(lb, consumerURL, call, endpoints, nil)
	if endpoint == nil {
		return false
	}
	inv.Report(extcommon.StatEventDispatch, call)
	return !inv.Dispatch(lb, endpoint, call).HasException()
}

// Invoke makes one foreground attempt; on any failure it enqueues a
// background retry (using a cloned Call so later attachment writes can't
// race the caller) and acknowledges success immediately.
func (inv *Invoker) Invoke(call *model.Call) *model.Result {
	if inv.attempt(call) {
		return model.EmptyResult()
	}
	log.GetInvokerLogger().Warnf("failback: %s: scheduling background retry",
		inv.Directory.ConsumerURL().Address())
	enqueue(retryTask{inv: inv, call: call.Clone()})
	return model.EmptyResult()
}

func init() {
	cluster.RegisterInvokerBuilder(name, New)
}
