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

// Package invokertest holds fakes shared by the plugin/invoker/* test suites:
// a scriptable Endpoint, a static Directory, and a Registry pre-wired with a
// trivial round-robin LoadBalancer under the "random" default name.
package invokertest

import (
	"sync/atomic"

	"clustercore/pkg/cluster"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/extension"
	"clustercore/pkg/model"
)

// Endpoint is a scriptable fake: Result is returned by every Invoke call
// unless Results is set, in which case Invoke consumes them one at a time.
type Endpoint struct {
	Addr        string
	Result      *model.Result
	Results     []*model.Result
	Available   bool
	Invocations int32
	Sleep       func()
}

// NewEndpoint builds an always-available Endpoint returning result.
func NewEndpoint(addr string, result *model.Result) *Endpoint {
	return &Endpoint{Addr: addr, Result: result, Available: true}
}

func (e *Endpoint) Invoke(call *model.Call) *model.Result {
	atomic.AddInt32(&e.Invocations, 1)
	if e.Sleep != nil {
		e.Sleep()
	}
	if len(e.Results) > 0 {
		r := e.Results[0]
		e.Results = e.Results[1:]
		return r
	}
	return e.Result
}

func (e *Endpoint) IsAvailable() bool { return e.Available }
func (e *Endpoint) Destroy()          {}
func (e *Endpoint) URL() *model.URL {
	return model.NewURL("test", e.Addr, 8080, "/svc", nil)
}

// CallCount reports how many times Invoke has run.
func (e *Endpoint) CallCount() int { return int(atomic.LoadInt32(&e.Invocations)) }

// Directory is a static cluster.Directory over a fixed endpoint list.
type Directory struct {
	Consumer  *model.URL
	Endpoints []model.Endpoint
	destroyed bool
}

// NewDirectory builds a Directory over endpoints, with consumerURL carrying
// params.
func NewDirectory(params map[string]string, endpoints []model.Endpoint) *Directory {
	return &Directory{
		Consumer:  model.NewURL("test", "consumer", 0, "/svc", params),
		Endpoints: endpoints,
	}
}

func (d *Directory) List(call *model.Call) ([]model.Endpoint, error) {
	return append([]model.Endpoint(nil), d.Endpoints...), nil
}
func (d *Directory) ConsumerURL() *model.URL { return d.Consumer }
func (d *Directory) Destroy()                { d.destroyed = true }
func (d *Directory) IsDestroyed() bool       { return d.destroyed }

// roundRobin is the trivial LoadBalancer registered under "random" so
// invoker tests don't need the real plugin/loadbalancer packages wired in.
type roundRobin struct{ next int32 }

func (lb *roundRobin) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	i := atomic.AddInt32(&lb.next, 1) - 1
	return endpoints[int(i)%len(endpoints)]
}
func (lb *roundRobin) Name() string              { return "random" }
func (lb *roundRobin) Type() extcommon.Type      { return extcommon.TypeLoadBalancer }
func (lb *roundRobin) Destroy() error            { return nil }

// NewRegistry builds an extension.Registry with the fake "random" LoadBalancer
// registered as both the plain and default implementation.
func NewRegistry() *extension.Registry {
	r := extension.NewRegistry()
	r.Register(extcommon.TypeLoadBalancer, "random", func() (extcommon.Plugin, error) {
		return &roundRobin{}, nil
	})
	r.SetDefault(extcommon.TypeLoadBalancer, "random")
	return r
}

var _ cluster.LoadBalancer = (*roundRobin)(nil)
