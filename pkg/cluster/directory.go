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

// Package cluster holds the capability interfaces of the dispatch engine
// (Directory, Router, LoadBalancer, ClusterInvoker) and the template-method
// base types every plugin implementation builds on, grounded on Apache
// Dubbo's AbstractDirectory.java / AbstractClusterInvoker.java and a
// capability-interface shape for Router/LoadBalancer plugins.
package cluster

import (
	"sort"
	"sync"
	"sync/atomic"

	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// Directory maintains the live Endpoint set for one service interface and
// runs the router pipeline over it. List's returned slice is a snapshot:
// subsequent mutation of the Directory's membership must not be observed by
// the caller holding that slice.
type Directory interface {
	List(call *model.Call) ([]model.Endpoint, error)
	ConsumerURL() *model.URL
	Destroy()
	IsDestroyed() bool
}

// Router is a pure filter over an endpoint list: (endpoints, consumerURL,
// call) -> endpoints'. Priority determines pipeline position; Runtime
// determines whether AbstractDirectory re-evaluates it on every List call
// (true) or only at construction / membership change (false).
type Router interface {
	Route(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) []model.Endpoint
	Priority() int
	Runtime() bool
	// URL is used only to break priority ties deterministically: stable
	// when equal, tie-broken by URL string.
	URL() *model.URL
}

// ErrDirectoryDestroyed is returned by List once Destroy has been called.
var ErrDirectoryDestroyed = model.NewSDKError(model.ErrCodeConfig, nil, "directory already destroyed")

// AbstractDirectory implements the router-pipeline template method from
// AbstractDirectory.java: subclasses supply a membership source; List
// re-runs runtime=true routers on every call over a membership snapshot that
// already has runtime=false routers baked in. The baked-in snapshot is
// recomputed by RefreshMembership, which the embedding concrete Directory
// calls at construction and whenever it observes a membership change (see
// DESIGN.md for why the runtime/non-runtime split works this way).
type AbstractDirectory struct {
	consumerURL *model.URL
	destroyed   int32

	mu             sync.RWMutex
	routers        []Router
	runtimeRouters []Router
	baked          []model.Endpoint

	// membership is supplied by the embedding concrete Directory; it
	// returns the raw, unrouted endpoint set.
	membership func() ([]model.Endpoint, error)
}

// NewAbstractDirectory builds the base and performs the initial
// RefreshMembership so List has a baked snapshot from construction.
func NewAbstractDirectory(consumerURL *model.URL, routers []Router,
	membership func() ([]model.Endpoint, error)) (*AbstractDirectory, error) {
	d := &AbstractDirectory{consumerURL: consumerURL, membership: membership}
	d.setRouters(routers)
	if err := d.RefreshMembership(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *AbstractDirectory) setRouters(routers []Router) {
	sorted := append([]Router(nil), routers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() < sorted[j].Priority()
		}
		return sorted[i].URL().String() < sorted[j].URL().String()
	})
	runtimeOnly := make([]Router, 0, len(sorted))
	for _, r := range sorted {
		if r.Runtime() {
			runtimeOnly = append(runtimeOnly, r)
		}
	}
	d.mu.Lock()
	d.routers = sorted
	d.runtimeRouters = runtimeOnly
	d.mu.Unlock()
}

// SetRouters installs a new router pipeline, sorted by (priority, url
// string), and immediately rebakes the non-runtime half.
func (d *AbstractDirectory) SetRouters(routers []Router) error {
	d.setRouters(routers)
	return d.RefreshMembership()
}

func runRouters(routers []Router, endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) []model.Endpoint {
	for _, r := range routers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.GetStatLogger().Errorf("directory: router %s panicked: %v", r.URL(), rec)
				}
			}()
			endpoints = r.Route(endpoints, consumerURL, call)
		}()
	}
	return endpoints
}

// RefreshMembership re-reads the raw endpoint set and re-applies every
// runtime=false router to it, replacing the baked snapshot List starts from.
// Call on construction and on every membership-change notification.
func (d *AbstractDirectory) RefreshMembership() error {
	raw, err := d.membership()
	if err != nil {
		return err
	}
	d.mu.RLock()
	all := d.routers
	runtimeSet := make(map[Router]bool, len(d.runtimeRouters))
	for _, r := range d.runtimeRouters {
		runtimeSet[r] = true
	}
	d.mu.RUnlock()

	nonRuntime := make([]Router, 0, len(all))
	for _, r := range all {
		if !runtimeSet[r] {
			nonRuntime = append(nonRuntime, r)
		}
	}
	baked := runRouters(nonRuntime, raw, d.consumerURL, nil)

	d.mu.Lock()
	d.baked = baked
	d.mu.Unlock()
	return nil
}

// ConsumerURL returns the URL this Directory routes on behalf of.
func (d *AbstractDirectory) ConsumerURL() *model.URL { return d.consumerURL }

// IsDestroyed reports whether Destroy has been called.
func (d *AbstractDirectory) IsDestroyed() bool {
	return atomic.LoadInt32(&d.destroyed) != 0
}

// Destroy marks the directory unusable. Idempotent.
func (d *AbstractDirectory) Destroy() {
	atomic.StoreInt32(&d.destroyed, 1)
}

// List returns the baked (runtime=false-routed) snapshot with every
// runtime=true router applied fresh.
func (d *AbstractDirectory) List(call *model.Call) ([]model.Endpoint, error) {
	if d.IsDestroyed() {
		return nil, ErrDirectoryDestroyed
	}
	d.mu.RLock()
	baked := append([]model.Endpoint(nil), d.baked...)
	runtimeRouters := d.runtimeRouters
	d.mu.RUnlock()

	return runRouters(runtimeRouters, baked, d.consumerURL, call), nil
}
