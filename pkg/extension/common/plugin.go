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

// Package common holds the types shared between pkg/extension's registry and
// the capability interfaces it resolves (ServiceRouter, LoadBalancer,
// ClusterInvoker, Logger, StatReporter).
package common

import (
	"context"
	"sync/atomic"

	"github.com/modern-go/reflect2"

	"clustercore/pkg/model"
)

// Type identifies one capability interface. Every plugin package registers
// its concrete implementations under exactly one Type.
type Type uint32

const (
	// TypeServiceRouter is the capability interface for pkg/cluster.Router.
	TypeServiceRouter Type = iota + 1
	// TypeLoadBalancer is the capability interface for pkg/cluster.LoadBalancer.
	TypeLoadBalancer
	// TypeClusterInvoker is the capability interface for pkg/cluster.ClusterInvoker.
	TypeClusterInvoker
	// TypeLogger is the capability interface for pkg/log.Logger.
	TypeLogger
	// TypeStatReporter is the capability interface for dispatch observability plugins.
	TypeStatReporter
)

var typeName = map[Type]string{
	TypeServiceRouter:  "serviceRouter",
	TypeLoadBalancer:   "loadBalancer",
	TypeClusterInvoker: "clusterInvoker",
	TypeLogger:         "logger",
	TypeStatReporter:   "statReporter",
}

// String renders a Type as its registry-facing name.
func (t Type) String() string {
	if name, ok := typeName[t]; ok {
		return name
	}
	return "unknown"
}

// Plugin is the minimum contract every registered capability implementation
// satisfies so the registry can name, wire, and tear it down uniformly.
type Plugin interface {
	// Name is the registration key this instance was looked up by.
	Name() string
	// Type is the capability interface this instance implements.
	Type() Type
	// Destroy releases resources on registry shutdown. Idempotent.
	Destroy() error
}

// Wirer is implemented by plugins with dependencies on other capability
// interfaces. Wire replaces Dubbo's reflective setter injection: the
// registry calls Wire once, immediately after construction, passing itself
// so the plugin can resolve adaptive dispatchers for whatever capabilities
// it needs.
type Wirer interface {
	Wire(registry Registry) error
}

// Registry is the subset of pkg/extension.Registry that a plugin's Wire
// method is allowed to call back into. Declared here, not in pkg/extension,
// to avoid an import cycle between the registry and the plugins it wires.
type Registry interface {
	Get(typ Type, name string) (Plugin, error)
	GetAdaptive(typ Type) (Plugin, error)
}

// RunContext bounds a background task's lifetime. Used by fail-back's shared
// retry worker (plugin/invoker/failback), so it can be torn down by
// StopWorker instead of running for the rest of the process.
type RunContext struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunContext creates a cancellable run context rooted in the background.
func NewRunContext() *RunContext {
	rc := &RunContext{}
	rc.ctx, rc.cancel = context.WithCancel(context.Background())
	return rc
}

// Destroy cancels the run context. Idempotent.
func (c *RunContext) Destroy() error {
	c.cancel()
	return nil
}

// IsDestroyed reports whether Destroy has been called.
func (c *RunContext) IsDestroyed() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Done exposes the cancellation channel for select loops.
func (c *RunContext) Done() <-chan struct{} {
	return c.ctx.Done()
}

// StatEvent names one thing a StatReporter plugin can count. New call sites
// should reuse one of these rather than inventing ad hoc strings, so every
// reporter implementation recognizes the same vocabulary.
type StatEvent string

const (
	// StatEventDispatch fires once per endpoint actually invoked.
	StatEventDispatch StatEvent = "dispatch"
	// StatEventRetry fires once per retry attempt beyond the first, in any
	// retrying ClusterInvoker (fail-over, fail-back's background worker).
	StatEventRetry StatEvent = "retry"
	// StatEventForkTimeout fires when the forking invoker's fan-in deadline
	// elapses before any fork completes.
	StatEventForkTimeout StatEvent = "fork_timeout"
)

// StatReporter is the capability interface for dispatch observability
// plugins (TypeStatReporter). ReportStat is called synchronously from the
// dispatch path, so implementations must not block: counters, not network
// calls.
type StatReporter interface {
	Plugin
	// ReportStat records one occurrence of event, labeled by service and
	// method (both may be empty if unknown at the call site).
	ReportStat(event StatEvent, service, method string)
}

// Notifier lets one goroutine wait on another's completion (or early error).
// Used by the forking invoker (plugin/invoker/forking) for its per-call
// fan-in: every fork races to Notify it, and whichever arrives first decides
// what Invoke returns.
type Notifier struct {
	err    atomic.Value
	ctx    context.Context
	cancel context.CancelFunc
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	n := &Notifier{}
	n.ctx, n.cancel = context.WithCancel(context.Background())
	return n
}

// GetError returns the error passed to Notify, if any.
func (n *Notifier) GetError() model.SDKError {
	v := n.err.Load()
	if reflect2.IsNil(v) {
		return nil
	}
	return v.(model.SDKError)
}

// Done exposes the completion channel.
func (n *Notifier) Done() <-chan struct{} {
	return n.ctx.Done()
}

// Notify completes the notifier, optionally carrying an error. Safe to call
// from multiple goroutines; only the first error recorded sticks.
func (n *Notifier) Notify(err model.SDKError) {
	if err != nil {
		n.err.CompareAndSwap(nil, err)
	}
	n.cancel()
}
