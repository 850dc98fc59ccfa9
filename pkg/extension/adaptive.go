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

package extension

import (
	"time"

	"golang.org/x/time/rate"

	"clustercore/pkg/extension/common"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// GetAdaptive resolves the single dispatching instance registered for typ via
// SetAdaptiveOwner, replacing Dubbo's runtime-generated adaptive class with
// an explicit registration: the adaptive implementation is itself just a
// Plugin (e.g. plugin/loadbalancer/adaptive's LoadBalancer) built with a
// *Dispatcher it uses to resolve names per call against an explicit dispatch
// table.
func (r *Registry) GetAdaptive(typ common.Type) (common.Plugin, error) {
	r.mu.Lock()
	name, ok := r.adaptiveOwner[typ]
	r.mu.Unlock()
	if !ok {
		return nil, model.NewSDKError(model.ErrCodeNoSuchExtension, r.deferredErrors(typ),
			"no adaptive implementation registered for %s", typ)
	}
	return r.Get(typ, name)
}

// Dispatcher resolves a plain implementation's name from URL parameters, per
// call, on behalf of an adaptive proxy. Keys lists the candidate parameter
// keys in fallback order; when ProtocolKey is set, url.Protocol() is read
// instead of any parameter.
type Dispatcher struct {
	Type        common.Type
	Keys        []string
	Default     string
	ProtocolKey bool

	registry common.Registry
	limiter  *rate.Limiter
}

// NewDispatcher builds a Dispatcher bound to registry. registry is typed as
// common.Registry (Get + GetAdaptive) rather than the concrete *Registry so a
// plugin's Wire(registry common.Registry) can build its own Dispatcher from
// exactly what it was handed, without needing the concrete type back. Every
// *Registry already satisfies common.Registry, so existing call sites that
// pass one directly are unaffected. The fallback warning emitted when a
// resolved name misses the registry is throttled to once per second.
func NewDispatcher(registry common.Registry, typ common.Type, keys []string, def string, protocolKey bool) *Dispatcher {
	return &Dispatcher{
		Type:        typ,
		Keys:        keys,
		Default:     def,
		ProtocolKey: protocolKey,
		registry:    registry,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Resolve computes the implementation name for one call: method-scoped
// lookup first (when call is non-nil), then a fallback chain across Keys,
// then Default. ProtocolKey short-circuits to url.Protocol() when set.
func (d *Dispatcher) Resolve(url *model.URL, call *model.Call) string {
	if d.ProtocolKey {
		if p := url.Protocol(); p != "" {
			return p
		}
		return d.Default
	}
	for _, key := range d.Keys {
		var v string
		if call != nil {
			v = url.MethodParam(call.MethodName, key, "")
		} else {
			v = url.Param(key, "")
		}
		if v != "" {
			return v
		}
	}
	return d.Default
}

// Get resolves the name for (url, call) and fetches it from the registry,
// falling back to Default with a throttled warning on a registry miss.
func (d *Dispatcher) Get(url *model.URL, call *model.Call) (common.Plugin, error) {
	name := d.Resolve(url, call)
	inst, err := d.registry.Get(d.Type, name)
	if err == nil {
		return inst, nil
	}
	if name == d.Default {
		return nil, err
	}
	if d.limiter.Allow() {
		log.GetBaseLogger().Warnf("extension: %s %q not found, falling back to default %q: %v",
			d.Type, name, d.Default, err)
	}
	return d.registry.Get(d.Type, d.Default)
}
