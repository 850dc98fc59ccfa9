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

// Package extension is the ExtensionRegistry: named resolution of Router,
// LoadBalancer, ClusterInvoker, Logger and StatReporter implementations, with
// adaptive dispatch, wrapper decoration, and activation ordering. Generalizes
// polaris-go's reflective pkg/plugin.Manager into a named-lookup +
// adaptive-dispatch contract in the shape of Dubbo's ExtensionLoader.java,
// replacing reflection with explicit registration and wiring.
package extension

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/modern-go/reflect2"

	"clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

// Factory builds one instance of a capability implementation. Called once
// per name, lazily, on first Get.
type Factory func() (common.Plugin, error)

// WrapperFactory builds a decorator around an already-constructed instance.
// Wrappers registered for the same Type apply in registration order,
// inside-out: for [W1, W2], Get returns W2(W1(plain)).
type WrapperFactory func(inner common.Plugin) (common.Plugin, error)

// ActivateSpec declares an implementation's eligibility for getActive: the
// name is included when urlKey is present on the URL (or always, if urlKey
// is empty), ordered by Order, and grouped by Group for callers that filter
// getActive by group. Before and After name other registrations (for the
// same Type) that this one must precede or follow respectively, refining the
// Order total order with a partial order — an implementation naming another
// as Before must appear earlier in GetActive's result, and as After, later,
// regardless of where Order alone would have placed it. A name with no
// corresponding candidate in a given GetActive call is ignored.
type ActivateSpec struct {
	Name   string
	Order  int
	Group  string
	URLKey string
	Before []string
	After  []string
}

type registration struct {
	typ      common.Type
	name     string
	factory  Factory
	regIndex int
	activate *ActivateSpec
}

// Registry is the process-wide ExtensionRegistry singleton type. One
// instance is normally enough per process; tests may build their own to
// isolate registrations.
type Registry struct {
	mu   sync.Mutex
	regs map[common.Type]map[string]*registration
	// defaults[typ] is the name returned by getDefault.
	defaults map[common.Type]string
	// adaptiveName[typ], if set, marks which registration is itself the
	// adaptive one (CYCLIC_DEFAULT fires if this also equals defaults[typ]).
	adaptiveOwner map[common.Type]string
	wrappers      map[common.Type][]WrapperFactory

	singletons sync.Map // key: common.Type/name composite -> *atomic.Value holding *common.Plugin
	loadErrs   sync.Map // key: common.Type -> *multierror.Error

	regCounter int32
}

// NewRegistry creates an empty ExtensionRegistry.
func NewRegistry() *Registry {
	return &Registry{
		regs:          make(map[common.Type]map[string]*registration),
		defaults:      make(map[common.Type]string),
		adaptiveOwner: make(map[common.Type]string),
		wrappers:      make(map[common.Type][]WrapperFactory),
	}
}

// Register adds a named implementation factory under typ. Duplicate names
// for the same Type are a DUPLICATE_NAME error deferred to first Get: the
// first registration for a name wins and later ones are errors, matching
// how a plain (non-wrapper) extension resolves in Dubbo's ExtensionLoader.
func (r *Registry) Register(typ common.Type, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.regs[typ]
	if !ok {
		byName = make(map[string]*registration)
		r.regs[typ] = byName
	}
	if _, exists := byName[name]; exists {
		r.recordLoadError(typ, model.NewSDKError(model.ErrCodeDuplicateName, nil,
			"duplicate registration of %s %q", typ, name))
		return
	}
	idx := int(atomic.AddInt32(&r.regCounter, 1))
	byName[name] = &registration{typ: typ, name: name, factory: factory, regIndex: idx}
}

// RegisterActivate is Register plus an ActivateSpec, making the name a
// candidate for GetActive.
func (r *Registry) RegisterActivate(typ common.Type, name string, factory Factory, spec ActivateSpec) {
	r.Register(typ, name, factory)
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regs[typ][name]; ok {
		spec.Name = name
		reg.activate = &spec
	}
}

// RegisterWrapper appends a decorator for typ, applied around every plain
// instance resolved through Get, in registration order.
func (r *Registry) RegisterWrapper(typ common.Type, wrapper WrapperFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrappers[typ] = append(r.wrappers[typ], wrapper)
}

// SetDefault declares name as typ's default implementation.
func (r *Registry) SetDefault(typ common.Type, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existingAdaptive, ok := r.adaptiveOwner[typ]; ok && existingAdaptive == name {
		r.recordLoadError(typ, model.NewSDKError(model.ErrCodeCyclicDefault, nil,
			"%s: %q is registered as both default and adaptive", typ, name))
		return
	}
	r.defaults[typ] = name
}

// SetAdaptiveOwner marks name as typ's adaptive dispatcher implementation.
// MULTIPLE_ADAPTIVE fires if a second name is set for the same typ.
func (r *Registry) SetAdaptiveOwner(typ common.Type, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.adaptiveOwner[typ]; ok && existing != name {
		r.recordLoadError(typ, model.NewSDKError(model.ErrCodeMultipleAdaptive, nil,
			"%s: both %q and %q registered as adaptive", typ, existing, name))
		return
	}
	if existingDefault, ok := r.defaults[typ]; ok && existingDefault == name {
		r.recordLoadError(typ, model.NewSDKError(model.ErrCodeCyclicDefault, nil,
			"%s: %q is registered as both default and adaptive", typ, name))
		return
	}
	r.adaptiveOwner[typ] = name
}

func (r *Registry) recordLoadError(typ common.Type, err error) {
	v, _ := r.loadErrs.LoadOrStore(typ, &multierror.Error{})
	merr := v.(*multierror.Error)
	merr.Errors = append(merr.Errors, err)
	r.loadErrs.Store(typ, merr)
}

func (r *Registry) deferredErrors(typ common.Type) error {
	v, ok := r.loadErrs.Load(typ)
	if !ok {
		return nil
	}
	return v.(*multierror.Error).ErrorOrNil()
}

func singletonKey(typ common.Type, name string) string {
	return typ.String() + "/" + name
}

// Get resolves name's singleton instance under typ, constructing and
// wrapping it on first use. Failure is NO_SUCH_EXTENSION, carrying every
// prior deferred load error for typ for diagnosis (ExtensionLoader.
// findException).
func (r *Registry) Get(typ common.Type, name string) (common.Plugin, error) {
	key := singletonKey(typ, name)
	if cached, ok := r.singletons.Load(key); ok {
		if inst := cached.(*atomic.Value).Load(); !reflect2.IsNil(inst) {
			return *(inst.(*common.Plugin)), nil
		}
	}

	r.mu.Lock()
	byName, ok := r.regs[typ]
	var reg *registration
	if ok {
		reg = byName[name]
	}
	wrappers := append([]WrapperFactory(nil), r.wrappers[typ]...)
	r.mu.Unlock()

	if reg == nil {
		base := model.NewSDKError(model.ErrCodeNoSuchExtension, r.deferredErrors(typ),
			"no such extension %s %q", typ, name)
		return nil, base
	}

	instance, err := reg.factory()
	if err != nil {
		r.recordLoadError(typ, err)
		return nil, model.NewSDKError(model.ErrCodeNoSuchExtension, r.deferredErrors(typ),
			"failed to construct %s %q", typ, name)
	}
	if wirer, ok := instance.(common.Wirer); ok {
		if err := wirer.Wire(registryFacade{r}); err != nil {
			r.recordLoadError(typ, err)
			return nil, model.NewSDKError(model.ErrCodeNoSuchExtension, r.deferredErrors(typ),
				"failed to wire %s %q", typ, name)
		}
	}
	for _, wrap := range wrappers {
		instance, err = wrap(instance)
		if err != nil {
			r.recordLoadError(typ, err)
			return nil, model.NewSDKError(model.ErrCodeNoSuchExtension, r.deferredErrors(typ),
				"failed to wrap %s %q", typ, name)
		}
	}

	slot := &atomic.Value{}
	slot.Store(&instance)
	actual, _ := r.singletons.LoadOrStore(key, slot)
	stored := actual.(*atomic.Value).Load()
	if reflect2.IsNil(stored) {
		actual.(*atomic.Value).Store(&instance)
		return instance, nil
	}
	return *(stored.(*common.Plugin)), nil
}

// GetDefault resolves typ's declared default implementation, or nil if none
// was set.
func (r *Registry) GetDefault(typ common.Type) (common.Plugin, error) {
	r.mu.Lock()
	name, ok := r.defaults[typ]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.Get(typ, name)
}

// registryFacade adapts *Registry to common.Registry for plugins' Wire calls,
// restricting them to Get/GetAdaptive so a plugin cannot re-enter
// registration during its own construction.
type registryFacade struct{ r *Registry }

func (f registryFacade) Get(typ common.Type, name string) (common.Plugin, error) {
	return f.r.Get(typ, name)
}

func (f registryFacade) GetAdaptive(typ common.Type) (common.Plugin, error) {
	return f.r.GetAdaptive(typ)
}

// GetActive returns the ordered, group-filtered list of activation
// candidates for typ: implementations registered with RegisterActivate whose
// URLKey is present on url (or has no URLKey requirement), ordered by (Order,
// registration index) and then by their Before/After directives. Names
// explicitly listed in extraNames and not already included follow them, in
// the order given; they are not merged into the (Order, registration index)
// ordering. The registration-index tiebreak ensures two results
// are never reported equal, working around Dubbo's ActivateComparator,
// whose documented contract allows returning 0 for unrelated entries.
func (r *Registry) GetActive(typ common.Type, url *model.URL, group string, extraNames []string) ([]common.Plugin, error) {
	r.mu.Lock()
	byName := r.regs[typ]
	candidates := make([]*registration, 0, len(byName))
	for _, reg := range byName {
		if reg.activate == nil {
			continue
		}
		if group != "" && reg.activate.Group != "" && reg.activate.Group != group {
			continue
		}
		if reg.activate.URLKey != "" && url != nil && url.Param(reg.activate.URLKey, "") == "" {
			continue
		}
		candidates = append(candidates, reg)
	}
	r.mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		oi, oj := candidates[i].activate.Order, candidates[j].activate.Order
		if oi != oj {
			return oi < oj
		}
		return candidates[i].regIndex < candidates[j].regIndex
	})
	candidates = applyBeforeAfter(candidates)

	seen := make(map[string]bool, len(candidates)+len(extraNames))
	out := make([]common.Plugin, 0, len(candidates)+len(extraNames))
	for _, reg := range candidates {
		inst, err := r.Get(typ, reg.name)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
		seen[reg.name] = true
	}
	for _, name := range extraNames {
		if seen[name] {
			continue
		}
		inst, err := r.Get(typ, name)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
		seen[name] = true
	}
	return out, nil
}

// applyBeforeAfter refines an (Order, regIndex)-stable ordering with each
// candidate's Before/After directives: a stable topological sort (Kahn's
// algorithm, ready nodes broken by the incoming order) rather than a full
// re-sort. Each pass places every ready candidate in incoming order, so
// candidates no directive names keep their relative order, while a candidate
// held back by a directive moves behind everything already ready (for a, b,
// c, d with d before a, the result is b, c, d, a). A cycle among the
// directives is broken by falling back to
// the incoming order for whatever remains unplaced, rather than failing
// GetActive outright.
func applyBeforeAfter(candidates []*registration) []*registration {
	n := len(candidates)
	if n <= 1 {
		return candidates
	}

	indexOf := make(map[string]int, n)
	for i, reg := range candidates {
		indexOf[reg.name] = i
	}

	successors := make([][]int, n)
	indegree := make([]int, n)
	addEdge := func(before, after int) {
		successors[before] = append(successors[before], after)
		indegree[after]++
	}
	for i, reg := range candidates {
		for _, name := range reg.activate.Before {
			if j, ok := indexOf[name]; ok {
				addEdge(i, j)
			}
		}
		for _, name := range reg.activate.After {
			if j, ok := indexOf[name]; ok {
				addEdge(j, i)
			}
		}
	}

	placed := make([]bool, n)
	out := make([]*registration, 0, n)
	for len(out) < n {
		progressed := false
		for i := 0; i < n; i++ {
			if placed[i] || indegree[i] > 0 {
				continue
			}
			placed[i] = true
			out = append(out, candidates[i])
			for _, s := range successors[i] {
				indegree[s]--
			}
			progressed = true
		}
		if !progressed {
			for i := 0; i < n; i++ {
				if !placed[i] {
					placed[i] = true
					out = append(out, candidates[i])
				}
			}
			break
		}
	}
	return out
}
