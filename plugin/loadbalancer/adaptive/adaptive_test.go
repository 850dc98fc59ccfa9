package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clustercore/pkg/extension"
	extcommon "clustercore/pkg/extension/common"
	"clustercore/pkg/model"
)

type fakeEndpoint struct{ url *model.URL }

func (e fakeEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e fakeEndpoint) IsAvailable() bool                     { return true }
func (e fakeEndpoint) Destroy()                              {}
func (e fakeEndpoint) URL() *model.URL                       { return e.url }

type fakeLoadBalancer struct{ name string }

func (f fakeLoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	return endpoints[0]
}
func (f fakeLoadBalancer) Name() string         { return f.name }
func (f fakeLoadBalancer) Type() extcommon.Type { return extcommon.TypeLoadBalancer }
func (f fakeLoadBalancer) Destroy() error       { return nil }

// TestNew_HasNoDispatcherUntilWired confirms the dependency really comes from
// Wire, not New: before Wire runs there is nothing to resolve through.
func TestNew_HasNoDispatcherUntilWired(t *testing.T) {
	lb := New()
	assert.Nil(t, lb.dispatcher)
}

// TestRegister_ResolvesViaRegistryGet exercises the registry's own
// Wire-on-construction path (registry.Get type-asserts the freshly built
// instance against extcommon.Wirer and calls Wire before handing it back),
// rather than calling Wire directly.
func TestRegister_ResolvesViaRegistryGet(t *testing.T) {
	registry := extension.NewRegistry()
	registry.Register(extcommon.TypeLoadBalancer, "concrete", func() (extcommon.Plugin, error) {
		return fakeLoadBalancer{name: "concrete"}, nil
	})
	Register(registry)

	plugin, err := registry.GetAdaptive(extcommon.TypeLoadBalancer)
	require.NoError(t, err)
	lb := plugin.(*LoadBalancer)
	require.NotNil(t, lb.dispatcher)

	consumerURL := model.NewURL("test", "consumer", 0, "/svc", map[string]string{"loadbalance": "concrete"})
	call := model.NewCall("Echo", nil, nil)
	endpoint := fakeEndpoint{url: model.NewURL("test", "a", 1, "/svc", nil)}

	picked := lb.Select([]model.Endpoint{endpoint}, consumerURL, call)
	assert.Equal(t, endpoint, picked)
}

// TestSelect_UnresolvableReturnsNil covers the failure path: no such name and
// no default registered either.
func TestSelect_UnresolvableReturnsNil(t *testing.T) {
	registry := extension.NewRegistry()
	Register(registry)

	plugin, err := registry.GetAdaptive(extcommon.TypeLoadBalancer)
	require.NoError(t, err)
	lb := plugin.(*LoadBalancer)

	consumerURL := model.NewURL("test", "consumer", 0, "/svc", nil)
	call := model.NewCall("Echo", nil, nil)
	endpoint := fakeEndpoint{url: model.NewURL("test", "a", 1, "/svc", nil)}

	picked := lb.Select([]model.Endpoint{endpoint}, consumerURL, call)
	assert.Nil(t, picked)
}
