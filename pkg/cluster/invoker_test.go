package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
)

type stickyEndpoint struct {
	url       *model.URL
	available bool
}

func (e *stickyEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e *stickyEndpoint) IsAvailable() bool                     { return e.available }
func (e *stickyEndpoint) Destroy()                              {}
func (e *stickyEndpoint) URL() *model.URL                       { return e.url }

// firstOfLoadBalancer is a stand-in for "random": it always returns the first
// endpoint in whatever candidate slice it's handed, which is enough to drive
// the deterministic reselect below without needing real randomness.
type firstOfLoadBalancer struct{}

func (firstOfLoadBalancer) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	return endpoints[0]
}

// TestBaseInvoker_StickyRetention exercises spec §8.6's scenario directly
// against BaseInvoker.Select: two sticky hits land on the same endpoint, then
// marking that endpoint unavailable forces a reselect that both returns a
// different endpoint and overwrites the cached sticky choice.
func TestBaseInvoker_StickyRetention(t *testing.T) {
	a := &stickyEndpoint{url: model.NewURL("test", "a", 1, "/svc", nil), available: true}
	b := &stickyEndpoint{url: model.NewURL("test", "b", 1, "/svc", nil), available: true}
	candidates := []model.Endpoint{a, b}

	consumerURL := model.NewURL("test", "consumer", 0, "/svc", map[string]string{
		"sticky": "true", "loadbalance": "random",
	})
	call := model.NewCall("Echo", nil, nil)
	lb := firstOfLoadBalancer{}

	invoker := NewBaseInvoker(nil, true)

	first := invoker.Select(lb, consumerURL, call, candidates, nil)
	assert.Same(t, a, first, "first call picks the load balancer's choice and caches it sticky")
	assert.Same(t, a, invoker.StickyEndpoint())

	second := invoker.Select(lb, consumerURL, call, candidates, nil)
	assert.Same(t, a, second, "second call is served from the sticky cache, bypassing the load balancer")

	a.available = false
	third := invoker.Select(lb, consumerURL, call, candidates, nil)
	assert.Same(t, b, third, "a's unavailability forces a reselect onto b")
	assert.Same(t, b, invoker.StickyEndpoint(), "the sticky cache is updated to the reselected endpoint")
}
