package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/cluster"
	"clustercore/pkg/model"
)

type fakeEndpoint struct {
	url     *model.URL
	invoked int
}

func (e *fakeEndpoint) Invoke(call *model.Call) *model.Result {
	e.invoked++
	return model.NewValueResult(nil, nil)
}
func (e *fakeEndpoint) IsAvailable() bool { return true }
func (e *fakeEndpoint) Destroy()          {}
func (e *fakeEndpoint) URL() *model.URL   { return e.url }

// plainLB implements cluster.LoadBalancer only, no InvokeTracker.
type plainLB struct{}

func (plainLB) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	return endpoints[0]
}

// trackingLB implements cluster.InvokeTracker in addition to LoadBalancer, so
// Dispatch must route through Track rather than endpoint.Invoke directly.
type trackingLB struct {
	tracked int
}

func (trackingLB) Select(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) model.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	return endpoints[0]
}

func (t *trackingLB) Track(endpoint model.Endpoint, call *model.Call) *model.Result {
	t.tracked++
	return endpoint.Invoke(call)
}

var _ cluster.LoadBalancer = plainLB{}
var _ cluster.LoadBalancer = (*trackingLB)(nil)
var _ cluster.InvokeTracker = (*trackingLB)(nil)

func TestDispatch_PlainLoadBalancerCallsInvokeDirectly(t *testing.T) {
	b := &Base{}
	ep := &fakeEndpoint{url: model.NewURL("test", "a", 1, "/svc", nil)}
	call := model.NewCall("Echo", nil, nil)

	result := b.Dispatch(plainLB{}, ep, call)

	assert.False(t, result.HasException())
	assert.Equal(t, 1, ep.invoked)
}

func TestDispatch_TrackingLoadBalancerRoutesThroughTrack(t *testing.T) {
	b := &Base{}
	ep := &fakeEndpoint{url: model.NewURL("test", "a", 1, "/svc", nil)}
	call := model.NewCall("Echo", nil, nil)
	lb := &trackingLB{}

	result := b.Dispatch(lb, ep, call)

	assert.False(t, result.HasException())
	assert.Equal(t, 1, lb.tracked)
	assert.Equal(t, 1, ep.invoked)
}
