package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
)

type fakeEndpoint struct{ url *model.URL }

func (e *fakeEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e *fakeEndpoint) IsAvailable() bool                     { return true }
func (e *fakeEndpoint) Destroy()                              {}
func (e *fakeEndpoint) URL() *model.URL                       { return e.url }

func newEndpoint(protocol, host string) *fakeEndpoint {
	return &fakeEndpoint{url: model.NewURL(protocol, host, 1, "/svc", nil)}
}

func TestRoute_NormalCallExcludesMockEndpoints(t *testing.T) {
	real := newEndpoint("test", "a")
	m := newEndpoint(ProtocolMock, "b")
	r := New(model.NewURL("test", "router", 0, "/svc", nil))

	call := model.NewCall("Echo", nil, nil)
	got := r.Route([]model.Endpoint{real, m}, nil, call)
	assert.Equal(t, []model.Endpoint{real}, got)
}

func TestRoute_NeedMockKeepsOnlyMockEndpoints(t *testing.T) {
	real := newEndpoint("test", "a")
	m := newEndpoint(ProtocolMock, "b")
	r := New(model.NewURL("test", "router", 0, "/svc", nil))

	call := model.NewCall("Echo", nil, nil)
	call.SetAttachment(model.AttachmentNeedMock, "true")
	got := r.Route([]model.Endpoint{real, m}, nil, call)
	assert.Equal(t, []model.Endpoint{m}, got)
}

func TestRoute_NilCallTreatedAsNoMockNeeded(t *testing.T) {
	real := newEndpoint("test", "a")
	m := newEndpoint(ProtocolMock, "b")
	r := New(model.NewURL("test", "router", 0, "/svc", nil))

	got := r.Route([]model.Endpoint{real, m}, nil, nil)
	assert.Equal(t, []model.Endpoint{real}, got)
}

func TestPriority_AlwaysLast(t *testing.T) {
	r := New(model.NewURL("test", "router", 0, "/svc", nil))
	assert.True(t, r.Runtime())
	assert.Greater(t, r.Priority(), 1000)
}
