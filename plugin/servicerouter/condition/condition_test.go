package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clustercore/pkg/model"
)

type fakeEndpoint struct{ url *model.URL }

func (e *fakeEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e *fakeEndpoint) IsAvailable() bool                     { return true }
func (e *fakeEndpoint) Destroy()                              {}
func (e *fakeEndpoint) URL() *model.URL                       { return e.url }

func newEndpoint(host string) *fakeEndpoint {
	return &fakeEndpoint{url: model.NewURL("test", host, 1, "/svc", nil)}
}

func ruleURL(rule string) *model.URL {
	return model.NewURL("test", "rule", 0, "/svc", map[string]string{"rule": rule})
}

func TestRoute_BasicWhenThen(t *testing.T) {
	r, err := New(ruleURL("host = 10.20.153.10 => host = 10.0.0.10"))
	require.NoError(t, err)

	a := newEndpoint("10.0.0.10")
	b := newEndpoint("10.0.0.11")
	endpoints := []model.Endpoint{a, b}

	matchingConsumer := model.NewURL("test", "10.20.153.10", 0, "/svc", nil)
	got := r.Route(endpoints, matchingConsumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, []model.Endpoint{a}, got)

	otherConsumer := model.NewURL("test", "10.20.153.11", 0, "/svc", nil)
	got = r.Route(endpoints, otherConsumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, endpoints, got, "when-side mismatch leaves endpoints untouched")
}

func TestRoute_Blacklist(t *testing.T) {
	r, err := New(ruleURL("host = 172.22.3.91 => false"))
	require.NoError(t, err)

	consumer := model.NewURL("test", "172.22.3.91", 0, "/svc", nil)
	got := r.Route([]model.Endpoint{newEndpoint("a")}, consumer, model.NewCall("Echo", nil, nil))
	assert.Empty(t, got)
}

func TestRoute_NoMatchWithoutForcePassesThrough(t *testing.T) {
	r, err := New(model.NewURL("test", "rule", 0, "/svc", map[string]string{
		"rule": "true => host = 9.9.9.9", "force": "false",
	}))
	require.NoError(t, err)
	endpoints := []model.Endpoint{newEndpoint("1.1.1.1"), newEndpoint("2.2.2.2")}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, endpoints, got)
}

func TestRoute_NoMatchWithForceReturnsEmpty(t *testing.T) {
	r, err := New(ruleURL("host = 9.9.9.9"))
	require.NoError(t, err)
	r.force = true
	endpoints := []model.Endpoint{newEndpoint("1.1.1.1")}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Empty(t, got)
}

func TestRoute_GlobWildcard(t *testing.T) {
	r, err := New(ruleURL("true => host = 10.20.153.*"))
	require.NoError(t, err)
	a := newEndpoint("10.20.153.11")
	b := newEndpoint("10.30.1.1")
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, []model.Endpoint{a}, got)
}

func TestRoute_CIDRHostMatch(t *testing.T) {
	r, err := New(ruleURL("true => host = 10.20.0.0/16"))
	require.NoError(t, err)
	a := newEndpoint("10.20.5.5")
	b := newEndpoint("10.30.5.5")
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, []model.Endpoint{a}, got)
}

func TestRoute_MismatchRule(t *testing.T) {
	r, err := New(ruleURL("true => host != 10.0.0.10"))
	require.NoError(t, err)
	a := newEndpoint("10.0.0.10")
	b := newEndpoint("10.0.0.11")
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, []model.Endpoint{b}, got)
}

func TestRoute_ProtocolSubstitution(t *testing.T) {
	r, err := New(ruleURL("true => host = $protocol://10.20.153.*"))
	require.NoError(t, err)
	a := &fakeEndpoint{url: model.NewURL("grpc", "grpc://10.20.153.11", 1, "/svc", nil)}
	b := &fakeEndpoint{url: model.NewURL("http", "grpc://10.20.153.11", 1, "/svc", nil)}
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)

	got := r.Route(endpoints, consumer, model.NewCall("Echo", nil, nil))
	assert.Equal(t, []model.Endpoint{a}, got, "only the endpoint whose own protocol substitutes into a matching host should survive")
}

func TestNew_EmptyRuleErrors(t *testing.T) {
	_, err := New(ruleURL(""))
	assert.Error(t, err)
}

func TestRouter_PriorityAndRuntime(t *testing.T) {
	r, err := New(model.NewURL("test", "rule", 0, "/svc", map[string]string{
		"rule": "true => host = 1.1.1.1", "priority": "5", "runtime": "false",
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, r.Priority())
	assert.False(t, r.Runtime())
}
