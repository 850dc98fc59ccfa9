package random

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

func newEndpoint(host string, weight string) *fakeEndpoint {
	var params map[string]string
	if weight != "" {
		params = map[string]string{"weight": weight}
	}
	return &fakeEndpoint{url: model.NewURL("test", host, 1, "/svc", params)}
}

func TestSelect_WeightSkewsDistribution(t *testing.T) {
	light := newEndpoint("light", "1")
	heavy := newEndpoint("heavy", "999")
	endpoints := []model.Endpoint{light, heavy}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	lb := New()

	counts := map[model.Endpoint]int{}
	for i := 0; i < 500; i++ {
		got := lb.Select(endpoints, consumer, model.NewCall("Echo", nil, nil))
		counts[got]++
	}
	assert.Greater(t, counts[heavy], counts[light])
}

func TestSelect_EqualWeightsFallBackToUniform(t *testing.T) {
	a := newEndpoint("a", "")
	b := newEndpoint("b", "")
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	lb := New()

	seen := map[model.Endpoint]bool{}
	for i := 0; i < 50; i++ {
		seen[lb.Select(endpoints, consumer, model.NewCall("Echo", nil, nil))] = true
	}
	assert.Len(t, seen, 2, "both endpoints should eventually be picked")
}

func TestSelect_EmptyAndSingleton(t *testing.T) {
	lb := New()
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	call := model.NewCall("Echo", nil, nil)

	assert.Nil(t, lb.Select(nil, consumer, call))

	only := newEndpoint("solo", "")
	assert.Same(t, only, lb.Select([]model.Endpoint{only}, consumer, call))
}
