package roundrobin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
)

type fakeEndpoint struct{ url *model.URL }

func (e *fakeEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e *fakeEndpoint) IsAvailable() bool                     { return true }
func (e *fakeEndpoint) Destroy()                              {}
func (e *fakeEndpoint) URL() *model.URL                       { return e.url }

func newEndpoint(host string, params map[string]string) *fakeEndpoint {
	return &fakeEndpoint{url: model.NewURL("test", host, 1, "/svc", params)}
}

func TestSelect_WeightedRoundRobinRatio(t *testing.T) {
	a := newEndpoint("a", map[string]string{"weight": "1", "warmup": "0"})
	b := newEndpoint("b", map[string]string{"weight": "3", "warmup": "0"})
	endpoints := []model.Endpoint{a, b}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	lb := New()

	counts := map[model.Endpoint]int{}
	for i := 0; i < 40; i++ {
		got := lb.Select(endpoints, consumer, model.NewCall("Echo", nil, nil))
		counts[got]++
	}
	assert.InDelta(t, 3, float64(counts[b])/float64(counts[a]), 0.5)
}

func TestEffectiveWeight_WarmupScalesLinearly(t *testing.T) {
	assert.Equal(t, int64(1), effectiveWeight(100, 0, time.Minute))
	assert.Equal(t, int64(50), effectiveWeight(100, 30*time.Second, time.Minute))
	assert.Equal(t, int64(100), effectiveWeight(100, time.Minute, time.Minute))
	assert.Equal(t, int64(100), effectiveWeight(100, time.Hour, time.Minute))
	assert.Equal(t, int64(100), effectiveWeight(100, 0, 0))
}

func TestSelect_EmptyAndSingleton(t *testing.T) {
	lb := New()
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	call := model.NewCall("Echo", nil, nil)

	assert.Nil(t, lb.Select(nil, consumer, call))

	only := newEndpoint("solo", nil)
	assert.Same(t, only, lb.Select([]model.Endpoint{only}, consumer, call))
}
