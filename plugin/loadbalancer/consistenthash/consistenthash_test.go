package consistenthash

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
)

type fakeEndpoint struct {
	url *model.URL
}

func (e *fakeEndpoint) Invoke(call *model.Call) *model.Result { return model.NewValueResult(nil, nil) }
func (e *fakeEndpoint) IsAvailable() bool                     { return true }
func (e *fakeEndpoint) Destroy()                              {}
func (e *fakeEndpoint) URL() *model.URL                       { return e.url }

func newEndpoint(host string, port int, params map[string]string) *fakeEndpoint {
	return &fakeEndpoint{url: model.NewURL("test", host, port, "/svc", params)}
}

func TestSelect_SameKeySameEndpoint(t *testing.T) {
	endpoints := []model.Endpoint{
		newEndpoint("a", 1, nil),
		newEndpoint("b", 2, nil),
		newEndpoint("c", 3, nil),
	}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	lb := New()

	call := model.NewCall("Echo", nil, []interface{}{"user-42"})
	first := lb.Select(endpoints, consumer, call)
	for i := 0; i < 20; i++ {
		call2 := model.NewCall("Echo", nil, []interface{}{"user-42"})
		got := lb.Select(endpoints, consumer, call2)
		assert.Same(t, first, got)
	}
}

func TestSelect_MembershipChangeRemapsOnlyAffectedKeys(t *testing.T) {
	endpoints := []model.Endpoint{
		newEndpoint("a", 1, nil),
		newEndpoint("b", 2, nil),
		newEndpoint("c", 3, nil),
	}
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	lb := New()

	keys := []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8"}
	before := make(map[string]model.Endpoint, len(keys))
	for _, k := range keys {
		before[k] = lb.Select(endpoints, consumer, model.NewCall("Echo", nil, []interface{}{k}))
	}

	grown := append(append([]model.Endpoint(nil), endpoints...), newEndpoint("d", 4, nil))
	changed := 0
	for _, k := range keys {
		after := lb.Select(grown, consumer, model.NewCall("Echo", nil, []interface{}{k}))
		if after != before[k] {
			changed++
		}
	}
	assert.Less(t, changed, len(keys), "adding one node should not remap every key")
}

func TestSelect_EmptyAndSingleton(t *testing.T) {
	lb := New()
	consumer := model.NewURL("test", "consumer", 0, "/svc", nil)
	call := model.NewCall("Echo", nil, nil)

	assert.Nil(t, lb.Select(nil, consumer, call))

	only := newEndpoint("solo", 1, nil)
	assert.Same(t, only, lb.Select([]model.Endpoint{only}, consumer, call))
}
