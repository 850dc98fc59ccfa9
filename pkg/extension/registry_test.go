package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clustercore/pkg/extension/common"
)

// testType is a capability Type not used by any real plugin package, so
// these tests exercise the registry in isolation.
const testType common.Type = 9999

type fakePlugin struct {
	name  string
	label string
}

func (p *fakePlugin) Name() string      { return p.name }
func (p *fakePlugin) Type() common.Type { return testType }
func (p *fakePlugin) Destroy() error    { return nil }

func TestGet_SingletonIdentity(t *testing.T) {
	r := NewRegistry()
	builds := 0
	r.Register(testType, "svc", func() (common.Plugin, error) {
		builds++
		return &fakePlugin{name: "svc"}, nil
	})

	first, err := r.Get(testType, "svc")
	require.NoError(t, err)
	second, err := r.Get(testType, "svc")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestGet_WrapperComposition(t *testing.T) {
	r := NewRegistry()
	r.Register(testType, "svc", func() (common.Plugin, error) {
		return &fakePlugin{name: "svc", label: "plain"}, nil
	})
	// W1, then W2: Get must return W2(W1(plain)).
	r.RegisterWrapper(testType, func(inner common.Plugin) (common.Plugin, error) {
		return &fakePlugin{name: inner.Name(), label: inner.(*fakePlugin).label + "+W1"}, nil
	})
	r.RegisterWrapper(testType, func(inner common.Plugin) (common.Plugin, error) {
		return &fakePlugin{name: inner.Name(), label: inner.(*fakePlugin).label + "+W2"}, nil
	})

	inst, err := r.Get(testType, "svc")
	require.NoError(t, err)
	assert.Equal(t, "plain+W1+W2", inst.(*fakePlugin).label)
}

func TestGet_NoSuchExtension(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(testType, "missing")
	assert.Error(t, err)
}

func TestGetActive_OrdersByOrderThenRegistrationIndex(t *testing.T) {
	r := NewRegistry()
	register := func(name string, order int) {
		r.RegisterActivate(testType, name, func() (common.Plugin, error) {
			return &fakePlugin{name: name}, nil
		}, ActivateSpec{Order: order})
	}
	register("b", 1)
	register("a", 1)
	register("c", 0)

	active, err := r.GetActive(testType, nil, "", nil)
	require.NoError(t, err)
	require.Len(t, active, 3)
	var names []string
	for _, p := range active {
		names = append(names, p.Name())
	}
	// c (order 0) first; b before a because it registered first at the
	// same order (regIndex tiebreak).
	assert.Equal(t, []string{"c", "b", "a"}, names)
}

func TestGetActive_BeforeAfterOrdering(t *testing.T) {
	r := NewRegistry()
	register := func(name string, spec ActivateSpec) {
		r.RegisterActivate(testType, name, func() (common.Plugin, error) {
			return &fakePlugin{name: name}, nil
		}, spec)
	}
	// All at the same Order, registered a, b, c, d — but d declares it must
	// come before a, overriding where registration order alone would place it.
	register("a", ActivateSpec{Order: 0})
	register("b", ActivateSpec{Order: 0})
	register("c", ActivateSpec{Order: 0})
	register("d", ActivateSpec{Order: 0, Before: []string{"a"}})

	active, err := r.GetActive(testType, nil, "", nil)
	require.NoError(t, err)
	var names []string
	for _, p := range active {
		names = append(names, p.Name())
	}
	// b and c keep their relative order (unconstrained); d is pulled ahead of
	// a, the only pair actually constrained.
	assert.Equal(t, []string{"b", "c", "d", "a"}, names)

	var dIdx, aIdx int
	for i, n := range names {
		if n == "d" {
			dIdx = i
		}
		if n == "a" {
			aIdx = i
		}
	}
	assert.Less(t, dIdx, aIdx)
}
