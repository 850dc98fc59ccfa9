package failover

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
	"clustercore/plugin/invoker/internal/invokertest"
)

func TestInvoke_HappyPath(t *testing.T) {
	a := invokertest.NewEndpoint("A", model.NewValueResult("ok", nil))
	b := invokertest.NewEndpoint("B", model.NewValueResult("ok", nil))
	c := invokertest.NewEndpoint("C", model.NewValueResult("ok", nil))
	dir := invokertest.NewDirectory(map[string]string{"retries": "2"},
		[]model.Endpoint{a, b, c})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.False(t, result.HasException())
	total := a.CallCount() + b.CallCount() + c.CallCount()
	assert.Equal(t, 1, total, "exactly one endpoint should have been invoked")
}

func TestInvoke_ExhaustionAggregatesAllTried(t *testing.T) {
	netErr := func() *model.Result {
		return model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "boom"))
	}
	a := invokertest.NewEndpoint("A", netErr())
	b := invokertest.NewEndpoint("B", netErr())
	c := invokertest.NewEndpoint("C", netErr())
	dir := invokertest.NewDirectory(map[string]string{"retries": "2"},
		[]model.Endpoint{a, b, c})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.True(t, result.HasException())
	total := a.CallCount() + b.CallCount() + c.CallCount()
	assert.Equal(t, 3, total)

	agg, ok := result.Err.(*model.AggregatedError)
	assert.True(t, ok)
	assert.Len(t, agg.TriedURLs, 3)
}

func TestInvoke_BizShortCircuits(t *testing.T) {
	bizErr := model.NewExceptionResult(model.NewSDKError(model.ErrCodeBiz, nil, "bad request"))
	a := invokertest.NewEndpoint("A", bizErr)
	b := invokertest.NewEndpoint("B", model.NewValueResult("ok", nil))
	c := invokertest.NewEndpoint("C", model.NewValueResult("ok", nil))
	dir := invokertest.NewDirectory(map[string]string{"retries": "5"},
		[]model.Endpoint{a, b, c})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.True(t, result.HasException())
	assert.True(t, result.IsBiz())
}

func TestInvoke_NoProviderWithoutContactingAnyEndpoint(t *testing.T) {
	dir := invokertest.NewDirectory(nil, nil)
	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.True(t, result.HasException())
	assert.Equal(t, model.ErrCodeNoProvider, result.ErrCode())
}
