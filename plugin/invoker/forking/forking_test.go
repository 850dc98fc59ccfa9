package forking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clustercore/pkg/model"
	"clustercore/plugin/invoker/internal/invokertest"
)

func TestInvoke_TimeoutWhenAllChildrenAreSlow(t *testing.T) {
	sleepy := func() func() {
		return func() { time.Sleep(500 * time.Millisecond) }
	}
	a := invokertest.NewEndpoint("A", model.NewValueResult("ok", nil))
	a.Sleep = sleepy()
	b := invokertest.NewEndpoint("B", model.NewValueResult("ok", nil))
	b.Sleep = sleepy()
	c := invokertest.NewEndpoint("C", model.NewValueResult("ok", nil))
	c.Sleep = sleepy()

	dir := invokertest.NewDirectory(map[string]string{"forks": "3", "timeout": "100"},
		[]model.Endpoint{a, b, c})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	start := time.Now()
	result := inv.Invoke(call)
	elapsed := time.Since(start)

	assert.True(t, result.HasException())
	assert.Equal(t, model.ErrCodeTimeout, result.ErrCode())
	assert.Less(t, elapsed, 400*time.Millisecond, "caller must unblock near the timeout, not the slowest child")
}

func TestInvoke_FirstSuccessWinsOverLaterFailures(t *testing.T) {
	fast := invokertest.NewEndpoint("fast", model.NewValueResult("ok", nil))
	slowFail := invokertest.NewEndpoint("slow",
		model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "boom")))
	slowFail.Sleep = func() { time.Sleep(20 * time.Millisecond) }

	dir := invokertest.NewDirectory(map[string]string{"forks": "2", "timeout": "1000"},
		[]model.Endpoint{fast, slowFail})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.False(t, result.HasException())
	assert.Equal(t, "ok", result.Value)
}

func TestInvoke_AllFailuresSurfaceLastError(t *testing.T) {
	a := invokertest.NewEndpoint("A", model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "a down")))
	b := invokertest.NewEndpoint("B", model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "b down")))

	dir := invokertest.NewDirectory(map[string]string{"forks": "2", "timeout": "1000"},
		[]model.Endpoint{a, b})

	inv := New(dir, invokertest.NewRegistry(), true)
	call := model.NewCall("Echo", nil, nil)

	result := inv.Invoke(call)

	assert.True(t, result.HasException())
	_, ok := result.Err.(*model.AggregatedError)
	assert.True(t, ok)
}
