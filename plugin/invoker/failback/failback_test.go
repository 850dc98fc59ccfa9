package failback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clustercore/pkg/model"
	"clustercore/plugin/invoker/internal/invokertest"
)

func TestInvoke_AcknowledgesImmediatelyOnFailure(t *testing.T) {
	a := invokertest.NewEndpoint("A", model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "boom")))
	dir := invokertest.NewDirectory(nil, []model.Endpoint{a})

	inv := New(dir, invokertest.NewRegistry(), true)
	result := inv.Invoke(model.NewCall("Echo", nil, nil))

	assert.False(t, result.HasException(), "fail-back must acknowledge success even when the attempt failed")
}

func TestInvoke_SuccessReturnsEmptyResultToo(t *testing.T) {
	a := invokertest.NewEndpoint("A", model.NewValueResult("ok", nil))
	dir := invokertest.NewDirectory(nil, []model.Endpoint{a})

	inv := New(dir, invokertest.NewRegistry(), true)
	result := inv.Invoke(model.NewCall("Echo", nil, nil))

	assert.False(t, result.HasException())
	assert.Equal(t, 1, a.CallCount())
}

// TestStopWorker_DestroysTheSharedRunContext exercises the RunContext the
// shared retry worker is bounded by: once a failing Invoke has started the
// worker, StopWorker must actually cancel it rather than leaving it running
// for the rest of the process.
func TestStopWorker_DestroysTheSharedRunContext(t *testing.T) {
	a := invokertest.NewEndpoint("A", model.NewExceptionResult(model.NewSDKError(model.ErrCodeNetwork, nil, "boom")))
	dir := invokertest.NewDirectory(nil, []model.Endpoint{a})
	inv := New(dir, invokertest.NewRegistry(), true)
	inv.Invoke(model.NewCall("Echo", nil, nil))

	require.NotNil(t, workerRun, "a failing Invoke must have started the shared worker")
	StopWorker()
	assert.True(t, workerRun.IsDestroyed())

	// Calling StopWorker again, or before any worker ever started, must not panic.
	StopWorker()
}
