package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"clustercore/pkg/extension/common"
)

func TestReporter_ReportStatIncrementsCounter(t *testing.T) {
	r := New(Config{})

	r.ReportStat(common.StatEventRetry, "orders", "Get")
	r.ReportStat(common.StatEventRetry, "orders", "Get")
	r.ReportStat(common.StatEventDispatch, "orders", "Get")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.events.WithLabelValues("retry", "orders", "Get")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.events.WithLabelValues("dispatch", "orders", "Get")))
}

func TestReporter_DestroyWithoutInitIsNoop(t *testing.T) {
	r := New(Config{})
	assert.NoError(t, r.Destroy())
}

func TestConfig_SetDefaultFillsAddress(t *testing.T) {
	var cfg Config
	cfg.SetDefault()
	assert.Equal(t, DefaultListenAddress, cfg.Address)
}

func TestReporter_NameAndType(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, Name, r.Name())
	assert.Equal(t, common.TypeStatReporter, r.Type())
}
