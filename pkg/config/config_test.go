package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clustercore/pkg/model"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, DefaultCluster, cfg.Cluster.Cluster)
	assert.Equal(t, DefaultLoadBalancer, cfg.Cluster.LoadBalancer)
	assert.True(t, cfg.Cluster.GetAvailableCheck())
	assert.False(t, cfg.Cluster.GetSticky())
	require.NoError(t, cfg.Verify())
}

func TestClusterConfig_VerifyRejectsNegatives(t *testing.T) {
	c := ClusterConfig{Retries: -1}
	c.SetDefault()
	assert.Error(t, c.Verify())
}

func TestLogConfig_VerifyRejectsUnknownLevel(t *testing.T) {
	l := LogConfig{Level: "NOISY"}
	assert.Error(t, l.Verify())
}

func TestApplyToConsumerURL_DoesNotOverrideExplicitParams(t *testing.T) {
	cfg := NewDefaultConfig()
	url := model.NewURL("test", "h", 1, "/svc", map[string]string{"cluster": "broadcast"})

	applied := cfg.Cluster.ApplyToConsumerURL(url)
	assert.Equal(t, "broadcast", applied.Param("cluster", ""))
	assert.Equal(t, DefaultLoadBalancer, applied.Param("loadbalance", ""))
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/clustercore.yaml")
	assert.Error(t, err)
}
