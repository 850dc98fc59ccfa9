/**
 * Tencent is pleased to support the open source community by making polaris-go available.
 *
 * Copyright (C) 2019 THL A29 Limited, a Tencent company. All rights reserved.
 *
 * Licensed under the BSD 3-Clause License (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * https://opensource.org/licenses/BSD-3-Clause
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

// Package config is the yaml-driven configuration layer: a Config loaded
// from disk carries the process-wide defaults every consumerURL is built
// with (cluster invoker name, load balancer name, retry/fork counts,
// timeouts, sticky sessions), via a BaseConfig (Verify/SetDefault) contract
// applied per-domain over a flat default-value table.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"clustercore/pkg/model"
)

// Default values for every concern the dispatch engine actually has.
const (
	DefaultConfigFile     = "~/.clustercore/clustercore.yaml"
	DefaultCluster        = "failover"
	DefaultLoadBalancer   = "random"
	DefaultRetries        = 2
	DefaultForks          = 2
	DefaultTimeout        = 1000 * time.Millisecond
	DefaultAvailableCheck = true
	DefaultSticky         = false

	DefaultLogRotationMaxSize    = 100
	DefaultLogRotationMaxAge     = 7
	DefaultLogRotationMaxBackups = 10
)

// BaseConfig is the self-verifying, self-defaulting contract every config
// section satisfies.
type BaseConfig interface {
	Verify() error
	SetDefault()
}

// ClusterConfig configures the dispatch engine: which ClusterInvoker and
// LoadBalancer names resolve by default, and the per-call knobs a consumer
// URL is seeded with absent an explicit per-method override.
type ClusterConfig struct {
	Cluster        string        `yaml:"cluster"`
	LoadBalancer   string        `yaml:"loadbalancer"`
	Retries        int           `yaml:"retries"`
	Forks          int           `yaml:"forks"`
	Timeout        time.Duration `yaml:"timeout"`
	// AvailableCheck and Sticky are pointers so that an explicit "false" in
	// yaml is distinguishable from "not set" — SetDefault only fills nil.
	AvailableCheck *bool `yaml:"availablecheck"`
	Sticky         *bool `yaml:"sticky"`
}

// GetAvailableCheck returns the effective availablecheck value.
func (c *ClusterConfig) GetAvailableCheck() bool { return c.AvailableCheck != nil && *c.AvailableCheck }

// GetSticky returns the effective sticky value.
func (c *ClusterConfig) GetSticky() bool { return c.Sticky != nil && *c.Sticky }

func boolPtr(b bool) *bool { return &b }

// SetDefault fills every unset field with the package defaults.
func (c *ClusterConfig) SetDefault() {
	if c.Cluster == "" {
		c.Cluster = DefaultCluster
	}
	if c.LoadBalancer == "" {
		c.LoadBalancer = DefaultLoadBalancer
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Forks == 0 {
		c.Forks = DefaultForks
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AvailableCheck == nil {
		c.AvailableCheck = boolPtr(DefaultAvailableCheck)
	}
	if c.Sticky == nil {
		c.Sticky = boolPtr(DefaultSticky)
	}
}

// Verify checks that the cluster section holds consistent values.
func (c *ClusterConfig) Verify() error {
	if c.Retries < 0 {
		return fmt.Errorf("cluster.retries must be >= 0, got %d", c.Retries)
	}
	if c.Forks < 0 {
		return fmt.Errorf("cluster.forks must be >= 0, got %d", c.Forks)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("cluster.timeout must be >= 0, got %v", c.Timeout)
	}
	return nil
}

// LogConfig configures the process-wide rotating logger.
type LogConfig struct {
	Directory      string `yaml:"directory"`
	Level          string `yaml:"level"`
	RotationMaxSize    int `yaml:"rotationMaxSize"`
	RotationMaxAge     int `yaml:"rotationMaxAge"`
	RotationMaxBackups int `yaml:"rotationMaxBackups"`
}

// SetDefault fills every unset field with the package defaults.
func (l *LogConfig) SetDefault() {
	if l.Directory == "" {
		l.Directory = "./log"
	}
	if l.Level == "" {
		l.Level = "INFO"
	}
	if l.RotationMaxSize == 0 {
		l.RotationMaxSize = DefaultLogRotationMaxSize
	}
	if l.RotationMaxAge == 0 {
		l.RotationMaxAge = DefaultLogRotationMaxAge
	}
	if l.RotationMaxBackups == 0 {
		l.RotationMaxBackups = DefaultLogRotationMaxBackups
	}
}

// Verify checks that the log section holds consistent values.
func (l *LogConfig) Verify() error {
	switch l.Level {
	case "", "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "FATAL", "NONE":
		return nil
	default:
		return fmt.Errorf("log.level %q is not a recognized severity", l.Level)
	}
}

// Config is the top-level, yaml-tagged configuration document.
type Config struct {
	Cluster ClusterConfig `yaml:"cluster"`
	Log     LogConfig     `yaml:"log"`
}

// SetDefault applies every section's defaults.
func (c *Config) SetDefault() {
	c.Cluster.SetDefault()
	c.Log.SetDefault()
}

// Verify validates every section, reporting the first failure encountered.
func (c *Config) Verify() error {
	if err := c.Cluster.Verify(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Log.Verify(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a Config with every section at its default value.
func NewDefaultConfig() *Config {
	c := &Config{}
	c.SetDefault()
	return c
}

// Load reads and parses path (expanding a leading "~" via go-homedir) into a
// Config, filling gaps with defaults and verifying the result.
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: expand path %q: %w", path, err)
	}
	raw, err := ioutil.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", expanded, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", expanded, err)
	}
	cfg.SetDefault()
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyToConsumerURL seeds url's global parameters with this config's
// cluster defaults, for any parameter the URL doesn't already declare.
func (c *ClusterConfig) ApplyToConsumerURL(url *model.URL) *model.URL {
	out := url
	defaults := map[string]string{
		"cluster":               c.Cluster,
		"loadbalance":           c.LoadBalancer,
		"retries":               fmt.Sprintf("%d", c.Retries),
		"forks":                 fmt.Sprintf("%d", c.Forks),
		"timeout":               fmt.Sprintf("%d", c.Timeout.Milliseconds()),
		"cluster.availablecheck": fmt.Sprintf("%t", c.GetAvailableCheck()),
		"sticky":                fmt.Sprintf("%t", c.GetSticky()),
	}
	for k, v := range defaults {
		if out.Param(k, "") == "" {
			out = out.WithParam(k, v)
		}
	}
	return out
}
