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

package directory

import (
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"clustercore/pkg/cluster"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// etcdKeyPrefix roots every instance key this package writes or watches,
// e.g. "/clustercore/orders/10.0.0.1:9000".
const etcdKeyPrefix = "/clustercore/"

// Instance is the JSON payload stored at one etcd key.
type Instance struct {
	Protocol string            `json:"protocol"`
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	Params   map[string]string `json:"params,omitempty"`
}

// Etcd is a cluster.Directory whose membership tracks a live etcd registry
// prefix, re-fetching the full instance list on every watch event rather
// than reconciling individual puts/deletes — simpler, and cheap enough at
// registry scale, following the etcd reference registry's Watch loop.
type Etcd struct {
	*cluster.AbstractDirectory

	client      *clientv3.Client
	service     string
	invoke      InvokeFunc
	cancelWatch context.CancelFunc
}

func instanceKeyPrefix(service string) string {
	return fmt.Sprintf("%s%s/", etcdKeyPrefix, service)
}

// NewEtcd dials endpoints, performs an initial Discover, and starts a watch
// goroutine that calls RefreshMembership on every prefix change.
func NewEtcd(endpoints []string, service string, consumerURL *model.URL,
	routers []cluster.Router, invoke InvokeFunc) (*Etcd, error) {

	client, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, fmt.Errorf("directory: dial etcd: %w", err)
	}

	d := &Etcd{client: client, service: service, invoke: invoke}

	base, err := cluster.NewAbstractDirectory(consumerURL, routers, d.discover)
	if err != nil {
		client.Close()
		return nil, err
	}
	d.AbstractDirectory = base

	ctx, cancel := context.WithCancel(context.Background())
	d.cancelWatch = cancel
	go d.watch(ctx)

	return d, nil
}

func (d *Etcd) discover() ([]model.Endpoint, error) {
	ctx := context.Background()
	resp, err := d.client.Get(ctx, instanceKeyPrefix(d.service), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("directory: discover %s: %w", d.service, err)
	}

	endpoints := make([]model.Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			log.GetBaseLogger().Warnf("directory: skipping malformed instance at %s: %v", kv.Key, err)
			continue
		}
		url := model.NewURL(inst.Protocol, inst.Host, inst.Port, d.ConsumerURL().Path(), inst.Params)
		endpoints = append(endpoints, NewEndpoint(url, d.invoke))
	}
	return endpoints, nil
}

func (d *Etcd) watch(ctx context.Context) {
	watchChan := d.client.Watch(ctx, instanceKeyPrefix(d.service), clientv3.WithPrefix())
	for range watchChan {
		if err := d.RefreshMembership(); err != nil {
			log.GetBaseLogger().Errorf("directory: refresh membership for %s: %v", d.service, err)
		}
	}
}

// Destroy stops the watch goroutine, closes the etcd client, and marks the
// directory unusable.
func (d *Etcd) Destroy() {
	d.cancelWatch()
	d.client.Close()
	d.AbstractDirectory.Destroy()
}

var _ cluster.Directory = (*Etcd)(nil)
