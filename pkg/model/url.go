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

package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// URL is the sole channel through which configuration flows into the cluster
// dispatch engine. It is an immutable value: every With* method returns a copy.
type URL struct {
	protocol string
	host     string
	port     int
	path     string
	params   map[string]string
	// methodParams holds per-method parameter overlays, keyed by method name
	// then parameter key.
	methodParams map[string]map[string]string
	identity     string
}

// NewURL builds a URL. params may be nil; it is copied, never aliased.
func NewURL(protocol, host string, port int, path string, params map[string]string) *URL {
	u := &URL{
		protocol:     protocol,
		host:         host,
		port:         port,
		path:         path,
		params:       make(map[string]string, len(params)),
		methodParams: make(map[string]map[string]string),
	}
	for k, v := range params {
		u.params[k] = v
	}
	u.identity = uuid.NewString()
	return u
}

// Protocol returns the URL's scheme, e.g. "dubbo".
func (u *URL) Protocol() string { return u.protocol }

// Host returns the URL's host component.
func (u *URL) Host() string { return u.host }

// Port returns the URL's port component.
func (u *URL) Port() int { return u.port }

// Path returns the URL's path, conventionally the service interface name.
func (u *URL) Path() string { return u.path }

// Address renders "host:port". Error messages and the aggregated terminal
// error's tried-endpoint list use it; the WRR load balancer and the
// tried-set bookkeeping key endpoints by Identity instead.
func (u *URL) Address() string {
	return fmt.Sprintf("%s:%d", u.host, u.port)
}

// Identity returns a per-instance stable identifier distinct from Address:
// two URLs pointing at the same address but constructed separately (e.g.
// across a directory refresh) are never confused for the same WRR node when
// their parameters differ, because identity is assigned at construction.
func (u *URL) Identity() string { return u.identity }

// String renders protocol://host:port/path?k=v&... deterministically (params
// sorted) so it can serve as the router pipeline's tie-break key.
func (u *URL) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s://%s:%d%s", u.protocol, u.host, u.port, u.path)
	if len(u.params) == 0 {
		return b.String()
	}
	b.WriteByte('?')
	keys := make([]string, 0, len(u.params))
	for k := range u.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%s", k, u.params[k])
	}
	return b.String()
}

// Param returns the URL parameter named key, or def if absent.
func (u *URL) Param(key, def string) string {
	if v, ok := u.params[key]; ok {
		return v
	}
	return def
}

// ParamInt is Param parsed as an int, falling back to def on parse failure.
func (u *URL) ParamInt(key string, def int) int {
	v, ok := u.params[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ParamBool is Param parsed as a bool, falling back to def on parse failure.
func (u *URL) ParamBool(key string, def bool) bool {
	v, ok := u.params[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ParamInt64 is Param parsed as an int64, falling back to def on parse failure.
func (u *URL) ParamInt64(key string, def int64) int64 {
	v, ok := u.params[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// MethodParam looks up key scoped to method, falling back to the global key
// when no method-specific override exists.
func (u *URL) MethodParam(method, key, def string) string {
	if overlay, ok := u.methodParams[method]; ok {
		if v, ok := overlay[key]; ok {
			return v
		}
	}
	return u.Param(key, def)
}

// MethodParamInt is MethodParam parsed as an int.
func (u *URL) MethodParamInt(method, key string, def int) int {
	v := u.MethodParam(method, key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// WithParam returns a copy of u with key=value set (or overridden) globally.
func (u *URL) WithParam(key, value string) *URL {
	cp := u.clone()
	cp.params[key] = value
	return cp
}

// WithMethodParam returns a copy of u with a method-scoped parameter override.
func (u *URL) WithMethodParam(method, key, value string) *URL {
	cp := u.clone()
	overlay, ok := cp.methodParams[method]
	if !ok {
		overlay = make(map[string]string)
		cp.methodParams[method] = overlay
	}
	overlay[key] = value
	return cp
}

// Params returns a copy of the global parameter map; callers must not mutate
// the URL through it.
func (u *URL) Params() map[string]string {
	out := make(map[string]string, len(u.params))
	for k, v := range u.params {
		out[k] = v
	}
	return out
}

func (u *URL) clone() *URL {
	cp := &URL{
		protocol: u.protocol,
		host:     u.host,
		port:     u.port,
		path:     u.path,
		identity: u.identity,
		params:   make(map[string]string, len(u.params)),
	}
	for k, v := range u.params {
		cp.params[k] = v
	}
	cp.methodParams = make(map[string]map[string]string, len(u.methodParams))
	for m, overlay := range u.methodParams {
		cp2 := make(map[string]string, len(overlay))
		for k, v := range overlay {
			cp2[k] = v
		}
		cp.methodParams[m] = cp2
	}
	return cp
}
