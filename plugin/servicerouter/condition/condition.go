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

// Package condition implements condition-expression routing: a rule of the
// form "consumerPattern => providerPattern" is parsed into a when/then
// key-value match table, and Route keeps only the endpoints whose URL
// satisfies the then side, but only for calls whose consumer URL already
// satisfies the when side.
package condition

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	dlregexp "github.com/dlclark/regexp2"

	"clustercore/pkg/cluster"
	"clustercore/pkg/log"
	"clustercore/pkg/model"
)

// Name is the registration name for the condition Router plugin family. Each
// rule gets its own *Router instance, built directly from its rule URL by
// New rather than through the extension registry's singleton cache, since a
// process can run many simultaneous condition rules.
const Name = "condition"

// routeTokenPattern splits a rule's when/then half into (separator, token)
// pairs, mirroring ConditionRouter's ROUTE_PATTERN: a leading token has no
// separator, and subsequent tokens are joined by "&", "=", "!=" or ",".
var routeTokenPattern = regexp.MustCompile(`([&!=,]*)\s*([^&!=,\s]+)`)

// matchPair is the accumulated matches/mismatches set for one condition key.
type matchPair struct {
	matches    []string
	mismatches []string
}

func (p *matchPair) isMatch(key, value, protocol string) bool {
	switch {
	case len(p.matches) > 0 && len(p.mismatches) == 0:
		for _, m := range p.matches {
			if globMatch(key, m, value, protocol) {
				return true
			}
		}
		return false
	case len(p.mismatches) > 0 && len(p.matches) == 0:
		for _, m := range p.mismatches {
			if globMatch(key, m, value, protocol) {
				return false
			}
		}
		return true
	case len(p.matches) > 0 && len(p.mismatches) > 0:
		for _, m := range p.mismatches {
			if globMatch(key, m, value, protocol) {
				return false
			}
		}
		for _, m := range p.matches {
			if globMatch(key, m, value, protocol) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// globMatch matches value against pattern. The "host" key additionally
// accepts a CIDR pattern ("10.0.0.0/8"); every other key, and any host
// pattern without a slash, is matched as a '*'/'?' glob. A literal
// "$protocol" token anywhere in pattern is substituted with the comparison
// URL's own protocol before either check runs, so a rule can pin a pattern
// to whatever protocol the endpoint being evaluated actually carries.
func globMatch(key, pattern, value, protocol string) bool {
	if strings.Contains(pattern, "$protocol") {
		pattern = strings.ReplaceAll(pattern, "$protocol", protocol)
	}
	if key == "host" && strings.Contains(pattern, "/") {
		if _, ipnet, err := net.ParseCIDR(pattern); err == nil {
			if ip := net.ParseIP(value); ip != nil {
				return ipnet.Contains(ip)
			}
		}
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return pattern == value
	}
	matched, err := re.MatchString(value)
	return err == nil && matched
}

func compileGlob(pattern string) (*dlregexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			b.WriteString("\\")
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("$")
	return dlregexp.Compile(b.String(), dlregexp.None)
}

func parseRule(rule string) (map[string]*matchPair, error) {
	condition := make(map[string]*matchPair)
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return condition, nil
	}

	matches := routeTokenPattern.FindAllStringSubmatch(rule, -1)
	var pair *matchPair
	var values *[]string

	for _, m := range matches {
		separator, content := m[1], m[2]
		switch separator {
		case "":
			pair = &matchPair{}
			condition[content] = pair
		case "&":
			if existing, ok := condition[content]; ok {
				pair = existing
			} else {
				pair = &matchPair{}
				condition[content] = pair
			}
		case "=":
			if pair == nil {
				return nil, fmt.Errorf("condition: illegal rule %q: '=' before a key", rule)
			}
			pair.matches = append(pair.matches, content)
			values = &pair.matches
		case "!=":
			if pair == nil {
				return nil, fmt.Errorf("condition: illegal rule %q: '!=' before a key", rule)
			}
			pair.mismatches = append(pair.mismatches, content)
			values = &pair.mismatches
		case ",":
			if values == nil || len(*values) == 0 {
				return nil, fmt.Errorf("condition: illegal rule %q: ',' before any value", rule)
			}
			*values = append(*values, content)
		default:
			return nil, fmt.Errorf("condition: illegal rule %q: unexpected separator %q", rule, separator)
		}
	}
	return condition, nil
}

// Router is a single parsed condition rule, ready to filter endpoint lists.
type Router struct {
	url      *model.URL
	priority int
	force    bool
	runtime  bool
	when     map[string]*matchPair
	then     map[string]*matchPair // nil means "blacklist": then-side disabled entirely
}

// New parses ruleURL's "rule", "priority", "force" and "runtime" parameters
// into a Router. The rule text has the form "when => then"; a missing
// "=>" treats the whole rule as the then side with an unconditional when.
func New(ruleURL *model.URL) (*Router, error) {
	rule := ruleURL.Param("rule", "")
	if strings.TrimSpace(rule) == "" {
		return nil, fmt.Errorf("condition: empty rule")
	}
	rule = strings.ReplaceAll(rule, "consumer.", "")
	rule = strings.ReplaceAll(rule, "provider.", "")

	whenRule, thenRule := rule, ""
	if i := strings.Index(rule, "=>"); i >= 0 {
		whenRule = strings.TrimSpace(rule[:i])
		thenRule = strings.TrimSpace(rule[i+2:])
	} else {
		whenRule = ""
		thenRule = strings.TrimSpace(rule)
	}

	var when map[string]*matchPair
	var err error
	if whenRule == "" || whenRule == "true" {
		when = map[string]*matchPair{}
	} else {
		when, err = parseRule(whenRule)
		if err != nil {
			return nil, err
		}
	}

	var then map[string]*matchPair
	if thenRule == "" || thenRule == "false" {
		then = nil
	} else {
		then, err = parseRule(thenRule)
		if err != nil {
			return nil, err
		}
	}

	return &Router{
		url:      ruleURL,
		priority: ruleURL.ParamInt("priority", 0),
		force:    ruleURL.ParamBool("force", false),
		runtime:  ruleURL.ParamBool("runtime", true),
		when:     when,
		then:     then,
	}, nil
}

func matchCondition(condition map[string]*matchPair, sample func(key string) (string, bool), protocol string, call *model.Call) bool {
	result := false
	for key, pair := range condition {
		var value string
		var ok bool
		if call != nil && (key == "method" || key == "methods") {
			value, ok = call.MethodName, true
		} else {
			value, ok = sample(key)
		}
		if ok {
			if !pair.isMatch(key, value, protocol) {
				return false
			}
			result = true
			continue
		}
		if len(pair.matches) > 0 {
			return false
		}
		result = true
	}
	return result
}

func urlSample(u *model.URL) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if key == "host" {
			return u.Host(), true
		}
		if v := u.Param(key, ""); v != "" {
			return v, true
		}
		if v := u.Param("default."+key, ""); v != "" {
			return v, true
		}
		return "", false
	}
}

func (r *Router) matchWhen(consumerURL *model.URL, call *model.Call) bool {
	if len(r.when) == 0 {
		return true
	}
	return matchCondition(r.when, urlSample(consumerURL), consumerURL.Protocol(), call)
}

func (r *Router) matchThen(endpointURL *model.URL) bool {
	if len(r.then) == 0 {
		return false
	}
	return matchCondition(r.then, urlSample(endpointURL), endpointURL.Protocol(), nil)
}

// Route filters endpoints per the rule: when the when-side doesn't match the
// consumer URL, the rule doesn't apply and endpoints pass through unchanged.
// A nil then-side blacklists the consumer entirely (empty result). Otherwise
// only endpoints matching the then-side survive; if none do and the rule
// isn't forced, the rule is treated as ineffective and endpoints pass
// through unchanged, matching ConditionRouter's non-force behavior.
func (r *Router) Route(endpoints []model.Endpoint, consumerURL *model.URL, call *model.Call) []model.Endpoint {
	if len(endpoints) == 0 {
		return endpoints
	}
	if !r.matchWhen(consumerURL, call) {
		return endpoints
	}
	if r.then == nil {
		log.GetStatLogger().Warnf("condition: consumer %s is blacklisted by rule %s", consumerURL.Address(), r.url.Param("rule", ""))
		return nil
	}

	kept := make([]model.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if r.matchThen(ep.URL()) {
			kept = append(kept, ep)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	if r.force {
		log.GetStatLogger().Warnf("condition: rule %s matched no endpoint and force=true, returning empty", r.url.Param("rule", ""))
		return kept
	}
	return endpoints
}

func (r *Router) Priority() int     { return r.priority }
func (r *Router) Runtime() bool     { return r.runtime }
func (r *Router) URL() *model.URL   { return r.url }

var _ cluster.Router = (*Router)(nil)
