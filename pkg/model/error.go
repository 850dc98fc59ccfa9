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
	"strings"

	"github.com/pkg/errors"
)

// ErrCode is the taxonomy every SDKError is tagged with.
type ErrCode int32

const (
	// ErrCodeUnknown covers anything not otherwise classified.
	ErrCodeUnknown ErrCode = iota
	// ErrCodeNetwork is a transport failure; retriable.
	ErrCodeNetwork
	// ErrCodeTimeout is a deadline exceeded; retriable.
	ErrCodeTimeout
	// ErrCodeBiz is an application-raised error at the remote side; never retried.
	ErrCodeBiz
	// ErrCodeForbidden is a policy rejection.
	ErrCodeForbidden
	// ErrCodeNoProvider means the directory returned an empty endpoint list.
	ErrCodeNoProvider
	// ErrCodeConfig covers an invalid router rule, bad URL, or malformed config.
	ErrCodeConfig
	// ErrCodeNoSuchExtension: ExtensionRegistry could not resolve a name.
	ErrCodeNoSuchExtension
	// ErrCodeCyclicDefault: a class is marked both default and adaptive for one interface.
	ErrCodeCyclicDefault
	// ErrCodeDuplicateName: two plain implementations registered under the same name.
	ErrCodeDuplicateName
	// ErrCodeMultipleAdaptive: more than one adaptive implementation declared for one interface.
	ErrCodeMultipleAdaptive
)

var errCodeName = map[ErrCode]string{
	ErrCodeUnknown:          "UNKNOWN",
	ErrCodeNetwork:          "NETWORK",
	ErrCodeTimeout:          "TIMEOUT",
	ErrCodeBiz:              "BIZ",
	ErrCodeForbidden:        "FORBIDDEN",
	ErrCodeNoProvider:       "NO_PROVIDER",
	ErrCodeConfig:           "CONFIG",
	ErrCodeNoSuchExtension:  "NO_SUCH_EXTENSION",
	ErrCodeCyclicDefault:    "CYCLIC_DEFAULT",
	ErrCodeDuplicateName:    "DUPLICATE_NAME",
	ErrCodeMultipleAdaptive: "MULTIPLE_ADAPTIVE",
}

// String renders an ErrCode as its taxonomy name.
func (e ErrCode) String() string {
	if name, ok := errCodeName[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// Retryable reports whether the code is a transport-level failure (NETWORK or
// TIMEOUT). The fail-over invoker does not consult it: it retries every code
// except BIZ, which never triggers a retry.
func (e ErrCode) Retryable() bool {
	return e == ErrCodeNetwork || e == ErrCodeTimeout
}

// SDKError is the error type every cluster dispatch failure is surfaced as.
type SDKError interface {
	error
	ErrorCode() ErrCode
	Cause() error
}

type sdkError struct {
	errCode ErrCode
	detail  string
	cause   error
}

func (s *sdkError) ErrorCode() ErrCode { return s.errCode }

func (s *sdkError) Cause() error { return s.cause }

func (s *sdkError) Error() string {
	if s.cause != nil {
		return fmt.Sprintf("clustercore-%s: %s, cause: %s", s.errCode, s.detail, s.cause.Error())
	}
	return fmt.Sprintf("clustercore-%s: %s", s.errCode, s.detail)
}

// NewSDKError builds an SDKError carrying an optional cause. The returned error
// does not itself capture a stack trace; use NewSDKErrorWithStack where one
// is wanted. The fail-over/broadcast aggregated terminal error gets its stack
// from cluster.NewAggregatedError.
func NewSDKError(code ErrCode, cause error, msg string, args ...interface{}) SDKError {
	return &sdkError{errCode: code, detail: fmt.Sprintf(msg, args...), cause: cause}
}

// NewSDKErrorWithStack wraps cause with github.com/pkg/errors.WithStack before
// attaching it, recording the stack of this call; formatting Cause() with %+v
// prints that stack. Error() itself carries only the messages.
func NewSDKErrorWithStack(code ErrCode, cause error, msg string, args ...interface{}) SDKError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &sdkError{errCode: code, detail: fmt.Sprintf(msg, args...), cause: wrapped}
}

// AggregatedError is the terminal exception fail-over and broadcast raise after
// every tried endpoint has failed: it names every tried endpoint and the last
// error, which cluster.NewAggregatedError wraps with a stack trace.
type AggregatedError struct {
	Code         ErrCode
	TriedURLs    []string
	LastErr      error
	ServiceKey   string
	ConsumerAddr string
}

func (a *AggregatedError) Error() string {
	return fmt.Sprintf("clustercore-%s: service=%s consumer=%s tried=[%s], last error: %v",
		a.Code, a.ServiceKey, a.ConsumerAddr, strings.Join(a.TriedURLs, ", "), a.LastErr)
}

func (a *AggregatedError) ErrorCode() ErrCode { return a.Code }

func (a *AggregatedError) Cause() error { return a.LastErr }

// Format implements fmt.Formatter so that fmt.Sprintf("%+v", err) surfaces the
// last tried endpoint's stack trace, when the underlying error carries one.
func (a *AggregatedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s\n%+v", a.Error(), a.LastErr)
			return
		}
		fmt.Fprint(s, a.Error())
	default:
		fmt.Fprint(s, a.Error())
	}
}
