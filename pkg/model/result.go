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

// Result is either a value (opaque payload plus reply attachments) or an
// exception. Exceptions carry an ErrCode; BIZ-coded results must never cause
// a fail-over retry.
type Result struct {
	Value       interface{}
	Attachments map[string]string
	Err         SDKError
}

// NewValueResult wraps a successful payload.
func NewValueResult(value interface{}, attachments map[string]string) *Result {
	return &Result{Value: value, Attachments: attachments}
}

// NewExceptionResult wraps a failure.
func NewExceptionResult(err SDKError) *Result {
	return &Result{Err: err}
}

// EmptyResult is what fail-safe and fail-back return to the caller in place
// of a propagated error.
func EmptyResult() *Result {
	return &Result{Attachments: map[string]string{}}
}

// HasException reports whether this Result is an exception rather than a value.
func (r *Result) HasException() bool {
	return r.Err != nil
}

// ErrCode returns the result's error code, or ErrCodeUnknown if this is not
// an exception result (callers should check HasException first).
func (r *Result) ErrCode() ErrCode {
	if r.Err == nil {
		return ErrCodeUnknown
	}
	return r.Err.ErrorCode()
}

// IsBiz reports whether this is a BIZ-coded exception result — the one
// result kind that must never trigger a fail-over retry.
func (r *Result) IsBiz() bool {
	return r.HasException() && r.ErrCode() == ErrCodeBiz
}
