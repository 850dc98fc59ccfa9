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

import "github.com/google/uuid"

// AttachmentCallID is the attachment key a per-call diagnostic id is stored
// under, assigned by NewCall.
const AttachmentCallID = "call.id"

// AttachmentNeedMock is the attachment the terminal mock router reads to
// decide whether to keep or drop mock endpoints from a Directory snapshot.
const AttachmentNeedMock = "invocation.need.mock"

// Call is a per-request value. It carries no transport state: everything a
// router, load balancer, or cluster invoker needs to decide dispatch behavior
// is either here or in the consumer URL.
type Call struct {
	MethodName     string
	ParameterTypes []string
	Arguments      []interface{}
	Attachments    map[string]string
}

// NewCall builds a Call with a fresh attachment map holding a new diagnostic
// call id.
func NewCall(method string, paramTypes []string, args []interface{}) *Call {
	c := &Call{
		MethodName:     method,
		ParameterTypes: paramTypes,
		Arguments:      args,
		Attachments:    make(map[string]string),
	}
	c.Attachments[AttachmentCallID] = uuid.NewString()
	return c
}

// Attachment returns an attachment value, or "" if absent.
func (c *Call) Attachment(key string) string {
	if c.Attachments == nil {
		return ""
	}
	return c.Attachments[key]
}

// SetAttachment sets an attachment, creating the map on first use.
func (c *Call) SetAttachment(key, value string) {
	if c.Attachments == nil {
		c.Attachments = make(map[string]string)
	}
	c.Attachments[key] = value
}

// ClearAttachments empties the ambient call-scoped attachment map. Used by
// the forking invoker on every exit path, including the timeout path, per
// ForkingClusterInvoker's finally block.
func (c *Call) ClearAttachments() {
	for k := range c.Attachments {
		delete(c.Attachments, k)
	}
}

// Clone returns a shallow copy of c with its own attachment map, so a forked
// invocation's attachment writes can't race with the sibling forks sharing
// the same Call.
func (c *Call) Clone() *Call {
	cp := &Call{
		MethodName:     c.MethodName,
		ParameterTypes: c.ParameterTypes,
		Arguments:      c.Arguments,
		Attachments:    make(map[string]string, len(c.Attachments)),
	}
	for k, v := range c.Attachments {
		cp.Attachments[k] = v
	}
	return cp
}
