// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"context"

	"github.com/tochemey/courier/log"
)

// Context is handed to every hook of an actor instance.
// A fresh Context is built each time the lifecycle (re)starts.
type Context struct {
	ctx      context.Context
	state    State
	name     string
	instance int
	restarts int
	logger   log.Logger
	observer Observer
}

func newContext(ctx context.Context, name string, instance, restarts int, logger log.Logger, mailbox *mailbox) *Context {
	return &Context{
		ctx:      ctx,
		name:     name,
		instance: instance,
		restarts: restarts,
		logger:   logger,
		observer: Observer{mailbox: mailbox},
	}
}

// Context returns the context of the instance. It is cancelled when the pool is aborted,
// so long running handlers should watch it.
func (c *Context) Context() context.Context {
	return c.ctx
}

// State returns the lifecycle state. It reads StateAbort while Recover runs.
func (c *Context) State() State {
	return c.state
}

// Name returns the name of the broker the instance belongs to
func (c *Context) Name() string {
	return c.name
}

// Instance returns the index of the instance within its pool
func (c *Context) Instance() int {
	return c.instance
}

// Restarts returns the number of restarts the instance went through after a panic
func (c *Context) Restarts() int {
	return c.restarts
}

// Logger returns the logger of the instance
func (c *Context) Logger() log.Logger {
	return c.logger
}

// Observer returns the diagnostics of the mailbox shared by the pool
func (c *Context) Observer() Observer {
	return c.observer
}

// ReceiveContext is the Context of a message being handled
type ReceiveContext struct {
	self    *Context
	message any
}

func newReceiveContext(ctx *Context, message any) *ReceiveContext {
	return &ReceiveContext{self: ctx, message: message}
}

// Message returns the message being handled
func (c *ReceiveContext) Message() any {
	return c.message
}

// Self returns the Context of the instance handling the message
func (c *ReceiveContext) Self() *Context {
	return c.self
}

// Context returns the context of the instance. It is cancelled when the pool is aborted.
func (c *ReceiveContext) Context() context.Context {
	return c.self.ctx
}

// State returns the lifecycle state of the instance
func (c *ReceiveContext) State() State {
	return c.self.state
}

// Name returns the name of the broker the instance belongs to
func (c *ReceiveContext) Name() string {
	return c.self.name
}

// Instance returns the index of the instance within its pool
func (c *ReceiveContext) Instance() int {
	return c.self.instance
}

// Restarts returns the number of restarts the instance went through after a panic
func (c *ReceiveContext) Restarts() int {
	return c.self.restarts
}

// Logger returns the logger of the instance
func (c *ReceiveContext) Logger() log.Logger {
	return c.self.logger
}

// Observer returns the diagnostics of the mailbox shared by the pool
func (c *ReceiveContext) Observer() Observer {
	return c.self.observer
}

// Observer exposes read-only diagnostics of a mailbox.
// It does not hold the mailbox: observing never keeps a pool alive.
type Observer struct {
	mailbox *mailbox
}

// Holders returns the number of live Address handles
func (o Observer) Holders() int64 {
	return o.mailbox.holders.Load()
}

// Pending returns the number of queued messages
func (o Observer) Pending() int {
	return o.mailbox.len()
}

// Capacity returns the mailbox bound
func (o Observer) Capacity() int {
	return o.mailbox.capacity()
}

// Alive returns the number of running instances of the pool
func (o Observer) Alive() int64 {
	return o.mailbox.alive.Load()
}
