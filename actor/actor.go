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

import "github.com/tochemey/courier/errors"

// Actor defines the contract of a unit of state processed one message at a time.
//
// An instance is exclusively owned by its runner: hooks and handlers are never
// invoked concurrently for the same instance, so implementations need no locking.
//
// Every hook returns a Directive telling the runner what to do next:
//  1. Started runs once per lifecycle, before any message is handled
//  2. Receive handles one message and returns its reply together with the next directive
//  3. Stopped runs when the lifecycle ends gracefully, with the position where it stopped
//
// Reset runs when a Reset directive is honored, and after a recovered panic.
// Its directive is evaluated before the next Started: Stop ends the instance
// without starting it again.
//
// Recover runs after a panic escaped a hook or a handler. Returning Reset asks for
// a restart, which is granted while the restart budget of the instance lasts.
// Any other directive terminates the instance.
//
// HandleError runs when Receive returns an error. Its directive replaces the one
// carried by the Result. Errors never go through Recover.
//
// Embed Base to get defaults for everything but Receive.
type Actor interface {
	Started(ctx *Context) Directive
	Receive(ctx *ReceiveContext) Result
	Stopped(ctx *Context, position StoppingPosition) Directive
	Reset(ctx *Context) Directive
	Recover(ctx *Context, err *errors.PanicError) Directive
	HandleError(ctx *Context, message any, err error) Directive
}

// Factory creates an actor instance. It is retried with backoff when it fails.
type Factory func(ctx *Context) (Actor, error)

// Base implements every Actor hook but Receive.
// Its Recover asks for a restart, every other hook continues.
type Base struct{}

// Started implements Actor
func (Base) Started(*Context) Directive {
	return Continue()
}

// Stopped implements Actor
func (Base) Stopped(*Context, StoppingPosition) Directive {
	return Continue()
}

// Reset implements Actor
func (Base) Reset(*Context) Directive {
	return Continue()
}

// Recover implements Actor
func (Base) Recover(ctx *Context, err *errors.PanicError) Directive {
	ctx.Logger().Warnf("recovering from %v", err)
	return Reset()
}

// HandleError implements Actor
func (Base) HandleError(ctx *Context, message any, err error) Directive {
	ctx.Logger().Debugf("handler failed on %T: %v", message, err)
	return Continue()
}

// Result is what Receive returns: the reply sent back to the caller and the
// directive for the runner. A non-nil Err is delivered to the caller instead
// of Value and routed to HandleError.
type Result struct {
	Value any
	Err   error
	Next  Directive
}

// Reply builds a Result carrying value
func Reply(value any) Result {
	return Result{Value: value}
}

// Fail builds a Result carrying err
func Fail(err error) Result {
	return Result{Err: err}
}

// Unhandled builds the Result of a message the actor does not understand
func Unhandled(message any) Result {
	return Fail(errors.NewUnhandledError(message))
}

// Then returns a copy of the Result with the given directive
func (r Result) Then(next Directive) Result {
	r.Next = next
	return r
}
