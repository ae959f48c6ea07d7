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

	"go.uber.org/atomic"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/future"
)

// Address is a handle on the mailbox of a pool. It is the only way to send a message.
//
// Every Address counts as a holder of the mailbox. Clone returns a new holder and
// Release gives one back. Once the last holder is released the mailbox stops
// accepting messages and the pool drains it before stopping at EndPosition.
type Address struct {
	name     string
	mailbox  *mailbox
	released *atomic.Bool
}

func newAddress(name string, mailbox *mailbox) *Address {
	mailbox.holders.Inc()
	return &Address{
		name:     name,
		mailbox:  mailbox,
		released: atomic.NewBool(false),
	}
}

// Name returns the name of the broker behind the address
func (a *Address) Name() string {
	return a.name
}

// Clone returns a new holder of the same mailbox
func (a *Address) Clone() *Address {
	return newAddress(a.name, a.mailbox)
}

// Release gives the holder back. Calling it more than once has no effect.
func (a *Address) Release() {
	if a.released.CompareAndSwap(false, true) {
		if a.mailbox.holders.Dec() == 0 {
			a.mailbox.seal()
		}
	}
}

// Released reports whether Release has been called on this handle
func (a *Address) Released() bool {
	return a.released.Load()
}

// Closed reports whether the mailbox no longer accepts messages
func (a *Address) Closed() bool {
	if a.mailbox.isSealed() {
		return true
	}
	select {
	case <-a.mailbox.gone:
		return true
	default:
		return false
	}
}

// Holders returns the number of live handles on the mailbox
func (a *Address) Holders() int64 {
	return a.mailbox.holders.Load()
}

// Pending returns the number of messages waiting in the mailbox
func (a *Address) Pending() int {
	return a.mailbox.len()
}

// Stop asks one instance of the pool to stop gracefully once the messages
// queued before this one are handled. It blocks while the mailbox is full.
func (a *Address) Stop(ctx context.Context) error {
	if a.Released() {
		return errors.ErrAddressReleased
	}
	return a.mailbox.enqueue(ctx, stopEnvelope(), true)
}

// TryStop is the non-blocking version of Stop
func (a *Address) TryStop() error {
	if a.Released() {
		return errors.ErrAddressReleased
	}
	return a.mailbox.enqueue(context.Background(), stopEnvelope(), false)
}

// ResponseHandle is the caller side of the reply to a message.
// It resolves at most once.
type ResponseHandle[R any] struct {
	future  *future.Future[R]
	abandon func(err error)
}

// NewResponseHandle wraps a future into a ResponseHandle
func NewResponseHandle[R any](f *future.Future[R]) *ResponseHandle[R] {
	return &ResponseHandle[R]{future: f}
}

// NewAbandonableResponseHandle wraps a future whose producer must be told when the
// caller stops waiting. abandon runs when Recv gives up on its context or Cancel is called.
func NewAbandonableResponseHandle[R any](f *future.Future[R], abandon func(err error)) *ResponseHandle[R] {
	return &ResponseHandle[R]{future: f, abandon: abandon}
}

// Recv waits for the reply. It returns ErrHandlerPanic when the actor died while
// handling the message or when the message was dropped unhandled.
func (h *ResponseHandle[R]) Recv(ctx context.Context) (R, error) {
	value, err := h.future.Await(ctx)
	if err != nil && ctx.Err() != nil && h.abandon != nil {
		h.abandon(ctx.Err())
	}
	return value, err
}

// Cancel gives up on the reply. Pending Recv calls fail with err.
// It has no effect once the reply arrived or on local handles.
func (h *ResponseHandle[R]) Cancel(err error) {
	if h.abandon != nil {
		h.abandon(err)
	}
}

// TryRecv returns the reply without waiting, or ErrResponseNotReady
func (h *ResponseHandle[R]) TryRecv() (R, error) {
	value, ok, err := h.future.Poll()
	if !ok {
		return value, errors.ErrResponseNotReady
	}
	return value, err
}

// Done returns a channel closed when the reply is available
func (h *ResponseHandle[R]) Done() <-chan struct{} {
	return h.future.Done()
}

// Send enqueues message and returns the handle on its reply.
// It blocks while the mailbox is full and fails with a *errors.SendError
// wrapping ErrMailboxClosed once no instance is left to handle it.
func Send[R any](ctx context.Context, to *Address, message any) (*ResponseHandle[R], error) {
	env, handle, err := pack[R](to, message)
	if err != nil {
		return nil, err
	}
	if err := to.mailbox.enqueue(ctx, env, true); err != nil {
		return nil, errors.NewSendError(err, message)
	}
	return handle, nil
}

// TrySend is the non-blocking version of Send. A full mailbox fails with
// a *errors.SendError wrapping ErrMailboxFull.
func TrySend[R any](to *Address, message any) (*ResponseHandle[R], error) {
	env, handle, err := pack[R](to, message)
	if err != nil {
		return nil, err
	}
	if err := to.mailbox.enqueue(context.Background(), env, false); err != nil {
		return nil, errors.NewSendError(err, message)
	}
	return handle, nil
}

// Call sends message and waits for its reply
func Call[R any](ctx context.Context, to *Address, message any) (R, error) {
	handle, err := Send[R](ctx, to, message)
	if err != nil {
		var zero R
		return zero, err
	}
	return handle.Recv(ctx)
}

// Tell sends message without expecting a reply
func Tell(ctx context.Context, to *Address, message any) error {
	if err := validate(to, message); err != nil {
		return err
	}
	env := &envelope{
		handle: func(actor Actor, ctx *Context) Directive {
			result := actor.Receive(newReceiveContext(ctx, message))
			if result.Err != nil {
				return actor.HandleError(ctx, message, result.Err)
			}
			return result.Next
		},
	}
	if err := to.mailbox.enqueue(ctx, env, true); err != nil {
		return errors.NewSendError(err, message)
	}
	return nil
}

// pack builds the envelope of message together with a fresh reply slot
func pack[R any](to *Address, message any) (*envelope, *ResponseHandle[R], error) {
	if err := validate(to, message); err != nil {
		return nil, nil, err
	}

	promise := future.NewPromise[R]()
	env := &envelope{
		handle: func(actor Actor, ctx *Context) Directive {
			result := actor.Receive(newReceiveContext(ctx, message))
			if result.Err != nil {
				promise.Failure(result.Err)
				return actor.HandleError(ctx, message, result.Err)
			}

			if result.Value == nil {
				var zero R
				promise.Success(zero)
				return result.Next
			}

			value, ok := result.Value.(R)
			if !ok {
				promise.Failure(errors.ErrInvalidResponse)
				return result.Next
			}
			promise.Success(value)
			return result.Next
		},
		discard: func(err error) {
			promise.Failure(err)
		},
	}
	return env, NewResponseHandle(promise.Future()), nil
}

func validate(to *Address, message any) error {
	if message == nil {
		return errors.ErrInvalidMessage
	}
	if to == nil || to.Released() {
		return errors.ErrAddressReleased
	}
	return nil
}
