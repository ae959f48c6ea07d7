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

// Package future provides a single-assignment value that can be completed
// once and awaited by any number of readers.
package future

import (
	"context"
	"sync"
)

// Future is the read side of a value that will be available at some point,
// or an error if that value could not be made available.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Promise is the write side of a Future. The first call to Success or Failure
// wins. Every later call is ignored.
type Promise[T any] struct {
	once   sync.Once
	future *Future[T]
}

// NewPromise returns a Promise together with its pending Future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: &Future[T]{done: make(chan struct{})},
	}
}

// New creates a Future completed by the given task, run in its own goroutine.
func New[T any](task func() (T, error)) *Future[T] {
	promise := NewPromise[T]()
	go func() {
		value, err := task()
		promise.Complete(value, err)
	}()
	return promise.Future()
}

// Success completes the underlying Future with a value.
// It reports whether this call completed the Future.
func (p *Promise[T]) Success(value T) bool {
	var zero error
	return p.Complete(value, zero)
}

// Failure fails the underlying Future with an error.
// It reports whether this call completed the Future.
func (p *Promise[T]) Failure(err error) bool {
	var zero T
	return p.Complete(zero, err)
}

// Complete completes the underlying Future with a value and an error.
// It reports whether this call completed the Future.
func (p *Promise[T]) Complete(value T, err error) bool {
	completed := false
	p.once.Do(func() {
		p.future.value = value
		p.future.err = err
		close(p.future.done)
		completed = true
	})
	return completed
}

// Future returns the underlying Future.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// Await blocks until the Future is completed or the context is done.
// A cancelled wait leaves the Future untouched so it can be awaited again.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Poll returns the outcome without blocking. ok is false while the Future is pending.
func (f *Future[T]) Poll() (value T, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		return value, false, nil
	}
}

// Done returns a channel closed once the Future is completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
