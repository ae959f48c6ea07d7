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
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/courier/errors"
)

// receiveStatus is the outcome of a dequeue
type receiveStatus int

const (
	received receiveStatus = iota
	// drained means the sending side is sealed and nothing is left
	drained
	// aborted means the pool is being torn down
	aborted
)

// mailbox is a bounded multi-producer multi-consumer queue of envelopes shared
// by every instance of a pool.
//
// The sending side is sealed when the last Address holder is released or when
// the broker shuts it down: receivers then drain what is queued and end.
// The mailbox is gone when every receiver has left or the pool was aborted:
// queued envelopes are dropped and later sends fail.
type mailbox struct {
	queue chan *envelope

	// sendMu is held for reading across an enqueue and for writing while sealing,
	// so that nothing lands in the queue once sealed is closed.
	sendMu    sync.RWMutex
	closing   chan struct{}
	sealed    chan struct{}
	sealOnce  sync.Once
	gone      chan struct{}
	goneOnce  sync.Once
	holders   *atomic.Int64
	receivers *atomic.Int64
	alive     *atomic.Int64
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		queue:     make(chan *envelope, capacity),
		closing:   make(chan struct{}),
		sealed:    make(chan struct{}),
		gone:      make(chan struct{}),
		holders:   atomic.NewInt64(0),
		receivers: atomic.NewInt64(0),
		alive:     atomic.NewInt64(0),
	}
}

// enqueue puts the envelope in the queue. When block is true it waits for a free
// slot, otherwise it fails with ErrMailboxFull.
func (m *mailbox) enqueue(ctx context.Context, env *envelope, block bool) error {
	m.sendMu.RLock()
	select {
	case <-m.closing:
		m.sendMu.RUnlock()
		return errors.ErrMailboxClosed
	case <-m.gone:
		m.sendMu.RUnlock()
		return errors.ErrMailboxClosed
	default:
	}

	if block {
		select {
		case m.queue <- env:
		case <-m.closing:
			m.sendMu.RUnlock()
			return errors.ErrMailboxClosed
		case <-m.gone:
			m.sendMu.RUnlock()
			return errors.ErrMailboxClosed
		case <-ctx.Done():
			m.sendMu.RUnlock()
			return ctx.Err()
		}
	} else {
		select {
		case m.queue <- env:
		default:
			m.sendMu.RUnlock()
			return errors.ErrMailboxFull
		}
	}
	m.sendMu.RUnlock()

	// the last receiver may have left while we were enqueuing
	select {
	case <-m.gone:
		m.drain()
	default:
	}
	return nil
}

// dequeue waits for the next envelope. Queued envelopes are always handed out
// before reporting the mailbox as drained.
func (m *mailbox) dequeue(ctx context.Context) (*envelope, receiveStatus) {
	select {
	case env := <-m.queue:
		if ctx.Err() != nil {
			env.drop(errors.ErrHandlerPanic)
			return nil, aborted
		}
		return env, received
	case <-m.sealed:
		select {
		case env := <-m.queue:
			return env, received
		default:
			return nil, drained
		}
	case <-m.gone:
		return nil, aborted
	case <-ctx.Done():
		return nil, aborted
	}
}

// seal closes the sending side. Blocked senders fail with ErrMailboxClosed.
func (m *mailbox) seal() {
	m.sealOnce.Do(func() {
		close(m.closing)
		m.sendMu.Lock()
		close(m.sealed)
		m.sendMu.Unlock()
	})
}

// isSealed reports whether the sending side is closed
func (m *mailbox) isSealed() bool {
	select {
	case <-m.closing:
		return true
	default:
		return false
	}
}

// reserve books receivers before they start so that the mailbox
// is not considered gone while a pool is still being spawned.
func (m *mailbox) reserve(n int) {
	m.receivers.Add(int64(n))
}

// release gives back n receivers. The mailbox is gone once none is left.
func (m *mailbox) release(n int) {
	if m.receivers.Sub(int64(n)) <= 0 {
		m.abandon()
	}
}

// abandon marks the mailbox as gone and drops whatever is queued
func (m *mailbox) abandon() {
	m.goneOnce.Do(func() {
		close(m.gone)
	})
	m.drain()
}

// drain drops every queued envelope
func (m *mailbox) drain() {
	for {
		select {
		case env := <-m.queue:
			env.drop(errors.ErrHandlerPanic)
		default:
			return
		}
	}
}

// len returns the number of queued envelopes
func (m *mailbox) len() int {
	return len(m.queue)
}

// capacity returns the queue bound
func (m *mailbox) capacity() int {
	return cap(m.queue)
}
