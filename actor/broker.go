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
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/internal/metric"
	"github.com/tochemey/courier/log"
)

// initialBackoff is the first delay between two creation attempts
const initialBackoff = 10 * time.Millisecond

// Broker manages a pool of actor instances sharing one mailbox.
// It owns the execution of the instances and holds one Address on the mailbox.
type Broker struct {
	name    string
	stage   *Stage
	factory Factory
	config  *spawnConfig
	mailbox *mailbox
	address *Address
	logger  log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	mu      sync.Mutex
	runners []*runner

	processed *atomic.Int64
	restarts  *atomic.Int64
	panics    *atomic.Int64
	aborted   *atomic.Bool

	registration otelmetric.Registration
}

func newBroker(stage *Stage, name string, factory Factory, config *spawnConfig) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	mailbox := newMailbox(config.mailboxSize)
	return &Broker{
		name:      name,
		stage:     stage,
		factory:   factory,
		config:    config,
		mailbox:   mailbox,
		address:   newAddress(name, mailbox),
		logger:    stage.logger.With("broker", name),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		processed: atomic.NewInt64(0),
		restarts:  atomic.NewInt64(0),
		panics:    atomic.NewInt64(0),
		aborted:   atomic.NewBool(false),
	}
}

// spawn creates and starts quantity instances
func (b *Broker) spawn(ctx context.Context, quantity int) error {
	b.mailbox.reserve(quantity)

	if b.config.concurrentSpawn {
		actors := make([]Actor, quantity)
		eg, gctx := errgroup.WithContext(ctx)
		for i := range quantity {
			eg.Go(func() error {
				actor, err := b.create(gctx, i)
				actors[i] = actor
				return err
			})
		}

		if err := eg.Wait(); err != nil {
			b.mailbox.release(quantity)
			b.teardown()
			return err
		}

		for i, actor := range actors {
			b.start(i, actor)
		}
	} else {
		for i := range quantity {
			actor, err := b.create(ctx, i)
			if err != nil {
				b.mailbox.release(quantity - i)
				b.Abort()
				b.wg.Wait()
				b.teardown()
				return err
			}
			b.start(i, actor)
		}
	}

	go b.monitor()
	b.logger.Infof("broker started with %d instance(s)", quantity)
	return nil
}

// create runs the factory, retrying with backoff until it succeeds or gives up
func (b *Broker) create(ctx context.Context, instance int) (Actor, error) {
	var actor Actor
	retrier := retry.NewRetrier(b.config.initMaxRetries, initialBackoff, b.config.initTimeout)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		created, err := b.factory(newContext(ctx, b.name, instance, 0, b.logger, b.mailbox))
		if err != nil {
			b.logger.Warnf("failed to create actor instance %d: %v", instance, err)
			return err
		}
		if created == nil {
			return fmt.Errorf("factory returned a nil actor")
		}
		actor = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: broker=%s instance=%d: %w", errors.ErrInitFailure, b.name, instance, err)
	}
	return actor, nil
}

func (b *Broker) start(instance int, actor Actor) {
	r := newRunner(b, instance, actor)
	b.mu.Lock()
	b.runners = append(b.runners, r)
	b.mu.Unlock()

	b.mailbox.alive.Inc()
	b.wg.Add(1)
	go r.run()
}

// monitor waits for every instance to terminate and releases the pool resources
func (b *Broker) monitor() {
	b.wg.Wait()
	b.teardown()
	b.logger.Infof("broker terminated after processing %d message(s)", b.processed.Load())
}

func (b *Broker) teardown() {
	b.cancel()
	b.mailbox.abandon()
	if b.registration != nil {
		if err := b.registration.Unregister(); err != nil {
			b.logger.Warnf("failed to unregister broker metrics: %v", err)
		}
	}
	b.stage.forget(b)
	close(b.done)
}

// Name returns the broker name
func (b *Broker) Name() string {
	return b.name
}

// Address returns a new Address on the pool. The caller owns it and should Release it.
func (b *Broker) Address() *Address {
	return b.address.Clone()
}

// Alive returns the number of running instances
func (b *Broker) Alive() int64 {
	return b.mailbox.alive.Load()
}

// ProcessedCount returns the number of messages handled by the pool
func (b *Broker) ProcessedCount() int64 {
	return b.processed.Load()
}

// RestartCount returns the number of restarts that followed a panic
func (b *Broker) RestartCount() int64 {
	return b.restarts.Load()
}

// PanicCount returns the number of panics captured
func (b *Broker) PanicCount() int64 {
	return b.panics.Load()
}

// Stop enqueues one stop request per running instance. Each instance stops
// gracefully once the messages queued before its request are handled.
func (b *Broker) Stop(ctx context.Context) error {
	for range b.Alive() {
		if err := b.mailbox.enqueue(ctx, stopEnvelope(), true); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the Address held by the broker. The pool ends at EndPosition
// once every other Address is released too.
func (b *Broker) Close() {
	b.address.Release()
}

// Wait blocks until every instance has terminated or ctx is done
func (b *Broker) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once every instance has terminated
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// Shutdown stops accepting messages, lets the pool drain the mailbox and waits
// for it. When ctx is done first the pool is aborted.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mailbox.seal()
	if err := b.Wait(ctx); err != nil {
		b.logger.Warnf("broker did not drain in time, aborting: %v", err)
		b.Abort()
		return err
	}
	return nil
}

// Abort tears the pool down immediately. Queued and in-flight messages resolve to
// ErrHandlerPanic and no Stopped hook runs. Handlers still running should watch
// ReceiveContext.Context to return early.
func (b *Broker) Abort() {
	if !b.aborted.CompareAndSwap(false, true) {
		return
	}

	b.cancel()
	b.mailbox.abandon()

	b.mu.Lock()
	for _, r := range b.runners {
		if env := r.inflight.Swap(nil); env != nil {
			env.drop(errors.ErrHandlerPanic)
		}
	}
	b.mu.Unlock()
	b.logger.Warn("broker aborted")
}

func (b *Broker) publish(event any) {
	if b.stage.events != nil {
		b.stage.events.Publish(EventsTopic, event)
	}
}

func (b *Broker) registerMetrics(meter otelmetric.Meter) error {
	metrics, err := metric.NewBrokerMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("stage.name", b.stage.name)),
		otelmetric.WithAttributes(attribute.String("broker.name", b.name)),
	}

	b.registration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(metrics.ProcessedCount(), b.processed.Load(), observeOptions...)
		observer.ObserveInt64(metrics.RestartCount(), b.restarts.Load(), observeOptions...)
		observer.ObserveInt64(metrics.PanicCount(), b.panics.Load(), observeOptions...)
		observer.ObserveInt64(metrics.AliveCount(), b.mailbox.alive.Load(), observeOptions...)
		observer.ObserveInt64(metrics.MailboxDepth(), int64(b.mailbox.len()), observeOptions...)
		return nil
	}, metrics.Instruments()...)
	return err
}
