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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/eventstream"
	gmetric "github.com/tochemey/courier/internal/metric"
	"github.com/tochemey/courier/internal/validation"
	"github.com/tochemey/courier/internal/xsync"
	"github.com/tochemey/courier/log"
)

// Stage hosts brokers. It names them, broadcasts their lifecycle events
// and shuts them all down together.
type Stage struct {
	name          string
	logger        log.Logger
	meterProvider metric.MeterProvider
	events        eventstream.Stream
	brokers       *xsync.Map[string, *Broker]
	stopped       *atomic.Bool
}

// NewStage creates a Stage
func NewStage(name string, opts ...Option) (*Stage, error) {
	stage := &Stage{
		name:    name,
		logger:  log.DefaultLogger,
		events:  eventstream.New(),
		brokers: xsync.NewMap[string, *Broker](),
		stopped: atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(stage)
	}

	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(name, errors.ErrInvalidName)).
		AddAssertion(stage.logger != nil, "logger is required").
		Validate(); err != nil {
		return nil, err
	}

	stage.logger = stage.logger.With("stage", name)
	return stage, nil
}

// Name returns the stage name
func (s *Stage) Name() string {
	return s.name
}

// Logger returns the stage logger
func (s *Stage) Logger() log.Logger {
	return s.logger
}

// Spawn creates quantity instances through factory and starts them on a shared mailbox.
//
// Instances are created one at a time by default: when one fails to be created the
// ones already running are aborted. WithConcurrentSpawn creates them all before
// starting any. Either way the returned error wraps ErrInitFailure and no broker is left.
func (s *Stage) Spawn(ctx context.Context, factory Factory, quantity int, opts ...SpawnOption) (*Broker, error) {
	if s.stopped.Load() {
		return nil, errors.ErrStageStopped
	}

	if quantity < 1 {
		return nil, errors.ErrInvalidQuantity
	}

	if factory == nil {
		return nil, fmt.Errorf("%w: factory is nil", errors.ErrInitFailure)
	}

	config := newSpawnConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.name == "" {
		config.name = uuid.NewString()
	}

	broker := newBroker(s, config.name, factory, config)
	if _, stored := s.brokers.SetIfAbsent(config.name, broker); !stored {
		broker.cancel()
		return nil, fmt.Errorf("%w: %s", errors.ErrBrokerExists, config.name)
	}

	if s.meterProvider != nil {
		meter := gmetric.NewProvider(s.meterProvider).Meter()
		if err := broker.registerMetrics(meter); err != nil {
			s.brokers.Delete(config.name)
			broker.cancel()
			return nil, err
		}
	}

	if err := broker.spawn(ctx, quantity); err != nil {
		return nil, err
	}
	return broker, nil
}

// SpawnOne spawns a pool of a single instance
func (s *Stage) SpawnOne(ctx context.Context, factory Factory, opts ...SpawnOption) (*Broker, error) {
	return s.Spawn(ctx, factory, 1, opts...)
}

// Broker returns the running broker with the given name
func (s *Stage) Broker(name string) (*Broker, bool) {
	return s.brokers.Get(name)
}

// Brokers returns the running brokers
func (s *Stage) Brokers() []*Broker {
	return s.brokers.Values()
}

// Subscribe returns a subscriber receiving the lifecycle events of every broker
func (s *Stage) Subscribe() (eventstream.Subscriber, error) {
	if s.stopped.Load() {
		return nil, errors.ErrStageStopped
	}
	subscriber := s.events.AddSubscriber()
	s.events.Subscribe(subscriber, EventsTopic)
	return subscriber, nil
}

// Unsubscribe removes the given subscriber
func (s *Stage) Unsubscribe(subscriber eventstream.Subscriber) error {
	if s.stopped.Load() {
		return errors.ErrStageStopped
	}
	s.events.Unsubscribe(subscriber, EventsTopic)
	s.events.RemoveSubscriber(subscriber)
	return nil
}

// Shutdown shuts every broker down concurrently. Brokers still running when
// ctx is done are aborted.
func (s *Stage) Shutdown(ctx context.Context) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return errors.ErrStageStopped
	}

	s.logger.Infof("shutting down %d broker(s)", s.brokers.Len())
	eg := new(errgroup.Group)
	for _, broker := range s.brokers.Values() {
		eg.Go(func() error {
			if err := broker.Shutdown(ctx); err != nil {
				return fmt.Errorf("broker %s: %w", broker.Name(), err)
			}
			return nil
		})
	}

	err := eg.Wait()
	s.events.Close()
	return err
}

// forget removes a terminated broker
func (s *Stage) forget(broker *Broker) {
	if current, ok := s.brokers.Get(broker.name); ok && current == broker {
		s.brokers.Delete(broker.name)
	}
}
