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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/courier/errors"
)

func TestBroker(t *testing.T) {
	t.Run("With a pool sharing the work", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
			return newTestActor(nil), nil
		}, 4)
		require.NoError(t, err)
		assert.EqualValues(t, 4, broker.Alive())

		address := broker.Address()
		defer address.Release()

		start := time.Now()
		handles := make([]*ResponseHandle[int], 8)
		for i := range handles {
			handles[i], err = Send[int](ctx, address, &nap{duration: replyDelay})
			require.NoError(t, err)
		}

		instances := make(map[int]int)
		for _, handle := range handles {
			instance, err := handle.Recv(ctx)
			require.NoError(t, err)
			instances[instance]++
		}

		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 2*replyDelay)
		assert.Less(t, elapsed, 4*replyDelay)
		assert.Len(t, instances, 4)
	})
	t.Run("With stop requests for every instance", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		broker, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
			return newTestActor(rec), nil
		}, 3)
		require.NoError(t, err)

		require.NoError(t, broker.Stop(ctx))
		waitFor(t, broker)
		assert.Equal(t, 3, countPrefixed(rec.list(), "stopped:message"))
		assert.Zero(t, broker.Alive())

		_, ok := stage.Broker(broker.Name())
		assert.False(t, ok)
	})
	t.Run("With a graceful shutdown", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(rec)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		for i := range 10 {
			require.NoError(t, Tell(ctx, address, &record{seq: i}))
		}

		require.NoError(t, broker.Shutdown(ctx))
		assert.EqualValues(t, 10, broker.ProcessedCount())
		assert.Equal(t, []string{"started:0", "stopped:end"}, rec.list())

		select {
		case <-broker.Done():
		default:
			t.Fatal("broker should be done")
		}
	})
	t.Run("With a shutdown timing out", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		// paused until aborted
		_, err = Call[int](ctx, address, &hold{})
		require.NoError(t, err)

		shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, broker.Shutdown(shortCtx), context.DeadlineExceeded)
		waitFor(t, broker)
	})
	t.Run("With an observer", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
			return newTestActor(nil), nil
		}, 2, WithMailboxSize(10))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		observer, err := Call[Observer](ctx, address, &stats{})
		require.NoError(t, err)
		assert.Equal(t, 10, observer.Capacity())
		assert.EqualValues(t, 2, observer.Alive())
		assert.EqualValues(t, 2, observer.Holders())
		assert.Zero(t, observer.Pending())
	})
	t.Run("With metrics", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t, WithMeterProvider(noop.NewMeterProvider()))
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.NoError(t, err)
		require.NotNil(t, broker.registration)

		address := broker.Address()
		defer address.Release()
		count, err := Call[int](ctx, address, &add{value: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestSpawn(t *testing.T) {
	t.Run("With an invalid quantity", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		_, err := stage.Spawn(ctx, factoryOf(newTestActor(nil)), 0)
		require.ErrorIs(t, err, gerrors.ErrInvalidQuantity)
	})
	t.Run("With a nil factory", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		_, err := stage.SpawnOne(ctx, nil)
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
	})
	t.Run("With an invalid configuration", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		_, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithMailboxSize(0), WithMaxRestarts(-1))
		require.Error(t, err)
		_, err = stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithName("-invalid"))
		require.ErrorIs(t, err, gerrors.ErrInvalidName)
	})
	t.Run("With a name already taken", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithName("taken"))
		require.NoError(t, err)

		actual, ok := stage.Broker("taken")
		require.True(t, ok)
		assert.Same(t, broker, actual)
		assert.Len(t, stage.Brokers(), 1)

		_, err = stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithName("taken"))
		require.ErrorIs(t, err, gerrors.ErrBrokerExists)
	})
	t.Run("With a factory failing for good", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		attempts := atomic.NewInt32(0)
		_, err := stage.SpawnOne(ctx, func(*Context) (Actor, error) {
			attempts.Inc()
			return nil, errors.New("not ready")
		}, WithName("failing"), WithInitMaxRetries(3), WithInitTimeout(20*time.Millisecond))
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		assert.GreaterOrEqual(t, attempts.Load(), int32(2))

		_, ok := stage.Broker("failing")
		assert.False(t, ok)
	})
	t.Run("With a factory eventually succeeding", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		attempts := atomic.NewInt32(0)
		broker, err := stage.SpawnOne(ctx, func(*Context) (Actor, error) {
			if attempts.Inc() < 3 {
				return nil, errors.New("not ready")
			}
			return newTestActor(nil), nil
		}, WithInitMaxRetries(5), WithInitTimeout(20*time.Millisecond))
		require.NoError(t, err)
		assert.EqualValues(t, 1, broker.Alive())
	})
	t.Run("With a factory returning nil", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		_, err := stage.SpawnOne(ctx, func(*Context) (Actor, error) {
			return nil, nil
		}, WithInitMaxRetries(1))
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
	})
	t.Run("With one instance failing to be created", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		_, err := stage.Spawn(ctx, func(ctx *Context) (Actor, error) {
			if ctx.Instance() == 1 {
				return nil, errors.New("not ready")
			}
			return newTestActor(nil), nil
		}, 2, WithName("partial"), WithInitMaxRetries(1))
		require.ErrorIs(t, err, gerrors.ErrInitFailure)

		_, ok := stage.Broker("partial")
		assert.False(t, ok)
	})
	t.Run("With concurrent creation", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
			return newTestActor(nil), nil
		}, 3, WithConcurrentSpawn())
		require.NoError(t, err)
		assert.EqualValues(t, 3, broker.Alive())

		_, err = stage.Spawn(ctx, func(ctx *Context) (Actor, error) {
			if ctx.Instance() == 2 {
				return nil, errors.New("not ready")
			}
			return newTestActor(nil), nil
		}, 3, WithConcurrentSpawn(), WithInitMaxRetries(1))
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		assert.Len(t, stage.Brokers(), 1)
	})
}

func TestStage(t *testing.T) {
	t.Run("With an invalid name", func(t *testing.T) {
		_, err := NewStage("")
		require.ErrorIs(t, err, gerrors.ErrInvalidName)
		_, err = NewStage("with space")
		require.ErrorIs(t, err, gerrors.ErrInvalidName)
	})
	t.Run("With lifecycle events", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		assert.Equal(t, "test", stage.Name())
		require.NotNil(t, stage.Logger())

		subscriber, err := stage.Subscribe()
		require.NoError(t, err)

		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithName("events"))
		require.NoError(t, err)
		broker.Close()
		waitFor(t, broker)

		var payloads []any
		for message := range subscriber.Iterator() {
			assert.Equal(t, EventsTopic, message.Topic())
			payloads = append(payloads, message.Payload())
		}

		assert.Equal(t, []any{
			&ActorStarted{Broker: "events", Instance: 0},
			&ActorStopped{Broker: "events", Instance: 0, Position: EndPosition},
			&ActorTerminated{Broker: "events", Instance: 0},
		}, payloads)

		require.NoError(t, stage.Unsubscribe(subscriber))
	})
	t.Run("With panic events", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		subscriber, err := stage.Subscribe()
		require.NoError(t, err)

		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithMaxRestarts(1))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)
		_, err = Call[int](ctx, address, &get{})
		require.NoError(t, err)

		var panicked, restarted int
		for message := range subscriber.Iterator() {
			switch event := message.Payload().(type) {
			case *ActorPanicked:
				panicked++
				require.ErrorContains(t, event.Err, "boom")
			case *ActorRestarted:
				restarted++
				assert.Equal(t, 1, event.Restarts)
			}
		}
		assert.Equal(t, 1, panicked)
		assert.Equal(t, 1, restarted)
	})
	t.Run("With a shutdown", func(t *testing.T) {
		ctx := testContext(t)
		stage, err := NewStage("shutdown", WithLogger(nil))
		require.Error(t, err)
		require.Nil(t, stage)

		stage = newTestStage(t)
		for range 3 {
			_, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
				return newTestActor(nil), nil
			}, 2)
			require.NoError(t, err)
		}
		subscriber, err := stage.Subscribe()
		require.NoError(t, err)

		require.NoError(t, stage.Shutdown(ctx))
		assert.Empty(t, stage.Brokers())
		assert.False(t, subscriber.Active())

		require.ErrorIs(t, stage.Shutdown(ctx), gerrors.ErrStageStopped)
		_, err = stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.ErrorIs(t, err, gerrors.ErrStageStopped)
		_, err = stage.Subscribe()
		require.ErrorIs(t, err, gerrors.ErrStageStopped)
		require.ErrorIs(t, stage.Unsubscribe(subscriber), gerrors.ErrStageStopped)
	})
}
