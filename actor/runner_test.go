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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/courier/errors"
)

func TestLifecycle(t *testing.T) {
	t.Run("With reset directives", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(new(resetCounter)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		resets, err := Call[int](ctx, address, &get{})
		require.NoError(t, err)
		assert.Zero(t, resets)

		for i := 1; i <= 3; i++ {
			_, err = Call[int](ctx, address, &bump{})
			require.NoError(t, err)

			resets, err = Call[int](ctx, address, &get{})
			require.NoError(t, err)
			assert.Equal(t, i, resets)
		}

		resets, err = Call[int](ctx, address, &get{})
		require.NoError(t, err)
		assert.Equal(t, 3, resets)
		assert.Zero(t, broker.RestartCount())
	})
	t.Run("With a stop right after start", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		actor := newTestActor(rec)
		actor.onStarted = Stop()
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)

		waitFor(t, broker)
		broker.Close()
		assert.Equal(t, []string{"started:0", "stopped:starting"}, rec.list())
	})
	t.Run("With a reset right after start", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		actor := newTestActor(rec)
		actor.onStarted = Reset()
		actor.onReset = Stop()
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)

		waitFor(t, broker)
		broker.Close()
		assert.Equal(t, []string{"started:0", "reset:1"}, rec.list())
	})
	t.Run("With a stop requested by the reset hook", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		actor := newTestActor(rec)
		actor.onReset = Stop()
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &bump{})
		require.NoError(t, err)

		waitFor(t, broker)
		// never started again, nothing to stop
		assert.Equal(t, []string{"started:0", "reset:1"}, rec.list())
	})
	t.Run("With a reset requested after stopping", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		actor := newTestActor(rec)
		actor.onStopped = Reset()
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)
		address := broker.Address()

		_, err = Call[int](ctx, address, &halt{})
		require.NoError(t, err)

		count, err := Call[int](ctx, address, &add{value: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		address.Release()
		broker.Close()
		waitFor(t, broker)
		assert.Equal(t, []string{
			"started:0",
			"stopped:message",
			"reset:1",
			"started:0",
			"stopped:end",
		}, rec.list())
	})
	t.Run("With a reset refused at the end", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		actor := newTestActor(rec)
		actor.onStopped = Reset()
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)

		broker.Close()
		waitFor(t, broker)
		assert.Equal(t, []string{"started:0", "stopped:end"}, rec.list())
	})
	t.Run("With a sleep directive", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &snooze{duration: replyDelay})
		require.NoError(t, err)

		start := time.Now()
		_, err = Call[int](ctx, address, &get{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), replyDelay/2)
	})
	t.Run("With a yield directive", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &yield{})
		require.NoError(t, err)
		count, err := Call[int](ctx, address, &add{value: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
	t.Run("With a pause directive", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		resume := make(chan struct{})
		_, err = Call[int](ctx, address, &hold{resume: resume})
		require.NoError(t, err)

		handle, err := Send[int](ctx, address, &add{value: 1})
		require.NoError(t, err)

		select {
		case <-handle.Done():
			t.Fatal("handled while paused")
		case <-time.After(replyDelay / 2):
		}

		close(resume)
		count, err := handle.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestPanic(t *testing.T) {
	t.Run("With messages queued behind a panic", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(rec)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		// park the instance so that both messages are queued before the panic
		resume := make(chan struct{})
		_, err = Call[int](ctx, address, &hold{resume: resume})
		require.NoError(t, err)

		panicking, err := Send[int](ctx, address, &boom{})
		require.NoError(t, err)
		queued, err := Send[int](ctx, address, &add{value: 7})
		require.NoError(t, err)
		assert.Equal(t, 2, address.Pending())
		close(resume)

		_, err = panicking.Recv(ctx)
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)

		count, err := queued.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, count)
		assert.EqualValues(t, 1, broker.RestartCount())
		assert.Equal(t, 1, countPrefixed(rec.list(), "recover:abort"))
	})
	t.Run("With restarts within budget", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		rec := new(recorder)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(rec)), WithMaxRestarts(2))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		for i := 1; i <= 3; i++ {
			count, err := Call[int](ctx, address, &add{value: 1})
			require.NoError(t, err)
			// the Reset hook keeps the state of the instance
			assert.Equal(t, i, count)

			_, err = Call[int](ctx, address, &boom{})
			require.ErrorIs(t, err, gerrors.ErrHandlerPanic)
		}

		// the third panic exhausted the budget
		waitFor(t, broker)
		assert.EqualValues(t, 3, broker.PanicCount())
		assert.EqualValues(t, 2, broker.RestartCount())
		assert.Zero(t, broker.Alive())

		_, err = Send[int](ctx, address, &get{})
		require.ErrorIs(t, err, gerrors.ErrMailboxClosed)

		events := rec.list()
		assert.Equal(t, 3, countPrefixed(events, "recover:abort"))
		assert.Equal(t, 3, countPrefixed(events, "started:0"))
		assert.Contains(t, events, "reset:2")
		assert.NotContains(t, events, "reset:3")
		assert.Zero(t, countPrefixed(events, "stopped:"))
	})
	t.Run("With no restart allowed", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(nil)), WithMaxRestarts(0))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)
		waitFor(t, broker)
		assert.Zero(t, broker.RestartCount())
	})
	t.Run("With a panic isolated to one instance", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.Spawn(ctx, func(*Context) (Actor, error) {
			return newTestActor(nil), nil
		}, 2, WithMaxRestarts(0))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)

		_, err = Call[int](ctx, address, &add{value: 1})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return broker.Alive() == 1 }, receivingTimeout, 10*time.Millisecond)
	})
	t.Run("With a panic while starting", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		broker, err := stage.SpawnOne(ctx, factoryOf(new(flakyStarter)))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		restarts, err := Call[int](ctx, address, &get{})
		require.NoError(t, err)
		assert.Equal(t, 1, restarts)
		assert.EqualValues(t, 1, broker.PanicCount())
	})
	t.Run("With a recover hook that stops", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		actor := newTestActor(nil)
		actor.onRecover = func(*Context, *gerrors.PanicError) Directive {
			return Stop()
		}
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)
		waitFor(t, broker)
		assert.Zero(t, broker.RestartCount())
	})
	t.Run("With a recover hook that panics", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		actor := newTestActor(nil)
		actor.onRecover = func(*Context, *gerrors.PanicError) Directive {
			panic("again")
		}
		broker, err := stage.SpawnOne(ctx, factoryOf(actor))
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)
		waitFor(t, broker)
	})
	t.Run("With the instance recreated", func(t *testing.T) {
		ctx := testContext(t)
		stage := newTestStage(t)
		created := atomic.NewInt32(0)
		broker, err := stage.SpawnOne(ctx, func(*Context) (Actor, error) {
			created.Inc()
			return newTestActor(nil), nil
		}, WithRecreateOnReset())
		require.NoError(t, err)
		address := broker.Address()
		defer address.Release()

		count, err := Call[int](ctx, address, &add{value: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		_, err = Call[int](ctx, address, &boom{})
		require.ErrorIs(t, err, gerrors.ErrHandlerPanic)

		count, err = Call[int](ctx, address, &get{})
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.EqualValues(t, 2, created.Load())
	})
}

func TestAbort(t *testing.T) {
	ctx := testContext(t)
	stage := newTestStage(t)
	rec := new(recorder)
	broker, err := stage.SpawnOne(ctx, factoryOf(newTestActor(rec)))
	require.NoError(t, err)
	address := broker.Address()
	defer address.Release()

	started := make(chan struct{})
	returned := make(chan struct{})
	inflight, err := Send[int](ctx, address, &block{started: started, returned: returned})
	require.NoError(t, err)
	<-started

	queued, err := Send[int](ctx, address, &add{value: 1})
	require.NoError(t, err)

	broker.Abort()
	broker.Abort()

	_, err = inflight.Recv(ctx)
	require.ErrorIs(t, err, gerrors.ErrHandlerPanic)

	// the running handler sees its context cancelled
	select {
	case <-returned:
	case <-ctx.Done():
		t.Fatal("handler did not observe the abort")
	}

	_, err = queued.Recv(ctx)
	require.ErrorIs(t, err, gerrors.ErrHandlerPanic)

	waitFor(t, broker)
	assert.Zero(t, countPrefixed(rec.list(), "stopped:"))

	_, err = Send[int](ctx, address, &get{})
	require.ErrorIs(t, err, gerrors.ErrMailboxClosed)
}

// countPrefixed returns the number of events starting with prefix
func countPrefixed(events []string, prefix string) int {
	var n int
	for _, event := range events {
		if strings.HasPrefix(event, prefix) {
			n++
		}
	}
	return n
}

func TestPanicLocation(t *testing.T) {
	t.Run("With the recovering defer", func(t *testing.T) {
		var perr *gerrors.PanicError
		func() {
			defer func() {
				perr = toPanicError(recover())
			}()
			explodeNow()
		}()
		require.NotNil(t, perr)
		assert.Contains(t, perr.Error(), "actor.explodeNow")
	})
	t.Run("With a nested helper", func(t *testing.T) {
		var perr *gerrors.PanicError
		wrap := func(recovered any) *gerrors.PanicError {
			return toPanicError(recovered)
		}
		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					perr = wrap(recovered)
				}
			}()
			explodeNow()
		}()
		require.NotNil(t, perr)
		assert.Contains(t, perr.Error(), "actor.explodeNow")
	})
	t.Run("With a runtime error", func(t *testing.T) {
		var perr *gerrors.PanicError
		func() {
			defer func() {
				perr = toPanicError(recover())
			}()
			dereference(nil)
		}()
		require.NotNil(t, perr)
		assert.Contains(t, perr.Error(), "actor.dereference")
	})
}

func explodeNow() {
	panic("exploded")
}

func dereference(value *int) int {
	return *value
}
