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
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/log"
)

const (
	receivingTimeout = 2 * time.Second
	replyDelay       = 200 * time.Millisecond
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// messages used across the tests
type (
	add struct {
		value int
	}
	get      struct{}
	boom     struct{}
	bump     struct{}
	fail     struct{}
	stats    struct{}
	halt     struct{}
	identify struct{}
	restarts struct{}
	block    struct {
		started  chan struct{}
		returned chan struct{}
	}
	nap struct {
		duration time.Duration
	}
	snooze struct {
		duration time.Duration
	}
	hold struct {
		resume chan struct{}
	}
	yield struct{}
	record struct {
		seq int
	}
	history struct{}
)

var errFailing = errors.New("failing")

// touch is handled by exclusiveActor
type touch struct{}

// exclusiveActor counts the handler runs that overlap another one
type exclusiveActor struct {
	Base
	busy     *atomic.Bool
	overlaps *atomic.Int64
	handled  int
}

func newExclusiveActor() *exclusiveActor {
	return &exclusiveActor{busy: atomic.NewBool(false), overlaps: atomic.NewInt64(0)}
}

func (x *exclusiveActor) Receive(ctx *ReceiveContext) Result {
	if _, ok := ctx.Message().(*touch); !ok {
		return Unhandled(ctx.Message())
	}
	if !x.busy.CompareAndSwap(false, true) {
		x.overlaps.Inc()
	}
	runtime.Gosched()
	x.handled++
	x.busy.Store(false)
	return Reply(x.handled)
}

// recorder collects the hooks called across every instance of a pool
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// testActor is a counter recording its lifecycle
type testActor struct {
	Base
	recorder *recorder
	count    int
	resets   int
	seqs     []int

	// onStarted is returned by the Started hook
	onStarted Directive
	// onStopped is returned by the Stopped hook the first time it runs
	onStopped Directive
	stoppedOn bool
	// onReset is returned by the Reset hook
	onReset Directive
	// onRecover overrides the Recover hook
	onRecover func(ctx *Context, err *gerrors.PanicError) Directive
}

var _ Actor = (*testActor)(nil)

func newTestActor(rec *recorder) *testActor {
	if rec == nil {
		rec = new(recorder)
	}
	return &testActor{recorder: rec}
}

func (x *testActor) Started(ctx *Context) Directive {
	x.recorder.add("started:%d", ctx.Instance())
	return x.onStarted
}

func (x *testActor) Receive(ctx *ReceiveContext) Result {
	switch msg := ctx.Message().(type) {
	case *add:
		x.count += msg.value
		return Reply(x.count)
	case *get:
		return Reply(x.count)
	case *bump:
		return Result{}.Then(Reset())
	case *identify:
		return Reply(ctx.Instance())
	case *restarts:
		return Reply(ctx.Restarts())
	case *boom:
		panic("boom")
	case *fail:
		return Fail(errFailing)
	case *halt:
		return Reply(x.count).Then(Stop())
	case *stats:
		return Reply(ctx.Observer())
	case *nap:
		time.Sleep(msg.duration)
		return Reply(ctx.Instance())
	case *snooze:
		return Reply(x.count).Then(Sleep(msg.duration))
	case *hold:
		return Reply(x.count).Then(Pause(msg.resume))
	case *yield:
		return Reply(x.count).Then(Yield())
	case *record:
		x.seqs = append(x.seqs, msg.seq)
		return Result{}
	case *history:
		return Reply(append([]int(nil), x.seqs...))
	case *block:
		close(msg.started)
		<-ctx.Context().Done()
		close(msg.returned)
		return Reply(x.count)
	default:
		return Unhandled(msg)
	}
}

func (x *testActor) Stopped(ctx *Context, position StoppingPosition) Directive {
	x.recorder.add("stopped:%s", position)
	if !x.stoppedOn {
		x.stoppedOn = true
		return x.onStopped
	}
	return Continue()
}

func (x *testActor) Reset(ctx *Context) Directive {
	x.resets++
	x.recorder.add("reset:%d", x.resets)
	return x.onReset
}

func (x *testActor) Recover(ctx *Context, err *gerrors.PanicError) Directive {
	x.recorder.add("recover:%s", ctx.State())
	if x.onRecover != nil {
		return x.onRecover(ctx, err)
	}
	return x.Base.Recover(ctx, err)
}

func (x *testActor) HandleError(ctx *Context, message any, err error) Directive {
	x.recorder.add("error:%v", err)
	return Continue()
}

// resetCounter counts the resets it went through
type resetCounter struct {
	Base
	resets int
}

func (x *resetCounter) Receive(ctx *ReceiveContext) Result {
	switch ctx.Message().(type) {
	case *get:
		return Reply(x.resets)
	case *bump:
		return Result{}.Then(Reset())
	default:
		return Unhandled(ctx.Message())
	}
}

func (x *resetCounter) Reset(*Context) Directive {
	x.resets++
	return Continue()
}

// flakyStarter panics the first time it starts
type flakyStarter struct {
	Base
	panicked bool
}

func (x *flakyStarter) Started(*Context) Directive {
	if !x.panicked {
		x.panicked = true
		panic("not yet")
	}
	return Continue()
}

func (x *flakyStarter) Receive(ctx *ReceiveContext) Result {
	return Reply(ctx.Restarts())
}

func newTestStage(t *testing.T, opts ...Option) *Stage {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	stage, err := NewStage("test", opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), receivingTimeout)
		defer cancel()
		_ = stage.Shutdown(ctx)
	})
	return stage
}

// factoryOf always hands out the same instance. It only suits pools of one.
func factoryOf(actor Actor) Factory {
	return func(*Context) (Actor, error) {
		return actor, nil
	}
}

func waitFor(t *testing.T, broker *Broker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), receivingTimeout)
	defer cancel()
	require.NoError(t, broker.Wait(ctx))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), receivingTimeout)
	t.Cleanup(cancel)
	return ctx
}
