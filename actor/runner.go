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
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/log"
)

// outcome is how one run of the lifecycle ended
type outcome int

const (
	outcomeTerminate outcome = iota
	outcomeRestart
	outcomePanic
	outcomeAborted
)

// runner drives the lifecycle of one actor instance.
// The restart budget belongs to the runner and survives every restart.
type runner struct {
	broker   *Broker
	instance int
	actor    Actor
	restarts int
	inflight *atomic.Pointer[envelope]
	logger   log.Logger
}

func newRunner(broker *Broker, instance int, actor Actor) *runner {
	return &runner{
		broker:   broker,
		instance: instance,
		actor:    actor,
		inflight: atomic.NewPointer[envelope](nil),
		logger:   broker.logger.With("instance", instance),
	}
}

// run loops over the lifecycle until the instance terminates
func (r *runner) run() {
	defer r.exit()

	next := Continue()
	for {
		ctx := r.newContext()
		out, directive, perr := r.guard(ctx, next)
		switch out {
		case outcomeRestart:
			if !r.recreate(ctx) {
				return
			}
			r.broker.publish(&ActorRestarted{Broker: r.broker.name, Instance: r.instance, Restarts: r.restarts})
			next = directive
		case outcomePanic:
			var ok bool
			if next, ok = r.recoverFrom(ctx, perr); !ok {
				return
			}
		default:
			return
		}
	}
}

func (r *runner) newContext() *Context {
	return newContext(r.broker.ctx, r.broker.name, r.instance, r.restarts, r.logger, r.broker.mailbox)
}

// guard runs the lifecycle and turns a panic into a PanicError
func (r *runner) guard(ctx *Context, pre Directive) (out outcome, next Directive, perr *gerrors.PanicError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out, next, perr = outcomePanic, Directive{}, toPanicError(recovered)
		}
	}()
	out, next = r.lifecycle(ctx, pre)
	return out, next, nil
}

// lifecycle goes through the three checkpoints: before start, after start and after each message.
func (r *runner) lifecycle(ctx *Context, pre Directive) (outcome, Directive) {
	switch {
	case pre.state == StateStop:
		// never started, nothing to stop
		return outcomeTerminate, Directive{}
	case pre.suspends():
		if !r.suspend(ctx, pre) {
			return outcomeAborted, Directive{}
		}
	}

	ctx.state = StateContinue
	started := r.actor.Started(ctx)
	r.broker.publish(&ActorStarted{Broker: r.broker.name, Instance: r.instance})

	next, ok := r.checkpoint(ctx, started)
	if !ok {
		return outcomeAborted, Directive{}
	}
	switch next.state {
	case StateStop:
		return r.stop(ctx, StartingPosition)
	case StateReset:
		return outcomeRestart, r.actor.Reset(ctx)
	}

	for {
		env, status := r.broker.mailbox.dequeue(ctx.ctx)
		switch status {
		case aborted:
			return outcomeAborted, Directive{}
		case drained:
			return r.stop(ctx, EndPosition)
		}

		r.inflight.Store(env)
		directive := env.handle(r.actor, ctx)
		r.inflight.Store(nil)
		r.broker.processed.Inc()

		if r.aborted() {
			return outcomeAborted, Directive{}
		}

		next, ok := r.checkpoint(ctx, directive)
		if !ok {
			return outcomeAborted, Directive{}
		}
		switch next.state {
		case StateStop:
			return r.stop(ctx, MessagePosition)
		case StateReset:
			return outcomeRestart, r.actor.Reset(ctx)
		}
	}
}

// stop runs the Stopped hook and its final checkpoint.
// A Reset is refused after EndPosition since the mailbox cannot be reopened.
func (r *runner) stop(ctx *Context, position StoppingPosition) (outcome, Directive) {
	directive := r.actor.Stopped(ctx, position)
	r.broker.publish(&ActorStopped{Broker: r.broker.name, Instance: r.instance, Position: position})

	next, ok := r.checkpoint(ctx, directive)
	if !ok {
		return outcomeAborted, Directive{}
	}
	if next.state == StateReset {
		if position == EndPosition {
			r.logger.Debug("reset refused, mailbox is closed")
			return outcomeTerminate, Directive{}
		}
		return outcomeRestart, r.actor.Reset(ctx)
	}
	return outcomeTerminate, Directive{}
}

// checkpoint serves suspension directives and clears the state once observed.
// It returns false when the pool was aborted while suspended.
func (r *runner) checkpoint(ctx *Context, directive Directive) (Directive, bool) {
	ctx.state = directive.state
	defer func() { ctx.state = StateContinue }()

	if directive.suspends() {
		if !r.suspend(ctx, directive) {
			return directive, false
		}
		return Continue(), true
	}
	return directive, true
}

func (r *runner) suspend(ctx *Context, directive Directive) bool {
	switch directive.state {
	case StateYield:
		runtime.Gosched()
	case StateSleep:
		timer := time.NewTimer(directive.duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.ctx.Done():
		}
	case StatePause:
		select {
		case <-directive.resume:
		case <-ctx.ctx.Done():
		}
	}
	return !r.aborted()
}

// recoverFrom handles a captured panic: the in-flight message resolves to ErrHandlerPanic
// and the Recover hook decides whether the instance is reset.
func (r *runner) recoverFrom(ctx *Context, perr *gerrors.PanicError) (Directive, bool) {
	r.broker.panics.Inc()
	if env := r.inflight.Swap(nil); env != nil {
		env.drop(gerrors.ErrHandlerPanic)
	}

	r.logger.Errorf("actor instance panicked: %v", perr)
	r.broker.publish(&ActorPanicked{Broker: r.broker.name, Instance: r.instance, Err: perr})

	if r.aborted() {
		return Directive{}, false
	}

	ctx.state = StateAbort
	decision, ok := r.safely(func() Directive { return r.actor.Recover(ctx, perr) })
	if !ok {
		return Directive{}, false
	}

	if decision.state != StateReset {
		r.logger.Warnf("actor instance terminated after panic, recover returned %s", decision)
		return Directive{}, false
	}

	if r.restarts >= r.broker.config.maxRestarts {
		r.logger.Errorf("actor instance terminated, restart budget of %d exhausted", r.broker.config.maxRestarts)
		return Directive{}, false
	}

	r.restarts++
	r.broker.restarts.Inc()

	next, ok := r.safely(func() Directive { return r.actor.Reset(ctx) })
	if !ok || !r.recreate(ctx) {
		return Directive{}, false
	}

	r.broker.publish(&ActorRestarted{Broker: r.broker.name, Instance: r.instance, Restarts: r.restarts})
	return next, true
}

// safely runs a hook outside of the lifecycle. A panic there terminates the instance.
func (r *runner) safely(hook func() Directive) (directive Directive, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Errorf("actor instance terminated, recovery hook panicked: %v", toPanicError(recovered))
			directive, ok = Directive{}, false
		}
	}()
	return hook(), true
}

// recreate replaces the instance through the factory when configured to
func (r *runner) recreate(ctx *Context) bool {
	if !r.broker.config.recreateOnReset {
		return true
	}
	actor, err := r.broker.create(ctx.ctx, r.instance)
	if err != nil {
		r.logger.Errorf("actor instance terminated: %v", err)
		return false
	}
	r.actor = actor
	return true
}

func (r *runner) aborted() bool {
	return r.broker.ctx.Err() != nil
}

func (r *runner) exit() {
	if env := r.inflight.Swap(nil); env != nil {
		env.drop(gerrors.ErrHandlerPanic)
	}
	r.broker.mailbox.alive.Dec()
	r.broker.publish(&ActorTerminated{Broker: r.broker.name, Instance: r.instance, Aborted: r.aborted()})
	r.broker.mailbox.release(1)
	r.broker.wg.Done()
}

// toPanicError wraps a recovered value with the location of the panic.
// It must be called while the goroutine is still panicking.
func toPanicError(recovered any) *gerrors.PanicError {
	location := panicLocation()

	if err, ok := recovered.(error); ok {
		var pe *gerrors.PanicError
		if errors.As(err, &pe) {
			return pe
		}
		return gerrors.NewPanicError(fmt.Errorf("%w at %s", err, location))
	}
	return gerrors.NewPanicError(fmt.Errorf("%#v at %s", recovered, location))
}

// panicLocation returns the first frame below runtime.gopanic that is not part of the runtime
func panicLocation() string {
	pcs := make([]uintptr, 64)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	panicking := false
	for {
		frame, more := frames.Next()
		switch {
		case frame.Function == "runtime.gopanic":
			panicking = true
		case panicking && !strings.HasPrefix(frame.Function, "runtime."):
			return fmt.Sprintf("%s[%s:%d]", frame.Function, frame.File, frame.Line)
		}
		if !more {
			return "unknown location"
		}
	}
}
