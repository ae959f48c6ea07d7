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
	"fmt"
	"time"
)

// State is the lifecycle state of an actor instance
type State int

const (
	// StateContinue keeps the instance going
	StateContinue State = iota
	// StateStop terminates the instance gracefully
	StateStop
	// StatePause suspends the instance until its resume signal fires
	StatePause
	// StateYield gives the scheduler a chance to run other goroutines
	StateYield
	// StateReset calls the Reset hook and restarts the lifecycle
	StateReset
	// StateSleep suspends the instance for a while
	StateSleep
	// StateAbort is set by the runtime when a panic has been captured.
	// It can be observed but never requested.
	StateAbort
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateContinue:
		return "continue"
	case StateStop:
		return "stop"
	case StatePause:
		return "pause"
	case StateYield:
		return "yield"
	case StateReset:
		return "reset"
	case StateSleep:
		return "sleep"
	case StateAbort:
		return "abort"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Directive is the next action an actor asks its runner to take.
// Hooks and handlers return one and the runner consumes it at the
// next lifecycle checkpoint. The zero value is Continue.
type Directive struct {
	state    State
	duration time.Duration
	resume   <-chan struct{}
}

// Continue keeps processing
func Continue() Directive {
	return Directive{state: StateContinue}
}

// Stop terminates the instance gracefully
func Stop() Directive {
	return Directive{state: StateStop}
}

// Reset runs the Reset hook and restarts the lifecycle
func Reset() Directive {
	return Directive{state: StateReset}
}

// Yield lets other goroutines run before going on
func Yield() Directive {
	return Directive{state: StateYield}
}

// Sleep suspends the instance for the given duration
func Sleep(duration time.Duration) Directive {
	return Directive{state: StateSleep, duration: duration}
}

// Pause suspends the instance until resume is closed or receives a value.
// A nil channel pauses the instance until it is aborted.
func Pause(resume <-chan struct{}) Directive {
	return Directive{state: StatePause, resume: resume}
}

// State returns the requested state
func (d Directive) State() State {
	return d.state
}

// Duration returns the sleep duration of a Sleep directive
func (d Directive) Duration() time.Duration {
	return d.duration
}

func (d Directive) suspends() bool {
	switch d.state {
	case StatePause, StateYield, StateSleep:
		return true
	default:
		return false
	}
}

func (d Directive) String() string {
	if d.state == StateSleep {
		return fmt.Sprintf("sleep(%s)", d.duration)
	}
	return d.state.String()
}

// StoppingPosition tells where in the lifecycle an instance stopped
type StoppingPosition int

const (
	// StartingPosition means the instance stopped right after Started
	StartingPosition StoppingPosition = iota
	// MessagePosition means a message handler asked the instance to stop
	MessagePosition
	// EndPosition means the mailbox was closed and drained
	EndPosition
)

// String returns the position name
func (p StoppingPosition) String() string {
	switch p {
	case StartingPosition:
		return "starting"
	case MessagePosition:
		return "message"
	case EndPosition:
		return "end"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}
