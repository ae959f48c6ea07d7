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

import "github.com/tochemey/courier/errors"

// EventsTopic is the topic lifecycle events are published on
const EventsTopic = "topic.actor.events"

// ActorStarted is published once the Started hook of an instance returned
type ActorStarted struct {
	Broker   string
	Instance int
}

// ActorStopped is published once the Stopped hook of an instance returned
type ActorStopped struct {
	Broker   string
	Instance int
	Position StoppingPosition
}

// ActorPanicked is published when a panic is captured
type ActorPanicked struct {
	Broker   string
	Instance int
	Err      *errors.PanicError
}

// ActorRestarted is published when an instance restarts its lifecycle.
// Restarts counts the restarts that followed a panic.
type ActorRestarted struct {
	Broker   string
	Instance int
	Restarts int
}

// ActorTerminated is published when an instance is gone for good
type ActorTerminated struct {
	Broker   string
	Instance int
	Aborted  bool
}
