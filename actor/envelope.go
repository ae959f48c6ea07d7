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

// envelope is a single-use unit of work built where the message type is still known.
// The runner executes it without knowing the message type. discard settles the
// reply slot when the envelope is dropped instead of executed; it is nil for
// fire-and-forget messages.
type envelope struct {
	handle  func(actor Actor, ctx *Context) Directive
	discard func(err error)
}

func (e *envelope) drop(err error) {
	if e.discard != nil {
		e.discard(err)
	}
}

// stopEnvelope asks the instance that dequeues it to stop gracefully
func stopEnvelope() *envelope {
	return &envelope{
		handle: func(Actor, *Context) Directive {
			return Stop()
		},
	}
}
