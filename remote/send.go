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

package remote

import (
	"context"

	"github.com/google/uuid"

	"github.com/tochemey/courier/actor"
	"github.com/tochemey/courier/future"
)

// Send sends message to the server and returns the handle on its reply.
// The reply is decoded as R. Failures reported by the server resolve the
// handle with a *errors.RemoteError.
//
// The request is abandoned when ctx ends, when Recv gives up on its own
// context or when the handle is cancelled. An abandoned request fails
// with ErrRequestTimeout and its late reply is discarded.
//
//	handle, err := remote.Send[int](ctx, client, &Sum{A: 3, B: 4})
func Send[R, M any](ctx context.Context, client *Client, message M) (*actor.ResponseHandle[R], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fingerprint, err := fingerprintFor[M](client)
	if err != nil {
		return nil, err
	}

	payload, err := encode(client.config.serializer, message)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	stop := context.AfterFunc(ctx, func() {
		client.abandon(id, context.Cause(ctx))
	})

	serializer := client.config.serializer
	promise := future.NewPromise[R]()
	err = client.request(id, fingerprint, payload, func(data []byte, err error) {
		stop()
		if err != nil {
			promise.Failure(err)
			return
		}

		out, err := unmarshalReply(data)
		if err != nil {
			promise.Failure(err)
			return
		}

		if err := out.err(); err != nil {
			promise.Failure(err)
			return
		}

		value, err := decode[R](serializer, out.Body)
		if err != nil {
			promise.Failure(err)
			return
		}
		promise.Success(value)
	})
	if err != nil {
		stop()
		return nil, err
	}

	// ctx may have ended before the entry was registered
	if err := ctx.Err(); err != nil {
		client.abandon(id, err)
	}

	return actor.NewAbandonableResponseHandle(promise.Future(), func(err error) {
		client.abandon(id, err)
	}), nil
}

// Call sends message and waits for its reply. The request is abandoned when ctx ends first.
func Call[R, M any](ctx context.Context, client *Client, message M) (R, error) {
	handle, err := Send[R](ctx, client, message)
	if err != nil {
		var zero R
		return zero, err
	}
	return handle.Recv(ctx)
}
