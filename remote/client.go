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
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/internal/xsync"
	"github.com/tochemey/courier/log"
)

// completion resolves a pending request with the reply payload or an error
type completion func(payload []byte, err error)

// Client sends requests to a Server over a single websocket connection.
//
// Many requests can be in flight at once: replies are matched to requests by
// correlation id, whatever order they arrive in. A request stays pending until
// its reply arrives or the connection closes, in which case it fails with
// ErrConnectionClosed.
type Client struct {
	config       *Config
	logger       log.Logger
	codec        codec
	wire         *wire
	pending      *xsync.Map[uuid.UUID, completion]
	fingerprints *xsync.Map[reflect.Type, uint64]
	closed       *atomic.Bool
	done         chan struct{}
	release      sync.Once
}

// Dial connects to the server at the address of config
func Dial(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("remote config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codec, err := newCodec(config.compression)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if config.clientTLS != nil {
		tlsConfig = config.clientTLS.Clone()
		tlsConfig.NextProtos = []string{"http/1.1"}
	}

	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  config.handshakeTimeout,
		TLSClientConfig:   tlsConfig,
		EnableCompression: config.permessageDeflate,
	}

	target := url.URL{Scheme: config.scheme(), Host: config.Address(), Path: config.path}
	ws, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		codec.close()
		return nil, fmt.Errorf("failed to dial %s: %w", target.String(), err)
	}

	client := &Client{
		config:       config,
		logger:       config.logger.With("remote", "client", "server", config.Address()),
		codec:        codec,
		wire:         newWire(ws, codec, config),
		pending:      xsync.NewMap[uuid.UUID, completion](),
		fingerprints: xsync.NewMap[reflect.Type, uint64](),
		closed:       atomic.NewBool(false),
		done:         make(chan struct{}),
	}

	go client.receive()
	return client, nil
}

// Pending returns the number of requests waiting for their reply
func (c *Client) Pending() int {
	return c.pending.Len()
}

// Done returns a channel closed once the connection is gone
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. Pending requests fail with ErrConnectionClosed.
func (c *Client) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.wire.close()
	}
	<-c.done
	c.release.Do(c.codec.close)
	return nil
}

// request writes a request frame and registers complete to receive its reply
func (c *Client) request(id uuid.UUID, fingerprint uint64, payload []byte, complete completion) error {
	if c.closed.Load() {
		return errors.ErrConnectionClosed
	}

	c.pending.Set(id, complete)

	// the reader may have drained the table before the entry landed
	if c.closed.Load() {
		c.pending.Delete(id)
		return errors.ErrConnectionClosed
	}

	err := c.wire.write(&Frame{Fingerprint: fingerprint, CorrelationID: id, Payload: payload})
	if err != nil {
		c.pending.Delete(id)
		if stderrors.Is(err, errors.ErrFrameTooLarge) {
			return err
		}
		_ = c.wire.ws.Close()
		return fmt.Errorf("%w: %w", errors.ErrConnectionClosed, err)
	}
	return nil
}

// abandon drops a pending request and fails it with err.
// A reply arriving later is discarded as unknown.
func (c *Client) abandon(id uuid.UUID, err error) {
	if complete, ok := c.pending.Pop(id); ok {
		complete(nil, fmt.Errorf("%w: %w", errors.ErrRequestTimeout, err))
	}
}

// fingerprintFor returns the fingerprint of T, cached per client
func fingerprintFor[T any](c *Client) (uint64, error) {
	typ := reflect.TypeFor[T]()
	if fingerprint, ok := c.fingerprints.Get(typ); ok {
		return fingerprint, nil
	}
	fingerprint, err := Fingerprint[T](c.config.hasher)
	if err != nil {
		return 0, err
	}
	c.fingerprints.Set(typ, fingerprint)
	return fingerprint, nil
}

// receive reads replies until the connection is gone
func (c *Client) receive() {
	defer close(c.done)

	for {
		data, err := c.wire.read()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warnf("connection lost: %v", err)
			}
			break
		}

		frame, err := c.wire.decode(data)
		if err != nil {
			c.logger.Warnf("dropping undecodable frame: %v", err)
			continue
		}

		if !frame.IsReply() {
			c.logger.Warnf("dropping request frame %s sent to a client", frame.CorrelationID)
			continue
		}

		complete, ok := c.pending.Pop(frame.CorrelationID)
		if !ok {
			c.logger.Debugf("dropping reply to unknown request %s", frame.CorrelationID)
			continue
		}
		complete(frame.Payload, nil)
	}

	c.closed.Store(true)
	_ = c.wire.ws.Close()
	for _, complete := range c.pending.Drain() {
		complete(nil, errors.ErrConnectionClosed)
	}
}
