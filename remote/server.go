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
	"net"
	"net/http"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/internal/metric"
	"github.com/tochemey/courier/log"
)

// Server exposes the addresses of a Registry over websocket connections.
//
// Every connection reads frames in order and dispatches each request in its own
// goroutine, up to MaxInflight at once, so a slow handler does not hold back the
// requests queued behind it. Replies may therefore leave out of order; clients
// match them by correlation id.
type Server struct {
	config   *Config
	registry *Registry
	logger   log.Logger
	codec    codec
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server

	mu          sync.Mutex
	closing     bool
	connections mapset.Set[*connection]
	wg          sync.WaitGroup

	started    *atomic.Bool
	stopped    *atomic.Bool
	inflight   *atomic.Int64
	dispatched *atomic.Int64
	dropped    *atomic.Int64

	registration otelmetric.Registration
}

// NewServer creates a Server dispatching through registry
func NewServer(registry *Registry, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codec, err := newCodec(config.compression)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   config,
		registry: registry,
		logger:   config.logger.With("remote", "server"),
		codec:    codec,
		upgrader: websocket.Upgrader{
			HandshakeTimeout:  config.handshakeTimeout,
			EnableCompression: config.permessageDeflate,
			CheckOrigin:       func(*http.Request) bool { return true },
		},
		connections: mapset.NewSet[*connection](),
		started:     atomic.NewBool(false),
		stopped:     atomic.NewBool(false),
		inflight:    atomic.NewInt64(0),
		dispatched:  atomic.NewInt64(0),
		dropped:     atomic.NewInt64(0),
	}, nil
}

// Start listens on the configured address and serves connections in the background
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.ErrServerStarted
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Address())
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}

	if s.config.maxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.maxConnections)
	}

	if s.config.serverTLS != nil {
		// websocket upgrades only happen over HTTP/1.1
		tlsConfig := s.config.serverTLS.Clone()
		tlsConfig.NextProtos = []string{"http/1.1"}
		listener = tls.NewListener(listener, tlsConfig)
	}

	if s.config.meterProvider != nil {
		if err := s.registerMetrics(metric.NewProvider(s.config.meterProvider).Meter()); err != nil {
			_ = listener.Close()
			s.started.Store(false)
			return err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.config.path, s.serve)

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: s.config.handshakeTimeout,
		ErrorLog:          s.logger.StdLogger(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("server stopped serving: %v", err)
		}
	}()

	s.logger.Infof("server listening on %s", listener.Addr())
	return nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the port the server listens on, useful when started on port 0
func (s *Server) Port() int {
	addr := s.Addr()
	if addr == nil {
		return 0
	}
	_, port, _ := net.SplitHostPort(addr.String())
	value, _ := strconv.Atoi(port)
	return value
}

// Registry returns the registry the server dispatches through
func (s *Server) Registry() *Registry {
	return s.registry
}

// Connections returns the number of open connections
func (s *Server) Connections() int {
	return s.connections.Cardinality()
}

// Shutdown stops accepting connections, closes the open ones, cancelling their
// in-flight requests, and releases the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return errors.ErrServerNotStarted
	}
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.closing = true
	connections := s.connections.ToSlice()
	s.mu.Unlock()

	for _, conn := range connections {
		conn.close()
	}

	s.wg.Wait()
	s.registry.Close()
	s.codec.close()

	if s.registration != nil {
		if uerr := s.registration.Unregister(); uerr != nil {
			s.logger.Warnf("failed to unregister server metrics: %v", uerr)
		}
	}

	s.logger.Info("server stopped")
	return err
}

// serve upgrades the request and serves the connection until it closes
func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("failed to upgrade connection from %s: %v", r.RemoteAddr, err)
		return
	}

	conn := newConnection(s, ws)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.wire.close()
		return
	}
	s.wg.Add(1)
	s.connections.Add(conn)
	s.mu.Unlock()

	defer func() {
		s.connections.Remove(conn)
		s.wg.Done()
	}()

	s.logger.Debugf("connection opened from %s", r.RemoteAddr)
	conn.serve()
	s.logger.Debugf("connection closed from %s", r.RemoteAddr)
}

func (s *Server) registerMetrics(meter otelmetric.Meter) error {
	metrics, err := metric.NewServerMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("server.address", s.config.Address())),
	}

	s.registration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(metrics.Connections(), int64(s.connections.Cardinality()), observeOptions...)
		observer.ObserveInt64(metrics.Inflight(), s.inflight.Load(), observeOptions...)
		observer.ObserveInt64(metrics.Dispatched(), s.dispatched.Load(), observeOptions...)
		observer.ObserveInt64(metrics.Dropped(), s.dropped.Load(), observeOptions...)
		return nil
	}, metrics.Instruments()...)
	return err
}

// connection serves the requests of one peer
type connection struct {
	server *Server
	wire   *wire
	logger log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func newConnection(server *Server, ws *websocket.Conn) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		server: server,
		wire:   newWire(ws, server.codec, server.config),
		logger: server.logger.With("peer", ws.RemoteAddr().String()),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *connection) serve() {
	eg, ctx := errgroup.WithContext(c.ctx)
	eg.SetLimit(c.server.config.maxInflight)

	for {
		data, err := c.wire.read()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debugf("connection read failed: %v", err)
			}
			break
		}

		frame, err := c.wire.decode(data)
		if err != nil {
			c.server.dropped.Inc()
			c.logger.Warnf("dropping undecodable frame: %v", err)
			continue
		}

		if frame.IsReply() {
			c.server.dropped.Inc()
			c.logger.Warnf("dropping reply frame %s sent to a server", frame.CorrelationID)
			continue
		}

		handle, ok := c.server.registry.lookup(frame.Fingerprint)
		if !ok {
			c.server.dropped.Inc()
			c.logger.Warnf("dropping frame %s: %v %d", frame.CorrelationID, errors.ErrUnknownFingerprint, frame.Fingerprint)
			continue
		}

		c.server.inflight.Inc()
		eg.Go(func() error {
			defer c.server.inflight.Dec()
			return c.dispatch(ctx, frame, handle)
		})
	}

	// nobody is left to read the replies
	c.cancel()
	_ = eg.Wait()
	_ = c.wire.close()
}

func (c *connection) dispatch(ctx context.Context, frame *Frame, handle handler) error {
	out := handle(ctx, frame.Payload)
	if out.Code != codeOK {
		c.logger.Debugf("request %s failed: %s", frame.CorrelationID, out.Message)
	}

	err := c.reply(frame, out)
	if stderrors.Is(err, errors.ErrFrameTooLarge) {
		err = c.reply(frame, failure(codeEncode, err))
	}

	if err != nil {
		c.logger.Warnf("failed to write reply %s, closing connection: %v", frame.CorrelationID, err)
		_ = c.wire.ws.Close()
		return err
	}

	c.server.dispatched.Inc()
	return nil
}

func (c *connection) reply(request *Frame, out reply) error {
	payload, err := out.marshal()
	if err != nil {
		return err
	}
	return c.wire.write(&Frame{
		Fingerprint:   ReplyFingerprint,
		CorrelationID: request.CorrelationID,
		Payload:       payload,
	})
}

// close closes the connection: its reader stops and in-flight requests are cancelled
func (c *connection) close() {
	c.cancel()
	_ = c.wire.ws.Close()
}
