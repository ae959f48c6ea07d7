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
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/courier/errors"
	"github.com/tochemey/courier/hash"
	"github.com/tochemey/courier/internal/validation"
	"github.com/tochemey/courier/log"
)

const (
	// DefaultPath is the HTTP path the websocket endpoint is mounted on
	DefaultPath = "/courier"
	// DefaultMaxFrameSize is the largest frame accepted, in bytes
	DefaultMaxFrameSize = 16 << 20
	// DefaultMaxInflight is the number of requests dispatched concurrently per connection
	DefaultMaxInflight = 256
	// DefaultWriteTimeout bounds every frame write
	DefaultWriteTimeout = 10 * time.Second
	// DefaultHandshakeTimeout bounds the websocket handshake
	DefaultHandshakeTimeout = 5 * time.Second
)

// Config holds the settings shared by Server and Client.
// For a Server host and port are the bind address, for a Client the address to dial.
type Config struct {
	host              string
	port              int
	path              string
	maxFrameSize      int
	maxInflight       int
	maxConnections    int
	writeTimeout      time.Duration
	handshakeTimeout  time.Duration
	compression       Compression
	permessageDeflate bool
	serverTLS         *tls.Config
	clientTLS         *tls.Config
	serializer        Serializer
	hasher            hash.Hasher
	logger            log.Logger
	meterProvider     metric.MeterProvider
}

var _ validation.Validator = (*Config)(nil)

// NewConfig creates a Config for the given address
func NewConfig(host string, port int, opts ...Option) *Config {
	config := &Config{
		host:             host,
		port:             port,
		path:             DefaultPath,
		maxFrameSize:     DefaultMaxFrameSize,
		maxInflight:      DefaultMaxInflight,
		writeTimeout:     DefaultWriteTimeout,
		handshakeTimeout: DefaultHandshakeTimeout,
		compression:      NoCompression,
		serializer:       NewCBORSerializer(),
		hasher:           hash.DefaultHasher(),
		logger:           log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// DefaultConfig returns a Config bound to 127.0.0.1 on a port picked by the system
func DefaultConfig() *Config {
	return NewConfig("127.0.0.1", 0)
}

// Host returns the host
func (c *Config) Host() string {
	return c.host
}

// Port returns the port
func (c *Config) Port() int {
	return c.port
}

// Address returns host:port
func (c *Config) Address() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Path returns the HTTP path of the websocket endpoint
func (c *Config) Path() string {
	return c.path
}

// MaxFrameSize returns the largest frame accepted
func (c *Config) MaxFrameSize() int {
	return c.maxFrameSize
}

// MaxInflight returns the number of requests dispatched concurrently per connection
func (c *Config) MaxInflight() int {
	return c.maxInflight
}

// MaxConnections returns the cap on open connections, zero meaning no cap
func (c *Config) MaxConnections() int {
	return c.maxConnections
}

// WriteTimeout returns the frame write timeout
func (c *Config) WriteTimeout() time.Duration {
	return c.writeTimeout
}

// HandshakeTimeout returns the websocket handshake timeout
func (c *Config) HandshakeTimeout() time.Duration {
	return c.handshakeTimeout
}

// Compression returns the frame compression
func (c *Config) Compression() Compression {
	return c.compression
}

// Serializer returns the payload serializer
func (c *Config) Serializer() Serializer {
	return c.serializer
}

// Hasher returns the fingerprint hasher
func (c *Config) Hasher() hash.Hasher {
	return c.hasher
}

// Logger returns the logger
func (c *Config) Logger() log.Logger {
	return c.logger
}

// TLS reports whether connections are secured
func (c *Config) TLS() bool {
	return c.serverTLS != nil || c.clientTLS != nil
}

func (c *Config) scheme() string {
	if c.clientTLS != nil {
		return "wss"
	}
	return "ws"
}

// Validate implements validation.Validator
func (c *Config) Validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewTCPAddressValidator(c.Address())).
		AddAssertion(strings.HasPrefix(c.path, "/"), "path must start with /").
		AddAssertion(c.maxFrameSize > frameHeaderSize, "max frame size is too small").
		AddAssertion(c.maxInflight > 0, "max inflight must be greater than zero").
		AddAssertion(c.maxConnections >= 0, "max connections must not be negative").
		AddAssertion(c.writeTimeout > 0, "write timeout must be greater than zero").
		AddAssertion(c.handshakeTimeout > 0, "handshake timeout must be greater than zero").
		AddAssertion(c.compression >= NoCompression && c.compression <= BrotliCompression, "compression is not supported").
		AddAssertion(c.serializer != nil, "serializer is required").
		AddAssertion(c.hasher != nil, "hasher is required").
		AddAssertion(c.logger != nil, "logger is required").
		AddValidator(validation.Func(func() error {
			if (c.serverTLS == nil) != (c.clientTLS == nil) {
				return errors.ErrInvalidTLSConfiguration
			}
			return nil
		})).
		Validate()
}
