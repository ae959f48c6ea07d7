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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/courier/hash"
	"github.com/tochemey/courier/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *Config)

// Apply applies the options to Config
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// WithPath sets the HTTP path of the websocket endpoint
func WithPath(path string) Option {
	return OptionFunc(func(config *Config) {
		config.path = path
	})
}

// WithMaxFrameSize sets the largest frame accepted, in bytes
func WithMaxFrameSize(size int) Option {
	return OptionFunc(func(config *Config) {
		config.maxFrameSize = size
	})
}

// WithMaxInflight sets how many requests of one connection are dispatched
// concurrently. One handles requests strictly in order.
func WithMaxInflight(inflight int) Option {
	return OptionFunc(func(config *Config) {
		config.maxInflight = inflight
	})
}

// WithMaxConnections caps the number of connections a Server accepts at once
func WithMaxConnections(connections int) Option {
	return OptionFunc(func(config *Config) {
		config.maxConnections = connections
	})
}

// WithWriteTimeout sets the timeout of every frame write
func WithWriteTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.writeTimeout = timeout
	})
}

// WithHandshakeTimeout sets the timeout of the websocket handshake
func WithHandshakeTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.handshakeTimeout = timeout
	})
}

// WithCompression sets the frame compression. Both ends must use the same.
func WithCompression(compression Compression) Option {
	return OptionFunc(func(config *Config) {
		config.compression = compression
	})
}

// WithPermessageDeflate negotiates the websocket permessage-deflate extension
func WithPermessageDeflate() Option {
	return OptionFunc(func(config *Config) {
		config.permessageDeflate = true
	})
}

// WithTLS secures connections. The server configuration is used when listening
// and the client one when dialing.
func WithTLS(server, client *tls.Config) Option {
	return OptionFunc(func(config *Config) {
		config.serverTLS = server
		config.clientTLS = client
	})
}

// WithSerializer sets the payload serializer. Protobuf messages always use ProtoSerializer.
func WithSerializer(serializer Serializer) Option {
	return OptionFunc(func(config *Config) {
		config.serializer = serializer
	})
}

// WithHasher sets the hasher computing fingerprints. Both ends must use the same.
func WithHasher(hasher hash.Hasher) Option {
	return OptionFunc(func(config *Config) {
		config.hasher = hasher
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *Config) {
		config.logger = logger
	})
}

// WithMeterProvider enables the OpenTelemetry instruments of a Server
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(config *Config) {
		config.meterProvider = provider
	})
}
