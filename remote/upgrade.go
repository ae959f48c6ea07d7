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
)

// Upgrade exposes local addresses over the network: it builds a Registry,
// lets register fill it and starts a Server on it.
//
//	server, err := remote.Upgrade(ctx, remote.NewConfig("0.0.0.0", 9000), func(registry *remote.Registry) error {
//		return remote.Register[*Sum, int](registry, address)
//	})
func Upgrade(ctx context.Context, config *Config, register func(registry *Registry) error) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	registry := NewRegistry(config.hasher, config.serializer)
	if err := register(registry); err != nil {
		registry.Close()
		return nil, err
	}

	server, err := NewServer(registry, config)
	if err != nil {
		registry.Close()
		return nil, err
	}

	if err := server.Start(ctx); err != nil {
		registry.Close()
		server.codec.close()
		return nil, err
	}
	return server, nil
}
