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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ServerMetric defines the instruments of a remote server
type ServerMetric struct {
	connections metric.Int64ObservableGauge
	inflight    metric.Int64ObservableGauge
	dispatched  metric.Int64ObservableCounter
	dropped     metric.Int64ObservableCounter
}

// NewServerMetric creates an instance of ServerMetric
func NewServerMetric(meter metric.Meter) (*ServerMetric, error) {
	serverMetric := new(ServerMetric)
	var err error

	if serverMetric.connections, err = meter.Int64ObservableGauge(
		"remote_connections",
		metric.WithDescription("Number of open connections"),
	); err != nil {
		return nil, fmt.Errorf("failed to create connections instrument, %w", err)
	}

	if serverMetric.inflight, err = meter.Int64ObservableGauge(
		"remote_inflight_requests",
		metric.WithDescription("Number of requests being dispatched"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inflight instrument, %w", err)
	}

	if serverMetric.dispatched, err = meter.Int64ObservableCounter(
		"remote_dispatched_count",
		metric.WithDescription("Total number of requests answered"),
	); err != nil {
		return nil, fmt.Errorf("failed to create dispatched instrument, %w", err)
	}

	if serverMetric.dropped, err = meter.Int64ObservableCounter(
		"remote_dropped_count",
		metric.WithDescription("Total number of frames dropped"),
	); err != nil {
		return nil, fmt.Errorf("failed to create dropped instrument, %w", err)
	}

	return serverMetric, nil
}

// Connections returns the open connections gauge
func (x *ServerMetric) Connections() metric.Int64ObservableGauge {
	return x.connections
}

// Inflight returns the in-flight requests gauge
func (x *ServerMetric) Inflight() metric.Int64ObservableGauge {
	return x.inflight
}

// Dispatched returns the answered requests counter
func (x *ServerMetric) Dispatched() metric.Int64ObservableCounter {
	return x.dispatched
}

// Dropped returns the dropped frames counter
func (x *ServerMetric) Dropped() metric.Int64ObservableCounter {
	return x.dropped
}

// Instruments returns every observable instrument
func (x *ServerMetric) Instruments() []metric.Observable {
	return []metric.Observable{x.connections, x.inflight, x.dispatched, x.dropped}
}
