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

// BrokerMetric defines the instruments of an actor pool
type BrokerMetric struct {
	// Specifies the total number of messages processed by the pool
	processedCount metric.Int64ObservableCounter
	// Specifies the total number of restarts across the pool
	restartCount metric.Int64ObservableCounter
	// Specifies the total number of panics captured across the pool
	panicCount metric.Int64ObservableCounter
	// Specifies the number of running instances
	aliveCount metric.Int64ObservableGauge
	// Specifies the number of messages waiting in the mailbox
	mailboxDepth metric.Int64ObservableGauge
}

// NewBrokerMetric creates an instance of BrokerMetric
func NewBrokerMetric(meter metric.Meter) (*BrokerMetric, error) {
	brokerMetric := new(BrokerMetric)
	var err error

	if brokerMetric.processedCount, err = meter.Int64ObservableCounter(
		"broker_processed_count",
		metric.WithDescription("Total number of messages processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processedCount instrument, %w", err)
	}

	if brokerMetric.restartCount, err = meter.Int64ObservableCounter(
		"broker_restart_count",
		metric.WithDescription("Total number of restarts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create restartCount instrument, %w", err)
	}

	if brokerMetric.panicCount, err = meter.Int64ObservableCounter(
		"broker_panic_count",
		metric.WithDescription("Total number of panics captured"),
	); err != nil {
		return nil, fmt.Errorf("failed to create panicCount instrument, %w", err)
	}

	if brokerMetric.aliveCount, err = meter.Int64ObservableGauge(
		"broker_alive_count",
		metric.WithDescription("Number of running actor instances"),
	); err != nil {
		return nil, fmt.Errorf("failed to create aliveCount instrument, %w", err)
	}

	if brokerMetric.mailboxDepth, err = meter.Int64ObservableGauge(
		"broker_mailbox_depth",
		metric.WithDescription("Number of messages waiting in the mailbox"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mailboxDepth instrument, %w", err)
	}

	return brokerMetric, nil
}

// ProcessedCount returns the total number of messages processed
func (x *BrokerMetric) ProcessedCount() metric.Int64ObservableCounter {
	return x.processedCount
}

// RestartCount returns the total number of restarts
func (x *BrokerMetric) RestartCount() metric.Int64ObservableCounter {
	return x.restartCount
}

// PanicCount returns the total number of panics captured
func (x *BrokerMetric) PanicCount() metric.Int64ObservableCounter {
	return x.panicCount
}

// AliveCount returns the number of running instances
func (x *BrokerMetric) AliveCount() metric.Int64ObservableGauge {
	return x.aliveCount
}

// MailboxDepth returns the number of queued messages
func (x *BrokerMetric) MailboxDepth() metric.Int64ObservableGauge {
	return x.mailboxDepth
}

// Instruments returns every observable instrument, as expected by metric.Meter.RegisterCallback
func (x *BrokerMetric) Instruments() []metric.Observable {
	return []metric.Observable{
		x.processedCount,
		x.restartCount,
		x.panicCount,
		x.aliveCount,
		x.mailboxDepth,
	}
}
