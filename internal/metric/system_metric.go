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

import "go.opentelemetry.io/otel/metric"

// SystemMetric groups the instruments describing an actor system.
//
// Instruments:
//   - actorsystem.actors.count   (Int64ObservableGauge)
//   - actorsystem.calls.pending  (Int64ObservableGauge)
//   - actorsystem.timers.count   (Int64ObservableGauge)
//   - actorsystem.messages.count (Int64ObservableCounter)
type SystemMetric struct {
	actorsCount   metric.Int64ObservableGauge
	pendingCalls  metric.Int64ObservableGauge
	timersCount   metric.Int64ObservableGauge
	messagesCount metric.Int64ObservableCounter
}

// NewSystemMetric creates the actor system instruments
func NewSystemMetric(meter metric.Meter) (*SystemMetric, error) {
	var instruments SystemMetric
	var err error

	if instruments.actorsCount, err = meter.Int64ObservableGauge(
		"actorsystem.actors.count",
		metric.WithDescription("Number of actors registered in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.pendingCalls, err = meter.Int64ObservableGauge(
		"actorsystem.calls.pending",
		metric.WithDescription("Number of calls awaiting a response"),
	); err != nil {
		return nil, err
	}

	if instruments.timersCount, err = meter.Int64ObservableGauge(
		"actorsystem.timers.count",
		metric.WithDescription("Number of timers scheduled on the timer wheel"),
	); err != nil {
		return nil, err
	}

	if instruments.messagesCount, err = meter.Int64ObservableCounter(
		"actorsystem.messages.count",
		metric.WithDescription("Total number of messages delivered to actors"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ActorsCount returns the gauge of registered actors
func (x *SystemMetric) ActorsCount() metric.Int64ObservableGauge {
	return x.actorsCount
}

// PendingCalls returns the gauge of calls awaiting a response
func (x *SystemMetric) PendingCalls() metric.Int64ObservableGauge {
	return x.pendingCalls
}

// TimersCount returns the gauge of scheduled timers
func (x *SystemMetric) TimersCount() metric.Int64ObservableGauge {
	return x.timersCount
}

// MessagesCount returns the counter of delivered messages
func (x *SystemMetric) MessagesCount() metric.Int64ObservableCounter {
	return x.messagesCount
}
