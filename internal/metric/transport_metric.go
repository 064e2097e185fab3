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

// TransportMetric groups the instruments describing the inter-process transport.
type TransportMetric struct {
	nodesCount    metric.Int64ObservableGauge
	sendersCount  metric.Int64ObservableGauge
	droppedFrames metric.Int64ObservableCounter
}

// NewTransportMetric creates the transport instruments
func NewTransportMetric(meter metric.Meter) (*TransportMetric, error) {
	var instruments TransportMetric
	var err error

	if instruments.nodesCount, err = meter.Int64ObservableGauge(
		"transport.nodes.count",
		metric.WithDescription("Number of registered remote nodes"),
	); err != nil {
		return nil, err
	}

	if instruments.sendersCount, err = meter.Int64ObservableGauge(
		"transport.senders.count",
		metric.WithDescription("Number of live outbound connections"),
	); err != nil {
		return nil, err
	}

	if instruments.droppedFrames, err = meter.Int64ObservableCounter(
		"transport.frames.dropped",
		metric.WithDescription("Total number of fire-and-forget frames dropped on disconnect"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// NodesCount returns the gauge of registered nodes
func (x *TransportMetric) NodesCount() metric.Int64ObservableGauge {
	return x.nodesCount
}

// SendersCount returns the gauge of live outbound connections
func (x *TransportMetric) SendersCount() metric.Int64ObservableGauge {
	return x.sendersCount
}

// DroppedFrames returns the counter of dropped frames
func (x *TransportMetric) DroppedFrames() metric.Int64ObservableCounter {
	return x.droppedFrames
}
