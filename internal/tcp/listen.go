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

package tcp

import (
	"context"
	"fmt"
	"net"
)

// ListenConfig holds the socket options of a listener
type ListenConfig struct {
	// ReusePort enables SO_REUSEPORT where supported
	ReusePort bool
	// DeferAccept enables TCP_DEFER_ACCEPT where supported
	DeferAccept bool
}

// Listen opens a TCP listener on address with the given socket options
func Listen(ctx context.Context, address string, config ListenConfig) (*net.TCPListener, error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("resolving address %q: %w", address, err)
	}

	network := "tcp4"
	if addr.IP != nil && addr.IP.To4() == nil {
		network = "tcp6"
	}

	lc := net.ListenConfig{Control: control(config)}
	listener, err := lc.Listen(ctx, network, addr.String())
	if err != nil {
		return nil, err
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		_ = listener.Close()
		return nil, fmt.Errorf("unexpected listener type %T", listener)
	}
	return tcpListener, nil
}
