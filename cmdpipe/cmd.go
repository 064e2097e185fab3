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

// Package cmdpipe is a best-effort dispatch path for process-wide signals
// that do not go through actor mailboxes. A command is routed by the type
// of the context it is executed against and by its pipe id; commands
// without a matching pipe are ignored.
package cmdpipe

import (
	"fmt"

	gerrors "github.com/tochemey/fastsu/errors"
)

// Cmd is a command sent through a pipe
type Cmd struct {
	PipeID uint16
	CmdID  uint16
	SrcID  uint32
	Arg1   any
	Arg2   any
}

// NewCmd creates a command for pipeID. Pipe id 0 is reserved.
func NewCmd(pipeID, cmdID uint16, srcID uint32, args ...any) (Cmd, error) {
	if pipeID == 0 {
		return Cmd{}, gerrors.ErrInvalidPipeID
	}

	if len(args) > 2 {
		return Cmd{}, fmt.Errorf("command %d/%d: at most 2 arguments, got %d", pipeID, cmdID, len(args))
	}

	cmd := Cmd{PipeID: pipeID, CmdID: cmdID, SrcID: srcID}
	if len(args) > 0 {
		cmd.Arg1 = args[0]
	}
	if len(args) > 1 {
		cmd.Arg2 = args[1]
	}
	return cmd, nil
}
