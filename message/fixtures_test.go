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

package message

type ping struct {
	Text string
}

func (*ping) MsgID() uint32 { return 1 }

type echoRequest struct {
	RequestHeader
	Text string
}

func (*echoRequest) MsgID() uint32    { return 2 }
func (*echoRequest) AckMsgID() uint32 { return 3 }

type echoResponse struct {
	ResponseHeader
	Text string
}

func (*echoResponse) MsgID() uint32 { return 3 }

type orphanRequest struct {
	RequestHeader
}

func (*orphanRequest) MsgID() uint32    { return 4 }
func (*orphanRequest) AckMsgID() uint32 { return 40 }

type receiver struct {
	pings []string
}

type other struct {
	count int
}
