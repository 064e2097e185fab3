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

import (
	"errors"
	"fmt"

	gerrors "github.com/tochemey/fastsu/errors"
)

// Response error codes. Codes in (CodeException, 100] are raised as errors
// by the caller's runtime; every other code is ordinary data.
const (
	CodeSuccess         int32 = 0
	CodeException       int32 = 1
	CodeServiceNotFound int32 = 2
	CodeDisconnected    int32 = 3
	CodeTimeout         int32 = 4

	maxThrowCode int32 = 100
)

// IsThrow reports whether code must be raised as an error
func IsThrow(code int32) bool {
	return code > CodeException && code <= maxThrowCode
}

// ResponseError is the error raised for a response carrying a throw code
type ResponseError struct {
	Code int32
	Msg  string
}

var _ error = (*ResponseError)(nil)

// Error implements the standard error interface
func (e *ResponseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("rpc error: code=%d", e.Code)
	}
	return fmt.Sprintf("rpc error: code=%d: %s", e.Code, e.Msg)
}

// Is matches the runtime sentinel corresponding to the code
func (e *ResponseError) Is(target error) bool {
	switch e.Code {
	case CodeServiceNotFound:
		return target == gerrors.ErrServiceNotFound
	case CodeDisconnected:
		return target == gerrors.ErrDisconnected
	case CodeTimeout:
		return target == gerrors.ErrRequestTimeout
	}
	return false
}

// CheckResponse returns a *ResponseError when resp carries a throw code
func CheckResponse(resp Response) error {
	if resp == nil || !IsThrow(resp.ErrCode()) {
		return nil
	}
	return &ResponseError{Code: resp.ErrCode(), Msg: resp.ErrMsg()}
}

// CodeOf maps an error to the response code sent back to a remote caller
func CodeOf(err error) int32 {
	var respErr *ResponseError
	switch {
	case err == nil:
		return CodeSuccess
	case errors.As(err, &respErr):
		return respErr.Code
	case errors.Is(err, gerrors.ErrServiceNotFound):
		return CodeServiceNotFound
	case errors.Is(err, gerrors.ErrDisconnected):
		return CodeDisconnected
	case errors.Is(err, gerrors.ErrRequestTimeout):
		return CodeTimeout
	default:
		return CodeException
	}
}
