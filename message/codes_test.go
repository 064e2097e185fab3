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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/fastsu/errors"
)

func TestIsThrow(t *testing.T) {
	assert.False(t, IsThrow(CodeSuccess))
	assert.False(t, IsThrow(CodeException))
	assert.True(t, IsThrow(CodeServiceNotFound))
	assert.True(t, IsThrow(100))
	assert.False(t, IsThrow(101))
	assert.False(t, IsThrow(-1))
}

func TestCheckResponse(t *testing.T) {
	resp := new(echoResponse)
	require.NoError(t, CheckResponse(resp))
	require.NoError(t, CheckResponse(nil))

	resp.SetErrCode(CodeException)
	resp.SetErrMsg("boom")
	require.NoError(t, CheckResponse(resp))

	resp.SetErrCode(CodeServiceNotFound)
	err := CheckResponse(resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, gerrors.ErrServiceNotFound)
	assert.NotErrorIs(t, err, gerrors.ErrDisconnected)
	assert.Equal(t, "rpc error: code=2: boom", err.Error())

	resp.SetErrCode(42)
	resp.SetErrMsg("")
	err = CheckResponse(resp)
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.EqualValues(t, 42, respErr.Code)
	assert.Equal(t, "rpc error: code=42", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSuccess, CodeOf(nil))
	assert.Equal(t, CodeServiceNotFound, CodeOf(fmt.Errorf("wrapped: %w", gerrors.ErrServiceNotFound)))
	assert.Equal(t, CodeDisconnected, CodeOf(gerrors.ErrDisconnected))
	assert.Equal(t, CodeTimeout, CodeOf(gerrors.ErrRequestTimeout))
	assert.Equal(t, int32(42), CodeOf(&ResponseError{Code: 42}))
	assert.Equal(t, CodeException, CodeOf(errors.New("boom")))
}
