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

// Package log exposes the logging sink used by every runtime component
// together with package-level helpers writing through DefaultLogger.
package log

// Debug logs to DEBUG level.
func Debug(v ...any) { DefaultLogger.Debug(v...) }

// Debugf logs to DEBUG level.
func Debugf(format string, v ...any) { DefaultLogger.Debugf(format, v...) }

// Info logs to INFO level.
func Info(v ...any) { DefaultLogger.Info(v...) }

// Infof logs to INFO level.
func Infof(format string, v ...any) { DefaultLogger.Infof(format, v...) }

// Warn logs to WARNING level.
func Warn(v ...any) { DefaultLogger.Warn(v...) }

// Warnf logs to WARNING level.
func Warnf(format string, v ...any) { DefaultLogger.Warnf(format, v...) }

// Error logs to ERROR level.
func Error(v ...any) { DefaultLogger.Error(v...) }

// Errorf logs to ERROR level.
func Errorf(format string, v ...any) { DefaultLogger.Errorf(format, v...) }
