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

package did

var defaultGenerator = New()

// Default returns the process-wide generator used by the package-level functions.
func Default() *Generator {
	return defaultGenerator
}

// Init initializes the process-wide generator for node.
func Init(node uint16) error {
	return defaultGenerator.Init(node)
}

// Next returns the next identity of the process-wide generator.
func Next() (ID, error) {
	return defaultGenerator.Next()
}

// LocalID builds a well-known identity on the current node.
func LocalID(localID uint32) (ID, error) {
	return defaultGenerator.Make(localID)
}

// MakeFor builds a well-known identity on node.
func MakeFor(localID uint32, node uint16) (ID, error) {
	return defaultGenerator.MakeFor(localID, node)
}

// GetPid returns the node field of id once the process-wide generator is initialized.
func GetPid(id ID) (uint16, error) {
	return defaultGenerator.GetPid(id)
}
