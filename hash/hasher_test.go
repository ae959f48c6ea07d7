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

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeebo/xxh3"
)

func TestDefaultHasher(t *testing.T) {
	hasher := DefaultHasher()
	key := []byte("example::remote::sum")

	assert.Equal(t, xxh3.Hash(key), hasher.HashCode(key))
	assert.Equal(t, hasher.HashCode(key), hasher.HashCode([]byte("example::remote::sum")))
	assert.NotEqual(t, hasher.HashCode(key), hasher.HashCode([]byte("example::remote::mul")))
}

func TestHasherFunc(t *testing.T) {
	hasher := HasherFunc(func([]byte) uint64 { return 42 })
	assert.EqualValues(t, 42, hasher.HashCode([]byte("anything")))
}
