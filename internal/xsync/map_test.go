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

package xsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	value, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, value)
	assert.Equal(t, 2, m.Len())

	current, stored := m.SetIfAbsent("a", 10)
	assert.False(t, stored)
	assert.Equal(t, 1, current)

	current, stored = m.SetIfAbsent("c", 3)
	assert.True(t, stored)
	assert.Equal(t, 3, current)

	value, ok = m.Pop("b")
	require.True(t, ok)
	assert.Equal(t, 2, value)
	_, ok = m.Pop("b")
	assert.False(t, ok)

	m.Delete("c")
	assert.ElementsMatch(t, []int{1}, m.Values())

	seen := 0
	m.Range(func(string, int) { seen++ })
	assert.Equal(t, 1, seen)

	m.Set("d", 4)
	assert.ElementsMatch(t, []int{1, 4}, m.Drain())
	assert.Zero(t, m.Len())
}

func TestMapPopIsExclusive(t *testing.T) {
	m := NewMap[int, int]()
	m.Set(1, 1)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		popped int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Pop(1); ok {
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, popped)
}
