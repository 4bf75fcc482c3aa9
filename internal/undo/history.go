/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo provides the append/undo stack that backs editor history.
package undo

import (
	"iter"
	"sync"
)

// History is an ordered, append-only stack that shrinks only from the end.
// Insertion order is replay order. It is safe for concurrent use, although
// the editor drives it from a single event stream.
type History[T any] struct {
	mu    sync.Mutex
	items []T
}

// New returns an empty history.
func New[T any]() *History[T] { return &History[T]{} }

// Push appends v as the newest entry.
func (h *History[T]) Push(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, v)
}

// Pop removes and discards the newest entry. It reports whether an entry existed.
func (h *History[T]) Pop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.items)
	if n == 0 {
		return false
	}
	var zero T
	h.items[n-1] = zero // release references held by the dropped entry
	h.items = h.items[:n-1]
	return true
}

// Last returns the newest entry without removing it.
func (h *History[T]) Last() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[len(h.items)-1], true
}

// Len returns the number of entries.
func (h *History[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// All yields the entries oldest first. The sequence is a snapshot taken at
// call time: later Push/Pop calls do not affect it, and it can be ranged over
// any number of times.
func (h *History[T]) All() iter.Seq[T] {
	h.mu.Lock()
	snap := make([]T, len(h.items))
	copy(snap, h.items)
	h.mu.Unlock()
	return func(yield func(T) bool) {
		for _, v := range snap {
			if !yield(v) {
				return
			}
		}
	}
}

// Clear drops every entry.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.items)
	h.items = h.items[:0]
}
