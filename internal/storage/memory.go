/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps history for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{items: map[string]Item{}} }

func (s *MemoryStore) Add(_ context.Context, it Item) (Item, error) {
	it = prepare(it)
	s.mu.Lock()
	s.items[it.ID] = it
	s.mu.Unlock()
	return it, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (s *MemoryStore) Reset(_ context.Context, original Item) (Item, error) {
	original.IsOriginal = true
	original = prepare(original)
	s.mu.Lock()
	clear(s.items)
	s.items[original.ID] = original
	s.mu.Unlock()
	return original, nil
}

func (s *MemoryStore) ClearGenerated(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if !it.IsOriginal {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func sortNewestFirst(items []Item) {
	slices.SortFunc(items, func(a, b Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
