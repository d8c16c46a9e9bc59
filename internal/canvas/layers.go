/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"log/slog"
	"sort"
)

// Direction selects the neighbour for MoveLayer.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// BringToFront lifts id strictly above every other element.
// An element already strictly on top is left alone so repeated calls do not inflate zIndex.
// The only element on the canvas is trivially on top and at the bottom: BringToFront and
// SendToBack both leave its zIndex unchanged.
func (s *Store) BringToFront(id string) bool {
	return s.restack(id, func(self int, others []int) (int, bool) {
		top := others[len(others)-1]
		if self > top {
			return 0, false
		}
		return top + 1, true
	})
}

// SendToBack drops id strictly below every other element.
func (s *Store) SendToBack(id string) bool {
	return s.restack(id, func(self int, others []int) (int, bool) {
		bottom := others[0]
		if self < bottom {
			return 0, false
		}
		return bottom - 1, true
	})
}

// MoveLayer steps id to the nearest distinct zIndex above or below its own.
// Landing on a value shared with another element is allowed; no-op at either extreme.
func (s *Store) MoveLayer(id string, dir Direction) bool {
	return s.restack(id, func(self int, others []int) (int, bool) {
		switch dir {
		case Up:
			for _, z := range others {
				if z > self {
					return z, true
				}
			}
		case Down:
			for i := len(others) - 1; i >= 0; i-- {
				if others[i] < self {
					return others[i], true
				}
			}
		}
		return 0, false
	})
}

// restack hands next the element's zIndex and the sorted zIndex values of all other elements.
// With no other elements there is nothing to restack against.
func (s *Store) restack(id string, next func(self int, others []int) (int, bool)) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 || len(s.elements) < 2 {
		s.mu.Unlock()
		return false
	}
	others := make([]int, 0, len(s.elements)-1)
	for j, e := range s.elements {
		if j != i {
			others = append(others, e.ZIndex)
		}
	}
	sort.Ints(others)
	z, ok := next(s.elements[i].ZIndex, others)
	if !ok || z == s.elements[i].ZIndex {
		s.mu.Unlock()
		return false
	}
	from := s.elements[i].ZIndex
	s.elements[i].ZIndex = z
	s.mu.Unlock()

	s.log.Debug("element restacked", slog.String("id", id), slog.Int("from", from), slog.Int("to", z))
	s.emit(Change{Op: OpLayer, IDs: []string{id}})
	return true
}

// CompactLayers renumbers zIndex to 1..n in current paint order. Never called implicitly.
func (s *Store) CompactLayers() bool {
	s.mu.Lock()
	order := make([]int, len(s.elements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return s.elements[order[a]].ZIndex < s.elements[order[b]].ZIndex })
	changed := false
	var ids []string
	for rank, idx := range order {
		if s.elements[idx].ZIndex != rank+1 {
			s.elements[idx].ZIndex = rank + 1
			ids = append(ids, s.elements[idx].ID)
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.emit(Change{Op: OpLayer, IDs: ids})
	}
	return changed
}
