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

// PasteOffset is applied to both axes for pasted and duplicated elements.
const PasteOffset = 20.0

// CopyElements replaces the clipboard with detached copies of the matching elements.
// Copies are kept in insertion order; missing ids are skipped.
func (s *Store) CopyElements(ids []string) int {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.Lock()
	clip := make([]Element, 0, len(ids))
	for _, e := range s.elements {
		if _, ok := want[e.ID]; ok {
			clip = append(clip, e.Clone())
		}
	}
	s.clipboard = clip
	s.mu.Unlock()
	s.log.Debug("copied to clipboard", slog.Int("count", len(clip)))
	return len(clip)
}

// Clipboard returns copies of the clipboard contents.
func (s *Store) Clipboard() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.clipboard)
}

// PasteElements inserts fresh-id copies of the clipboard and selects them.
// The clipboard itself is left unchanged, so repeated pastes land on the same offset.
func (s *Store) PasteElements() []string {
	s.mu.Lock()
	if len(s.clipboard) == 0 {
		s.mu.Unlock()
		return nil
	}
	ids := s.insertCopiesLocked(s.clipboard)
	s.mu.Unlock()
	s.emit(Change{Op: OpPaste, IDs: append([]string(nil), ids...)})
	return ids
}

// DuplicateElements copies the current elements matching ids, leaving the clipboard untouched.
func (s *Store) DuplicateElements(ids []string) []string {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.Lock()
	var src []Element
	for _, e := range s.elements {
		if _, ok := want[e.ID]; ok {
			src = append(src, e)
		}
	}
	if len(src) == 0 {
		s.mu.Unlock()
		return nil
	}
	out := s.insertCopiesLocked(src)
	s.mu.Unlock()
	s.emit(Change{Op: OpDuplicate, IDs: append([]string(nil), out...)})
	return out
}

// insertCopiesLocked appends offset copies stacked above the current maximum zIndex,
// keeping their relative paint order, and selects exactly the new ids.
func (s *Store) insertCopiesLocked(src []Element) []string {
	copies := cloneAll(src)
	sort.SliceStable(copies, func(i, j int) bool { return copies[i].ZIndex < copies[j].ZIndex })
	top := s.maxZLocked()
	ids := make([]string, 0, len(copies))
	for i := range copies {
		c := copies[i]
		c.ID = s.uniqueIDLocked()
		s.freshChildIDsLocked(c.Children)
		c.X += PasteOffset
		c.Y += PasteOffset
		c.ZIndex = top + 1 + i
		s.elements = append(s.elements, c)
		ids = append(ids, c.ID)
	}
	s.selected = append([]string(nil), ids...)
	return ids
}

func (s *Store) freshChildIDsLocked(children []Element) {
	for i := range children {
		children[i].ID = s.newID()
		s.freshChildIDsLocked(children[i].Children)
	}
}

func (s *Store) maxZLocked() int {
	if len(s.elements) == 0 {
		return 0
	}
	m := s.elements[0].ZIndex
	for _, e := range s.elements[1:] {
		m = max(m, e.ZIndex)
	}
	return m
}
