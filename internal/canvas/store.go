/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas holds the element store: the single source of truth for canvas
// elements, the selection and the clipboard.
//
// Every operation is total. Unknown ids are no-ops reported through the return
// value, never errors. Subscribers are notified synchronously after each
// mutation, outside the store lock, so they may read the store back.
package canvas

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
)

// Op names the kind of mutation reported to subscribers.
type Op string

const (
	OpAdd       Op = "add"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpSelect    Op = "select"
	OpPaste     Op = "paste"
	OpDuplicate Op = "duplicate"
	OpLayer     Op = "layer"
	OpClear     Op = "clear"
)

// Change is delivered to subscribers after a mutation.
type Change struct {
	Op  Op       `json:"op"`
	IDs []string `json:"ids,omitempty"`
}

// Edit pairs an element id with the patch to apply in a batch.
type Edit struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

// Snapshot is a detached copy of the store's observable state.
type Snapshot struct {
	Elements    []Element `json:"elements"`
	SelectedIDs []string  `json:"selectedIds"`
}

type subscriber struct {
	id int
	fn func(Change)
}

// Store is safe for concurrent use, though the engine drives it from one event loop.
type Store struct {
	mu        sync.Mutex
	elements  []Element
	selected  []string
	clipboard []Element
	subs      []subscriber
	nextSub   int

	newID func() string
	log   *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithIDFunc replaces the uuid generator, mainly for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString, log: applog.WithComponent("canvas")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(c Change) {
	s.mu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(c)
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueIDLocked() string {
	base := s.newID()
	if base == "" {
		base = "el"
	}
	id := base
	for n := 1; s.indexLocked(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// AddElement creates an element of type t, applies init over the numeric defaults
// and replaces the selection with the new id.
func (s *Store) AddElement(t ElementType, init Patch) string {
	if !t.Valid() {
		s.log.Warn("adding element of unknown type", slog.String("type", string(t)))
	}
	e := Element{Type: t, Width: 100, Height: 100, ScaleX: 1, ScaleY: 1, Opacity: 1, ZIndex: 1}
	init.apply(&e)

	s.mu.Lock()
	e.ID = s.uniqueIDLocked()
	s.elements = append(s.elements, e)
	s.selected = []string{e.ID}
	s.mu.Unlock()

	s.log.Debug("element added", slog.String("id", e.ID), slog.String("type", string(t)))
	s.emit(Change{Op: OpAdd, IDs: []string{e.ID}})
	return e.ID
}

// UpdateElement shallow-merges p into the element with id. Missing ids are a no-op.
func (s *Store) UpdateElement(id string, p Patch) bool {
	return s.UpdateBatch([]Edit{{ID: id, Patch: p}}) == 1
}

// UpdateElements applies the same patch to every listed id and notifies once.
func (s *Store) UpdateElements(ids []string, p Patch) int {
	edits := make([]Edit, 0, len(ids))
	for _, id := range ids {
		edits = append(edits, Edit{ID: id, Patch: p})
	}
	return s.UpdateBatch(edits)
}

// UpdateBatch applies all edits under one lock and emits a single change.
// It returns the number of edits whose id existed.
func (s *Store) UpdateBatch(edits []Edit) int {
	s.mu.Lock()
	var ids []string
	for _, ed := range edits {
		i := s.indexLocked(ed.ID)
		if i < 0 {
			continue
		}
		ed.Patch.apply(&s.elements[i])
		ids = append(ids, ed.ID)
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return 0
	}
	s.emit(Change{Op: OpUpdate, IDs: ids})
	return len(ids)
}

// DeleteElement removes the element and its selection entry in one mutation.
func (s *Store) DeleteElement(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	s.selected = without(s.selected, id)
	s.mu.Unlock()

	s.log.Debug("element deleted", slog.String("id", id))
	s.emit(Change{Op: OpDelete, IDs: []string{id}})
	return true
}

// SetSelectedIDs replaces the selection wholesale. Ids are not validated; readers skip missing ones.
func (s *Store) SetSelectedIDs(ids []string) {
	sel := dedupe(ids)
	s.mu.Lock()
	s.selected = sel
	s.mu.Unlock()
	s.emit(Change{Op: OpSelect, IDs: append([]string(nil), sel...)})
}

// ClearCanvas removes every element and clears the selection. The clipboard is kept.
func (s *Store) ClearCanvas() {
	s.mu.Lock()
	s.elements = nil
	s.selected = nil
	s.mu.Unlock()
	s.log.Info("canvas cleared")
	s.emit(Change{Op: OpClear})
}

// GetElement returns a copy of the element with id.
func (s *Store) GetElement(id string) (Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Element{}, false
	}
	return s.elements[i].Clone(), true
}

// Elements returns copies of all elements in insertion order.
func (s *Store) Elements() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.elements)
}

// PaintOrder returns elements sorted bottom to top. Equal zIndex keeps insertion order.
func (s *Store) PaintOrder() []Element {
	out := s.Elements()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// Selected returns the selected elements in selection order, skipping ids that no longer exist.
func (s *Store) Selected() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Element, 0, len(s.selected))
	for _, id := range s.selected {
		if i := s.indexLocked(id); i >= 0 {
			out = append(out, s.elements[i].Clone())
		}
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Elements: cloneAll(s.elements), SelectedIDs: append([]string{}, s.selected...)}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

// HitTest returns the topmost visible element containing the canvas point p.
func (s *Store) HitTest(p geom.Pt) (Element, bool) {
	order := s.PaintOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].IsVisible() && order[i].Contains(p) {
			return order[i], true
		}
	}
	return Element{}, false
}

func cloneAll(in []Element) []Element {
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
