/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package selection

import (
	"errors"
	"testing"

	"gocanvas/internal/canvas"
	"gocanvas/internal/frame"
	"gocanvas/internal/geom"
	"gocanvas/internal/gesture"
	"gocanvas/internal/viewport"
)

func TestTextEditCommitAndCancel(t *testing.T) {
	store, _, c := newController(t)
	id := store.AddElement(canvas.TypeText, canvas.Patch{Content: canvas.String("Add text")})

	if err := c.BeginTextEdit(id); err != nil {
		t.Fatalf("BeginTextEdit: %v", err)
	}
	c.SetDraft("Hello")
	if c.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Fatalf("shortcuts must be ignored while editing text")
	}
	if !c.HandleKey(KeyEvent{Key: "Escape"}) {
		t.Fatalf("Escape should close the edit")
	}
	e, _ := store.GetElement(id)
	if e.Content != "Hello" {
		t.Fatalf("Escape should commit the draft, content=%q", e.Content)
	}
	if len(c.IDs()) != 1 {
		t.Fatalf("closing the edit keeps the selection")
	}

	c.BeginTextEdit(id)
	c.SetDraft("discarded")
	if !c.CancelTextEdit() {
		t.Fatalf("cancel should report an active edit")
	}
	e, _ = store.GetElement(id)
	if e.Content != "Hello" {
		t.Fatalf("cancel must not write, content=%q", e.Content)
	}
	if c.SetDraft("x") || c.CommitTextEdit() {
		t.Fatalf("no edit should be active after cancel")
	}
}

func TestTextEditRejectsNonText(t *testing.T) {
	store, _, c := newController(t)
	id := store.AddElement(canvas.TypeShape, canvas.Patch{})
	if err := c.BeginTextEdit(id); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
	if err := c.BeginTextEdit("missing"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable for missing id, got %v", err)
	}
}

func TestDeletingEditedElementEndsEdit(t *testing.T) {
	store, _, c := newController(t)
	id := store.AddElement(canvas.TypeText, canvas.Patch{})
	c.BeginTextEdit(id)
	store.DeleteElement(id)
	if _, ok := c.Editing(); ok {
		t.Fatalf("edit should end when its element is deleted")
	}
}

func TestSwitchingEditCommitsPrevious(t *testing.T) {
	store, _, c := newController(t)
	a := store.AddElement(canvas.TypeText, canvas.Patch{})
	b := store.AddElement(canvas.TypeText, canvas.Patch{})
	c.BeginTextEdit(a)
	c.SetDraft("first")
	c.BeginTextEdit(b)
	e, _ := store.GetElement(a)
	if e.Content != "first" {
		t.Fatalf("previous edit should be committed, got %q", e.Content)
	}
	if cur, _ := c.Editing(); cur.ID != b {
		t.Fatalf("editing %q, want %q", cur.ID, b)
	}
}

func TestEscapeDuringDragAbortsGestureAndClosesEdit(t *testing.T) {
	store := canvas.NewStore()
	g := gesture.New(store, viewport.New(viewport.DefaultConfig()), gesture.Options{})
	c := New(store, frame.NewLoop(), WithGesture(g))
	t.Cleanup(c.Close)

	id := store.AddElement(canvas.TypeText, canvas.Patch{X: canvas.Float(10), Y: canvas.Float(10)})
	if err := c.BeginTextEdit(id); err != nil {
		t.Fatalf("BeginTextEdit: %v", err)
	}
	c.SetDraft("Draft")
	if err := g.BeginDrag([]string{id}, geom.Pt{}); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}
	g.Move(geom.Pt{X: 30, Y: 30})

	if !c.HandleKey(KeyEvent{Key: "Escape"}) {
		t.Fatalf("Escape should be handled")
	}
	if g.State() != gesture.Idle {
		t.Fatalf("gesture still %s after Escape", g.State())
	}
	if _, ok := g.Live(id); ok {
		t.Fatalf("live transform left behind after Escape")
	}
	if _, editing := c.Editing(); editing {
		t.Fatalf("text edit still active after Escape")
	}
	e, _ := store.GetElement(id)
	if e.X != 10 || e.Y != 10 || e.Content != "Draft" {
		t.Fatalf("drag must be discarded and the draft committed, got x=%v y=%v content=%q", e.X, e.Y, e.Content)
	}
}

func TestEscapeWithOnlyAGestureIsHandled(t *testing.T) {
	store := canvas.NewStore()
	g := gesture.New(store, viewport.New(viewport.DefaultConfig()), gesture.Options{})
	c := New(store, frame.NewLoop(), WithGesture(g))
	t.Cleanup(c.Close)
	id := store.AddElement(canvas.TypeShape, canvas.Patch{})
	store.SetSelectedIDs(nil)

	if c.HandleKey(KeyEvent{Key: "Escape"}) {
		t.Fatalf("Escape with nothing to do should not be handled")
	}
	if err := g.BeginRotate([]string{id}, geom.Pt{X: 5}); err != nil {
		t.Fatalf("BeginRotate: %v", err)
	}
	if !c.HandleKey(KeyEvent{Key: "Escape", TextInputFocused: true}) {
		t.Fatalf("aborting a gesture counts as handling Escape")
	}
	if g.State() != gesture.Idle {
		t.Fatalf("gesture not aborted")
	}
}
