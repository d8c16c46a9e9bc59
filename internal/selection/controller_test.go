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
)

func newController(t *testing.T) (*canvas.Store, *frame.Loop, *Controller) {
	t.Helper()
	store := canvas.NewStore()
	loop := frame.NewLoop()
	c := New(store, loop)
	t.Cleanup(c.Close)
	return store, loop, c
}

func z(t *testing.T, s *canvas.Store, id string) int {
	t.Helper()
	e, ok := s.GetElement(id)
	if !ok {
		t.Fatalf("element %s missing", id)
	}
	return e.ZIndex
}

func TestLayerOpsIterateSelectionInOrder(t *testing.T) {
	store, _, c := newController(t)
	a := store.AddElement(canvas.TypeShape, canvas.Patch{ZIndex: canvas.Int(1)})
	b := store.AddElement(canvas.TypeShape, canvas.Patch{ZIndex: canvas.Int(3)})
	store.AddElement(canvas.TypeShape, canvas.Patch{ZIndex: canvas.Int(5)})
	c.Select(a, b)

	if n := c.MoveUp(); n != 2 {
		t.Fatalf("MoveUp moved %d, want 2", n)
	}
	if z(t, store, a) != 3 || z(t, store, b) != 5 {
		t.Fatalf("unexpected z after MoveUp: a=%d b=%d", z(t, store, a), z(t, store, b))
	}
}

func TestDeleteKeyRemovesSelection(t *testing.T) {
	store, _, c := newController(t)
	a := store.AddElement(canvas.TypeShape, canvas.Patch{})
	b := store.AddElement(canvas.TypeShape, canvas.Patch{})
	keep := store.AddElement(canvas.TypeShape, canvas.Patch{})
	c.Select(a, b)

	if !c.HandleKey(KeyEvent{Key: "Backspace"}) {
		t.Fatalf("Backspace not handled")
	}
	if store.Len() != 1 || len(c.IDs()) != 0 {
		t.Fatalf("expected only %s left and empty selection, got len=%d sel=%v", keep, store.Len(), c.IDs())
	}
	if c.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Fatalf("Delete with empty selection should not be consumed")
	}
}

func TestShortcutsSuppressedWhileTyping(t *testing.T) {
	store, _, c := newController(t)
	store.AddElement(canvas.TypeShape, canvas.Patch{})
	if c.HandleKey(KeyEvent{Key: "Delete", TextInputFocused: true}) {
		t.Fatalf("shortcut should be suppressed while a text input has focus")
	}
	if store.Len() != 1 {
		t.Fatalf("element deleted while typing")
	}
	if c.HandleKey(KeyEvent{Key: "Escape", TextInputFocused: true}) {
		t.Fatalf("Escape in an unrelated input should not clear the selection")
	}
}

func TestLayerShortcutsRequireSingleSelection(t *testing.T) {
	store, _, c := newController(t)
	a := store.AddElement(canvas.TypeShape, canvas.Patch{ZIndex: canvas.Int(1)})
	b := store.AddElement(canvas.TypeShape, canvas.Patch{ZIndex: canvas.Int(2)})
	c.Select(a, b)
	if c.HandleKey(KeyEvent{Key: "]", Ctrl: true}) {
		t.Fatalf("layer shortcut must ignore multi-selection")
	}

	c.Select(a)
	if !c.HandleKey(KeyEvent{Key: "}", Meta: true, Shift: true}) {
		t.Fatalf("Cmd+Shift+] not handled")
	}
	if z(t, store, a) != 3 {
		t.Fatalf("bring to front: z=%d, want 3", z(t, store, a))
	}
	if !c.HandleKey(KeyEvent{Key: "[", Ctrl: true}) || z(t, store, a) != 2 {
		t.Fatalf("Ctrl+[ should step down to 2, got %d", z(t, store, a))
	}
	if !c.HandleKey(KeyEvent{Key: "[", Ctrl: true, Shift: true}) || z(t, store, a) != 1 {
		t.Fatalf("Ctrl+Shift+[ should send to back, got %d", z(t, store, a))
	}
}

func TestCopyPasteDuplicateKeys(t *testing.T) {
	store, _, c := newController(t)
	store.AddElement(canvas.TypeShape, canvas.Patch{X: canvas.Float(10), Y: canvas.Float(10)})
	c.HandleKey(KeyEvent{Key: "c", Ctrl: true})
	c.HandleKey(KeyEvent{Key: "V", Ctrl: true})
	if store.Len() != 2 {
		t.Fatalf("paste did not add an element: %d", store.Len())
	}
	pasted := c.IDs()[0]
	e, _ := store.GetElement(pasted)
	if e.X != 30 || e.Y != 30 {
		t.Fatalf("pasted at %v,%v", e.X, e.Y)
	}
	c.HandleKey(KeyEvent{Key: "d", Meta: true})
	if store.Len() != 3 {
		t.Fatalf("duplicate did not add an element: %d", store.Len())
	}
}

func TestEscapeClearsSelection(t *testing.T) {
	store, _, c := newController(t)
	store.AddElement(canvas.TypeShape, canvas.Patch{})
	if !c.HandleKey(KeyEvent{Key: "Escape"}) || len(c.IDs()) != 0 {
		t.Fatalf("Escape should clear the selection")
	}
	if c.HandleKey(KeyEvent{Key: "Escape"}) {
		t.Fatalf("Escape with nothing to do should not be consumed")
	}
}

func TestSelectAtAndToggle(t *testing.T) {
	store, _, c := newController(t)
	a := store.AddElement(canvas.TypeShape, canvas.Patch{X: canvas.Float(0), Y: canvas.Float(0)})
	b := store.AddElement(canvas.TypeShape, canvas.Patch{X: canvas.Float(300), Y: canvas.Float(0)})

	if id, ok := c.SelectAt(geom.Pt{X: 10, Y: 10}, false); !ok || id != a {
		t.Fatalf("SelectAt hit %q,%v", id, ok)
	}
	c.SelectAt(geom.Pt{X: 310, Y: 10}, true)
	if ids := c.IDs(); len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("additive select: %v", ids)
	}
	c.SelectAt(geom.Pt{X: 10, Y: 10}, true)
	if ids := c.IDs(); len(ids) != 1 || ids[0] != b {
		t.Fatalf("toggle off: %v", ids)
	}
	c.SelectAt(geom.Pt{X: 1000, Y: 600}, false)
	if len(c.IDs()) != 0 {
		t.Fatalf("click on empty space should clear the selection")
	}
}

func TestBoundsMeasurementSkipsStaleRequests(t *testing.T) {
	store := canvas.NewStore()
	loop := frame.NewLoop()
	var calls []geom.Rect
	c := New(store, loop, WithBoundsHandler(func(r geom.Rect, ok bool) {
		if ok {
			calls = append(calls, r)
		}
	}))
	defer c.Close()

	a := store.AddElement(canvas.TypeShape, canvas.Patch{X: canvas.Float(0), Y: canvas.Float(0), Width: canvas.Float(10), Height: canvas.Float(10)})
	b := store.AddElement(canvas.TypeShape, canvas.Patch{X: canvas.Float(100), Y: canvas.Float(50), Width: canvas.Float(20), Height: canvas.Float(30)})
	c.Select(a)
	c.Select(b)
	if loop.Pending() != 1 {
		t.Fatalf("older measurements should be canceled, pending=%d", loop.Pending())
	}
	loop.Tick()
	if len(calls) != 1 {
		t.Fatalf("expected one measurement, got %d", len(calls))
	}
	if got := calls[0]; got != geom.R(100, 50, 20, 30) {
		t.Fatalf("measured %+v, want b's box", got)
	}
	if r, ok := c.Bounds(); !ok || r != calls[0] {
		t.Fatalf("Bounds() = %+v,%v", r, ok)
	}

	c.Select(a, b)
	loop.Tick()
	if got := calls[len(calls)-1]; got != geom.R(0, 0, 120, 80) {
		t.Fatalf("union bounds = %+v", got)
	}
}

func TestCloseDropsPendingMeasurement(t *testing.T) {
	store, loop, c := newController(t)
	store.AddElement(canvas.TypeShape, canvas.Patch{})
	c.Close()
	if loop.Pending() != 0 {
		t.Fatalf("pending after close: %d", loop.Pending())
	}
	store.AddElement(canvas.TypeShape, canvas.Patch{})
	if loop.Pending() != 0 {
		t.Fatalf("closed controller still schedules work")
	}
	if !errors.Is(c.Invoke("bogus"), ErrUnknownVerb) {
		t.Fatalf("unknown verb should fail")
	}
}
