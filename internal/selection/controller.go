/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package selection tracks the selected elements and dispatches layer, clipboard,
// keyboard, context-menu and inline text-edit operations into the store.
package selection

import (
	"log/slog"
	"slices"
	"sync"

	"gocanvas/internal/canvas"
	"gocanvas/internal/frame"
	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
)

// Controller is bound to one store and one frame loop.
type Controller struct {
	store *canvas.Store
	loop  *frame.Loop
	log   *slog.Logger
	unsub func()

	mu       sync.Mutex
	gen      uint64
	pending  frame.ID
	bounds   geom.Rect
	measured bool
	onBounds func(geom.Rect, bool)
	edit     *TextEdit
	menu     *Menu
	gesture  Canceler
}

type Option func(*Controller)

// Canceler ends an in-flight gesture and reports whether one was active.
// *gesture.Engine satisfies it.
type Canceler interface {
	Abort() bool
}

// WithGesture lets Escape cancel the gesture run by g.
func WithGesture(g Canceler) Option {
	return func(c *Controller) { c.gesture = g }
}

// WithBoundsHandler receives the selection's bound box each time it is re-measured.
func WithBoundsHandler(fn func(r geom.Rect, ok bool)) Option {
	return func(c *Controller) { c.onBounds = fn }
}

func New(store *canvas.Store, loop *frame.Loop, opts ...Option) *Controller {
	c := &Controller{store: store, loop: loop, log: applog.WithComponent("selection")}
	for _, o := range opts {
		o(c)
	}
	c.unsub = store.Subscribe(c.onChange)
	return c
}

// Close detaches the controller from the store and drops any pending measurement.
func (c *Controller) Close() {
	c.unsub()
	c.mu.Lock()
	if c.pending != 0 {
		c.loop.Cancel(c.pending)
		c.pending = 0
	}
	c.mu.Unlock()
}

func (c *Controller) onChange(ch canvas.Change) {
	switch ch.Op {
	case canvas.OpDelete, canvas.OpClear:
		c.mu.Lock()
		if c.edit != nil && (ch.Op == canvas.OpClear || slices.Contains(ch.IDs, c.edit.ID)) {
			c.log.Debug("text edit dropped, element removed", slog.String("id", c.edit.ID))
			c.edit = nil
		}
		c.mu.Unlock()
	}
	c.scheduleMeasure()
}

// scheduleMeasure defers measuring the selection's bound box to the next frame.
// A newer request cancels the older one, and the generation check catches any that
// already started.
func (c *Controller) scheduleMeasure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	gen := c.gen
	if c.pending != 0 {
		c.loop.Cancel(c.pending)
	}
	c.pending = c.loop.Request(func() { c.measure(gen) })
}

func (c *Controller) measure(gen uint64) {
	var r geom.Rect
	ok := false
	for _, e := range c.store.Selected() {
		b := geom.BoundsOf(e.Bounds(), e.Transform())
		if !ok {
			r, ok = b, true
		} else {
			r = r.Union(b)
		}
	}
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.pending = 0
	c.bounds, c.measured = r, ok
	fn := c.onBounds
	c.mu.Unlock()
	if fn != nil {
		fn(r, ok)
	}
}

// Bounds returns the last measured bound box of the selection.
func (c *Controller) Bounds() (geom.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds, c.measured
}

func (c *Controller) IDs() []string { return c.store.SelectedIDs() }

// Select replaces the selection.
func (c *Controller) Select(ids ...string) { c.store.SetSelectedIDs(ids) }

func (c *Controller) Clear() { c.store.SetSelectedIDs(nil) }

// Toggle adds or removes id, as shift-click does.
func (c *Controller) Toggle(id string) {
	ids := c.IDs()
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
	}
	c.store.SetSelectedIDs(ids)
}

// SelectAt hit-tests the canvas point. Empty space clears the selection unless additive.
func (c *Controller) SelectAt(p geom.Pt, additive bool) (string, bool) {
	e, ok := c.store.HitTest(p)
	switch {
	case !ok && !additive:
		c.Clear()
		return "", false
	case !ok:
		return "", false
	case additive:
		c.Toggle(e.ID)
	default:
		c.Select(e.ID)
	}
	return e.ID, true
}

// Layer operations issue one store call per selected id, in selection order.

func (c *Controller) BringToFront() int { return c.each(c.store.BringToFront) }
func (c *Controller) SendToBack() int { return c.each(c.store.SendToBack) }

func (c *Controller) MoveUp() int {
	return c.each(func(id string) bool { return c.store.MoveLayer(id, canvas.Up) })
}

func (c *Controller) MoveDown() int {
	return c.each(func(id string) bool { return c.store.MoveLayer(id, canvas.Down) })
}

// DeleteSelected deletes every selected element and clears the selection.
func (c *Controller) DeleteSelected() int {
	n := c.each(c.store.DeleteElement)
	c.Clear()
	return n
}

func (c *Controller) Copy() int { return c.store.CopyElements(c.IDs()) }
func (c *Controller) Paste() []string { return c.store.PasteElements() }
func (c *Controller) Duplicate() []string { return c.store.DuplicateElements(c.IDs()) }

func (c *Controller) each(op func(id string) bool) int {
	n := 0
	for _, id := range c.IDs() {
		if op(id) {
			n++
		}
	}
	return n
}
