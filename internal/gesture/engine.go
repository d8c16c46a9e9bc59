/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package gesture interprets drag, resize, rotate and scale gestures.
//
// During a gesture the engine keeps a visual-only transform per element and never
// writes to the store. Commit is the single path back to idle that writes: one
// batched store update expressing the net effect in canvas-space units. Abort is
// the cancellation path and writes nothing. Both are idempotent.
package gesture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gocanvas/internal/canvas"
	"gocanvas/internal/config"
	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
	"gocanvas/internal/snap"
)

var (
	ErrBusy     = errors.New("gesture: another gesture is active")
	ErrNoTarget = errors.New("gesture: no target element")
)

type Kind int

const (
	Idle Kind = iota
	Dragging
	Resizing
	Rotating
	Scaling
)

func (k Kind) String() string {
	switch k {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Rotating:
		return "rotating"
	case Scaling:
		return "scaling"
	default:
		return "idle"
	}
}

// Handle is a resize handle named by compass direction.
type Handle string

const (
	N  Handle = "n"
	S  Handle = "s"
	E  Handle = "e"
	W  Handle = "w"
	NE Handle = "ne"
	NW Handle = "nw"
	SE Handle = "se"
	SW Handle = "sw"
)

// Valid reports whether h names one of the eight handles.
func (h Handle) Valid() bool {
	switch h {
	case N, S, E, W, NE, NW, SE, SW:
		return true
	}
	return false
}

// Space converts pointer (client) coordinates. *viewport.Viewport satisfies it.
type Space interface {
	Scale() float64
	ClientToCanvas(p geom.Pt) geom.Pt
}

type Options struct {
	Snap              bool
	SnapThreshold     float64
	RotationSnaps     []float64
	RotationTolerance float64
	// MinSize floors width and height on resize commits. Defaults to canvas.MinResizeSize.
	MinSize  float64
	OnLive   func([]Live)
	OnGuides func([]snap.Guide)
}

// OptionsFromConfig maps the snap section of the user config.
func OptionsFromConfig(c config.SnapConfig) Options {
	return Options{
		Snap:              c.Enabled,
		SnapThreshold:     c.Threshold,
		RotationSnaps:     append([]float64(nil), c.RotationSnaps...),
		RotationTolerance: c.RotationTolerance,
	}
}

// Live is the visual-only transform of one element, in screen pixels relative to the artboard.
type Live struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
}

// Delta is the cumulative gesture input since Begin. Translate is in screen pixels,
// Rotate in degrees. A zero ScaleX or ScaleY means 1.
type Delta struct {
	Translate geom.Pt `json:"translate"`
	Rotate    float64 `json:"rotate"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
}

type Engine struct {
	mu    sync.Mutex
	store *canvas.Store
	space Space
	opts  Options
	log   *slog.Logger

	kind      Kind
	handle    Handle
	scale     float64
	start     []canvas.Element
	others    []canvas.Element
	startPtr  geom.Pt
	pivot     geom.Pt
	lastAngle float64
	delta     Delta
	live      []Live
	guides    []snap.Guide
	snapped   snap.Position
	frames    int
	seq       int
	ctx       context.Context
}

func New(store *canvas.Store, space Space, opts Options) *Engine {
	if opts.MinSize <= 0 {
		opts.MinSize = canvas.MinResizeSize
	}
	return &Engine{store: store, space: space, opts: opts, log: applog.WithComponent("gesture"), ctx: context.Background()}
}

// Listen replaces the callbacks that receive live transforms and guides.
func (g *Engine) Listen(onLive func([]Live), onGuides func([]snap.Guide)) {
	g.mu.Lock()
	g.opts.OnLive, g.opts.OnGuides = onLive, onGuides
	g.mu.Unlock()
}

// State returns the current gesture kind.
func (g *Engine) State() Kind {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.kind
}

// Frames counts live updates rendered in the current gesture.
func (g *Engine) Frames() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

// Targets returns the ids being manipulated.
func (g *Engine) Targets() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return idsOf(g.start)
}

// Live returns the visual-only transform for id, if it is part of the gesture.
func (g *Engine) Live(id string) (Live, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, l := range g.live {
		if l.ID == id {
			return l, true
		}
	}
	return Live{}, false
}

func (g *Engine) LiveAll() []Live {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Live(nil), g.live...)
}

// Guides returns the alignment guides of the current single-element drag.
func (g *Engine) Guides() []snap.Guide {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]snap.Guide(nil), g.guides...)
}

func (g *Engine) BeginDrag(ids []string, ptr geom.Pt) error {
	return g.begin(Dragging, "", ids, ptr)
}

func (g *Engine) BeginResize(id string, h Handle, ptr geom.Pt) error {
	if !h.Valid() {
		return fmt.Errorf("begin resize: unknown handle %q", h)
	}
	return g.begin(Resizing, h, []string{id}, ptr)
}

func (g *Engine) BeginRotate(ids []string, ptr geom.Pt) error {
	return g.begin(Rotating, "", ids, ptr)
}

func (g *Engine) BeginScale(ids []string, ptr geom.Pt) error {
	return g.begin(Scaling, "", ids, ptr)
}

func (g *Engine) begin(kind Kind, h Handle, ids []string, ptr geom.Pt) error {
	var start []canvas.Element
	for _, id := range ids {
		if e, ok := g.store.GetElement(id); ok {
			start = append(start, e)
		}
	}
	scale := g.space.Scale()
	if scale <= 0 {
		scale = 1
	}

	g.mu.Lock()
	if g.kind != Idle {
		cur := g.kind
		g.mu.Unlock()
		g.log.WarnContext(g.ctx, "gesture start ignored", slog.String("requested", kind.String()), slog.String("active", cur.String()))
		return fmt.Errorf("begin %s: %w", kind, ErrBusy)
	}
	if len(start) == 0 {
		g.mu.Unlock()
		return fmt.Errorf("begin %s: %w", kind, ErrNoTarget)
	}
	g.kind, g.handle, g.scale = kind, h, scale
	g.seq++
	g.ctx = applog.WithGesture(context.Background(), kind.String(), fmt.Sprintf("g%d", g.seq))
	g.ctx = applog.WithElements(g.ctx, idsOf(start)...)
	ctx := g.ctx
	g.start = start
	g.startPtr = ptr
	g.delta = Delta{}
	g.frames = 0
	g.guides, g.snapped = nil, snap.Position{}
	g.others = nil
	if kind == Dragging && len(start) == 1 && g.opts.Snap {
		g.others = g.store.Elements()
	}
	if kind == Rotating || kind == Scaling {
		b := start[0].Bounds()
		for _, e := range start[1:] {
			b = b.Union(e.Bounds())
		}
		g.pivot = b.Center()
		g.lastAngle = g.space.ClientToCanvas(ptr).Sub(g.pivot).AngleDeg()
	}
	g.live = g.liveLocked(start)
	live := append([]Live(nil), g.live...)
	g.mu.Unlock()

	g.log.DebugContext(ctx, "gesture started", slog.Float64("scale", scale))
	g.notify(live, nil, false)
	return nil
}

// Move feeds a pointer position. Drag and resize use the offset from the start
// pointer; rotate accumulates the angle about the pivot; scale uses the distance ratio.
func (g *Engine) Move(ptr geom.Pt) {
	g.mu.Lock()
	if g.kind == Idle {
		g.mu.Unlock()
		return
	}
	switch g.kind {
	case Dragging, Resizing:
		g.delta.Translate = ptr.Sub(g.startPtr)
	case Rotating:
		a := g.space.ClientToCanvas(ptr).Sub(g.pivot).AngleDeg()
		g.delta.Rotate += geom.NormalizeDeg(a - g.lastAngle)
		g.lastAngle = a
	case Scaling:
		d0 := g.space.ClientToCanvas(g.startPtr).Sub(g.pivot).Len()
		f := 1.0
		if d0 > 0 {
			f = g.space.ClientToCanvas(ptr).Sub(g.pivot).Len() / d0
		}
		g.delta.ScaleX, g.delta.ScaleY = f, f
	}
	g.mu.Unlock()
	g.refresh()
}

// Update replaces the cumulative delta with a host-reported one, as a transformer widget does.
func (g *Engine) Update(d Delta) {
	g.mu.Lock()
	if g.kind == Idle {
		g.mu.Unlock()
		return
	}
	g.delta = d
	g.mu.Unlock()
	g.refresh()
}

func (g *Engine) refresh() {
	g.mu.Lock()
	if g.kind == Idle {
		g.mu.Unlock()
		return
	}
	g.frames++
	targets := g.targetsLocked()
	g.live = g.liveLocked(targets)
	live := append([]Live(nil), g.live...)
	guides := append([]snap.Guide(nil), g.guides...)
	g.mu.Unlock()
	g.notify(live, guides, true)
}

// End applies the final pointer position and commits.
func (g *Engine) End(ptr geom.Pt) int {
	g.Move(ptr)
	return g.Commit()
}

// Commit writes the net effect in one store batch, clears live state and guides and
// returns to idle. It returns the number of elements written; calling it while idle is a no-op.
func (g *Engine) Commit() int {
	g.mu.Lock()
	if g.kind == Idle {
		g.mu.Unlock()
		return 0
	}
	ctx := g.ctx
	targets := g.targetsLocked()
	var edits []canvas.Edit
	for i, t := range targets {
		if p := diff(g.start[i], t); !p.IsEmpty() {
			edits = append(edits, canvas.Edit{ID: t.ID, Patch: p})
		}
	}
	frames := g.frames
	g.resetLocked()
	g.mu.Unlock()

	n := 0
	if len(edits) > 0 {
		n = g.store.UpdateBatch(edits)
	}
	g.log.DebugContext(ctx, "gesture committed", slog.Int("written", n), slog.Int("frames", frames))
	g.notify(nil, nil, true)
	return n
}

// Abort discards the live transform without writing and returns to idle. It
// reports whether a gesture was active.
func (g *Engine) Abort() bool {
	g.mu.Lock()
	if g.kind == Idle {
		g.mu.Unlock()
		return false
	}
	ctx := g.ctx
	g.resetLocked()
	g.mu.Unlock()
	g.log.DebugContext(ctx, "gesture aborted")
	g.notify(nil, nil, true)
	return true
}

func (g *Engine) resetLocked() {
	g.kind, g.handle = Idle, ""
	g.start, g.others = nil, nil
	g.delta = Delta{}
	g.live, g.guides = nil, nil
	g.snapped = snap.Position{}
	g.frames = 0
	g.ctx = context.Background()
}

func (g *Engine) notify(live []Live, guides []snap.Guide, withGuides bool) {
	g.mu.Lock()
	onLive, onGuides := g.opts.OnLive, g.opts.OnGuides
	g.mu.Unlock()
	if onLive != nil {
		onLive(live)
	}
	if withGuides && onGuides != nil {
		onGuides(guides)
	}
}

func idsOf(es []canvas.Element) []string {
	ids := make([]string, len(es))
	for i, e := range es {
		ids[i] = e.ID
	}
	return ids
}
