/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"math"

	"gocanvas/internal/canvas"
	"gocanvas/internal/geom"
	"gocanvas/internal/snap"
)

// targetsLocked derives the canvas-space result of the gesture from the start
// snapshot and the cumulative delta only. Intermediate frames do not feed back.
func (g *Engine) targetsLocked() []canvas.Element {
	move := g.delta.Translate.Div(g.scale)
	out := make([]canvas.Element, len(g.start))
	for i, e := range g.start {
		t := e
		switch g.kind {
		case Dragging:
			t.X, t.Y = e.X+move.X, e.Y+move.Y
		case Resizing:
			g.resize(&t, move)
		case Rotating:
			t.Rotation = g.snapRotation(e.Rotation + g.delta.Rotate)
			t.X, t.Y = e.X+move.X, e.Y+move.Y
		case Scaling:
			t.ScaleX = math.Max(canvas.MinScale, e.ScaleX*factor(g.delta.ScaleX))
			t.ScaleY = math.Max(canvas.MinScale, e.ScaleY*factor(g.delta.ScaleY))
			t.X, t.Y = e.X+move.X, e.Y+move.Y
		}
		out[i] = t
	}
	g.guides, g.snapped = nil, snap.Position{}
	if g.kind == Dragging && len(out) == 1 && g.opts.Snap {
		res := snap.ComputeGuides(out[0], g.others, g.opts.SnapThreshold)
		// gap indicators measure the unsnapped position, the gap the snap is about to close
		spacing := snap.SpacingGuides(out[0], g.others, g.opts.SnapThreshold)
		g.guides, g.snapped = append(res.Guides, spacing...), res.Snapped
		if res.Snapped.X != nil {
			out[0].X = *res.Snapped.X
		}
		if res.Snapped.Y != nil {
			out[0].Y = *res.Snapped.Y
		}
	}
	return out
}

// resize grows or shrinks from the dragged handle. North and west handles move the
// origin so the opposite edge stays put; size and position come out of one step.
func (g *Engine) resize(t *canvas.Element, move geom.Pt) {
	x0, y0, w0, h0 := t.X, t.Y, t.Width, t.Height
	h := string(g.handle)
	for _, c := range h {
		switch c {
		case 'e':
			t.Width = math.Max(g.opts.MinSize, w0+move.X)
		case 'w':
			t.Width = math.Max(g.opts.MinSize, w0-move.X)
			t.X = x0 + (w0-t.Width)*t.ScaleX
		case 's':
			t.Height = math.Max(g.opts.MinSize, h0+move.Y)
		case 'n':
			t.Height = math.Max(g.opts.MinSize, h0-move.Y)
			t.Y = y0 + (h0-t.Height)*t.ScaleY
		}
	}
}

// snapRotation pulls the angle onto the nearest configured snap within tolerance.
func (g *Engine) snapRotation(deg float64) float64 {
	if len(g.opts.RotationSnaps) == 0 || g.opts.RotationTolerance <= 0 {
		return deg
	}
	for _, s := range g.opts.RotationSnaps {
		off := geom.NormalizeDeg(deg - s)
		if math.Abs(off) < g.opts.RotationTolerance {
			return deg - off
		}
	}
	return deg
}

func factor(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// liveLocked maps canvas-space targets to screen pixels: position and size times scale.
func (g *Engine) liveLocked(targets []canvas.Element) []Live {
	out := make([]Live, len(targets))
	for i, t := range targets {
		out[i] = Live{
			ID:       t.ID,
			X:        t.X * g.scale,
			Y:        t.Y * g.scale,
			Width:    t.Width * g.scale,
			Height:   t.Height * g.scale,
			Rotation: t.Rotation,
			ScaleX:   t.ScaleX,
			ScaleY:   t.ScaleY,
		}
	}
	return out
}

// diff builds the geometry patch between the start snapshot and the target.
func diff(from, to canvas.Element) canvas.Patch {
	var p canvas.Patch
	set := func(a, b float64) *float64 {
		if a == b {
			return nil
		}
		return canvas.Float(b)
	}
	p.X = set(from.X, to.X)
	p.Y = set(from.Y, to.Y)
	p.Width = set(from.Width, to.Width)
	p.Height = set(from.Height, to.Height)
	p.Rotation = set(from.Rotation, to.Rotation)
	p.ScaleX = set(from.ScaleX, to.ScaleX)
	p.ScaleY = set(from.ScaleY, to.ScaleY)
	return p
}
