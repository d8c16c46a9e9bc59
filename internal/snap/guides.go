/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package snap computes alignment guides and snapped positions for a moving element.
// Functions are pure: the caller applies the snapped position to its live transform
// and clears the guides when the gesture ends. Nothing here writes to the store.
package snap

import (
	"math"

	"gocanvas/internal/canvas"
	"gocanvas/internal/geom"
)

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Kind indicates which feature of the moving element aligned.
type Kind string

const (
	Edge    Kind = "edge"
	Center  Kind = "center"
	Spacing Kind = "spacing"
)

const (
	DefaultThreshold = 5.0
	// GuidePadding extends every guide past both ends of its span.
	GuidePadding = 10.0
	// SpacingLimit is the largest gap that still gets a spacing indicator.
	SpacingLimit  = 100.0
	dedupeEpsilon = 0.1
)

// Guide is a transient alignment line. Position is the x of a vertical guide or
// the y of a horizontal one; the range runs along the other axis.
type Guide struct {
	Orientation Orientation `json:"orientation"`
	Kind        Kind        `json:"kind"`
	Position    float64     `json:"position"`
	RangeStart  float64     `json:"rangeStart"`
	RangeEnd    float64     `json:"rangeEnd"`
}

// Position is the snapped stored x/y. A nil axis means no snap on that axis.
type Position struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

type Result struct {
	Guides  []Guide
	Snapped Position
}

// Bounds are computed from the actual size (width*scaleX, height*scaleY). Rotation is ignored.
type Bounds struct {
	Left, Right, Top, Bottom float64
	CenterX, CenterY         float64
	Width, Height            float64
}

func BoundsOf(e canvas.Element) Bounds {
	w, h := e.Width*e.ScaleX, e.Height*e.ScaleY
	return Bounds{
		Left: e.X, Right: e.X + w, Top: e.Y, Bottom: e.Y + h,
		CenterX: e.X + w/2, CenterY: e.Y + h/2,
		Width: w, Height: h,
	}
}

func (b Bounds) xs() [3]float64 { return [3]float64{b.Left, b.CenterX, b.Right} }
func (b Bounds) ys() [3]float64 { return [3]float64{b.Top, b.CenterY, b.Bottom} }

func near(a, b, threshold float64) bool { return math.Abs(a-b) < threshold }

// ComputeGuides checks the moving element's {left, centerX, right} against every
// other element's x features and {top, centerY, bottom} against their y features.
// For each point the first target closer than threshold matches; the first match on
// an axis decides the snapped position. Iteration order breaks ties, not distance.
func ComputeGuides(moving canvas.Element, others []canvas.Element, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	mb := BoundsOf(moving)
	var statics []Bounds
	for _, o := range others {
		if o.ID == moving.ID {
			continue
		}
		statics = append(statics, BoundsOf(o))
	}
	var xTargets, yTargets []float64
	for _, b := range statics {
		x, y := b.xs(), b.ys()
		xTargets = append(xTargets, x[:]...)
		yTargets = append(yTargets, y[:]...)
	}

	var res Result
	for i, v := range mb.xs() {
		target, ok := firstWithin(v, xTargets, threshold)
		if !ok {
			continue
		}
		if res.Snapped.X == nil {
			x := moving.X + (target - v)
			res.Snapped.X = &x
		}
		if i == 1 {
			lo, hi := sharedSpan(mb.Top, mb.Bottom, target, statics, Bounds.xs, func(b Bounds) (float64, float64) { return b.Top, b.Bottom })
			res.Guides = append(res.Guides, guide(Vertical, Center, target, lo, hi))
		} else {
			res.Guides = append(res.Guides, guide(Vertical, Edge, target, mb.Top, mb.Bottom))
		}
	}
	for i, v := range mb.ys() {
		target, ok := firstWithin(v, yTargets, threshold)
		if !ok {
			continue
		}
		if res.Snapped.Y == nil {
			y := moving.Y + (target - v)
			res.Snapped.Y = &y
		}
		if i == 1 {
			lo, hi := sharedSpan(mb.Left, mb.Right, target, statics, Bounds.ys, func(b Bounds) (float64, float64) { return b.Left, b.Right })
			res.Guides = append(res.Guides, guide(Horizontal, Center, target, lo, hi))
		} else {
			res.Guides = append(res.Guides, guide(Horizontal, Edge, target, mb.Left, mb.Right))
		}
	}
	res.Guides = dedupe(res.Guides)
	return res
}

func firstWithin(v float64, targets []float64, threshold float64) (float64, bool) {
	for _, t := range targets {
		if near(v, t, threshold) {
			return t, true
		}
	}
	return 0, false
}

// sharedSpan widens [lo, hi] to cover every static element with a feature on line.
func sharedSpan(lo, hi, line float64, statics []Bounds, features func(Bounds) [3]float64, extent func(Bounds) (float64, float64)) (float64, float64) {
	for _, b := range statics {
		for _, f := range features(b) {
			if math.Abs(f-line) < dedupeEpsilon {
				s, e := extent(b)
				lo, hi = math.Min(lo, s), math.Max(hi, e)
				break
			}
		}
	}
	return lo, hi
}

func guide(o Orientation, k Kind, pos, from, to float64) Guide {
	return Guide{
		Orientation: o,
		Kind:        k,
		Position:    geom.FloatRound(pos, 3),
		RangeStart:  geom.FloatRound(math.Min(from, to)-GuidePadding, 3),
		RangeEnd:    geom.FloatRound(math.Max(from, to)+GuidePadding, 3),
	}
}

// dedupe keeps the first guide of each orientation within 0.1px of another.
func dedupe(gs []Guide) []Guide {
	out := gs[:0:0]
	for _, g := range gs {
		dup := false
		for _, k := range out {
			if k.Orientation == g.Orientation && math.Abs(k.Position-g.Position) < dedupeEpsilon {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, g)
		}
	}
	return out
}
