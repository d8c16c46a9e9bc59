/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package snap

import (
	"testing"

	"gocanvas/internal/canvas"
)

func box(id string, x, y, w, h float64) canvas.Element {
	return canvas.Element{ID: id, Type: canvas.TypeShape, X: x, Y: y, Width: w, Height: h, ScaleX: 1, ScaleY: 1}
}

func TestSnapWithinThreshold(t *testing.T) {
	static := box("s", 100, 0, 50, 50)
	moving := box("m", 104, 500, 50, 50)
	res := ComputeGuides(moving, []canvas.Element{static}, 5)
	if res.Snapped.X == nil || *res.Snapped.X != 100 {
		t.Fatalf("expected snapped x 100, got %+v", res.Snapped.X)
	}
	if res.Snapped.Y != nil {
		t.Fatalf("no y snap expected, got %v", *res.Snapped.Y)
	}
	if len(res.Guides) == 0 || res.Guides[0].Orientation != Vertical || res.Guides[0].Position != 100 {
		t.Fatalf("unexpected guides: %+v", res.Guides)
	}
}

func TestNoSnapBeyondThreshold(t *testing.T) {
	static := box("s", 100, 0, 50, 50)
	for _, x := range []float64{105, 106} {
		res := ComputeGuides(box("m", x, 500, 50, 50), []canvas.Element{static}, 5)
		if res.Snapped.X != nil || len(res.Guides) != 0 {
			t.Fatalf("x=%v: expected no snap (strict threshold), got %+v", x, res)
		}
	}
}

func TestDefaultThresholdAndSelfExclusion(t *testing.T) {
	moving := box("m", 3, 3, 10, 10)
	self := moving
	self.X = 0
	res := ComputeGuides(moving, []canvas.Element{self}, 0)
	if res.Snapped.X != nil || res.Snapped.Y != nil {
		t.Fatalf("moving element must not snap to itself: %+v", res.Snapped)
	}
	res = ComputeGuides(moving, []canvas.Element{box("o", 0, 200, 10, 10)}, 0)
	if res.Snapped.X == nil || *res.Snapped.X != 0 {
		t.Fatalf("default threshold 5 should snap 3 -> 0, got %+v", res.Snapped.X)
	}
}

func TestFirstMatchWinsOverCloser(t *testing.T) {
	s1 := box("s1", 100, 0, 10, 10)
	s2 := box("s2", 0, 300, 232, 20)
	moving := box("m", 96, 100, 40, 50)
	res := ComputeGuides(moving, []canvas.Element{s1, s2}, 5)

	// left (96 -> 100) is checked before centerX (116 == 116), so x snaps to 100
	if res.Snapped.X == nil || *res.Snapped.X != 100 {
		t.Fatalf("expected first match (left edge) to decide x=100, got %+v", res.Snapped.X)
	}
	if len(res.Guides) != 2 {
		t.Fatalf("expected edge and center guides, got %+v", res.Guides)
	}
	edge, center := res.Guides[0], res.Guides[1]
	if edge.Kind != Edge || edge.Position != 100 || edge.RangeStart != 90 || edge.RangeEnd != 160 {
		t.Fatalf("edge guide should span the moving element only: %+v", edge)
	}
	if center.Kind != Center || center.Position != 116 || center.RangeStart != 90 || center.RangeEnd != 330 {
		t.Fatalf("center guide should span every element on the line: %+v", center)
	}
}

func TestScaledSizeIsUsed(t *testing.T) {
	static := box("s", 200, 0, 10, 10)
	moving := box("m", 0, 500, 100, 100)
	moving.ScaleX = 2 // actual right edge at 200
	res := ComputeGuides(moving, []canvas.Element{static}, 5)
	if res.Snapped.X == nil || *res.Snapped.X != 0 {
		t.Fatalf("right edge at 200 should align without moving: %+v", res.Snapped.X)
	}
}

func TestDuplicateGuidesAreCollapsed(t *testing.T) {
	// left, centerX and right of the narrow moving box all land on x=50
	a := box("a", 50, 0, 1000, 20)
	b := box("b", 50.05, 40, 1000, 20)
	moving := box("m", 48, 300, 4, 4)
	res := ComputeGuides(moving, []canvas.Element{a, b}, 5)
	if len(res.Guides) != 1 || res.Guides[0].Position != 50 || res.Guides[0].Kind != Edge {
		t.Fatalf("expected a single vertical guide at 50 after dedupe, got %+v", res.Guides)
	}
}

func TestSpacingGuides(t *testing.T) {
	left := box("l", 0, 0, 100, 100)
	moving := box("m", 103, 20, 50, 50)
	gs := SpacingGuides(moving, []canvas.Element{left}, 5)
	if len(gs) != 1 {
		t.Fatalf("expected one spacing guide, got %+v", gs)
	}
	g := gs[0]
	if g.Orientation != Horizontal || g.Kind != Spacing || g.Position != 45 || g.RangeStart != 100 || g.RangeEnd != 103 {
		t.Fatalf("unexpected spacing guide: %+v", g)
	}
	if gs := SpacingGuides(box("far", 300, 20, 50, 50), []canvas.Element{left}, 5); len(gs) != 0 {
		t.Fatalf("far element should not produce spacing guides: %+v", gs)
	}
}
