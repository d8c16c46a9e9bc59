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
	"math"

	"gocanvas/internal/canvas"
)

// SpacingGuides returns gap indicators between the moving element and neighbours whose
// facing edges are within threshold and less than SpacingLimit apart. A horizontal gap
// yields a horizontal guide through the middle of the vertical overlap, and vice versa.
func SpacingGuides(moving canvas.Element, others []canvas.Element, threshold float64) []Guide {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	mb := BoundsOf(moving)
	var out []Guide
	for _, o := range others {
		if o.ID == moving.ID {
			continue
		}
		b := BoundsOf(o)
		if near(mb.Right, b.Left, threshold) || near(mb.Left, b.Right, threshold) {
			gap := math.Min(math.Abs(mb.Right-b.Left), math.Abs(mb.Left-b.Right))
			if gap < SpacingLimit {
				top, bottom := math.Max(mb.Top, b.Top), math.Min(mb.Bottom, b.Bottom)
				from, to := facing(mb.Right, b.Left, mb.Left, b.Right)
				out = append(out, Guide{Orientation: Horizontal, Kind: Spacing, Position: top + (bottom-top)/2, RangeStart: from, RangeEnd: to})
			}
		}
		if near(mb.Bottom, b.Top, threshold) || near(mb.Top, b.Bottom, threshold) {
			gap := math.Min(math.Abs(mb.Bottom-b.Top), math.Abs(mb.Top-b.Bottom))
			if gap < SpacingLimit {
				left, right := math.Max(mb.Left, b.Left), math.Min(mb.Right, b.Right)
				from, to := facing(mb.Bottom, b.Top, mb.Top, b.Bottom)
				out = append(out, Guide{Orientation: Vertical, Kind: Spacing, Position: left + (right-left)/2, RangeStart: from, RangeEnd: to})
			}
		}
	}
	return out
}

// facing returns the ordered span of whichever pair of facing edges is closer.
func facing(aEnd, bStart, aStart, bEnd float64) (float64, float64) {
	if math.Abs(aEnd-bStart) <= math.Abs(aStart-bEnd) {
		return math.Min(aEnd, bStart), math.Max(aEnd, bStart)
	}
	return math.Min(aStart, bEnd), math.Max(aStart, bEnd)
}
