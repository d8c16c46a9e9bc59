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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layered(t *testing.T, zs ...int) (*Store, []string) {
	t.Helper()
	s := NewStore(seqIDs())
	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i] = s.AddElement(TypeShape, Patch{ZIndex: Int(z)})
	}
	return s, ids
}

func zOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	e, ok := s.GetElement(id)
	require.True(t, ok)
	return e.ZIndex
}

func TestMoveLayerStepsToNearestDistinctValue(t *testing.T) {
	s, ids := layered(t, 1, 3, 5)
	require.True(t, s.MoveLayer(ids[1], Up))
	assert.Equal(t, 5, zOf(t, s, ids[1]))

	assert.False(t, s.MoveLayer(ids[0], Down), "nothing below the minimum")
	assert.Equal(t, 1, zOf(t, s, ids[0]))

	require.True(t, s.MoveLayer(ids[2], Down))
	assert.Equal(t, 1, zOf(t, s, ids[2]), "3 moved away, so the nearest lower value is 1")

	assert.False(t, s.MoveLayer("missing", Up))
}

func TestMoveLayerSkipsEqualValues(t *testing.T) {
	s, ids := layered(t, 2, 2, 7)
	require.True(t, s.MoveLayer(ids[0], Up))
	assert.Equal(t, 7, zOf(t, s, ids[0]))
}

func TestBringToFrontAndSendToBack(t *testing.T) {
	s, ids := layered(t, 1, 3, 5)
	require.True(t, s.BringToFront(ids[0]))
	assert.Equal(t, 6, zOf(t, s, ids[0]))
	assert.False(t, s.BringToFront(ids[0]), "already strictly on top")

	require.True(t, s.SendToBack(ids[2]))
	assert.Equal(t, 2, zOf(t, s, ids[2]))

	s2, tied := layered(t, 4, 4)
	require.True(t, s2.BringToFront(tied[0]), "a tie is not strictly on top")
	assert.Equal(t, 5, zOf(t, s2, tied[0]))
}

func TestLayerOpsOnSingleElementAreNoOps(t *testing.T) {
	s, ids := layered(t, 1)
	changes := 0
	s.Subscribe(func(Change) { changes++ })
	assert.False(t, s.BringToFront(ids[0]), "a lone element is already strictly on top")
	assert.False(t, s.SendToBack(ids[0]), "a lone element is already strictly at the bottom")
	assert.False(t, s.MoveLayer(ids[0], Up))
	assert.False(t, s.MoveLayer(ids[0], Down))
	assert.Equal(t, 1, zOf(t, s, ids[0]))
	assert.Zero(t, changes)
}

func TestPaintOrderIsStableAndCompactionPreservesIt(t *testing.T) {
	s, ids := layered(t, 10, -4, 10, 30)
	var order []string
	for _, e := range s.PaintOrder() {
		order = append(order, e.ID)
	}
	assert.Equal(t, []string{ids[1], ids[0], ids[2], ids[3]}, order)

	require.True(t, s.CompactLayers())
	assert.Equal(t, 1, zOf(t, s, ids[1]))
	assert.Equal(t, 2, zOf(t, s, ids[0]))
	assert.Equal(t, 3, zOf(t, s, ids[2]))
	assert.Equal(t, 4, zOf(t, s, ids[3]))
	assert.False(t, s.CompactLayers(), "already compact")
}
