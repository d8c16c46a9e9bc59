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

func TestPasteOffsetZAndSelection(t *testing.T) {
	s := NewStore()
	src := s.AddElement(TypeShape, Patch{X: Float(10), Y: Float(10), ZIndex: Int(4)})
	s.AddElement(TypeText, Patch{ZIndex: Int(9)})
	s.CopyElements([]string{src})

	ids := s.PasteElements()
	require.Len(t, ids, 1)
	e, ok := s.GetElement(ids[0])
	require.True(t, ok)
	assert.Equal(t, 30.0, e.X)
	assert.Equal(t, 30.0, e.Y)
	assert.Greater(t, e.ZIndex, 9)
	assert.NotEqual(t, src, e.ID)
	assert.Equal(t, ids, s.SelectedIDs())
}

func TestPasteEmptyClipboardIsNoOp(t *testing.T) {
	s := NewStore()
	s.AddElement(TypeShape, Patch{})
	calls := 0
	s.Subscribe(func(Change) { calls++ })
	assert.Nil(t, s.PasteElements())
	assert.Equal(t, 1, s.Len())
	assert.Zero(t, calls)
}

func TestClipboardSurvivesMutationOfOriginal(t *testing.T) {
	s := NewStore()
	id := s.AddElement(TypeText, Patch{Content: String("before"), X: Float(0)})
	s.CopyElements([]string{id})
	s.UpdateElement(id, Patch{Content: String("after"), X: Float(500)})
	s.DeleteElement(id)

	ids := s.PasteElements()
	require.Len(t, ids, 1)
	e, _ := s.GetElement(ids[0])
	assert.Equal(t, "before", e.Content)
	assert.Equal(t, 20.0, e.X)
}

func TestPasteKeepsRelativeOrderAndFreshChildIDs(t *testing.T) {
	s := NewStore()
	hi := s.AddElement(TypeContainer, Patch{ZIndex: Int(3), Children: &[]Element{{ID: "kid", Type: TypeText}}})
	lo := s.AddElement(TypeShape, Patch{ZIndex: Int(2)})
	s.CopyElements([]string{hi, lo})

	ids := s.PasteElements()
	require.Len(t, ids, 2)
	first, _ := s.GetElement(ids[0])
	second, _ := s.GetElement(ids[1])
	assert.Equal(t, TypeShape, first.Type, "lower layer is pasted first")
	assert.Less(t, first.ZIndex, second.ZIndex)
	assert.Equal(t, 4, first.ZIndex)
	require.Len(t, second.Children, 1)
	assert.NotEqual(t, "kid", second.Children[0].ID)

	clip := s.Clipboard()
	require.Len(t, clip, 2)
	assert.Equal(t, "kid", clip[0].Children[0].ID, "clipboard is not rewritten by paste")
}

func TestDuplicateUsesCurrentStateAndLeavesClipboard(t *testing.T) {
	s := NewStore()
	a := s.AddElement(TypeShape, Patch{X: Float(0)})
	b := s.AddElement(TypeShape, Patch{X: Float(100)})
	s.CopyElements([]string{b})
	s.UpdateElement(a, Patch{X: Float(40)})

	ids := s.DuplicateElements([]string{a})
	require.Len(t, ids, 1)
	e, _ := s.GetElement(ids[0])
	assert.Equal(t, 60.0, e.X)
	assert.Equal(t, ids, s.SelectedIDs())

	clip := s.Clipboard()
	require.Len(t, clip, 1)
	assert.Equal(t, b, clip[0].ID)

	assert.Nil(t, s.DuplicateElements([]string{"missing"}))
}
