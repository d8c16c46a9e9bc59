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
	"strings"

	"gocanvas/internal/canvas"
)

// KeyEvent is a key-down as the host reports it.
type KeyEvent struct {
	Key   string `json:"key" yaml:"key"`
	Ctrl  bool   `json:"ctrl,omitempty" yaml:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty" yaml:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty" yaml:"shift,omitempty"`
	// TextInputFocused is set while an input or textarea has focus.
	TextInputFocused bool `json:"textInputFocused,omitempty" yaml:"textInputFocused,omitempty"`
}

// HandleKey dispatches a canvas shortcut and reports whether it was consumed.
// Escape first aborts an in-flight gesture, then commits an active text edit,
// closes an open menu or clears the selection, whichever applies first. Every
// other shortcut is ignored while text input has focus or a text edit is active.
// Layer shortcuts act only on a single selection.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	if ev.Key == "Escape" {
		aborted := c.gesture != nil && c.gesture.Abort()
		switch {
		case c.isEditing():
			return c.CommitTextEdit() || aborted
		case c.CloseMenu():
			return true
		case ev.TextInputFocused:
			return aborted
		case len(c.IDs()) > 0:
			c.Clear()
			return true
		}
		return aborted
	}
	if ev.TextInputFocused || c.isEditing() {
		return false
	}

	ids := c.IDs()
	mod := ev.Ctrl || ev.Meta
	key := strings.ToLower(ev.Key)
	switch {
	case (ev.Key == "Delete" || ev.Key == "Backspace") && len(ids) > 0:
		c.DeleteSelected()
	case mod && key == "c" && len(ids) > 0:
		c.Copy()
	case mod && key == "v":
		c.Paste()
	case mod && key == "d" && len(ids) > 0:
		c.Duplicate()
	case mod && ev.Shift && (key == "]" || key == "}") && len(ids) == 1:
		c.store.BringToFront(ids[0])
	case mod && ev.Shift && (key == "[" || key == "{") && len(ids) == 1:
		c.store.SendToBack(ids[0])
	case mod && !ev.Shift && key == "]" && len(ids) == 1:
		c.store.MoveLayer(ids[0], canvas.Up)
	case mod && !ev.Shift && key == "[" && len(ids) == 1:
		c.store.MoveLayer(ids[0], canvas.Down)
	default:
		return false
	}
	return true
}
