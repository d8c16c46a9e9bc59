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
	"fmt"
	"log/slog"

	"gocanvas/internal/canvas"
)

var ErrNotEditable = errors.New("selection: element is not editable text")

// TextEdit is the inline editing state of one text element.
type TextEdit struct {
	ID       string `json:"id"`
	Draft    string `json:"draft"`
	Original string `json:"original"`
}

// BeginTextEdit enters editing mode for a text element. An edit already in
// progress on another element is committed first.
func (c *Controller) BeginTextEdit(id string) error {
	e, ok := c.store.GetElement(id)
	if !ok || e.Type != canvas.TypeText {
		return fmt.Errorf("begin text edit %q: %w", id, ErrNotEditable)
	}
	if cur, editing := c.Editing(); editing {
		if cur.ID == id {
			return nil
		}
		c.CommitTextEdit()
	}
	c.mu.Lock()
	c.edit = &TextEdit{ID: id, Draft: e.Content, Original: e.Content}
	c.mu.Unlock()
	c.log.Debug("text edit started", slog.String("id", id))
	return nil
}

// Editing returns the active edit, if any.
func (c *Controller) Editing() (TextEdit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return TextEdit{}, false
	}
	return *c.edit, true
}

func (c *Controller) isEditing() bool {
	_, ok := c.Editing()
	return ok
}

// SetDraft replaces the draft text. It reports false when no edit is active.
func (c *Controller) SetDraft(s string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return false
	}
	c.edit.Draft = s
	return true
}

// CommitTextEdit writes the draft as the element's content and leaves editing mode.
func (c *Controller) CommitTextEdit() bool {
	c.mu.Lock()
	ed := c.edit
	c.edit = nil
	c.mu.Unlock()
	if ed == nil {
		return false
	}
	if ed.Draft != ed.Original {
		c.store.UpdateElement(ed.ID, canvas.Patch{Content: canvas.String(ed.Draft)})
	}
	return true
}

// CancelTextEdit leaves editing mode without writing.
func (c *Controller) CancelTextEdit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.edit != nil
	c.edit = nil
	return ok
}
