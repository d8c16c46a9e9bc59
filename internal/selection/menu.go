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
	"slices"

	"gocanvas/internal/geom"
)

var ErrUnknownVerb = errors.New("selection: unknown verb")

// Verb names a command shared by the context menu, keyboard and command API.
type Verb string

const (
	VerbCopy         Verb = "copy"
	VerbPaste        Verb = "paste"
	VerbDuplicate    Verb = "duplicate"
	VerbBringToFront Verb = "bring-to-front"
	VerbMoveUp       Verb = "move-up"
	VerbMoveDown     Verb = "move-down"
	VerbSendToBack   Verb = "send-to-back"
	VerbDelete       Verb = "delete"
	VerbClear        Verb = "clear-selection"

	// VerbCompactLayers renumbers every element's zIndex to 1..n, keeping paint order.
	VerbCompactLayers Verb = "compact-layers"
)

type MenuItem struct {
	Verb      Verb   `json:"verb,omitempty"`
	Label     string `json:"label,omitempty"`
	Shortcut  string `json:"shortcut,omitempty"`
	Separator bool   `json:"separator,omitempty"`
}

// Menu is anchored at the client position of the triggering pointer.
type Menu struct {
	At    geom.Pt    `json:"at"`
	Items []MenuItem `json:"items"`
}

var menuItems = []MenuItem{
	{Verb: VerbCopy, Label: "Copy", Shortcut: "Ctrl+C"},
	{Verb: VerbPaste, Label: "Paste", Shortcut: "Ctrl+V"},
	{Verb: VerbDuplicate, Label: "Duplicate", Shortcut: "Ctrl+D"},
	{Separator: true},
	{Verb: VerbBringToFront, Label: "Bring to front", Shortcut: "Ctrl+Shift+]"},
	{Verb: VerbMoveUp, Label: "Move up", Shortcut: "Ctrl+]"},
	{Verb: VerbMoveDown, Label: "Move down", Shortcut: "Ctrl+["},
	{Verb: VerbSendToBack, Label: "Send to back", Shortcut: "Ctrl+Shift+["},
	{Verb: VerbCompactLayers, Label: "Tidy layers"},
	{Separator: true},
	{Verb: VerbDelete, Label: "Delete", Shortcut: "Delete"},
}

// OpenMenu opens the context menu at the pointer. Right-clicking an unselected
// element selects it first. With nothing selected no menu is shown.
func (c *Controller) OpenMenu(at geom.Pt, targetID string) (Menu, bool) {
	if targetID != "" {
		if _, ok := c.store.GetElement(targetID); ok && !slices.Contains(c.IDs(), targetID) {
			c.Select(targetID)
		}
	}
	if len(c.store.Selected()) == 0 {
		c.CloseMenu()
		return Menu{}, false
	}
	m := Menu{At: at, Items: append([]MenuItem(nil), menuItems...)}
	c.mu.Lock()
	c.menu = &m
	c.mu.Unlock()
	return m, true
}

// CurrentMenu returns the open menu, if any.
func (c *Controller) CurrentMenu() (Menu, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menu == nil {
		return Menu{}, false
	}
	return *c.menu, true
}

// CloseMenu reports whether a menu was open.
func (c *Controller) CloseMenu() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	open := c.menu != nil
	c.menu = nil
	return open
}

// Invoke runs a verb against the current selection and closes the menu.
// Layer verbs and delete iterate every selected id.
func (c *Controller) Invoke(v Verb) error {
	defer c.CloseMenu()
	switch v {
	case VerbCopy:
		c.Copy()
	case VerbPaste:
		c.Paste()
	case VerbDuplicate:
		c.Duplicate()
	case VerbBringToFront:
		c.BringToFront()
	case VerbMoveUp:
		c.MoveUp()
	case VerbMoveDown:
		c.MoveDown()
	case VerbSendToBack:
		c.SendToBack()
	case VerbDelete:
		c.DeleteSelected()
	case VerbClear:
		c.Clear()
	case VerbCompactLayers:
		c.store.CompactLayers()
	default:
		return fmt.Errorf("invoke %q: %w", v, ErrUnknownVerb)
	}
	c.log.Debug("verb invoked", slog.String("verb", string(v)))
	return nil
}
