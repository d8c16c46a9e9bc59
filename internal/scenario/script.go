/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scenario drives the canvas engine headlessly from a YAML script of
// pointer gestures, key presses and drops. It backs the "run" command and
// end-to-end tests.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"gocanvas/internal/canvas"
	"gocanvas/internal/geom"
	"gocanvas/internal/gesture"
	"gocanvas/internal/selection"
)

var (
	ErrUnknownStep = errors.New("scenario: unknown step")
	ErrExpectation = errors.New("scenario: expectation failed")
)

// Script is a named sequence of steps run against one canvas.
type Script struct {
	Name     string       `yaml:"name"`
	Viewport ViewportSpec `yaml:"viewport"`
	Steps    []Step       `yaml:"steps"`
}

// ViewportSpec sizes the container the artboard is fitted into. A zero
// container leaves the artboard at scale 1.
type ViewportSpec struct {
	Container struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"container"`
	Window float64 `yaml:"window"`
	Origin geom.Pt `yaml:"origin"`
}

// Step holds exactly one action. Element references accept either an id or an
// alias bound by an earlier add, preset or drop step.
type Step struct {
	Add    *AddStep            `yaml:"add,omitempty"`
	Preset *PresetStep         `yaml:"preset,omitempty"`
	Select *SelectStep         `yaml:"select,omitempty"`
	Drag   *DragStep           `yaml:"drag,omitempty"`
	Resize *ResizeStep         `yaml:"resize,omitempty"`
	Rotate *RotateStep         `yaml:"rotate,omitempty"`
	Scale  *ScaleStep          `yaml:"scale,omitempty"`
	Key    *selection.KeyEvent `yaml:"key,omitempty"`
	Drop   *DropStep           `yaml:"drop,omitempty"`
	Menu   *MenuStep           `yaml:"menu,omitempty"`
	Text   *TextStep           `yaml:"text,omitempty"`
	Tick   *int                `yaml:"tick,omitempty"`
	Expect *ExpectStep         `yaml:"expect,omitempty"`
}

type AddStep struct {
	Type  canvas.ElementType `yaml:"type"`
	Props canvas.Patch       `yaml:"props"`
	As    string             `yaml:"as"`
}

type PresetStep struct {
	Name string `yaml:"name"`
	As   string `yaml:"as"`
}

// SelectStep replaces the selection with IDs, or clicks At (canvas-space) when set.
type SelectStep struct {
	IDs      []string `yaml:"ids"`
	At       *geom.Pt `yaml:"at"`
	Additive bool     `yaml:"additive"`
}

// DragStep moves the pointer from From to To in client pixels over Frames
// live updates. Empty IDs drag the current selection.
type DragStep struct {
	IDs    []string `yaml:"ids"`
	From   geom.Pt  `yaml:"from"`
	To     geom.Pt  `yaml:"to"`
	Frames int      `yaml:"frames"`
	Abort  bool     `yaml:"abort"`
}

type ResizeStep struct {
	ID     string         `yaml:"id"`
	Handle gesture.Handle `yaml:"handle"`
	From   geom.Pt        `yaml:"from"`
	To     geom.Pt        `yaml:"to"`
	Frames int            `yaml:"frames"`
}

// RotateStep reports a cumulative rotation the way a transformer widget does.
type RotateStep struct {
	IDs     []string `yaml:"ids"`
	Degrees float64  `yaml:"degrees"`
	Frames  int      `yaml:"frames"`
}

// ScaleStep reports a cumulative scale factor. Factor sets both axes unless
// FactorX or FactorY is given.
type ScaleStep struct {
	IDs     []string `yaml:"ids"`
	Factor  float64  `yaml:"factor"`
	FactorX float64  `yaml:"factor_x"`
	FactorY float64  `yaml:"factor_y"`
	Frames  int      `yaml:"frames"`
}

// DropStep drops a toolbar preset, or a raw payload, at a client point.
type DropStep struct {
	Preset  string  `yaml:"preset"`
	Payload string  `yaml:"payload"`
	At      geom.Pt `yaml:"at"`
	As      string  `yaml:"as"`
}

// MenuStep opens the context menu on Target and invokes a verb.
type MenuStep struct {
	At     geom.Pt        `yaml:"at"`
	Target string         `yaml:"target"`
	Invoke selection.Verb `yaml:"invoke"`
}

// TextStep edits a text element inline. The edit is committed unless Cancel is set.
type TextStep struct {
	ID     string `yaml:"id"`
	Draft  string `yaml:"draft"`
	Cancel bool   `yaml:"cancel"`
}

// ExpectStep asserts on the canvas. Nil fields are not checked.
type ExpectStep struct {
	ID       string    `yaml:"id"`
	Missing  bool      `yaml:"missing"`
	X        *float64  `yaml:"x"`
	Y        *float64  `yaml:"y"`
	Width    *float64  `yaml:"width"`
	Height   *float64  `yaml:"height"`
	Rotation *float64  `yaml:"rotation"`
	ScaleX   *float64  `yaml:"scaleX"`
	ScaleY   *float64  `yaml:"scaleY"`
	ZIndex   *int      `yaml:"zIndex"`
	Content  *string   `yaml:"content"`
	Count    *int      `yaml:"count"`
	Selected *[]string `yaml:"selected"`
}

// Kind names the action a step holds, or "" when it holds none or several.
func (s Step) Kind() string {
	set := map[string]bool{
		"add":    s.Add != nil,
		"preset": s.Preset != nil,
		"select": s.Select != nil,
		"drag":   s.Drag != nil,
		"resize": s.Resize != nil,
		"rotate": s.Rotate != nil,
		"scale":  s.Scale != nil,
		"key":    s.Key != nil,
		"drop":   s.Drop != nil,
		"menu":   s.Menu != nil,
		"text":   s.Text != nil,
		"tick":   s.Tick != nil,
		"expect": s.Expect != nil,
	}
	kind := ""
	for k, ok := range set {
		if !ok {
			continue
		}
		if kind != "" {
			return ""
		}
		kind = k
	}
	return kind
}

// Load decodes a script. Unknown keys are rejected.
func Load(r io.Reader) (Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, errors.New("scenario: empty script")
		}
		return Script{}, fmt.Errorf("scenario: decode: %w", err)
	}
	for i, st := range s.Steps {
		if st.Kind() == "" {
			return Script{}, &StepError{Index: i, Err: ErrUnknownStep}
		}
	}
	return s, nil
}

// LoadString is Load for inline scripts.
func LoadString(src string) (Script, error) { return Load(strings.NewReader(src)) }

// StepError locates a failure within the script. Index is 0-based.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("step %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
