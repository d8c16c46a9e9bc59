/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package toolbar holds the element presets, add-at-center and the drag-and-drop
// payload exchanged between the toolbar and the canvas.
package toolbar

import (
	"errors"
	"fmt"

	"gocanvas/internal/canvas"
)

var ErrUnknownPreset = errors.New("toolbar: unknown preset")

const placeholderSrc = "https://via.placeholder.com/320x240"

// Props is the default-property bundle of a preset.
type Props struct {
	Content         string  `json:"content,omitempty" yaml:"content,omitempty"`
	Src             string  `json:"src,omitempty" yaml:"src,omitempty"`
	Width           float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height          float64 `json:"height,omitempty" yaml:"height,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	BorderRadius    string  `json:"borderRadius,omitempty" yaml:"borderRadius,omitempty"`
	FontSize        string  `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	Color           string  `json:"color,omitempty" yaml:"color,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
}

// Size falls back to 100x100 for unset dimensions.
func (p Props) Size() (float64, float64) {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = 100
	}
	if h <= 0 {
		h = 100
	}
	return w, h
}

// Patch converts the bundle into an AddElement init patch. Empty strings are left unset.
func (p Props) Patch() canvas.Patch {
	w, h := p.Size()
	patch := canvas.Patch{Width: canvas.Float(w), Height: canvas.Float(h)}
	str := func(v string) *string {
		if v == "" {
			return nil
		}
		return canvas.String(v)
	}
	patch.Content = str(p.Content)
	patch.Src = str(p.Src)
	patch.BackgroundColor = str(p.BackgroundColor)
	patch.BorderRadius = str(p.BorderRadius)
	patch.FontSize = str(p.FontSize)
	patch.FontWeight = str(p.FontWeight)
	patch.Color = str(p.Color)
	patch.TextAlign = str(p.TextAlign)
	return patch
}

type Preset struct {
	Name  string             `json:"name"`
	Label string             `json:"label"`
	Type  canvas.ElementType `json:"type"`
	Props Props              `json:"defaultProps"`
}

var presets = []Preset{
	{Name: "text", Label: "Text", Type: canvas.TypeText, Props: Props{Content: "Add text", Width: 200, Height: 40, FontSize: "16px", Color: "#374151", TextAlign: "left"}},
	{Name: "rectangle", Label: "Rectangle", Type: canvas.TypeShape, Props: Props{Width: 160, Height: 120, BackgroundColor: "#3b82f6", BorderRadius: "8px"}},
	{Name: "square", Label: "Square", Type: canvas.TypeShape, Props: Props{Width: 120, Height: 120, BackgroundColor: "#10b981", BorderRadius: "0px"}},
	{Name: "circle", Label: "Circle", Type: canvas.TypeShape, Props: Props{Width: 120, Height: 120, BackgroundColor: "#ec4899", BorderRadius: "50%"}},
	{Name: "image", Label: "Image", Type: canvas.TypeImage, Props: Props{Src: placeholderSrc, Width: 320, Height: 240, BorderRadius: "8px"}},
	{Name: "video", Label: "Video", Type: canvas.TypeImage, Props: Props{Src: placeholderSrc, Width: 320, Height: 240, BorderRadius: "8px"}},
	{Name: "container", Label: "Container", Type: canvas.TypeContainer, Props: Props{Width: 400, Height: 300, BackgroundColor: "#f3f4f6", BorderRadius: "12px"}},
	{Name: "button", Label: "Button", Type: canvas.TypeButton, Props: Props{Content: "Button", Width: 160, Height: 48, BackgroundColor: "#8b5cf6", Color: "#ffffff", BorderRadius: "8px", FontSize: "14px", FontWeight: "600"}},
}

// Presets returns the preset table in toolbar order.
func Presets() []Preset { return append([]Preset(nil), presets...) }

func Lookup(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// AddAtCenter adds the named preset centered on a canvas of the given logical size.
func AddAtCenter(store *canvas.Store, name string, canvasW, canvasH float64) (string, error) {
	p, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("add %q: %w", name, ErrUnknownPreset)
	}
	w, h := p.Props.Size()
	patch := p.Props.Patch()
	patch.X = canvas.Float((canvasW - w) / 2)
	patch.Y = canvas.Float((canvasH - h) / 2)
	return store.AddElement(p.Type, patch), nil
}
