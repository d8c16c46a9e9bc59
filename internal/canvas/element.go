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
	"math"

	"gocanvas/internal/geom"
)

// ElementType determines rendering and default-content rules. Immutable after creation.
type ElementType string

const (
	TypeText      ElementType = "text"
	TypeImage     ElementType = "image"
	TypeShape     ElementType = "shape"
	TypeContainer ElementType = "container"
	TypeButton    ElementType = "button"
)

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeShape, TypeContainer, TypeButton:
		return true
	}
	return false
}

// Minimum values enforced at the point of mutation.
const (
	MinSize       = 1.0
	MinResizeSize = 50.0
	MinScale      = 0.1
)

// Element is a node placed on the canvas. Geometry is in canvas-space units.
// Paint fields are optional CSS tokens; defaults are applied at render time.
type Element struct {
	ID       string      `json:"id" yaml:"id"`
	Type     ElementType `json:"type" yaml:"type"`
	X        float64     `json:"x" yaml:"x"`
	Y        float64     `json:"y" yaml:"y"`
	Width    float64     `json:"width" yaml:"width"`
	Height   float64     `json:"height" yaml:"height"`
	Rotation float64     `json:"rotation" yaml:"rotation"`
	ScaleX   float64     `json:"scaleX" yaml:"scaleX"`
	ScaleY   float64     `json:"scaleY" yaml:"scaleY"`

	BackgroundColor string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	BorderRadius    string  `json:"borderRadius,omitempty" yaml:"borderRadius,omitempty"`
	Border          string  `json:"border,omitempty" yaml:"border,omitempty"`
	Opacity         float64 `json:"opacity" yaml:"opacity"`
	Color           string  `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize        string  `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`

	ZIndex   int       `json:"zIndex" yaml:"zIndex"`
	Content  string    `json:"content,omitempty" yaml:"content,omitempty"`
	Src      string    `json:"src,omitempty" yaml:"src,omitempty"`
	Children []Element `json:"children,omitempty" yaml:"children,omitempty"`

	// Advisory only; nothing in the engine enforces lock or visibility except hit testing.
	Locked  bool   `json:"locked,omitempty" yaml:"locked,omitempty"`
	Visible *bool  `json:"visible,omitempty" yaml:"visible,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Clone returns a deep copy that survives later mutation of e.
func (e Element) Clone() Element {
	c := e
	if e.Visible != nil {
		v := *e.Visible
		c.Visible = &v
	}
	if e.Children != nil {
		c.Children = make([]Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// IsVisible treats an unset flag as visible.
func (e Element) IsVisible() bool { return e.Visible == nil || *e.Visible }

// Bounds returns the unrotated box using the actual (scaled) size.
func (e Element) Bounds() geom.Rect {
	return geom.R(e.X, e.Y, e.Width*e.ScaleX, e.Height*e.ScaleY)
}

// Transform maps the unrotated bounds to their on-canvas placement (rotation about the center).
func (e Element) Transform() geom.Affine2D {
	if e.Rotation == 0 {
		return geom.Identity
	}
	return geom.RotateAbout(e.Rotation, e.Bounds().Center())
}

// Contains reports whether the canvas point p lies inside the rotated, scaled box.
func (e Element) Contains(p geom.Pt) bool {
	local := e.Transform().Invert().Apply(p)
	return e.Bounds().Contains(local)
}

// clamp keeps geometry valid in committed state.
func (e *Element) clamp() {
	e.Width = clampMin(e.Width, MinSize)
	e.Height = clampMin(e.Height, MinSize)
	e.ScaleX = clampMin(e.ScaleX, MinScale)
	e.ScaleY = clampMin(e.ScaleY, MinScale)
	if math.IsNaN(e.Opacity) || e.Opacity > 1 {
		e.Opacity = 1
	} else if e.Opacity < 0 {
		e.Opacity = 0
	}
	if math.IsNaN(e.X) {
		e.X = 0
	}
	if math.IsNaN(e.Y) {
		e.Y = 0
	}
	if math.IsNaN(e.Rotation) {
		e.Rotation = 0
	}
}

func clampMin(v, lo float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	return v
}

// Patch is a shallow partial update. Nil fields are left untouched.
// ID and Type have no patch field and cannot change after creation.
type Patch struct {
	X        *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y        *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Width    *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height   *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Rotation *float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	ScaleX   *float64 `json:"scaleX,omitempty" yaml:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty" yaml:"scaleY,omitempty"`

	BackgroundColor *string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	BorderRadius    *string  `json:"borderRadius,omitempty" yaml:"borderRadius,omitempty"`
	Border          *string  `json:"border,omitempty" yaml:"border,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Color           *string  `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize        *string  `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontWeight      *string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	TextAlign       *string  `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	FontFamily      *string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`

	ZIndex   *int       `json:"zIndex,omitempty" yaml:"zIndex,omitempty"`
	Content  *string    `json:"content,omitempty" yaml:"content,omitempty"`
	Src      *string    `json:"src,omitempty" yaml:"src,omitempty"`
	Children *[]Element `json:"children,omitempty" yaml:"children,omitempty"`

	Locked  *bool   `json:"locked,omitempty" yaml:"locked,omitempty"`
	Visible *bool   `json:"visible,omitempty" yaml:"visible,omitempty"`
	Name    *string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Pointer helpers for building patches.
func Float(v float64) *float64 { return &v }
func Int(v int) *int { return &v }
func String(v string) *string { return &v }
func Bool(v bool) *bool { return &v }

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool { return p == Patch{} }

func (p Patch) apply(e *Element) {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setS := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&e.X, p.X)
	setF(&e.Y, p.Y)
	setF(&e.Width, p.Width)
	setF(&e.Height, p.Height)
	setF(&e.Rotation, p.Rotation)
	setF(&e.ScaleX, p.ScaleX)
	setF(&e.ScaleY, p.ScaleY)
	setF(&e.Opacity, p.Opacity)
	setS(&e.BackgroundColor, p.BackgroundColor)
	setS(&e.BorderRadius, p.BorderRadius)
	setS(&e.Border, p.Border)
	setS(&e.Color, p.Color)
	setS(&e.FontSize, p.FontSize)
	setS(&e.FontWeight, p.FontWeight)
	setS(&e.TextAlign, p.TextAlign)
	setS(&e.FontFamily, p.FontFamily)
	setS(&e.Content, p.Content)
	setS(&e.Src, p.Src)
	setS(&e.Name, p.Name)
	if p.ZIndex != nil {
		e.ZIndex = *p.ZIndex
	}
	if p.Children != nil {
		kids := make([]Element, len(*p.Children))
		for i, ch := range *p.Children {
			kids[i] = ch.Clone()
		}
		e.Children = kids
	}
	if p.Locked != nil {
		e.Locked = *p.Locked
	}
	if p.Visible != nil {
		v := *p.Visible
		e.Visible = &v
	}
	e.clamp()
}
