/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render turns numeric element state into CSS declarations for a
// browser view. Type-specific visual defaults live here and nowhere else:
// the store keeps only what was explicitly set.
package render

import (
	"sort"
	"strconv"
	"strings"

	"gocanvas/internal/canvas"
)

// Defaults applied when an element leaves a paint property empty.
const (
	DefaultTextColor    = "#374151"
	DefaultFontSize     = "16px"
	DefaultShapeFill    = "#3b82f6"
	DefaultButtonFill   = "#8b5cf6"
	DefaultButtonColor  = "#ffffff"
	DefaultButtonRadius = "8px"
	DefaultButtonSize   = "14px"
	DefaultButtonWeight = "600"
)

func px(v float64) string { return num(v) + "px" }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Style returns the CSS declarations for e keyed by property name.
func Style(e canvas.Element) map[string]string {
	sx, sy := e.ScaleX, e.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	z := e.ZIndex
	if z == 0 {
		z = 1
	}
	st := map[string]string{
		"position":         "absolute",
		"left":             px(e.X),
		"top":              px(e.Y),
		"width":            px(e.Width),
		"height":           px(e.Height),
		"transform":        "rotate(" + num(e.Rotation) + "deg) scale(" + num(sx) + ", " + num(sy) + ")",
		"transform-origin": "center center",
		"z-index":          strconv.Itoa(z),
		"opacity":          num(e.Opacity),
	}
	if !e.IsVisible() {
		st["display"] = "none"
	}
	if e.Border != "" {
		st["border"] = e.Border
	}
	if e.BackgroundColor != "" {
		st["background-color"] = e.BackgroundColor
	}
	if e.BorderRadius != "" {
		st["border-radius"] = e.BorderRadius
	}
	if e.FontFamily != "" {
		st["font-family"] = e.FontFamily
	}

	switch e.Type {
	case canvas.TypeText:
		st["color"] = or(e.Color, DefaultTextColor)
		st["font-size"] = or(e.FontSize, DefaultFontSize)
		st["font-weight"] = or(e.FontWeight, "normal")
		st["text-align"] = or(e.TextAlign, "left")
	case canvas.TypeShape:
		st["background-color"] = or(e.BackgroundColor, DefaultShapeFill)
		st["border-radius"] = or(e.BorderRadius, "0px")
	case canvas.TypeButton:
		st["background-color"] = or(e.BackgroundColor, DefaultButtonFill)
		st["border-radius"] = or(e.BorderRadius, DefaultButtonRadius)
		st["color"] = or(e.Color, DefaultButtonColor)
		st["font-size"] = or(e.FontSize, DefaultButtonSize)
		st["font-weight"] = or(e.FontWeight, DefaultButtonWeight)
		st["text-align"] = or(e.TextAlign, "center")
	case canvas.TypeContainer:
		st["border"] = or(e.Border, "2px dashed #d4d4d8")
	case canvas.TypeImage:
		st["object-fit"] = "cover"
	}
	return st
}

// CSS renders Style(e) as an inline style attribute value with sorted keys.
func CSS(e canvas.Element) string {
	st := Style(e)
	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(st[k])
		b.WriteByte(';')
	}
	return b.String()
}

// Label is the visible text of e, with per-type placeholders.
func Label(e canvas.Element) string {
	switch e.Type {
	case canvas.TypeText:
		return or(e.Content, "Text")
	case canvas.TypeButton:
		return or(e.Content, "Button")
	case canvas.TypeImage:
		return or(e.Name, "Image")
	}
	return e.Content
}
