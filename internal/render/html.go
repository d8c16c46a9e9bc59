/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"html/template"
	"io"

	"gocanvas/internal/canvas"
)

type node struct {
	ID       string
	Type     canvas.ElementType
	Style    template.CSS
	Label    string
	Src      string
	Children []node
}

type page struct {
	Width, Height string
	Nodes         []node
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>gocanvas</title></head>
<body style="margin:0;background:#f4f4f5">
<div class="artboard" style="position:relative;overflow:hidden;background:#ffffff;width:{{.Width}};height:{{.Height}}">
{{range .Nodes}}{{template "el" .}}{{end}}</div>
</body></html>
{{define "el"}}<div data-element-id="{{.ID}}" data-type="{{.Type}}" style="{{.Style}}">
{{- if eq (print .Type) "image"}}{{if .Src}}<img src="{{.Src}}" alt="{{.Label}}" style="width:100%;height:100%;object-fit:cover">{{end}}
{{- else}}{{.Label}}{{end}}
{{- range .Children}}{{template "el" .}}{{end}}</div>
{{end}}`))

func toNode(e canvas.Element) node {
	n := node{ID: e.ID, Type: e.Type, Style: template.CSS(CSS(e)), Label: Label(e), Src: e.Src}
	for _, c := range e.Children {
		n.Children = append(n.Children, toNode(c))
	}
	return n
}

// HTML writes a static page with the artboard and the elements in the given
// order, which should be paint order.
func HTML(w io.Writer, width, height float64, elements []canvas.Element) error {
	p := page{Width: px(width), Height: px(height)}
	for _, e := range elements {
		p.Nodes = append(p.Nodes, toNode(e))
	}
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
