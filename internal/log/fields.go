/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"slices"
)

// Fields is the canvas scope of a unit of work. Zero values are omitted from records.
type Fields struct {
	RequestID string
	Gesture   string
	GestureID string
	Elements  []string
	Scenario  string
	Step      int
}

type fieldsKey struct{}

// FieldsFrom returns the fields carried by ctx. A nil ctx has none.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

func with(ctx context.Context, edit func(*Fields)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	f := FieldsFrom(ctx)
	f.Elements = slices.Clone(f.Elements)
	edit(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithRequest tags ctx with an HTTP request id.
func WithRequest(ctx context.Context, id string) context.Context {
	return with(ctx, func(f *Fields) { f.RequestID = id })
}

// WithGesture tags ctx with the gesture kind and its id.
func WithGesture(ctx context.Context, kind, id string) context.Context {
	return with(ctx, func(f *Fields) { f.Gesture, f.GestureID = kind, id })
}

// WithElements replaces the element ids ctx refers to.
func WithElements(ctx context.Context, ids ...string) context.Context {
	return with(ctx, func(f *Fields) { f.Elements = slices.Clone(ids) })
}

// WithStep tags ctx with a scenario name and the 0-based step index.
func WithStep(ctx context.Context, scenario string, index int) context.Context {
	return with(ctx, func(f *Fields) { f.Scenario, f.Step = scenario, index })
}

// maxListedElements is the largest id list written out in full; longer lists
// are reported as a count.
const maxListedElements = 4

func (f Fields) attrs() []slog.Attr {
	var out []slog.Attr
	if f.RequestID != "" {
		out = append(out, slog.String("request_id", f.RequestID))
	}
	if f.Gesture != "" {
		out = append(out, slog.String("gesture", f.Gesture))
	}
	if f.GestureID != "" {
		out = append(out, slog.String("gesture_id", f.GestureID))
	}
	switch n := len(f.Elements); {
	case n == 1:
		out = append(out, slog.String("element", f.Elements[0]))
	case n > 1 && n <= maxListedElements:
		out = append(out, slog.Any("elements", f.Elements))
	case n > maxListedElements:
		out = append(out, slog.Int("elements", n))
	}
	if f.Scenario != "" {
		out = append(out, slog.String("scenario", f.Scenario), slog.Int("step", f.Step))
	}
	return out
}
