/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package toolbar

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gocanvas/internal/canvas"
	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
)

var ErrInvalidPayload = errors.New("toolbar: invalid drop payload")

//go:embed payload.schema.json
var payloadSchemaJSON []byte

var payloadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(payloadSchemaJSON))
})

// Payload is the serialized element-type descriptor carried by a toolbar drag.
type Payload struct {
	Type         canvas.ElementType `json:"type"`
	Label        string             `json:"label,omitempty"`
	DefaultProps Props              `json:"defaultProps"`
}

// PayloadFor builds the drag payload of a preset.
func PayloadFor(name string) (Payload, error) {
	p, ok := Lookup(name)
	if !ok {
		return Payload{}, fmt.Errorf("payload %q: %w", name, ErrUnknownPreset)
	}
	return Payload{Type: p.Type, Label: p.Label, DefaultProps: p.Props}, nil
}

func EncodePayload(p Payload) ([]byte, error) { return json.Marshal(p) }

// DecodePayload validates data against the payload schema before decoding it.
func DecodePayload(data []byte) (Payload, error) {
	schema, err := payloadSchema()
	if err != nil {
		return Payload{}, fmt.Errorf("load payload schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Payload{}, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// Space converts client coordinates to canvas-space. *viewport.Viewport satisfies it.
type Space interface {
	ClientToCanvas(p geom.Pt) geom.Pt
}

// Drop adds the element described by data centered on the client drop point.
// A malformed payload is logged and ignored: nothing is added.
func Drop(store *canvas.Store, space Space, data []byte, client geom.Pt) (string, error) {
	p, err := DecodePayload(data)
	if err != nil {
		applog.WithComponent("toolbar").Warn("drop ignored", slog.Any("err", err))
		return "", err
	}
	at := space.ClientToCanvas(client)
	w, h := p.DefaultProps.Size()
	patch := p.DefaultProps.Patch()
	patch.X = canvas.Float(at.X - w/2)
	patch.Y = canvas.Float(at.Y - h/2)
	return store.AddElement(p.Type, patch), nil
}
