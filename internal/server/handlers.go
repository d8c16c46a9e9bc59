/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"gocanvas/internal/canvas"
	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
	"gocanvas/internal/selection"
	"gocanvas/internal/toolbar"
	"gocanvas/internal/viewport"
)

// CanvasState is the response of GET /api/canvas and of every command.
type CanvasState struct {
	Elements    []canvas.Element `json:"elements"`
	SelectedIDs []string         `json:"selectedIds"`
	Viewport    viewport.State   `json:"viewport"`
	Bounds      *geom.Rect       `json:"bounds,omitempty"`
}

func (s *Server) state() CanvasState {
	st := CanvasState{
		Elements:    s.store.PaintOrder(),
		SelectedIDs: s.store.SelectedIDs(),
		Viewport:    s.vp.State(),
	}
	if b, ok := s.ctrl.Bounds(); ok {
		st.Bounds = &b
	}
	return st
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toolbar.Presets())
}

// AddRequest creates an element either from a toolbar preset placed at the
// artboard center or from an explicit type and initial props.
type AddRequest struct {
	Preset string             `json:"preset,omitempty"`
	Type   canvas.ElementType `json:"type,omitempty"`
	Props  canvas.Patch       `json:"props,omitempty"`
}

func (s *Server) handleAddElement(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request payload: %w", err))
		return
	}
	var id string
	switch {
	case req.Preset != "":
		cfg := s.vp.Config()
		var err error
		if id, err = toolbar.AddAtCenter(s.store, req.Preset, cfg.CanvasWidth, cfg.CanvasHeight); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !req.Props.IsEmpty() {
			s.store.UpdateElement(id, req.Props)
		}
	case req.Type.Valid():
		id = s.store.AddElement(req.Type, req.Props)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown element type %q", req.Type))
		return
	}
	e, _ := s.store.GetElement(id)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetElement(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.GetElement(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("element not found"))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var p canvas.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid patch: %w", err))
		return
	}
	ctx := applog.WithElements(r.Context(), id)
	if !s.store.UpdateElement(id, p) {
		s.log.DebugContext(ctx, "patch for unknown element")
		writeError(w, http.StatusNotFound, errors.New("element not found"))
		return
	}
	s.log.DebugContext(ctx, "element patched", slog.Bool("content", p.Content != nil))
	e, _ := s.store.GetElement(id)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteElement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.store.DeleteElement(id) {
		writeError(w, http.StatusNotFound, errors.New("element not found"))
		return
	}
	s.log.DebugContext(applog.WithElements(r.Context(), id), "element deleted")
	writeJSON(w, http.StatusNoContent, nil)
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid selection: %w", err))
		return
	}
	s.ctrl.Select(req.IDs...)
	writeJSON(w, http.StatusOK, selectionRequest{IDs: s.store.SelectedIDs()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	verb := selection.Verb(mux.Vars(r)["verb"])
	if err := s.ctrl.Invoke(verb); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, selection.ErrUnknownVerb) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var ev selection.KeyEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid key event: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"handled": s.ctrl.HandleKey(ev)})
}

// DropRequest carries a toolbar drag payload and the client drop point.
type DropRequest struct {
	Payload json.RawMessage `json:"payload"`
	ClientX float64         `json:"clientX"`
	ClientY float64         `json:"clientY"`
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid drop: %w", err))
		return
	}
	id, err := toolbar.Drop(s.store, s.vp, req.Payload, geom.Pt{X: req.ClientX, Y: req.ClientY})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, _ := s.store.GetElement(id)
	writeJSON(w, http.StatusCreated, e)
}
