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
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"gocanvas/internal/geom"
	"gocanvas/internal/gesture"
	"gocanvas/internal/snap"
	"gocanvas/internal/viewport"
)

// ViewportRequest reports the container size and, optionally, where the
// artboard's top-left sits in client coordinates.
type ViewportRequest struct {
	viewport.Size
	OriginX *float64 `json:"originX,omitempty"`
	OriginY *float64 `json:"originY,omitempty"`
}

// handleViewport queues the size for the observer and answers 202 before the
// scale is recomputed. The origin is applied immediately.
func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid viewport: %w", err))
		return
	}
	if req.ContainerWidth <= 0 || req.ContainerHeight <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("container size must be positive"))
		return
	}
	if req.OriginX != nil || req.OriginY != nil {
		o := s.vp.Origin()
		if req.OriginX != nil {
			o.X = *req.OriginX
		}
		if req.OriginY != nil {
			o.Y = *req.OriginY
		}
		s.vp.SetOrigin(o)
	}
	select {
	case s.sizes <- req.Size:
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, r.Context().Err())
		return
	}
	writeJSON(w, http.StatusAccepted, nil)
}

// GestureRequest drives the gesture engine. Begin reads Kind, IDs (the
// selection when empty), Handle and the pointer; move and end read the
// pointer; update reads Delta.
type GestureRequest struct {
	Kind   string         `json:"kind,omitempty"`
	IDs    []string       `json:"ids,omitempty"`
	Handle gesture.Handle `json:"handle,omitempty"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Delta  gesture.Delta  `json:"delta"`
}

// GestureState is the answer to every gesture action.
type GestureState struct {
	State   string         `json:"state"`
	Targets []string       `json:"targets,omitempty"`
	Live    []gesture.Live `json:"live,omitempty"`
	Guides  []snap.Guide   `json:"guides,omitempty"`
	Written *int           `json:"written,omitempty"`
	Aborted *bool          `json:"aborted,omitempty"`
}

var errIdle = errors.New("no gesture in progress")

func (s *Server) gestureState() GestureState {
	return GestureState{
		State:   s.gesture.State().String(),
		Targets: s.gesture.Targets(),
		Live:    s.gesture.LiveAll(),
		Guides:  s.gesture.Guides(),
	}
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	var req GestureRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid gesture: %w", err))
			return
		}
	}
	ptr := geom.Pt{X: req.X, Y: req.Y}

	switch action {
	case "begin":
		if err := s.beginGesture(req, ptr); err != nil {
			writeError(w, gestureStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, s.gestureState())
	case "move", "update", "end":
		if s.gesture.State() == gesture.Idle {
			writeError(w, http.StatusConflict, fmt.Errorf("%s: %w", action, errIdle))
			return
		}
		switch action {
		case "move":
			s.gesture.Move(ptr)
		case "update":
			s.gesture.Update(req.Delta)
		case "end":
			n := s.gesture.End(ptr)
			st := s.gestureState()
			st.Written = &n
			writeJSON(w, http.StatusOK, st)
			return
		}
		writeJSON(w, http.StatusOK, s.gestureState())
	case "abort":
		aborted := s.gesture.Abort()
		st := s.gestureState()
		st.Aborted = &aborted
		writeJSON(w, http.StatusOK, st)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown gesture action %q", action))
	}
}

func (s *Server) beginGesture(req GestureRequest, ptr geom.Pt) error {
	ids := req.IDs
	if len(ids) == 0 {
		ids = s.store.SelectedIDs()
	}
	switch req.Kind {
	case "drag":
		return s.gesture.BeginDrag(ids, ptr)
	case "resize":
		if len(ids) != 1 {
			return fmt.Errorf("resize needs exactly one element, got %d", len(ids))
		}
		return s.gesture.BeginResize(ids[0], req.Handle, ptr)
	case "rotate":
		return s.gesture.BeginRotate(ids, ptr)
	case "scale":
		return s.gesture.BeginScale(ids, ptr)
	default:
		return fmt.Errorf("unknown gesture kind %q", req.Kind)
	}
}

func gestureStatus(err error) int {
	switch {
	case errors.Is(err, gesture.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, gesture.ErrNoTarget):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
