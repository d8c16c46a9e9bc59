/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes the canvas engine over a small HTTP/JSON command API
// and pushes every store change to websocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gocanvas/internal/canvas"
	"gocanvas/internal/gesture"
	applog "gocanvas/internal/log"
	"gocanvas/internal/render"
	"gocanvas/internal/selection"
	"gocanvas/internal/version"
	"gocanvas/internal/viewport"
)

// Options configures the HTTP server.
type Options struct {
	Addr            string        // bind address, e.g. ":8787"
	ShutdownTimeout time.Duration // grace period for in-flight requests
	// AllowAnyOrigin disables the websocket same-origin check.
	AllowAnyOrigin bool
}

// sizeBuffer bounds the container-size reports waiting for the viewport.
const sizeBuffer = 16

type Server struct {
	store   *canvas.Store
	vp      *viewport.Viewport
	ctrl    *selection.Controller
	gesture *gesture.Engine
	sizes   chan viewport.Size
	opts    Options
	router  *mux.Router
	feed    *feed
	chat    *chat
	unsub   func()
	log     *slog.Logger
}

// New wires the routes and subscribes the change feed to store. g should be the
// engine ctrl cancels on Escape; its live transforms and guides go out on the feed.
func New(store *canvas.Store, vp *viewport.Viewport, ctrl *selection.Controller, g *gesture.Engine, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8787"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if g == nil {
		g = gesture.New(store, vp, gesture.Options{})
	}
	s := &Server{
		store:   store,
		vp:      vp,
		ctrl:    ctrl,
		gesture: g,
		sizes:   make(chan viewport.Size, sizeBuffer),
		opts:    opts,
		chat:    newChat(),
		log:     applog.WithComponent("server"),
	}
	s.feed = newFeed(store, opts.AllowAnyOrigin, s.log)
	s.unsub = store.Subscribe(s.feed.broadcast)
	g.Listen(s.feed.live, s.feed.guides)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	}).Methods(http.MethodGet)
	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.feed.serve).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/canvas", s.handleGetCanvas).Methods(http.MethodGet)
	api.HandleFunc("/presets", s.handlePresets).Methods(http.MethodGet)
	api.HandleFunc("/elements", s.handleAddElement).Methods(http.MethodPost)
	api.HandleFunc("/elements/{id}", s.handleGetElement).Methods(http.MethodGet)
	api.HandleFunc("/elements/{id}", s.handleUpdateElement).Methods(http.MethodPatch)
	api.HandleFunc("/elements/{id}", s.handleDeleteElement).Methods(http.MethodDelete)
	api.HandleFunc("/selection", s.handleSetSelection).Methods(http.MethodPut)
	api.HandleFunc("/commands/{verb}", s.handleCommand).Methods(http.MethodPost)
	api.HandleFunc("/keys", s.handleKey).Methods(http.MethodPost)
	api.HandleFunc("/drop", s.handleDrop).Methods(http.MethodPost)
	api.HandleFunc("/viewport", s.handleViewport).Methods(http.MethodPost)
	api.HandleFunc("/gestures/{action}", s.handleGesture).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleListChat).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.handlePostChat).Methods(http.MethodPost)

	r.Use(s.logRequests)
	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// Close detaches the change feed from the store and the gesture engine and drops
// every subscriber.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
		s.gesture.Listen(nil, nil)
	}
	s.feed.closeAll()
}

// Observe applies container sizes reported on /api/viewport until ctx is done.
// Run starts it; a server driven through Handler alone must start it itself.
func (s *Server) Observe(ctx context.Context) error {
	return s.vp.Observe(ctx, s.sizes)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.Observe(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("viewport observer stopped", slog.Any("err", err))
		}
	}()
	serverErr := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.Close()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		s.log.Error("server failed", slog.Any("err", err))
		s.Close()
		return err
	}
}

// requestIDHeader is echoed back, or filled with a fresh uuid when the caller sent none.
const requestIDHeader = "X-Request-ID"

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := applog.WithRequest(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
		s.log.DebugContext(ctx, "request", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Duration("took", time.Since(start)))
	})
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	cfg := s.vp.Config()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.HTML(w, cfg.CanvasWidth, cfg.CanvasHeight, s.store.PaintOrder()); err != nil {
		s.log.Error("render page", slog.Any("err", err))
	}
}

// --- Helpers: JSON ---

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
