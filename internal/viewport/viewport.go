/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport maps the fixed logical canvas onto the available container.
// Scale is the single conversion factor between screen-space pixel deltas and
// canvas-space deltas. The canvas is only ever shrunk to fit, never upscaled.
package viewport

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gocanvas/internal/config"
	"gocanvas/internal/geom"
	applog "gocanvas/internal/log"
)

// MinScale guards against degenerate containers collapsing the canvas to zero.
const MinScale = 0.01

type Config struct {
	CanvasWidth   float64
	CanvasHeight  float64
	PaddingWide   float64
	PaddingNarrow float64
	Breakpoint    float64
}

// DefaultConfig is the 1200x675 (16:9) artboard.
func DefaultConfig() Config {
	return FromAppConfig(config.Defaults().Canvas)
}

func FromAppConfig(c config.CanvasConfig) Config {
	return Config{
		CanvasWidth:   c.Width,
		CanvasHeight:  c.Height,
		PaddingWide:   c.PaddingWide,
		PaddingNarrow: c.PaddingNarrow,
		Breakpoint:    c.Breakpoint,
	}
}

// Size is one observation of the rendering container and the window.
type Size struct {
	ContainerWidth  float64 `json:"containerWidth" yaml:"containerWidth"`
	ContainerHeight float64 `json:"containerHeight" yaml:"containerHeight"`
	WindowWidth     float64 `json:"windowWidth" yaml:"windowWidth"`
}

// State is the derived on-screen size of the artboard.
type State struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

type Viewport struct {
	mu      sync.Mutex
	cfg     Config
	state   State
	origin  geom.Pt
	subs    map[int]func(State)
	nextSub int
	log     *slog.Logger
}

// New starts at scale 1 until the first Resize.
func New(cfg Config) *Viewport {
	def := DefaultConfig()
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		cfg.CanvasWidth, cfg.CanvasHeight = def.CanvasWidth, def.CanvasHeight
	}
	return &Viewport{
		cfg:   cfg,
		state: State{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight, Scale: 1},
		subs:  make(map[int]func(State)),
		log:   applog.WithComponent("viewport"),
	}
}

func (v *Viewport) Config() Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg
}

// Resize recomputes scale = min(availW/canvasW, availH/canvasH, 1) where the
// available size is the container minus the wide padding at or above the
// breakpoint window width, else the narrow padding.
func (v *Viewport) Resize(containerW, containerH, windowW float64) State {
	v.mu.Lock()
	pad := v.cfg.PaddingNarrow
	if windowW >= v.cfg.Breakpoint {
		pad = v.cfg.PaddingWide
	}
	scale := math.Min(math.Min((containerW-pad)/v.cfg.CanvasWidth, (containerH-pad)/v.cfg.CanvasHeight), 1)
	if math.IsNaN(scale) || scale < MinScale {
		scale = MinScale
	}
	next := State{Width: v.cfg.CanvasWidth * scale, Height: v.cfg.CanvasHeight * scale, Scale: scale}
	changed := next != v.state
	v.state = next
	subs := make([]func(State), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	if changed {
		v.log.Debug("viewport resized", slog.Float64("scale", scale), slog.Float64("container_w", containerW), slog.Float64("container_h", containerH))
		for _, fn := range subs {
			fn(next)
		}
	}
	return next
}

// Apply is Resize for a Size observation.
func (v *Viewport) Apply(sz Size) State {
	return v.Resize(sz.ContainerWidth, sz.ContainerHeight, sz.WindowWidth)
}

// Observe recomputes on every size event until ctx is done or the channel closes.
func (v *Viewport) Observe(ctx context.Context, sizes <-chan Size) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sz, ok := <-sizes:
			if !ok {
				return nil
			}
			v.Apply(sz)
		}
	}
}

// Subscribe registers fn for state changes and returns its cancel func.
func (v *Viewport) Subscribe(fn func(State)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextSub++
	id := v.nextSub
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *Viewport) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Viewport) Scale() float64 { return v.State().Scale }

// SetOrigin records the artboard's top-left corner in client coordinates.
func (v *Viewport) SetOrigin(p geom.Pt) {
	v.mu.Lock()
	v.origin = p
	v.mu.Unlock()
}

func (v *Viewport) Origin() geom.Pt {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.origin
}

// ClientToCanvas converts a pointer position to canvas-space.
func (v *Viewport) ClientToCanvas(p geom.Pt) geom.Pt {
	v.mu.Lock()
	defer v.mu.Unlock()
	return p.Sub(v.origin).Div(v.state.Scale)
}

func (v *Viewport) CanvasToClient(p geom.Pt) geom.Pt {
	v.mu.Lock()
	defer v.mu.Unlock()
	return p.Mul(v.state.Scale).Add(v.origin)
}

// ScreenDeltaToCanvas divides a screen-space delta by the current scale.
func (v *Viewport) ScreenDeltaToCanvas(d geom.Pt) geom.Pt { return d.Div(v.Scale()) }

func (v *Viewport) CanvasDeltaToScreen(d geom.Pt) geom.Pt { return d.Mul(v.Scale()) }
