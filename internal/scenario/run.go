/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gocanvas/internal/canvas"
	"gocanvas/internal/config"
	"gocanvas/internal/frame"
	"gocanvas/internal/geom"
	"gocanvas/internal/gesture"
	applog "gocanvas/internal/log"
	"gocanvas/internal/selection"
	"gocanvas/internal/toolbar"
	"gocanvas/internal/viewport"
)

// Env is the engine a script runs against.
type Env struct {
	Store     *canvas.Store
	Viewport  *viewport.Viewport
	Loop      *frame.Loop
	Selection *selection.Controller
	Gesture   *gesture.Engine
}

// NewEnv builds an engine around store from the user config. A nil store
// gets a fresh one. Escape on the selection controller cancels the env's gesture.
func NewEnv(store *canvas.Store, cfg config.AppConfig) *Env {
	if store == nil {
		store = canvas.NewStore()
	}
	loop := frame.NewLoop()
	vp := viewport.New(viewport.FromAppConfig(cfg.Canvas))
	g := gesture.New(store, vp, gesture.OptionsFromConfig(cfg.Snap))
	return &Env{
		Store:     store,
		Viewport:  vp,
		Loop:      loop,
		Selection: selection.New(store, loop, selection.WithGesture(g)),
		Gesture:   g,
	}
}

func (e *Env) Close() {
	e.Gesture.Abort()
	e.Selection.Close()
}

// Report summarizes a run.
type Report struct {
	Name          string            `json:"name" yaml:"name"`
	Steps         int               `json:"steps" yaml:"steps"`
	Notifications int               `json:"notifications" yaml:"notifications"`
	Written       int               `json:"written" yaml:"written"`
	Frames        int               `json:"frames" yaml:"frames"`
	Aliases       map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Elements      []canvas.Element  `json:"elements" yaml:"elements"`
	SelectedIDs   []string          `json:"selectedIds" yaml:"selected_ids"`
	Bounds        *geom.Rect        `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

type runner struct {
	env     *Env
	engine  *gesture.Engine
	aliases map[string]string
	report  *Report
	log     *slog.Logger
}

// Run executes every step in order and stops at the first failure. The report
// reflects the canvas at the point the run stopped.
func Run(ctx context.Context, s Script, env *Env) (Report, error) {
	rep := Report{Name: s.Name}
	r := &runner{
		env:     env,
		engine:  env.Gesture,
		aliases: map[string]string{},
		report:  &rep,
		log:     applog.WithOperation(applog.WithComponent("scenario"), "run"),
	}
	unsub := env.Store.Subscribe(func(canvas.Change) { rep.Notifications++ })
	defer unsub()

	vs := s.Viewport
	if vs.Container.Width > 0 && vs.Container.Height > 0 {
		env.Viewport.Resize(vs.Container.Width, vs.Container.Height, vs.Window)
	}
	env.Viewport.SetOrigin(vs.Origin)

	var err error
	for i, st := range s.Steps {
		if err = ctx.Err(); err != nil {
			break
		}
		stepCtx := applog.WithStep(ctx, s.Name, i)
		kind := st.Kind()
		if kind == "" {
			err = &StepError{Index: i, Err: ErrUnknownStep}
			r.log.WarnContext(stepCtx, "step has no action")
			break
		}
		if serr := r.step(st); serr != nil {
			err = &StepError{Index: i, Kind: kind, Err: serr}
			r.log.WarnContext(stepCtx, "step failed", slog.String("kind", kind), slog.Any("err", serr))
			break
		}
		r.log.DebugContext(stepCtx, "step done", slog.String("kind", kind))
		rep.Steps++
	}
	r.engine.Abort()
	env.Loop.Tick()

	rep.Elements = env.Store.PaintOrder()
	rep.SelectedIDs = env.Store.SelectedIDs()
	if b, ok := env.Selection.Bounds(); ok {
		rep.Bounds = &b
	}
	if len(r.aliases) > 0 {
		rep.Aliases = r.aliases
	}
	if err != nil {
		r.log.WarnContext(ctx, "scenario stopped", slog.String("name", s.Name), slog.Any("err", err))
		return rep, err
	}
	r.log.InfoContext(ctx, "scenario finished", slog.String("name", s.Name), slog.Int("steps", rep.Steps), slog.Int("written", rep.Written))
	return rep, nil
}

func (r *runner) ref(id string) string {
	if v, ok := r.aliases[id]; ok {
		return v
	}
	return id
}

func (r *runner) refs(ids []string) []string {
	if len(ids) == 0 {
		return r.env.Store.SelectedIDs()
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.ref(id)
	}
	return out
}

func (r *runner) bind(alias, id string) {
	if alias != "" {
		r.aliases[alias] = id
	}
}

func frames(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func lerp(a, b geom.Pt, t float64) geom.Pt { return a.Add(b.Sub(a).Mul(t)) }

func (r *runner) step(st Step) error {
	store, ctrl := r.env.Store, r.env.Selection
	switch {
	case st.Add != nil:
		if !st.Add.Type.Valid() {
			return fmt.Errorf("unknown element type %q", st.Add.Type)
		}
		r.bind(st.Add.As, store.AddElement(st.Add.Type, st.Add.Props))
	case st.Preset != nil:
		cfg := r.env.Viewport.Config()
		id, err := toolbar.AddAtCenter(store, st.Preset.Name, cfg.CanvasWidth, cfg.CanvasHeight)
		if err != nil {
			return err
		}
		r.bind(st.Preset.As, id)
	case st.Select != nil:
		if st.Select.At != nil {
			ctrl.SelectAt(*st.Select.At, st.Select.Additive)
			return nil
		}
		if len(st.Select.IDs) == 0 {
			ctrl.Clear()
			return nil
		}
		ctrl.Select(r.refs(st.Select.IDs)...)
	case st.Drag != nil:
		d := st.Drag
		if err := r.engine.BeginDrag(r.refs(d.IDs), d.From); err != nil {
			return err
		}
		n := frames(d.Frames)
		for i := 1; i < n; i++ {
			r.engine.Move(lerp(d.From, d.To, float64(i)/float64(n)))
		}
		r.engine.Move(d.To)
		if d.Abort {
			r.report.Frames += r.engine.Frames()
			r.engine.Abort()
			return nil
		}
		r.commit()
	case st.Resize != nil:
		d := st.Resize
		if !d.Handle.Valid() {
			return fmt.Errorf("unknown handle %q", d.Handle)
		}
		if err := r.engine.BeginResize(r.ref(d.ID), d.Handle, d.From); err != nil {
			return err
		}
		n := frames(d.Frames)
		for i := 1; i <= n; i++ {
			r.engine.Move(lerp(d.From, d.To, float64(i)/float64(n)))
		}
		r.commit()
	case st.Rotate != nil:
		d := st.Rotate
		if err := r.engine.BeginRotate(r.refs(d.IDs), geom.Pt{}); err != nil {
			return err
		}
		n := frames(d.Frames)
		for i := 1; i <= n; i++ {
			r.engine.Update(gesture.Delta{Rotate: d.Degrees * float64(i) / float64(n)})
		}
		r.commit()
	case st.Scale != nil:
		d := st.Scale
		fx, fy := d.Factor, d.Factor
		if d.FactorX != 0 {
			fx = d.FactorX
		}
		if d.FactorY != 0 {
			fy = d.FactorY
		}
		if fx == 0 || fy == 0 {
			return fmt.Errorf("scale factor required")
		}
		if err := r.engine.BeginScale(r.refs(d.IDs), geom.Pt{}); err != nil {
			return err
		}
		n := frames(d.Frames)
		for i := 1; i <= n; i++ {
			t := float64(i) / float64(n)
			r.engine.Update(gesture.Delta{ScaleX: 1 + (fx-1)*t, ScaleY: 1 + (fy-1)*t})
		}
		r.commit()
	case st.Key != nil:
		ctrl.HandleKey(*st.Key)
	case st.Drop != nil:
		data := []byte(st.Drop.Payload)
		if st.Drop.Preset != "" {
			p, err := toolbar.PayloadFor(st.Drop.Preset)
			if err != nil {
				return err
			}
			if data, err = toolbar.EncodePayload(p); err != nil {
				return err
			}
		}
		id, err := toolbar.Drop(store, r.env.Viewport, data, st.Drop.At)
		if err != nil {
			return err
		}
		r.bind(st.Drop.As, id)
	case st.Menu != nil:
		if _, ok := ctrl.OpenMenu(st.Menu.At, r.ref(st.Menu.Target)); !ok {
			return fmt.Errorf("no menu: nothing selected")
		}
		if st.Menu.Invoke != "" {
			return ctrl.Invoke(st.Menu.Invoke)
		}
	case st.Text != nil:
		if err := ctrl.BeginTextEdit(r.ref(st.Text.ID)); err != nil {
			return err
		}
		ctrl.SetDraft(st.Text.Draft)
		if st.Text.Cancel {
			ctrl.CancelTextEdit()
		} else {
			ctrl.CommitTextEdit()
		}
	case st.Tick != nil:
		for i, n := 0, max(*st.Tick, 1); i < n; i++ {
			r.env.Loop.Tick()
		}
	case st.Expect != nil:
		return r.expect(*st.Expect)
	}
	return nil
}

func (r *runner) commit() {
	r.report.Frames += r.engine.Frames()
	r.report.Written += r.engine.Commit()
}

const tolerance = 1e-6

func (r *runner) expect(x ExpectStep) error {
	store := r.env.Store
	if x.Count != nil && store.Len() != *x.Count {
		return fmt.Errorf("%w: count = %d, want %d", ErrExpectation, store.Len(), *x.Count)
	}
	if x.Selected != nil {
		var want []string
		if len(*x.Selected) > 0 {
			want = r.refs(*x.Selected)
		}
		got := store.SelectedIDs()
		if len(got) != len(want) || !slices.Equal(got, want) {
			return fmt.Errorf("%w: selection = %v, want %v", ErrExpectation, got, want)
		}
	}
	if x.ID == "" {
		return nil
	}
	e, ok := store.GetElement(r.ref(x.ID))
	if x.Missing {
		if ok {
			return fmt.Errorf("%w: %s still exists", ErrExpectation, x.ID)
		}
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s not found", ErrExpectation, x.ID)
	}
	checks := []struct {
		name string
		want *float64
		got  float64
	}{
		{"x", x.X, e.X},
		{"y", x.Y, e.Y},
		{"width", x.Width, e.Width},
		{"height", x.Height, e.Height},
		{"rotation", x.Rotation, e.Rotation},
		{"scaleX", x.ScaleX, e.ScaleX},
		{"scaleY", x.ScaleY, e.ScaleY},
	}
	for _, c := range checks {
		if c.want != nil && math.Abs(*c.want-c.got) > tolerance {
			return fmt.Errorf("%w: %s.%s = %v, want %v", ErrExpectation, x.ID, c.name, c.got, *c.want)
		}
	}
	if x.ZIndex != nil && e.ZIndex != *x.ZIndex {
		return fmt.Errorf("%w: %s.zIndex = %d, want %d", ErrExpectation, x.ID, e.ZIndex, *x.ZIndex)
	}
	if x.Content != nil && e.Content != *x.Content {
		return fmt.Errorf("%w: %s.content = %q, want %q", ErrExpectation, x.ID, e.Content, *x.Content)
	}
	return nil
}
