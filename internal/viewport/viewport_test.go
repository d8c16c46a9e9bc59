/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"context"
	"errors"
	"math"
	"testing"

	"gocanvas/internal/geom"
)

func TestResizeWidePaddingAndNeverUpscales(t *testing.T) {
	v := New(DefaultConfig())
	// 664-64 = 600 wide, height plenty: scale 0.5
	st := v.Resize(664, 2000, 1024)
	if st.Scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", st.Scale)
	}
	if st.Width != 600 || st.Height != 337.5 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st := v.Resize(5000, 5000, 5000); st.Scale != 1 {
		t.Fatalf("scale should cap at 1, got %v", st.Scale)
	}
}

func TestResizeNarrowPaddingBelowBreakpoint(t *testing.T) {
	v := New(DefaultConfig())
	// narrow window uses 32px padding: (632-32)/1200 = 0.5
	if st := v.Resize(632, 2000, 500); st.Scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", st.Scale)
	}
	// height-bound: (369.5-32)/675 = 0.5
	if st := v.Resize(5000, 369.5, 500); st.Scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", st.Scale)
	}
}

func TestResizeDegenerateContainerIsFloored(t *testing.T) {
	v := New(DefaultConfig())
	if st := v.Resize(10, 10, 1000); st.Scale != MinScale {
		t.Fatalf("scale = %v, want floor %v", st.Scale, MinScale)
	}
}

func TestCoordinateConversionsRoundTrip(t *testing.T) {
	v := New(DefaultConfig())
	v.Resize(664, 2000, 1024)
	v.SetOrigin(geom.Pt{X: 32, Y: 40})

	c := v.ClientToCanvas(geom.Pt{X: 132, Y: 90})
	if c.X != 200 || c.Y != 100 {
		t.Fatalf("ClientToCanvas = %+v", c)
	}
	back := v.CanvasToClient(c)
	if back.X != 132 || back.Y != 90 {
		t.Fatalf("CanvasToClient = %+v", back)
	}
	if d := v.ScreenDeltaToCanvas(geom.Pt{X: 10, Y: -4}); d.X != 20 || d.Y != -8 {
		t.Fatalf("ScreenDeltaToCanvas = %+v", d)
	}
	if d := v.CanvasDeltaToScreen(geom.Pt{X: 20, Y: -8}); d.X != 10 || d.Y != -4 {
		t.Fatalf("CanvasDeltaToScreen = %+v", d)
	}
}

func TestSubscribeFiresOnlyOnChange(t *testing.T) {
	v := New(DefaultConfig())
	var got []float64
	cancel := v.Subscribe(func(s State) { got = append(got, s.Scale) })
	v.Resize(664, 2000, 1024)
	v.Resize(664, 2000, 1024)
	v.Resize(1264, 2000, 1024)
	cancel()
	v.Resize(664, 2000, 1024)
	if len(got) != 2 || got[0] != 0.5 || got[1] != 1 {
		t.Fatalf("unexpected notifications: %v", got)
	}
}

func TestObserveConsumesStreamUntilClosed(t *testing.T) {
	v := New(DefaultConfig())
	ch := make(chan Size, 2)
	ch <- Size{ContainerWidth: 664, ContainerHeight: 2000, WindowWidth: 1024}
	ch <- Size{ContainerWidth: 364, ContainerHeight: 2000, WindowWidth: 1024}
	close(ch)
	if err := v.Observe(context.Background(), ch); err != nil {
		t.Fatalf("Observe error: %v", err)
	}
	if got := v.Scale(); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("scale after stream = %v, want 0.25", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Observe(ctx, make(chan Size)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
