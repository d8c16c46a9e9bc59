/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package frame

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTickRunsInRequestOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	l.Request(func() { got = append(got, 1) })
	l.Request(func() { got = append(got, 2) })
	if l.Pending() != 2 {
		t.Fatalf("pending = %d", l.Pending())
	}
	if n := l.Tick(); n != 2 {
		t.Fatalf("ran %d callbacks", n)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected order: %v", got)
	}
	if l.Tick() != 0 {
		t.Fatalf("second tick should be empty")
	}
}

func TestCancelBeforeTick(t *testing.T) {
	l := NewLoop()
	ran := false
	id := l.Request(func() { ran = true })
	if !l.Cancel(id) {
		t.Fatalf("cancel should report success")
	}
	if l.Cancel(id) {
		t.Fatalf("second cancel should be a no-op")
	}
	l.Tick()
	if ran {
		t.Fatalf("canceled callback ran")
	}
}

func TestRequestDuringTickRunsNextFrame(t *testing.T) {
	l := NewLoop()
	var got []string
	l.Request(func() {
		got = append(got, "first")
		l.Request(func() { got = append(got, "second") })
	})
	l.Tick()
	if len(got) != 1 {
		t.Fatalf("nested request ran in the same frame: %v", got)
	}
	l.Tick()
	if len(got) != 2 || got[1] != "second" {
		t.Fatalf("nested request did not run on the next frame: %v", got)
	}
}

func TestCancelWithinSameFrame(t *testing.T) {
	l := NewLoop()
	var victim ID
	ran := false
	l.Request(func() { l.Cancel(victim) })
	victim = l.Request(func() { ran = true })
	if n := l.Tick(); n != 1 || ran {
		t.Fatalf("callback canceled mid-frame still ran (n=%d)", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := NewLoop()
	done := make(chan struct{})
	l.Request(func() { close(done) })
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx, time.Millisecond) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run never ticked")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}
