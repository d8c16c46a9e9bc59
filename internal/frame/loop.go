/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package frame defers work to the next paint frame. Callbacks are cancelable and
// never block; a callback requested while a frame runs is deferred to the following one.
package frame

import (
	"context"
	"log/slog"
	"sync"
	"time"

	applog "gocanvas/internal/log"
)

// ID identifies a requested callback.
type ID uint64

type entry struct {
	id ID
	fn func()
}

type Loop struct {
	mu    sync.Mutex
	next  ID
	queue []entry
	live  map[ID]struct{}
	log   *slog.Logger
}

func NewLoop() *Loop {
	return &Loop{live: make(map[ID]struct{}), log: applog.WithComponent("frame")}
}

// Request schedules fn for the next Tick.
func (l *Loop) Request(fn func()) ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	id := l.next
	l.queue = append(l.queue, entry{id: id, fn: fn})
	l.live[id] = struct{}{}
	return id
}

// Cancel drops a callback that has not run yet. It reports whether anything was dropped.
func (l *Loop) Cancel(id ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.live[id]; !ok {
		return false
	}
	delete(l.live, id)
	for i, e := range l.queue {
		if e.id == id {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	return true
}

// Pending returns the number of callbacks waiting for the next frame.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Tick runs, in request order, the callbacks queued before it started and returns how many ran.
// A callback canceled by an earlier one in the same frame is skipped.
func (l *Loop) Tick() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	ran := 0
	for _, e := range batch {
		l.mu.Lock()
		_, ok := l.live[e.id]
		delete(l.live, e.id)
		l.mu.Unlock()
		if !ok {
			continue
		}
		e.fn()
		ran++
	}
	if ran > 0 {
		l.log.Debug("frame", slog.Int("callbacks", ran))
	}
	return ran
}

// Run ticks every interval until ctx is done. Intended for hosts without their own paint loop.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			l.Tick()
		}
	}
}
