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
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gocanvas/internal/canvas"
	"gocanvas/internal/gesture"
	"gocanvas/internal/snap"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// Message is pushed to websocket subscribers after every store mutation. The
// first message on a new connection has op "snapshot". During a gesture, "live"
// and "guides" frames carry the visual-only state; an empty frame clears it.
type Message struct {
	Op          string           `json:"op"`
	IDs         []string         `json:"ids,omitempty"`
	Elements    []canvas.Element `json:"elements"`
	SelectedIDs []string         `json:"selectedIds"`
	Live        []gesture.Live   `json:"live,omitempty"`
	Guides      []snap.Guide     `json:"guides,omitempty"`
}

const (
	opSnapshot = "snapshot"
	opLive     = "live"
	opGuides   = "guides"
)

type subscriberConn struct {
	conn *websocket.Conn
	send chan Message
	once sync.Once
}

func (c *subscriberConn) close() {
	c.once.Do(func() { close(c.send) })
}

type feed struct {
	store    *canvas.Store
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu    sync.Mutex
	conns map[*subscriberConn]struct{}
}

func newFeed(store *canvas.Store, anyOrigin bool, log *slog.Logger) *feed {
	f := &feed{
		store: store,
		log:   log,
		conns: make(map[*subscriberConn]struct{}),
	}
	f.upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096}
	if anyOrigin {
		f.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return f
}

func (f *feed) message(op string, ids []string) Message {
	snap := f.store.Snapshot()
	return Message{Op: op, IDs: ids, Elements: snap.Elements, SelectedIDs: snap.SelectedIDs}
}

// broadcast is the store subscriber.
func (f *feed) broadcast(ch canvas.Change) {
	f.publish(func() Message { return f.message(string(ch.Op), ch.IDs) })
}

// live and guides are the gesture engine listeners.
func (f *feed) live(l []gesture.Live) {
	f.publish(func() Message { return Message{Op: opLive, Live: l} })
}

func (f *feed) guides(g []snap.Guide) {
	f.publish(func() Message { return Message{Op: opGuides, Guides: g} })
}

// publish builds the message only when someone listens. A subscriber whose
// buffer is full is dropped.
func (f *feed) publish(build func() Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return
	}
	msg := build()
	for c := range f.conns {
		select {
		case c.send <- msg:
		default:
			f.log.Warn("dropping slow feed subscriber")
			delete(f.conns, c)
			c.close()
		}
	}
}

func (f *feed) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", slog.Any("err", err))
		return
	}
	c := &subscriberConn{conn: conn, send: make(chan Message, sendBuffer)}

	f.mu.Lock()
	c.send <- f.message(opSnapshot, nil)
	f.conns[c] = struct{}{}
	n := len(f.conns)
	f.mu.Unlock()
	f.log.Info("feed subscriber connected", slog.Int("subscribers", n))

	go f.writeLoop(c)
	f.readLoop(c)
}

// readLoop discards inbound frames and unregisters c when the peer goes away.
func (f *feed) readLoop(c *subscriberConn) {
	defer f.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *feed) writeLoop(c *subscriberConn) {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			f.log.Debug("feed write failed", slog.Any("err", err))
			f.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (f *feed) remove(c *subscriberConn) {
	f.mu.Lock()
	delete(f.conns, c)
	f.mu.Unlock()
	c.close()
}

func (f *feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		delete(f.conns, c)
		c.close()
	}
}

func (f *feed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}
