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
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry of the side-panel conversation. Only user messages
// are recorded; no assistant replies are generated.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type chat struct {
	mu       sync.Mutex
	messages []ChatMessage
	now      func() time.Time
}

func newChat() *chat { return &chat{now: time.Now} }

// post records content as a user message. Blank input is rejected.
func (c *chat) post(content string) (ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return ChatMessage{}, errors.New("empty message")
	}
	m := ChatMessage{ID: uuid.NewString(), Role: "user", Content: content, Timestamp: c.now()}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return m, nil
}

func (c *chat) list() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatMessage{}, c.messages...)
}

func (s *Server) handleListChat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.chat.list())
}

func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid message: %w", err))
		return
	}
	m, err := s.chat.post(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
