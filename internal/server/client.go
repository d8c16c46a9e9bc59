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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gocanvas/internal/canvas"
	"gocanvas/internal/selection"
)

// Client is a minimal HTTP client for the command API.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a new API client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("server %s %s: %s: %s", method, u.Path, resp.Status, e.Error)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) Canvas(ctx context.Context) (CanvasState, error) {
	var st CanvasState
	err := c.doJSON(ctx, http.MethodGet, "/api/canvas", nil, &st)
	return st, err
}

// AddPreset places a toolbar preset at the artboard center.
func (c *Client) AddPreset(ctx context.Context, preset string) (canvas.Element, error) {
	var e canvas.Element
	err := c.doJSON(ctx, http.MethodPost, "/api/elements", AddRequest{Preset: preset}, &e)
	return e, err
}

func (c *Client) Update(ctx context.Context, id string, p canvas.Patch) (canvas.Element, error) {
	var e canvas.Element
	err := c.doJSON(ctx, http.MethodPatch, "/api/elements/"+url.PathEscape(id), p, &e)
	return e, err
}

func (c *Client) Select(ctx context.Context, ids ...string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/selection", selectionRequest{IDs: ids}, nil)
}

// Invoke runs a context-menu verb against the server's current selection.
func (c *Client) Invoke(ctx context.Context, verb selection.Verb) (CanvasState, error) {
	var st CanvasState
	err := c.doJSON(ctx, http.MethodPost, "/api/commands/"+url.PathEscape(string(verb)), nil, &st)
	return st, err
}

// Resize reports a container size; the server applies it asynchronously.
func (c *Client) Resize(ctx context.Context, req ViewportRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/viewport", req, nil)
}

// Gesture runs one gesture action: begin, move, update, end or abort.
func (c *Client) Gesture(ctx context.Context, action string, req GestureRequest) (GestureState, error) {
	var st GestureState
	err := c.doJSON(ctx, http.MethodPost, "/api/gestures/"+url.PathEscape(action), req, &st)
	return st, err
}
