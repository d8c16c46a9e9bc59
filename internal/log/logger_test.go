/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocanvas/internal/config"
)

// lastJSON decodes the last non-empty line of b.
func lastJSON(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %q", b)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("decode %q: %v", last, err)
	}
	return m
}

func TestGestureAndRequestFieldsReachJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(Options{Level: "debug", Format: "json"}, &buf)).With(slog.String(componentKey, "gesture"))

	ctx := WithRequest(context.Background(), "req-7")
	ctx = WithGesture(ctx, "dragging", "g3")
	ctx = WithElements(ctx, "el-1")
	l.InfoContext(ctx, "gesture committed", slog.Int("written", 1))

	m := lastJSON(t, buf.Bytes())
	want := map[string]any{
		"app": "gocanvas", "component": "gesture", "msg": "gesture committed",
		"request_id": "req-7", "gesture": "dragging", "gesture_id": "g3", "element": "el-1",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s = %v, want %v (record %v)", k, m[k], v, m)
		}
	}
	if m["written"] != float64(1) {
		t.Fatalf("record attr lost: %v", m)
	}
}

func TestPlainCallsCarryNoCanvasFields(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(Options{Format: "json"}, &buf))
	l.Info("idle")
	m := lastJSON(t, buf.Bytes())
	for _, k := range []string{"request_id", "gesture", "element", "elements", "scenario"} {
		if _, ok := m[k]; ok {
			t.Fatalf("unexpected %s in %v", k, m)
		}
	}
}

func TestElementListsCollapseToCount(t *testing.T) {
	few := WithElements(context.Background(), "a", "b")
	if got := FieldsFrom(few).attrs(); len(got) != 1 || got[0].Key != "elements" || got[0].Value.Kind() != slog.KindAny {
		t.Fatalf("two ids should be listed: %v", got)
	}
	many := WithElements(few, "a", "b", "c", "d", "e")
	got := FieldsFrom(many).attrs()
	if len(got) != 1 || got[0].Value.Kind() != slog.KindInt64 || got[0].Value.Int64() != 5 {
		t.Fatalf("five ids should collapse to a count: %v", got)
	}
	if n := len(FieldsFrom(few).Elements); n != 2 {
		t.Fatalf("WithElements must not alter the parent context, got %d ids", n)
	}
	if f := FieldsFrom(nil); f.RequestID != "" || f.Elements != nil { //nolint:staticcheck // nil ctx is tolerated
		t.Fatalf("nil context should carry nothing: %+v", f)
	}
}

func TestConsoleLineLayout(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(canvasHandler{next: newConsoleHandler(&buf, slog.LevelDebug, false)})
	l = l.With(slog.String(componentKey, "scenario")).WithGroup("drag")

	ctx := WithStep(context.Background(), "landing", 2)
	l.DebugContext(ctx, "step failed", slog.String("reason", "no target"), slog.Float64("dx", 2.5))

	out := buf.String()
	for _, want := range []string{" DBG [scenario] step failed", `drag.reason="no target"`, "drag.dx=2.5", "scenario=landing", "step=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component belongs in the bracket: %q", out)
	}
}

func TestConsoleFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsoleHandler(&buf, slog.LevelWarn, false))
	l.Info("quiet")
	l.Error("loud", slog.Any("err", os.ErrNotExist))
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "ERR loud") || !strings.Contains(out, `err="file does not exist"`) {
		t.Fatalf("unexpected error line: %q", out)
	}
}

func TestInitWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocanvas.log")
	Init(Options{Level: "info", Format: "json", File: path})
	t.Cleanup(func() { Init(Options{Level: "error"}) })

	WithOperation(WithComponent("server"), "serve").InfoContext(WithRequest(context.Background(), "r1"), "listening")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSON(t, b)
	if m["component"] != "server" || m["op"] != "serve" || m["request_id"] != "r1" {
		t.Fatalf("unexpected file record: %v", m)
	}
}

func TestOptionsFromEnvAndConfig(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "warn")
	t.Setenv(config.EnvLogFormat, "json")
	t.Setenv(config.EnvLogSource, "1")
	t.Setenv(config.EnvLogFile, "")
	if got := FromEnv(); got != (Options{Level: "warn", Format: "json", AddSource: true}) {
		t.Fatalf("FromEnv = %+v", got)
	}
	got := FromConfig(config.LoggingConfig{Level: "debug", Format: "console", File: "x.log"})
	if got != (Options{Level: "debug", Format: "console", File: "x.log"}) {
		t.Fatalf("FromConfig = %+v", got)
	}
	if parseLevel("WARNING") != slog.LevelWarn || parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("parseLevel mapping changed")
	}
}
