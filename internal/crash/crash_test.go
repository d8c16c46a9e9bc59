/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gocanvas/internal/canvas"
	"gocanvas/internal/telemetry"
)

func useTempReports(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := reportDir
	reportDir = func() string { return dir }
	t.Cleanup(func() { reportDir = old })
	return dir
}

func TestWriteReportWithoutStore(t *testing.T) {
	dir := useTempReports(t)
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written to %s, want dir %s", path, dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "GoCanvas Crash Report") || !strings.Contains(s, "Panic: boom") {
		t.Fatalf("unexpected report: %s", s)
	}
	if strings.Contains(s, "Elements:") {
		t.Fatalf("no canvas summary expected without a store")
	}
}

func TestReportSummarizesCanvasWithoutContent(t *testing.T) {
	useTempReports(t)
	store := canvas.NewStore()
	store.AddElement(canvas.TypeText, canvas.Patch{Content: canvas.String("private note")})
	store.AddElement(canvas.TypeShape, canvas.Patch{})
	store.AddElement(canvas.TypeShape, canvas.Patch{})

	path, err := writeReport(store, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	b, _ := os.ReadFile(path)
	s := string(b)
	for _, want := range []string{"Elements: 3", "  shape: 2", "  text: 1", "Selected: 1"} {
		if !strings.Contains(s, want) {
			t.Fatalf("report missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "private note") {
		t.Fatalf("report must not contain element content")
	}
}

func TestRecoverExitsWithCode2(t *testing.T) {
	dir := useTempReports(t)
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	store := canvas.NewStore()
	func() {
		defer Recover(store)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected one crash report, found %d", len(entries))
	}
}

func TestRecoverWithoutPanicDoesNothing(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit must not be called without a panic")
	}
}

func TestRecoverUploadsReportBeforeExit(t *testing.T) {
	useTempReports(t)
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if strings.Contains(string(b), "GoCanvas Crash Report") {
			received.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	telemetry.NewDefault(telemetry.Config{OptIn: true, CrashURL: srv.URL, Timeout: 2 * time.Second})
	t.Cleanup(func() { telemetry.NewDefault(telemetry.Config{}) })

	var atExit int32 = -1
	oldExit := exitFn
	exitFn = func(int) { atExit = received.Load() }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(canvas.NewStore())
		panic("boom")
	}()
	if atExit != 1 {
		t.Fatalf("crash report uploads at exit = %d, want 1", atExit)
	}
}
