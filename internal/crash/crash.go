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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"time"

	"gocanvas/internal/canvas"
	applog "gocanvas/internal/log"
	"gocanvas/internal/telemetry"
	"gocanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// reportDir is swapped in tests.
var reportDir = os.TempDir

// uploadTimeout bounds the crash upload; the process exits right after it.
const uploadTimeout = 3 * time.Second

// Recover captures a panic, logs it with the stack, writes a crash report that
// summarizes the canvas (if a store is given) and exits with code 2.
//
// Usage: defer crash.Recover(store)
func Recover(store *canvas.Store) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(store, r, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err), slog.String("path", reportPath))
	}
	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// summary lists element counts by type and the selection size. It carries no
// element content.
func summary(store *canvas.Store) string {
	snap := store.Snapshot()
	byType := map[string]int{}
	for _, e := range snap.Elements {
		byType[string(e.Type)]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Elements: %d\n", len(snap.Elements))
	for _, t := range types {
		_, _ = fmt.Fprintf(&buf, "  %s: %d\n", t, byType[t])
	}
	_, _ = fmt.Fprintf(&buf, "Selected: %d\n", len(snap.SelectedIDs))
	return buf.String()
}

func writeReport(store *canvas.Store, panicVal any, stack []byte) (string, error) {
	dir := reportDir()
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("gocanvas-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "GoCanvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if store != nil {
		buf.WriteString(summary(store))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := telemetry.UploadCrash(ctx, buf.Bytes()); err != nil {
		applog.WithComponent("crash").Warn("crash report upload failed", slog.Any("err", err))
	}
	return path, nil
}
