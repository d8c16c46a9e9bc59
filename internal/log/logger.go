/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log configures the application's slog logger. Records go to a
// console sink (a compact one-line layout, or JSON) and optionally to a rotated
// JSON file. Canvas-scoped fields carried on a context (request id, gesture,
// element ids, scenario step) are appended to every record logged with that
// context through the *Context methods.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gocanvas/internal/config"
	"gocanvas/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. Format is "console" or "json"; File,
// when set, adds a rotated JSON file sink.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
}

// Rotation settings for the file sink.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init installs the application logger and makes it the slog default.
func Init(opts Options) {
	l := slog.New(newHandler(opts, os.Stderr))
	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
}

// newHandler builds the sink chain for opts with console output going to w.
func newHandler(opts Options, w io.Writer) slog.Handler {
	lvl := parseLevel(opts.Level)
	var sinks []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	} else {
		sinks = append(sinks, newConsoleHandler(w, lvl, opts.AddSource))
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: fileMaxSizeMB, MaxBackups: fileMaxBackups, MaxAge: fileMaxAgeDays, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}
	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}
	return canvasHandler{next: h}.WithAttrs([]slog.Attr{
		slog.String("app", "gocanvas"),
		slog.String("ver", version.Version),
	})
}

// FromEnv reads Options from the GCV_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr(config.EnvLogLevel, "info"),
		Format:    envOr(config.EnvLogFormat, "console"),
		AddSource: strings.EqualFold(os.Getenv(config.EnvLogSource), "true") || os.Getenv(config.EnvLogSource) == "1",
		File:      os.Getenv(config.EnvLogFile),
	}
}

// FromConfig maps the logging section of the user config. Env overrides are
// already merged into it by config.Load.
func FromConfig(c config.LoggingConfig) Options {
	return Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with the component name. The console
// layout prints it in brackets ahead of the message.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(componentKey, name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout sends every record to all sinks.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// canvasHandler appends the context's canvas fields to each record.
type canvasHandler struct{ next slog.Handler }

func (h canvasHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h canvasHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FieldsFrom(ctx).attrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h canvasHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return canvasHandler{next: h.next.WithAttrs(attrs)}
}

func (h canvasHandler) WithGroup(name string) slog.Handler {
	return canvasHandler{next: h.next.WithGroup(name)}
}
