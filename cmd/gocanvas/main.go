/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"gocanvas/internal/canvas"
	"gocanvas/internal/config"
	"gocanvas/internal/crash"
	applog "gocanvas/internal/log"
	"gocanvas/internal/render"
	"gocanvas/internal/scenario"
	"gocanvas/internal/selection"
	"gocanvas/internal/server"
	"gocanvas/internal/telemetry"
	"gocanvas/internal/toolbar"
	"gocanvas/internal/version"
)

func usage() {
	fmt.Println("GoCanvas - headless design canvas engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gocanvas version|-v|--version          Show version")
	fmt.Println("  gocanvas presets                       List toolbar element presets")
	fmt.Println("  gocanvas config                        Print the effective configuration")
	fmt.Println("  gocanvas run <scenario.yaml>           Run a scenario and print the report")
	fmt.Println("  gocanvas render <scenario.yaml> <out>  Run a scenario and write the canvas as HTML")
	fmt.Println("  gocanvas serve [addr]                  Serve the command API and change feed")
	fmt.Println("  gocanvas invoke <verb> [url]           Invoke a menu verb on a running server")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	store := canvas.NewStore()
	defer crash.Recover(store)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("GoCanvas")
			fmt.Println(version.String())
			return
		case "presets":
			for _, p := range toolbar.Presets() {
				w, h := p.Props.Size()
				fmt.Printf("%-10s %-10s %4gx%-4g %s\n", p.Name, p.Type, w, h, p.Label)
			}
			return
		case "config":
			path, _ := config.ConfigPath()
			fmt.Println("# file:", path)
			for _, key := range []string{"canvas.width", "canvas.height", "snap.enabled", "snap.threshold", "server.addr", "general.telemetry_opt_in", "logging.level"} {
				if env, ok := config.EnvOverrideFor(key); ok {
					fmt.Printf("# %s overridden by %s\n", key, env)
				}
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				fail(l, "marshal config", err)
			}
			fmt.Print(string(out))
			return
		case "run", "render":
			if len(args) < 3 || (args[1] == "render" && len(args) < 4) {
				fmt.Printf("%s requires <scenario.yaml>\n", args[1])
				usage()
				os.Exit(2)
			}
			env, rep := runScenario(l, store, cfg, args[2])
			defer env.Close()
			if args[1] == "run" {
				out, err := yaml.Marshal(rep)
				if err != nil {
					fail(l, "marshal report", err)
				}
				fmt.Print(string(out))
				return
			}
			abs, _ := filepath.Abs(args[3])
			f, err := os.Create(abs)
			if err != nil {
				fail(l, "create output", err)
			}
			defer f.Close()
			vc := env.Viewport.Config()
			if err := render.HTML(f, vc.CanvasWidth, vc.CanvasHeight, store.PaintOrder()); err != nil {
				fail(l, "render", err)
			}
			fmt.Println("Wrote", abs)
			return
		case "serve":
			if len(args) >= 3 {
				cfg.Server.Addr = args[2]
			}
			if err := serve(l, store, cfg); err != nil {
				fail(l, "serve", err)
			}
			return
		case "invoke":
			if len(args) < 3 {
				fmt.Println("invoke requires <verb>")
				usage()
				os.Exit(2)
			}
			base := "http://127.0.0.1" + cfg.Server.Addr
			if len(args) >= 4 {
				base = args[3]
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			st, err := server.NewClient(base).Invoke(ctx, selection.Verb(args[2]))
			if err != nil {
				fail(l, "invoke", err)
			}
			fmt.Printf("elements: %d, selected: %v\n", len(st.Elements), st.SelectedIDs)
			return
		}
	}

	usage()
}

func runScenario(l *slog.Logger, store *canvas.Store, cfg config.AppConfig, path string) (*scenario.Env, scenario.Report) {
	f, err := os.Open(path)
	if err != nil {
		fail(l, "open scenario", err)
	}
	script, err := scenario.Load(f)
	_ = f.Close()
	if err != nil {
		fail(l, "load scenario", err)
	}
	env := scenario.NewEnv(store, cfg)
	rep, err := scenario.Run(context.Background(), script, env)
	if err != nil {
		fail(l, "run scenario", err)
	}
	return env, rep
}

func serve(l *slog.Logger, store *canvas.Store, cfg config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := scenario.NewEnv(store, cfg)
	defer env.Close()

	tc := telemetry.New(telemetry.FromAppConfig(cfg))
	defer tc.Close()
	defer tc.Watch(store)()
	tc.Event("serve_started", nil)

	go func() {
		if err := env.Loop.Run(ctx, 0); err != nil && ctx.Err() == nil {
			l.Error("frame loop stopped", slog.Any("err", err))
		}
	}()

	srv := server.New(store, env.Viewport, env.Selection, env.Gesture, server.Options{Addr: cfg.Server.Addr})
	return srv.Run(ctx)
}
