/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type CanvasConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	PaddingWide   float64 `yaml:"padding_wide"`
	PaddingNarrow float64 `yaml:"padding_narrow"`
	Breakpoint    float64 `yaml:"breakpoint"`
}

type SnapConfig struct {
	Enabled           bool      `yaml:"enabled"`
	Threshold         float64   `yaml:"threshold"`
	RotationSnaps     []float64 `yaml:"rotation_snaps"`
	RotationTolerance float64   `yaml:"rotation_tolerance"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Snap          SnapConfig    `yaml:"snap"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Canvas:        CanvasConfig{Width: 1200, Height: 675, PaddingWide: 64, PaddingNarrow: 32, Breakpoint: 640},
		Snap: SnapConfig{
			Enabled:           true,
			Threshold:         5,
			RotationSnaps:     []float64{0, 45, 90, 135, 180, 225, 270, 315},
			RotationTolerance: 5,
		},
		Server:  ServerConfig{Addr: ":8787"},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvCanvasWidth    = "GCV_CANVAS_WIDTH"
	EnvCanvasHeight   = "GCV_CANVAS_HEIGHT"
	EnvSnapEnabled    = "GCV_SNAP_ENABLED"
	EnvSnapThreshold  = "GCV_SNAP_THRESHOLD"
	EnvServerAddr     = "GCV_SERVER_ADDR"
	EnvTelemetryOptIn = "GCV_TELEMETRY_OPT_IN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCV_LOG_LEVEL"
	EnvLogFormat = "GCV_LOG_FORMAT"
	EnvLogSource = "GCV_LOG_SOURCE"
	EnvLogFile   = "GCV_LOG_FILE"
)

// configPathFn is swapped in tests to keep the real user config untouched.
var configPathFn = defaultConfigPath

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) { return configPathFn() }

func defaultConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCanvas")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocanvas")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is ignored in favour of defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		// Decode over defaults so keys missing from the file keep their default values.
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// canvas: zero means "not set"
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if src.Canvas.PaddingWide > 0 {
		dst.Canvas.PaddingWide = src.Canvas.PaddingWide
	}
	if src.Canvas.PaddingNarrow > 0 {
		dst.Canvas.PaddingNarrow = src.Canvas.PaddingNarrow
	}
	if src.Canvas.Breakpoint > 0 {
		dst.Canvas.Breakpoint = src.Canvas.Breakpoint
	}
	// snap: booleans copied directly so a file can disable snapping
	dst.Snap.Enabled = src.Snap.Enabled
	if src.Snap.Threshold > 0 {
		dst.Snap.Threshold = src.Snap.Threshold
	}
	if src.Snap.RotationSnaps != nil {
		dst.Snap.RotationSnaps = append([]float64(nil), src.Snap.RotationSnaps...)
	}
	if src.Snap.RotationTolerance > 0 {
		dst.Snap.RotationTolerance = src.Snap.RotationTolerance
	}
	if strings.TrimSpace(src.Server.Addr) != "" {
		dst.Server.Addr = strings.TrimSpace(src.Server.Addr)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCanvasWidth)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Width = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasHeight)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Height = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapEnabled)); v != "" {
		cfg.Snap.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Snap.Threshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	keys := map[string]string{
		"canvas.width":             EnvCanvasWidth,
		"canvas.height":            EnvCanvasHeight,
		"snap.enabled":             EnvSnapEnabled,
		"snap.threshold":           EnvSnapThreshold,
		"server.addr":              EnvServerAddr,
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	env, ok := keys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
