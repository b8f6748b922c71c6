// Package config loads and writes the panemux configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"panemux/internal/engine"
	"panemux/internal/responder"
	"panemux/internal/session"

	"gopkg.in/yaml.v3"
)

// AppName names the config and cache directories.
const AppName = "panemux"

// Config is the top-level configuration.
type Config struct {
	Shell     ShellConfig     `mapstructure:"shell" yaml:"shell"`
	Assistant AssistantConfig `mapstructure:"assistant" yaml:"assistant"`
	Keys      KeysConfig      `mapstructure:"keys" yaml:"keys"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
}

// ShellConfig controls the interactive process behind Shell panes.
type ShellConfig struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args"`
	Dir     string            `mapstructure:"dir" yaml:"dir"`
	Env     map[string]string `mapstructure:"env" yaml:"env"`
	PTY     bool              `mapstructure:"pty" yaml:"pty"`
}

// AssistantConfig paces the simulated assistant reply.
type AssistantConfig struct {
	IntervalMS int    `mapstructure:"interval_ms" yaml:"interval_ms"`
	Ticks      int    `mapstructure:"ticks" yaml:"ticks"`
	Status     string `mapstructure:"status" yaml:"status"`
	Reply      string `mapstructure:"reply" yaml:"reply"`
}

// KeysConfig lists the key names bound to each action.
type KeysConfig struct {
	FocusNext  []string `mapstructure:"focus_next" yaml:"focus_next"`
	FocusPrev  []string `mapstructure:"focus_prev" yaml:"focus_prev"`
	Execute    []string `mapstructure:"execute" yaml:"execute"`
	AddPane    []string `mapstructure:"add_pane" yaml:"add_pane"`
	RemovePane []string `mapstructure:"remove_pane" yaml:"remove_pane"`
	Zoom       []string `mapstructure:"zoom" yaml:"zoom"`
	Quit       []string `mapstructure:"quit" yaml:"quit"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// EngineConfig tunes the pane engine.
type EngineConfig struct {
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	keys := engine.DefaultKeyConfig()
	reply := responder.DefaultConfig()
	return Config{
		Shell: ShellConfig{
			Command: session.DefaultShell,
			Args:    []string{},
			Env:     map[string]string{},
		},
		Assistant: AssistantConfig{
			IntervalMS: int(reply.Interval / time.Millisecond),
			Ticks:      reply.Ticks,
			Status:     reply.Status,
			Reply:      reply.Reply,
		},
		Keys: KeysConfig{
			FocusNext:  keys.FocusNext,
			FocusPrev:  keys.FocusPrev,
			Execute:    keys.Execute,
			AddPane:    keys.AddPane,
			RemovePane: keys.RemovePane,
			Zoom:       keys.Zoom,
			Quit:       keys.Quit,
		},
		Log: LogConfig{
			File:  DefaultLogPath(),
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
		},
		Engine: EngineConfig{
			QueueSize: engine.DefaultQueueSize,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/panemux/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// DefaultLogPath returns $XDG_CACHE_HOME/panemux/panemux.log, falling back
// to the temp dir when no cache dir is known.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName, AppName+".log")
}

// KeyConfig converts the key section for the dispatcher.
func (c Config) KeyConfig() engine.KeyConfig {
	return engine.KeyConfig{
		FocusNext:  c.Keys.FocusNext,
		FocusPrev:  c.Keys.FocusPrev,
		Execute:    c.Keys.Execute,
		AddPane:    c.Keys.AddPane,
		RemovePane: c.Keys.RemovePane,
		Zoom:       c.Keys.Zoom,
		Quit:       c.Keys.Quit,
	}
}

// ResponderConfig converts the assistant section. Zero values fall back to
// the responder defaults.
func (c Config) ResponderConfig() responder.Config {
	return responder.Config{
		Interval: time.Duration(c.Assistant.IntervalMS) * time.Millisecond,
		Ticks:    c.Assistant.Ticks,
		Status:   c.Assistant.Status,
		Reply:    c.Assistant.Reply,
	}
}

// ShellEnv returns the extra shell environment as KEY=value pairs.
func (c Config) ShellEnv() []string {
	if len(c.Shell.Env) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Shell.Env))
	for k, v := range c.Shell.Env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Save writes cfg to path, creating the parent directory. It refuses to
// replace an existing file unless force is set.
func Save(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
