package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration at path. An empty path means DefaultPath. A
// missing file is not an error: every key falls back to Default.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("shell.command", cfg.Shell.Command)
	v.SetDefault("shell.args", cfg.Shell.Args)
	v.SetDefault("shell.dir", cfg.Shell.Dir)
	v.SetDefault("shell.env", cfg.Shell.Env)
	v.SetDefault("shell.pty", cfg.Shell.PTY)
	v.SetDefault("assistant.interval_ms", cfg.Assistant.IntervalMS)
	v.SetDefault("assistant.ticks", cfg.Assistant.Ticks)
	v.SetDefault("assistant.status", cfg.Assistant.Status)
	v.SetDefault("assistant.reply", cfg.Assistant.Reply)
	v.SetDefault("keys.focus_next", cfg.Keys.FocusNext)
	v.SetDefault("keys.focus_prev", cfg.Keys.FocusPrev)
	v.SetDefault("keys.execute", cfg.Keys.Execute)
	v.SetDefault("keys.add_pane", cfg.Keys.AddPane)
	v.SetDefault("keys.remove_pane", cfg.Keys.RemovePane)
	v.SetDefault("keys.zoom", cfg.Keys.Zoom)
	v.SetDefault("keys.quit", cfg.Keys.Quit)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("telemetry.endpoint", cfg.Telemetry.Endpoint)
	v.SetDefault("telemetry.service_name", cfg.Telemetry.ServiceName)
	v.SetDefault("engine.queue_size", cfg.Engine.QueueSize)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		found = false
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if found {
		env, err := readShellEnv(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Shell.Env = env
	}
	cfg.Shell.Command = expandEnv(cfg.Shell.Command)
	cfg.Shell.Dir = expandEnv(cfg.Shell.Dir)
	cfg.Log.File = expandEnv(cfg.Log.File)
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// readShellEnv decodes shell.env straight from the file. Viper folds map
// keys to lower case, and environment names are case-sensitive.
func readShellEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var doc struct {
		Shell struct {
			Env map[string]string `yaml:"env"`
		} `yaml:"shell"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if doc.Shell.Env == nil {
		return map[string]string{}, nil
	}
	return doc.Shell.Env, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Shell.Command) == "" {
		return errors.New("shell.command must not be empty")
	}
	if cfg.Assistant.IntervalMS < 0 {
		return fmt.Errorf("assistant.interval_ms must not be negative, got %d", cfg.Assistant.IntervalMS)
	}
	if cfg.Assistant.Ticks < 0 {
		return fmt.Errorf("assistant.ticks must not be negative, got %d", cfg.Assistant.Ticks)
	}
	if cfg.Engine.QueueSize < 0 {
		return fmt.Errorf("engine.queue_size must not be negative, got %d", cfg.Engine.QueueSize)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log.level %q", cfg.Log.Level)
	}
	return nil
}

// expandEnv expands $VAR and ${VAR}, leaving unknown variables in place.
func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}
