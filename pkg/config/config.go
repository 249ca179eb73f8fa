package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/sipeed/picoclaw-recovery/pkg/logger"
	"github.com/sipeed/picoclaw-recovery/pkg/recovery"
)

// FlexibleStringSlice is a []string that also accepts a single
// comma-separated string, so risk_markers can be written either way.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = splitList(s)
	return nil
}

func (f *FlexibleStringSlice) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*f = splitList(value.Value)
		return nil
	}
	var ss []string
	if err := value.Decode(&ss); err != nil {
		return err
	}
	*f = ss
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Config struct {
	Recovery RecoveryConfig `json:"recovery" yaml:"recovery" label:"Error Recovery"`
	Plugins  PluginsConfig  `json:"plugins" yaml:"plugins" label:"Plugins"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" label:"Logging"`
	mu       sync.RWMutex
}

type RecoveryConfig struct {
	ShellTool   string              `json:"shell_tool" yaml:"shell_tool" label:"Shell Tool" env:"PICOCLAW_RECOVERY_SHELL_TOOL"`
	ReadTool    string              `json:"read_tool" yaml:"read_tool" label:"Read Tool" env:"PICOCLAW_RECOVERY_READ_TOOL"`
	WriteTool   string              `json:"write_tool" yaml:"write_tool" label:"Write Tool" env:"PICOCLAW_RECOVERY_WRITE_TOOL"`
	RiskMarkers FlexibleStringSlice `json:"risk_markers" yaml:"risk_markers" label:"Risk Markers" env:"PICOCLAW_RECOVERY_RISK_MARKERS"`
}

type PluginsConfig struct {
	DefaultEnabled bool     `json:"default_enabled" yaml:"default_enabled" label:"Enable All By Default" env:"PICOCLAW_PLUGINS_DEFAULT_ENABLED"`
	Enabled        []string `json:"enabled" yaml:"enabled" label:"Enabled" env:"PICOCLAW_PLUGINS_ENABLED"`
	Disabled       []string `json:"disabled" yaml:"disabled" label:"Disabled" env:"PICOCLAW_PLUGINS_DISABLED"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" label:"Level" env:"PICOCLAW_LOG_LEVEL"`
	File   string `json:"file" yaml:"file" label:"Log File" env:"PICOCLAW_LOG_FILE"`
	Redact bool   `json:"redact" yaml:"redact" label:"Redact Secrets" env:"PICOCLAW_LOG_REDACT"`
}

func DefaultConfig() *Config {
	opts := recovery.DefaultOptions()
	return &Config{
		Recovery: RecoveryConfig{
			ShellTool:   opts.ShellTool,
			ReadTool:    opts.ReadTool,
			WriteTool:   opts.WriteTool,
			RiskMarkers: opts.RiskMarkers,
		},
		Plugins: PluginsConfig{
			DefaultEnabled: true,
			Enabled:        []string{},
			Disabled:       []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Redact: true,
		},
	}
}

// RecoveryOptions converts the recovery section for recovery.New.
// A present but empty risk_markers list stays empty so it disables warnings.
func (c *Config) RecoveryOptions() recovery.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	opts := recovery.Options{
		ShellTool: c.Recovery.ShellTool,
		ReadTool:  c.Recovery.ReadTool,
		WriteTool: c.Recovery.WriteTool,
	}
	if c.Recovery.RiskMarkers != nil {
		opts.RiskMarkers = make([]string, len(c.Recovery.RiskMarkers))
		copy(opts.RiskMarkers, c.Recovery.RiskMarkers)
	}
	return opts
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := c.Recovery
	names := map[string]string{"shell_tool": r.ShellTool, "read_tool": r.ReadTool, "write_tool": r.WriteTool}
	seen := make(map[string]string, len(names))
	for _, key := range []string{"shell_tool", "read_tool", "write_tool"} {
		name := strings.TrimSpace(names[key])
		if name == "" {
			continue
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("recovery.%s and recovery.%s both name tool %q", other, key, name)
		}
		seen[name] = key
	}

	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, warning, error, fatal", c.Logging.Level)
	}
	return nil
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error. Files ending in .yaml or .yml are YAML,
// anything else is JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}
