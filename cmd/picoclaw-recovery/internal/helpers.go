package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sipeed/picoclaw-recovery/pkg/config"
	"github.com/sipeed/picoclaw-recovery/pkg/logger"
)

const Logo = "🦞"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

func GetConfigPath() string {
	return config.ResolveRuntimePaths().ConfigPath
}

// LoadConfig loads and validates the config at path and applies its logging
// section to the global logger.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) error {
	if level, ok := logger.ParseLevel(cfg.Level); ok {
		logger.SetLevel(level)
	}
	logger.SetRedactionEnabled(cfg.Redact)

	if cfg.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return err
	}
	return logger.EnableFileLogging(cfg.File)
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}
