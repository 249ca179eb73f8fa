package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvRecoveryConfig = "PICOCLAW_RECOVERY_CONFIG"
	EnvPicoClawHome   = "PICOCLAW_HOME"
)

type RuntimePaths struct {
	HomeDir    string
	ConfigPath string
	LogPath    string
}

// ResolveRuntimePaths picks the config location. An explicit config path wins
// over PICOCLAW_HOME, which wins over ~/.picoclaw.
func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvRecoveryConfig))); configPath != "" {
		return buildRuntimePaths(filepath.Dir(configPath), configPath)
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvPicoClawHome)))
	if homeDir == "" {
		homeDir = defaultPicoClawHome()
	}

	return buildRuntimePaths(homeDir, filepath.Join(homeDir, "recovery.json"))
}

func defaultPicoClawHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".picoclaw"
	}
	return filepath.Join(home, ".picoclaw")
}

func buildRuntimePaths(homeDir, configPath string) RuntimePaths {
	return RuntimePaths{
		HomeDir:    homeDir,
		ConfigPath: configPath,
		LogPath:    filepath.Join(homeDir, "logs", "recovery.log"),
	}
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
