// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/tidewave-cli/tidewave/constant"
	"github.com/tidewave-cli/tidewave/filesystem"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "TIDEWAVE_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// It prioritizes the XDG_CONFIG_HOME specification on Linux and equivalent user profile paths on Darwin and Windows.
// Direct override: The path resolution can be explicitly specified via the TIDEWAVE_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Tidewave))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Tidewave))
}

// Logs resolves the absolute path to the directory used for application diagnostic and audit logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sessions resolves the absolute path to the persisted session store file.
func Sessions() string {
	return filepath.Join(Config(), "sessions.json")
}

// Downloads resolves the default root directory for downloaded media.
func Downloads() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ensureDir(filepath.Join(".", "downloads"))
	}
	return ensureDir(filepath.Join(home, "Music", constant.Tidewave))
}

// Failed resolves the absolute path to the failed-downloads registry, kept for manual retry.
func Failed() string {
	return filepath.Join(Config(), "failed.json")
}

// Temp resolves a unique, volatile filesystem path for transient application artifacts
// such as encrypted DRM segments awaiting reassembly.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Tidewave))
}
