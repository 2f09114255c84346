// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/filesystem"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "STREAMSCOUT_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory, honoring STREAMSCOUT_CONFIG_PATH first
// and the platform user config directory otherwise.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(".", "config")
	}
	return ensureDir(filepath.Join(base, constant.Streamscout))
}

// Cache resolves the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Streamscout))
}

// Logs resolves the directory holding rotated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Results resolves the file backing the ranked-stream result cache.
func Results() string {
	return filepath.Join(Cache(), "results.json")
}
