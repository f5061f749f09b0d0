// Package paths decides where the config file and the market store
// live. Both directories follow an explicit precedence chain; flags
// always win, then environment overrides, then the platform defaults.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the per-application directory under the platform base.
const appDirName = "tradedb"

// Environment variable overrides.
const (
	EnvConfigDir = "TRADEDB_CONFIG_DIR"
	EnvDataDir   = "TRADEDB_DATA_DIR"
)

// ConfigDir resolves the configuration directory: the flag, then
// TRADEDB_CONFIG_DIR, then the platform config base (os.UserConfigDir,
// which already honors XDG_CONFIG_HOME on Linux).
func ConfigDir(flag string) (string, error) {
	if dir := firstOf(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// DataDir resolves where the store file and its backups live: the
// flag, then the config-file value, then TRADEDB_DATA_DIR, then the
// platform data base.
func DataDir(flag, fromConfig string) (string, error) {
	if dir := firstOf(flag, fromConfig, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return defaultDataDir()
}

// defaultDataDir is $XDG_DATA_HOME/tradedb (fallback ~/.local/share)
// on Linux; macOS and Windows keep data next to config.
func defaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home dir: %w", err)
		}
		return filepath.Join(home, ".local", "share", appDirName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// firstOf returns the first non-empty candidate.
func firstOf(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
