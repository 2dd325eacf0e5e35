// Package runtimepath resolves the per-user directories winlaunch uses: the
// runtime dir for the control socket, the data dir for persisted window
// state and the config dir.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const appName = "winlaunch"

// Dir returns the directory holding the control socket: $XDG_RUNTIME_DIR,
// then /run/user/<uid>, then a private /tmp/winlaunch-runtime-<uid> that is
// created on demand.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	fallback := filepath.Join(os.TempDir(), appName+"-runtime-"+uid)
	if err := os.MkdirAll(fallback, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir %s: %w", fallback, err)
	}
	return fallback, nil
}

// SocketPath returns the daemon control socket. WINLAUNCH_SOCKET overrides
// the default location.
func SocketPath() (string, error) {
	if override := os.Getenv("WINLAUNCH_SOCKET"); override != "" {
		return override, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".sock"), nil
}

// DataDir returns $XDG_DATA_HOME/winlaunch, defaulting to
// ~/.local/share/winlaunch.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ConfigDir returns $XDG_CONFIG_HOME/winlaunch, defaulting to
// ~/.config/winlaunch.
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(env string, homeRel ...string) (string, error) {
	if base := os.Getenv(env); filepath.IsAbs(base) {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	parts := append([]string{home}, homeRel...)
	return filepath.Join(append(parts, appName)...), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
