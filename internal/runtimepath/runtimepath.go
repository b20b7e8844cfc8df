package runtimepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultDisplay is the socket name used when WAYLAND_DISPLAY is unset.
const DefaultDisplay = "wayland-0"

// ErrNoRuntimeDir is returned when no runtime directory exists.
var ErrNoRuntimeDir = errors.New("no runtime directory: XDG_RUNTIME_DIR is unset")

// runUserBase holds the per-uid runtime directories set up by the login
// manager.
var runUserBase = "/run/user"

// Dir returns the runtime directory compositor sockets live in. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
//
// Dir never creates directories; the compositor owns them.
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	runUserDir := filepath.Join(runUserBase, strconv.Itoa(os.Getuid()))
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}
	return "", fmt.Errorf("%w and %s does not exist", ErrNoRuntimeDir, runUserDir)
}

// WaylandSocketPath resolves the compositor socket from WAYLAND_DISPLAY.
// An absolute WAYLAND_DISPLAY is used as is; a bare name is joined to Dir.
func WaylandSocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = DefaultDisplay
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, display), nil
}
