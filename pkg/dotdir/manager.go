// Package dotdir manages the .vmentor/ and ~/.vmentor directories that hold
// config.toml and the cached chat session identity.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the vmentor directory.
	dirName = ".vmentor"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .vmentor/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.vmentor/ dir
//  3. Home ~/.vmentor/ dir
//
// When none of these exist Target returns "" and no error; callers fall back
// to defaults.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating vmentor directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return dir, nil
	}

	if dir, ok := m.homeDir(); ok {
		return dir, nil
	}

	return "", nil
}

// Ensure is Target, but creates ~/.vmentor/ when no directory was found.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir = filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating vmentor directory %s: %w", dir, err)
	}
	return dir, nil
}

func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return existingDir(filepath.Join(cwd, dirName))
}

func (m *Manager) homeDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return existingDir(filepath.Join(home, dirName))
}

func existingDir(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}
