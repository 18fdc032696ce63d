// Package workspace manages per-user staging directories for job output.
// Each authenticated user gets an isolated directory under a common base;
// output files are staged there between script execution and upload.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Static errors for workspace operations.
var (
	// ErrUnsafeFileName is returned when an output file name could escape
	// the user's staging directory.
	ErrUnsafeFileName = errors.New("unsafe output file name")
	// ErrEmptyUserID is returned when a user identity is missing.
	ErrEmptyUserID = errors.New("user id must not be empty")
)

// Manager allocates and resolves per-user staging directories.
type Manager struct {
	baseDir string
}

// NewManager creates a Manager rooted at baseDir.
// If baseDir is empty, a "clipforge" directory under os.TempDir() is used.
// The base directory is created if it doesn't exist.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "clipforge")
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("create workspace base directory: %w", err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the workspace base directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Dir returns the staging directory for the given user, creating it if
// absent. The directory name is derived from the user id, so two users
// can never share a staging directory.
func (m *Manager) Dir(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	dir := filepath.Join(m.baseDir, "user-"+userID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create user staging directory: %w", err)
	}
	return dir, nil
}

// OutputPath resolves a caller-supplied output file name inside the user's
// staging directory. The name is rejected before any path is built if it
// could traverse outside the directory.
func (m *Manager) OutputPath(userID, name string) (string, error) {
	if err := CheckFileName(name); err != nil {
		return "", err
	}

	dir, err := m.Dir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Remove deletes a staged artifact. A missing file is not an error.
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged file %s: %w", path, err)
	}
	return nil
}

// CheckFileName validates a caller-supplied output file name. The name
// must be a bare file name: no separators, no parent references, not a
// reserved name.
func CheckFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeFileName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafeFileName, name)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrUnsafeFileName, name)
	}
	return nil
}
