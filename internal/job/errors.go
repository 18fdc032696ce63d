package job

import (
	"errors"
	"fmt"
)

// Static errors for job orchestration.
var (
	// ErrUserBusy is returned when a user already has the maximum number
	// of concurrent jobs running.
	ErrUserBusy = errors.New("too many concurrent jobs for user")
)

// StorageError indicates the artifact upload or download failed. It is a
// distinct kind so callers can choose to retry, unlike validation or
// process failures.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error for key %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FilesystemError indicates a staging directory or file operation failed.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
