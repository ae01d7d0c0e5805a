package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrStorageUnavailable means the medium cannot be used at all.
	ErrStorageUnavailable = errors.New("storage is not available")
	// ErrStorageReadCorrupt marks stored data that could not be parsed. It is
	// logged and recovered from, never returned by reads.
	ErrStorageReadCorrupt = errors.New("stored data is corrupt")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrLockTimeout        = errors.New("timed out waiting for lock")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrReadOnly           = errors.New("storage is in read-only mode")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrPinned             = errors.New("note is pinned")
)

// StorageWriteError reports a failed save of a single key. The caller decides
// whether to retry, surface it or continue without persistence.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to save %s to storage: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is (or wraps) a StorageWriteError.
func IsWriteError(err error) bool {
	var we *StorageWriteError
	return errors.As(err, &we)
}
