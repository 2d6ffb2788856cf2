package store

import (
	"errors"
	"fmt"
)

// ErrSnapshotLocked is returned when the snapshot lock could not be taken in time.
var ErrSnapshotLocked = errors.New("snapshot lock is held by another process")

// StorageError reports a failed log or snapshot operation.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
