package storage

import "errors"

// ErrSnapshotNotFound is returned when no snapshot exists for a symbol and date
var ErrSnapshotNotFound = errors.New("snapshot not found")
