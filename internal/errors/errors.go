// Package errors provides structured error types for the forge document engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes the engine surfaces to callers.
var (
	// ErrInvalidDocumentFormat indicates a project file that is malformed or
	// missing required wire fields. A load that hits this leaves the current
	// in-memory document untouched.
	ErrInvalidDocumentFormat = errors.New("invalid document format")

	// ErrStorageUnavailable indicates the backing location cannot be used at
	// all (missing directory, bad root).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageWriteFailed indicates a persistence attempt failed. Dirty
	// state is preserved so the save can be retried explicitly.
	ErrStorageWriteFailed = errors.New("storage write failed")

	// ErrStorageReadFailed indicates a project file could not be read or
	// decompressed.
	ErrStorageReadFailed = errors.New("storage read failed")

	// ErrLastScriptProtected indicates an attempt to delete the sole
	// remaining script artifact. The deletion is refused as a no-op; this is
	// an expected UI state, not a programming error.
	ErrLastScriptProtected = errors.New("last script artifact is protected")

	// ErrNoBackingPath indicates a save was requested before the document
	// was ever given a file path.
	ErrNoBackingPath = errors.New("document has no backing path")

	// ErrArtifactNotFound indicates an operation named an artifact id that is
	// not present in the target collection.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrFolderNotFound indicates an operation named a folder path that does
	// not exist in the target collection.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrUnknownKind indicates a request named a collection kind the engine
	// does not know.
	ErrUnknownKind = errors.New("unknown collection kind")
)

// StorageError wraps a failure from the host file-system bridge with the
// operation and path it occurred on.
type StorageError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError creates a storage error for the given operation and path.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

// IsStorage reports whether err is any of the storage-layer failures.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrStorageWriteFailed) ||
		errors.Is(err, ErrStorageReadFailed)
}
