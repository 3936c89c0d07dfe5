// Package storage is the host file-system bridge for project files. Project
// blobs are gzip-compressed and prefixed with a 4-byte magic so the editor
// can tell its own container apart from plain JSON exports; reads fall back
// to plain content when the magic is absent. Callers treat compression as
// opaque and only see success/failure plus size diagnostics.
package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	forgeerrors "github.com/r5vtools/forge/internal/errors"
)

// Magic identifies a compressed project file: "R5VP".
var Magic = []byte{0x52, 0x35, 0x56, 0x50}

// WriteInfo reports size diagnostics for a completed write.
type WriteInfo struct {
	OriginalSize   int `json:"original_size"`
	CompressedSize int `json:"compressed_size"`
}

// Store is the storage collaborator consumed by the persistence pipeline.
type Store interface {
	Write(path string, data []byte) (WriteInfo, error)
	Read(path string) ([]byte, error)
}

// FileStore writes project containers to the local file system.
type FileStore struct {
	logger zerolog.Logger
}

// NewFileStore creates a file-backed store.
func NewFileStore(logger zerolog.Logger) *FileStore {
	return &FileStore{logger: logger.With().Str("component", "storage").Logger()}
}

// Write compresses data, prepends the magic bytes, and writes the container
// to path. The parent directory must already exist.
func (s *FileStore) Write(path string, data []byte) (WriteInfo, error) {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return WriteInfo{}, forgeerrors.NewStorageError("write", path,
			errors.Join(forgeerrors.ErrStorageUnavailable, err))
	}

	var buf bytes.Buffer
	buf.Write(Magic)
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return WriteInfo{}, forgeerrors.NewStorageError("write", path,
			errors.Join(forgeerrors.ErrStorageWriteFailed, err))
	}
	if _, err := zw.Write(data); err != nil {
		return WriteInfo{}, forgeerrors.NewStorageError("write", path,
			errors.Join(forgeerrors.ErrStorageWriteFailed, err))
	}
	if err := zw.Close(); err != nil {
		return WriteInfo{}, forgeerrors.NewStorageError("write", path,
			errors.Join(forgeerrors.ErrStorageWriteFailed, err))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return WriteInfo{}, forgeerrors.NewStorageError("write", path,
			errors.Join(forgeerrors.ErrStorageWriteFailed, err))
	}

	info := WriteInfo{OriginalSize: len(data), CompressedSize: buf.Len()}
	s.logger.Debug().
		Str("path", path).
		Int("original_size", info.OriginalSize).
		Int("compressed_size", info.CompressedSize).
		Msg("project file written")
	return info, nil
}

// Read loads a project file. Containers carrying the magic are
// decompressed; anything else is returned as-is so plain JSON files written
// by other tools still open.
func (s *FileStore) Read(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, forgeerrors.NewStorageError("read", path,
			errors.Join(forgeerrors.ErrStorageReadFailed, err))
	}

	if len(raw) < len(Magic) || !bytes.Equal(raw[:len(Magic)], Magic) {
		s.logger.Debug().Str("path", path).Msg("plain project file read")
		return raw, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw[len(Magic):]))
	if err != nil {
		return nil, forgeerrors.NewStorageError("read", path,
			errors.Join(forgeerrors.ErrStorageReadFailed, err))
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, forgeerrors.NewStorageError("read", path,
			errors.Join(forgeerrors.ErrStorageReadFailed, err))
	}
	s.logger.Debug().
		Str("path", path).
		Int("compressed_size", len(raw)).
		Int("original_size", len(data)).
		Msg("project file read")
	return data, nil
}
