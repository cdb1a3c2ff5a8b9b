// Package storage stages uploaded files on disk for the duration of a request.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// FileInfo contains metadata about a staged file
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage defines the operations the upload pipeline needs
type Storage interface {
	// Save writes r to a new uniquely named file
	Save(ctx context.Context, filename string, r io.Reader) (*FileInfo, error)

	// Remove deletes a previously saved file; removing a missing file is not an error
	Remove(ctx context.Context, info *FileInfo) error

	// Sweep deletes files older than maxAge and returns how many were removed
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// Config holds storage configuration
type Config struct {
	LocalPath string
	MaxBytes  int64
}

// New creates the local Storage implementation
func New(cfg *Config) (Storage, error) {
	return NewLocalStorage(cfg.LocalPath, cfg.MaxBytes)
}
