// Package storage provides read access to stored video files.
package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a stored media object.
type FileInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// MediaStore reads media objects by opaque key. Objects are never mutated
// after upload, so concurrent readers need no coordination.
type MediaStore interface {
	// Stat returns object metadata, or domain.ErrMediaNotFound.
	Stat(ctx context.Context, key string) (FileInfo, error)

	// OpenRange opens length bytes starting at offset. The caller must
	// close the returned reader.
	OpenRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
