package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iconidentify/newsreel/internal/domain"
)

// FilesystemStore serves media from a directory on local disk.
type FilesystemStore struct {
	basePath string
}

// NewFilesystemStore creates a store rooted at basePath.
func NewFilesystemStore(basePath string) *FilesystemStore {
	return &FilesystemStore{basePath: basePath}
}

// BasePath returns the media root directory.
func (s *FilesystemStore) BasePath() string {
	return s.basePath
}

// resolve maps a key to a path inside the media root.
func (s *FilesystemStore) resolve(key string) (string, error) {
	// Keys are flat file names; reject anything that could escape the root.
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMediaKey, key)
	}
	return filepath.Join(s.basePath, key), nil
}

// Stat returns file metadata.
func (s *FilesystemStore) Stat(ctx context.Context, key string) (FileInfo, error) {
	path, err := s.resolve(key)
	if err != nil {
		return FileInfo{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileInfo{}, domain.ErrMediaNotFound
		}
		return FileInfo{}, fmt.Errorf("stat media: %w", err)
	}
	if info.IsDir() {
		return FileInfo{}, domain.ErrMediaNotFound
	}

	return FileInfo{
		Key:     key,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// OpenRange opens a section of the file without reading it into memory.
func (s *FilesystemStore) OpenRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("open media: %w", err)
	}

	return &sectionReadCloser{
		Reader: io.NewSectionReader(f, offset, length),
		file:   f,
	}, nil
}

// Ping verifies the media root is an accessible directory.
func (s *FilesystemStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root %s is not a directory", s.basePath)
	}
	return nil
}

type sectionReadCloser struct {
	io.Reader
	file *os.File
}

func (r *sectionReadCloser) Close() error {
	return r.file.Close()
}
