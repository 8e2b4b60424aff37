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
)

// Local stores uploads in a directory on disk.
type Local struct {
	dir string
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Put(_ context.Context, filename string, r io.Reader) (*Object, error) {
	key := newKey(filename)
	path := filepath.Join(l.dir, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close %s: %w", key, err)
	}

	return l.object(key, filename), nil
}

func (l *Local) Get(_ context.Context, key string) (*Object, error) {
	if key != filepath.Base(key) || key == "." || key == ".." {
		return nil, fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}

	if _, err := os.Stat(filepath.Join(l.dir, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}

	return l.object(key, filenameFromKey(key)), nil
}

func (l *Local) object(key, filename string) *Object {
	path := filepath.Join(l.dir, key)
	return &Object{
		Key:      key,
		Filename: filename,
		open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
