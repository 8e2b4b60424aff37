// Package storage persists uploaded documents and hands them back as extract.Document values.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

// Store saves uploads and opens them later by key.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader) (*Object, error)
	Get(ctx context.Context, key string) (*Object, error)
}

// Object is a stored upload. It implements extract.Document.
type Object struct {
	Key      string
	Filename string

	open func(ctx context.Context) (io.ReadCloser, error)
}

func (o *Object) Name() string {
	if o.Filename != "" {
		return o.Filename
	}
	return o.Key
}

// Open returns a reader the caller must close.
func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	if o.open == nil {
		return nil, fmt.Errorf("object %q is not readable", o.Key)
	}
	return o.open(ctx)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// newKey builds a collision-free key that still ends with the original extension.
func newKey(filename string) string {
	return fmt.Sprintf("resume_%s_%s", uuid.NewString(), SanitizeFilename(filename))
}

// filenameFromKey recovers the sanitized filename from a key produced by newKey.
func filenameFromKey(key string) string {
	base := filepath.Base(key)
	if !strings.HasPrefix(base, "resume_") {
		return base
	}
	rest := strings.TrimPrefix(base, "resume_")
	if len(rest) > 37 && rest[36] == '_' {
		if _, err := uuid.Parse(rest[:36]); err == nil {
			return rest[37:]
		}
	}
	return base
}
