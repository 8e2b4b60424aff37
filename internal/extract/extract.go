// Package extract converts uploaded PDF and Word documents into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxBytes bounds how much of a document is read into memory.
const DefaultMaxBytes = 20 << 20

// Reason classifies an extraction failure.
type Reason string

const (
	ReasonUnsupportedFormat   Reason = "unsupported_format"
	ReasonCorruptOrUnreadable Reason = "corrupt_or_unreadable"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrUnreadable        = errors.New("corrupt or unreadable document")
)

// Failure is returned by Extract. It never carries the underlying library error.
type Failure struct {
	Reason Reason
	Format string
}

func (f *Failure) Error() string {
	switch f.Reason {
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("%s: %q", ErrUnsupportedFormat, f.Format)
	default:
		return fmt.Sprintf("%s: %q", ErrUnreadable, f.Format)
	}
}

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrUnsupportedFormat:
		return f.Reason == ReasonUnsupportedFormat
	case ErrUnreadable:
		return f.Reason == ReasonCorruptOrUnreadable
	}
	return false
}

// Document is an already persisted upload that can be opened for reading.
type Document interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type textReader func(data []byte) (string, error)

// Extractor dispatches documents to a format reader by declared extension.
type Extractor struct {
	logger   *zap.Logger
	maxBytes int64
	readers  map[string]textReader
}

// New creates an Extractor. maxBytes <= 0 selects DefaultMaxBytes.
func New(logger *zap.Logger, maxBytes int64) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Extractor{
		logger:   logger,
		maxBytes: maxBytes,
		readers: map[string]textReader{
			"pdf":  readPDF,
			"docx": readDocx,
			"doc":  readDocx,
		},
	}
}

// Supported reports whether ext (with or without a leading dot) can be extracted.
func Supported(ext string) bool {
	switch normalizeExt(ext) {
	case "pdf", "docx", "doc":
		return true
	}
	return false
}

// Ext returns the lower-cased extension of filename without the dot.
func Ext(filename string) string {
	return normalizeExt(filepath.Ext(filename))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Extract opens doc and returns its trimmed text. An empty string is a valid
// result; callers decide whether it is usable.
func (e *Extractor) Extract(ctx context.Context, doc Document, ext string) (string, error) {
	format := normalizeExt(ext)
	read, ok := e.readers[format]
	if !ok {
		return "", &Failure{Reason: ReasonUnsupportedFormat, Format: format}
	}

	data, err := e.load(ctx, doc)
	if err != nil {
		e.logger.Debug("reading document failed",
			zap.String("document", doc.Name()),
			zap.Error(err),
		)
		return "", &Failure{Reason: ReasonCorruptOrUnreadable, Format: format}
	}

	text, err := read(data)
	if err != nil {
		e.logger.Debug("extracting document text failed",
			zap.String("document", doc.Name()),
			zap.String("format", format),
			zap.Error(err),
		)
		return "", &Failure{Reason: ReasonCorruptOrUnreadable, Format: format}
	}

	return strings.TrimSpace(text), nil
}

func (e *Extractor) load(ctx context.Context, doc Document) ([]byte, error) {
	rc, err := doc.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", e.maxBytes)
	}

	return data, nil
}

type bytesDocument struct {
	name string
	data []byte
}

// Bytes wraps in-memory content as a Document.
func Bytes(name string, data []byte) Document {
	return &bytesDocument{name: name, data: data}
}

func (d *bytesDocument) Name() string { return d.name }

func (d *bytesDocument) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(d.data)), nil
}

type fileDocument struct {
	path string
}

// File wraps a path on the local filesystem as a Document.
func File(path string) Document {
	return &fileDocument{path: path}
}

func (d *fileDocument) Name() string { return filepath.Base(d.path) }

func (d *fileDocument) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(d.path)
}
