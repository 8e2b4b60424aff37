package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldDocument  = "document"
	FieldExtension = "extension"
	FieldJobID     = "job_id"
)

// StringFields builds zap string fields from key/value pairs, skipping
// pairs whose trimmed key or value is empty. An odd trailing key is ignored.
func StringFields(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// WithFields attaches fields to l. A nil l becomes a no-op logger.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// WithCommonFields tags l with the model provider and model name.
func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(l, StringFields(FieldProvider, provider, FieldModel, model)...)
}

// WithDocument tags l with the document being processed and its declared format.
func WithDocument(l *zap.Logger, name, ext string) *zap.Logger {
	return WithFields(l, StringFields(FieldDocument, name, FieldExtension, ext)...)
}
