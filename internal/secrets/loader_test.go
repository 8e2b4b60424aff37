package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{"inline value", Source{Value: " inline "}, "inline", false},
		{"file wins over value", Source{Value: "inline", File: keyFile}, "from-file", false},
		{"empty file", Source{Value: "inline", File: emptyFile}, "", true},
		{"missing file", Source{File: filepath.Join(dir, "missing")}, "", true},
		{"nothing configured", Source{Name: "gemini api key"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	_, err = Load(Source{File: filepath.Join(t.TempDir(), "missing")})
	if errors.Is(err, ErrNotConfigured) {
		t.Fatalf("an unreadable file is not the same as a missing key: %v", err)
	}
}
