package storage

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid key", "scans/abc/scan.png", nil},
		{"empty key", "", ErrEmptyKey},
		{"traversal", "scans/../secrets", ErrInvalidKey},
		{"leading traversal", "../etc/passwd", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
