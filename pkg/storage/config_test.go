package storage_test

import (
	"strings"
	"testing"

	"github.com/renalworks/nephroscan/pkg/storage"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "UseDevelopmentStorage=true"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "scans" {
		t.Errorf("ContainerName = %q, want scans", cfg.ContainerName)
	}
}

func TestConfigFinalizeRequiresConnectionString(t *testing.T) {
	cfg := storage.Config{}
	err := cfg.Finalize(nil)
	if err == nil || !strings.Contains(err.Error(), "connection_string required") {
		t.Errorf("error = %v, want connection_string required", err)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_STORAGE_CONTAINER", "uploads")
	t.Setenv("TEST_STORAGE_CONN", "UseDevelopmentStorage=true")

	env := &storage.Env{
		ContainerName:    "TEST_STORAGE_CONTAINER",
		ConnectionString: "TEST_STORAGE_CONN",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "uploads" {
		t.Errorf("ContainerName = %q, want uploads", cfg.ContainerName)
	}
	if cfg.ConnectionString != "UseDevelopmentStorage=true" {
		t.Errorf("ConnectionString = %q, want dev storage", cfg.ConnectionString)
	}
}

func TestConfigMerge(t *testing.T) {
	base := storage.Config{ContainerName: "scans", ConnectionString: "base"}
	overlay := storage.Config{ContainerName: "uploads"}
	base.Merge(&overlay)

	if base.ContainerName != "uploads" {
		t.Errorf("ContainerName = %q, want uploads", base.ContainerName)
	}
	if base.ConnectionString != "base" {
		t.Errorf("ConnectionString = %q, want base (unchanged)", base.ConnectionString)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storage.ErrNotFound, 404},
		{"empty key", storage.ErrEmptyKey, 400},
		{"invalid key", storage.ErrInvalidKey, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
