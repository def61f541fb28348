package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvModelPath         = "NEPHROSCAN_MODEL_PATH"
	EnvModelSourceURL    = "NEPHROSCAN_MODEL_SOURCE_URL"
	EnvModelChecksum     = "NEPHROSCAN_MODEL_CHECKSUM"
	EnvModelFetchTimeout = "NEPHROSCAN_MODEL_FETCH_TIMEOUT"
	EnvModelInputName    = "NEPHROSCAN_MODEL_INPUT_NAME"
	EnvModelOutputName   = "NEPHROSCAN_MODEL_OUTPUT_NAME"
)

// ModelConfig holds classifier artifact acquisition and session parameters.
// Checksum is an optional SHA-256 hex digest; when set, both pre-existing and
// freshly fetched artifacts are verified against it.
type ModelConfig struct {
	Path         string `toml:"path"`
	SourceURL    string `toml:"source_url"`
	Checksum     string `toml:"checksum"`
	FetchTimeout string `toml:"fetch_timeout"`
	InputName    string `toml:"input_name"`
	OutputName   string `toml:"output_name"`
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *ModelConfig) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ModelConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.SourceURL != "" {
		c.SourceURL = overlay.SourceURL
	}
	if overlay.Checksum != "" {
		c.Checksum = overlay.Checksum
	}
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}
	if overlay.InputName != "" {
		c.InputName = overlay.InputName
	}
	if overlay.OutputName != "" {
		c.OutputName = overlay.OutputName
	}
}

func (c *ModelConfig) loadDefaults() {
	if c.Path == "" {
		c.Path = "model/kidney_model.onnx"
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "5m"
	}
	if c.InputName == "" {
		c.InputName = "input"
	}
	if c.OutputName == "" {
		c.OutputName = "output"
	}
}

func (c *ModelConfig) loadEnv() {
	if v := os.Getenv(EnvModelPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvModelSourceURL); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv(EnvModelChecksum); v != "" {
		c.Checksum = v
	}
	if v := os.Getenv(EnvModelFetchTimeout); v != "" {
		c.FetchTimeout = v
	}
	if v := os.Getenv(EnvModelInputName); v != "" {
		c.InputName = v
	}
	if v := os.Getenv(EnvModelOutputName); v != "" {
		c.OutputName = v
	}
}

func (c *ModelConfig) validate() error {
	if c.Path == "" {
		return fmt.Errorf("path required")
	}
	if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
		return fmt.Errorf("invalid fetch_timeout: %w", err)
	}
	return nil
}
