package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/renalworks/nephroscan/internal/config"
	"github.com/renalworks/nephroscan/pkg/formatting"
)

// fetchArtifact ensures the model artifact exists at cfg.Path, downloading it
// from cfg.SourceURL when absent. When a checksum is configured, both
// pre-existing and freshly downloaded artifacts are verified against it;
// without one, a present local file is trusted as-is.
func fetchArtifact(ctx context.Context, cfg *config.ModelConfig, logger *slog.Logger) error {
	if info, err := os.Stat(cfg.Path); err == nil {
		if err := verifyChecksum(cfg.Path, cfg.Checksum); err != nil {
			return err
		}
		logger.Info("model artifact present",
			"path", cfg.Path,
			"size", formatting.FormatBytes(info.Size(), 1),
		)
		return nil
	}

	if cfg.SourceURL == "" {
		return fmt.Errorf("artifact missing at %s and no source_url configured", cfg.Path)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	logger.Info("fetching model artifact", "url", cfg.SourceURL, "path", cfg.Path)

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeoutDuration())
	defer cancel()

	size, err := download(fetchCtx, cfg.SourceURL, cfg.Path)
	if err != nil {
		return err
	}

	if err := verifyChecksum(cfg.Path, cfg.Checksum); err != nil {
		os.Remove(cfg.Path)
		return err
	}

	logger.Info("model artifact fetched", "size", formatting.FormatBytes(size, 1))
	return nil
}

func download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch artifact: unexpected status %s", resp.Status)
	}

	// Download to a temp file first so a partial fetch never masquerades as a
	// usable artifact on the next startup.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return 0, fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write artifact: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("place artifact: %w", err)
	}

	return size, nil
}

func verifyChecksum(path, want string) error {
	if want == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact for verification: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash artifact: %w", err)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("artifact checksum mismatch: got %s, want %s", got, want)
	}

	return nil
}
