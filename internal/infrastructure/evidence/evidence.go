// Package evidence keeps a downscaled screenshot of pages where automation
// did not get through, so a person can see what the site showed.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var _ output.EvidencePort = (*FileStore)(nil)

type Config struct {
	Dir      string
	MaxWidth int
	Quality  int
}

func DefaultConfig(dir string) Config {
	return Config{Dir: dir, MaxWidth: 1024, Quality: 70}
}

type FileStore struct {
	cfg Config
	now func() time.Time
}

func NewFileStore(cfg Config) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("evidence dir is empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &FileStore{cfg: cfg, now: time.Now}, nil
}

// Save writes the screenshot as JPEG under <dir>/<user>/<broker>-<time>.jpg
// and returns the path.
func (s *FileStore) Save(ctx context.Context, userID, brokerID string, shot *entity.Screenshot) (string, error) {
	if shot == nil || len(shot.Data) == 0 {
		return "", fmt.Errorf("empty screenshot")
	}
	img, _, err := image.Decode(bytes.NewReader(shot.Data))
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if s.cfg.MaxWidth > 0 && img.Bounds().Dx() > s.cfg.MaxWidth {
		img = imaging.Resize(img, s.cfg.MaxWidth, 0, imaging.Lanczos)
	}

	dir := filepath.Join(s.cfg.Dir, safe(userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create evidence dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.jpg", safe(brokerID), s.now().UTC().Format("20060102T150405")))

	if err := imaging.Save(img, path, imaging.JPEGQuality(s.cfg.Quality)); err != nil {
		return "", fmt.Errorf("write evidence: %w", err)
	}
	return path, nil
}

func safe(s string) string {
	out := []rune(s)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' && r != '_' {
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "unknown"
	}
	return string(out)
}
