package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleksKim19/testvideospkbot/internal/config"
)

var DefaultVideoExtensions = []string{".mp4", ".avi", ".mov"}

// Snapshot is the set of video files found in one directory read.
type Snapshot struct {
	Files   []string
	Missing bool
}

func (s Snapshot) Contains(name string) bool {
	for _, f := range s.Files {
		if f == name {
			return true
		}
	}
	return false
}

type MediaScanner struct {
	dir        string
	extensions map[string]bool
}

func NewMediaScanner(dir string, extensions []string) *MediaScanner {
	exts := config.NormalizeExtensions(extensions)
	if len(exts) == 0 {
		exts = DefaultVideoExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[ext] = true
	}
	return &MediaScanner{dir: dir, extensions: allowed}
}

func (s *MediaScanner) Dir() string {
	return s.dir
}

// EnsureDir creates the media directory if it does not exist yet.
func (s *MediaScanner) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	return nil
}

// Scan lists the video files directly inside the media directory, in
// name order. A missing directory yields an empty snapshot, not an error.
func (s *MediaScanner) Scan(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{Files: []string{}, Missing: true}, nil
		}
		return Snapshot{}, fmt.Errorf("failed to read media directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !s.IsVideo(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	return Snapshot{Files: files}, nil
}

func (s *MediaScanner) IsVideo(name string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}
