package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IvanShishkin/docsentry/internal/config"
	"go.uber.org/zap"
)

// DocumentInfo describes a candidate document found on disk
type DocumentInfo struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Extension string
}

// Walker walks the filesystem and finds documents to process
type Walker struct {
	config  *config.Config
	logger  *zap.Logger
	exclude map[string]bool
	maxSize int64
}

// NewWalker creates a new filesystem walker
func NewWalker(cfg *config.Config, logger *zap.Logger) *Walker {
	// Build exclude map for fast lookup
	exclude := make(map[string]bool)
	for _, dir := range cfg.Exclude {
		exclude[dir] = true
	}

	return &Walker{
		config:  cfg,
		logger:  logger,
		exclude: exclude,
		maxSize: ParseSize(cfg.MaxSize),
	}
}

// Walk recursively walks root and calls callback for every document whose
// extension is configured. A root that is a file is passed through as is.
func (w *Walker) Walk(root string, callback func(*DocumentInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			return nil // Continue walking
		}

		// Get relative path
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		if d.IsDir() {
			if path != root && w.shouldExclude(d.Name(), relPath) {
				w.logger.Debug("Skipping excluded directory", zap.String("path", relPath))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := GetExtension(path)
		if path != root && !w.config.ShouldScanFile(ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.logger.Warn("Error reading file info", zap.String("path", path), zap.Error(err))
			return nil
		}
		if w.maxSize > 0 && info.Size() > w.maxSize {
			w.logger.Info("Skipping oversized document",
				zap.String("path", relPath),
				zap.Int64("size", info.Size()))
			return nil
		}

		return callback(&DocumentInfo{
			Path:      path,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Extension: strings.ToLower(ext),
		})
	})
}

// shouldExclude checks if a directory should be excluded
func (w *Walker) shouldExclude(name, path string) bool {
	// Check exact match
	if w.exclude[name] {
		return true
	}

	// Check if path contains excluded directory
	parts := strings.Split(path, string(os.PathSeparator))
	for _, part := range parts {
		if w.exclude[part] {
			return true
		}
	}

	return false
}

// GetExtension returns the file extension without dot
func GetExtension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}
