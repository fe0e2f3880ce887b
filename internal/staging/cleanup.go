package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundunpack/internal/logging"
)

// CleanResult contains the outcome of a cleanup operation.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// RemoveWorkspace deletes the workspace tree.
func RemoveWorkspace(dir string, logger *slog.Logger) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		if logger != nil {
			logger.Warn("failed to remove temporary directory",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check tmp_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return err
	}
	if logger != nil {
		logger.Info("temporary directory cleared",
			logging.String("path", dir),
			logging.String(logging.FieldEventType, "workspace_cleanup"),
		)
	}
	return nil
}

// FindStaleStages returns files under root whose name ends with suffix.
// Directories named in skip are not descended into.
func FindStaleStages(ctx context.Context, root, suffix string, skip ...string) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, dir := range skip {
		if dir != "" {
			skipped[filepath.Clean(dir)] = struct{}{}
		}
	}

	var stages []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if _, ok := skipped[filepath.Clean(path)]; ok && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), suffix) {
			stages = append(stages, path)
		}
		return nil
	})
	return stages, err
}

// CleanStaleStages removes staged outputs abandoned under root.
func CleanStaleStages(ctx context.Context, root, suffix string, logger *slog.Logger, skip ...string) CleanResult {
	result := CleanResult{}

	stages, err := FindStaleStages(ctx, root, suffix, skip...)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
	}

	for _, path := range stages {
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove staged output",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "stage_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check destination permissions"),
					logging.String(logging.FieldImpact, "stray staged file left in destination"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed staged output",
				logging.String("path", path),
				logging.String(logging.FieldEventType, "stage_cleanup"),
			)
		}
	}

	return result
}

// ListDirectories returns all directories in the workspace with their metadata.
func ListDirectories(dir string) ([]DirInfo, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(dir, entry.Name())
		size, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

// DirInfo contains metadata about a workspace directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Ignore errors, best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
