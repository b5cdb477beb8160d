package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/parser"
)

type BatchOptions struct {
	Exclude []string
}

type FileResult struct {
	Path   string  `json:"path"`
	Title  string  `json:"title"`
	Result *Result `json:"result"`
}

type BatchResult struct {
	Files        []FileResult `json:"files"`
	FilesSkipped int          `json:"filesSkipped"`
	Stats        Stats        `json:"stats"`
	Errors       []error      `json:"-"`
}

// ExtractPaths runs Extract over every supported document found under
// paths. Files with identical content are extracted once. A failing file is
// recorded in Errors and the batch continues, unless the failure means no
// file can succeed (extraction not configured, unknown project, cancelled
// context).
func (o *Orchestrator) ExtractPaths(ctx context.Context, projectID string, paths []string, options BatchOptions) (*BatchResult, error) {
	files, err := walkDocuments(paths, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking documents: %w", err)
	}

	result := &BatchResult{Files: []FileResult{}}
	seen := make(map[string]string, len(files))

	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if first, ok := seen[hash]; ok {
			o.logger.Debug("Skipping duplicate document", zap.String("path", path), zap.String("same_as", first))
			result.FilesSkipped++
			continue
		}
		seen[hash] = path

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrEmptyDocument) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		res, err := o.Extract(ctx, projectID, doc.Text)
		if err != nil {
			if fatalBatchError(err) {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Errorf("extracting %s: %w", path, err))
			continue
		}

		result.Stats.add(res.Stats)
		result.Files = append(result.Files, FileResult{Path: path, Title: doc.Title, Result: res})
	}

	return result, nil
}

func fatalBatchError(err error) bool {
	return errors.Is(err, apperrors.ErrNotConfigured) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func walkDocuments(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !parser.Supported(d.Name()) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
