package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"souschef/internal/domain"
)

// Rule assigns a category to source files matching a glob pattern.
// Rules are applied in order; the first match wins.
type Rule struct {
	File     string
	Category domain.Category
}

// Loader reads knowledge documents from JSON source files. Each source
// holds a flat array of prompt/response records.
type Loader struct {
	dir      string
	includes []string
	excludes []string
	rules    []Rule
	logger   *slog.Logger
}

type record struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

func NewLoader(dir string, includes, excludes []string, rules []Rule, logger *slog.Logger) *Loader {
	if len(includes) == 0 {
		includes = []string{"*.json"}
	}
	return &Loader{
		dir:      dir,
		includes: includes,
		excludes: excludes,
		rules:    rules,
		logger:   logger.With("component", "source"),
	}
}

// Load discovers source files, assigns each a category, and reads their
// documents. Document IDs are a per-category 1-based sequence in loading
// order. A source that cannot be read or parsed is logged and skipped.
func (l *Loader) Load() ([]domain.Document, error) {
	files, err := l.discover()
	if err != nil {
		return nil, fmt.Errorf("scanning knowledge dir: %w", err)
	}

	var docs []domain.Document
	counts := make(map[domain.Category]int)

	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			l.logger.Warn("skipping knowledge source", "path", f.rel, "error", err)
			continue
		}

		var records []record
		if err := json.Unmarshal(data, &records); err != nil {
			l.logger.Warn("skipping knowledge source", "path", f.rel, "error", err)
			continue
		}

		for _, r := range records {
			counts[f.category]++
			docs = append(docs, domain.Document{
				ID:       fmt.Sprintf("%s_%d", f.category, counts[f.category]),
				Category: f.category,
				Title:    r.Prompt,
				Body:     r.Response,
			})
		}

		l.logger.Debug("loaded knowledge source",
			"path", f.rel,
			"category", f.category,
			"documents", len(records))
	}

	return docs, nil
}

type sourceFile struct {
	path     string
	rel      string
	category domain.Category
}

// discover walks the knowledge dir and orders matched files by rule:
// sources matched by earlier rules come first, uncategorized sources
// last with the general category.
func (l *Loader) discover() ([]sourceFile, error) {
	root, err := filepath.Abs(l.dir)
	if err != nil {
		return nil, err
	}

	var rels []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if l.shouldExclude(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if l.shouldInclude(rel) && !l.shouldExclude(rel) {
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var files []sourceFile
	consumed := make(map[string]bool)

	for _, rule := range l.rules {
		for _, rel := range rels {
			if consumed[rel] {
				continue
			}
			matched, err := doublestar.Match(rule.File, rel)
			if err == nil && matched {
				consumed[rel] = true
				files = append(files, sourceFile{
					path:     filepath.Join(root, rel),
					rel:      rel,
					category: rule.Category,
				})
			}
		}
	}

	for _, rel := range rels {
		if consumed[rel] {
			continue
		}
		files = append(files, sourceFile{
			path:     filepath.Join(root, rel),
			rel:      rel,
			category: domain.CategoryGeneral,
		})
	}

	return files, nil
}

func (l *Loader) shouldInclude(path string) bool {
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Loader) shouldExclude(path string) bool {
	for _, pattern := range l.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
