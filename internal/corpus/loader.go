// Package corpus loads the local document corpus and merges it with scraped
// pages into the single context string handed to the compressor.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/extract"
	"github.com/jonathan/admissions-assistant/internal/logging"
)

// Patterns are matched against file names directly under the data directory,
// in this order.
var Patterns = []string{"*.pdf", "*.txt"}

// Summary counts the files seen by one load.
type Summary struct {
	Total      int `json:"total_files"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Local is the result of loading a directory. Documents holds successful
// extractions keyed by file stem; Order lists the stems in load order.
type Local struct {
	Documents map[string]extract.Document
	Order     []string
	Errors    []string
	Summary   Summary
}

// Len returns the number of documents.
func (l Local) Len() int {
	return len(l.Order)
}

// Loader drives an Extractor over a directory.
type Loader struct {
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(extractor *extract.Extractor, logger *zap.Logger) *Loader {
	return &Loader{extractor: extractor, logger: logging.OrNop(logger)}
}

// LoadLocal extracts every PDF then TXT file directly under dir. Per-file
// failures are recorded as "<name>: <error>" and never stop the load.
func (l *Loader) LoadLocal(dir string) Local {
	start := time.Now()
	result := Local{Documents: map[string]extract.Document{}}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		l.logger.Error("data directory does not exist", zap.String("dir", dir))
		result.Errors = append(result.Errors, fmt.Sprintf("Directory not found: %s", dir))
		return result
	}

	files, err := listFiles(dir)
	if err != nil {
		l.logger.Error("failed to list data directory", zap.String("dir", dir), zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Summary.Total = len(files)

	for _, path := range files {
		name := filepath.Base(path)
		doc := l.extractor.Extract(path)
		if doc.Failed() {
			l.logger.Warn("failed to extract file", zap.String("file", name), zap.String("error", doc.Error))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", name, doc.Error))
			result.Summary.Failed++
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if _, exists := result.Documents[stem]; !exists {
			result.Order = append(result.Order, stem)
		}
		result.Documents[stem] = doc
		result.Summary.Successful++
	}

	l.logger.Info("loaded local data",
		zap.Int("successful", result.Summary.Successful),
		zap.Int("failed", result.Summary.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, pattern := range Patterns {
		for _, entry := range entries {
			if ok, _ := filepath.Match(pattern, entry.Name()); ok {
				files = append(files, filepath.Join(dir, entry.Name()))
			}
		}
	}
	return files, nil
}
