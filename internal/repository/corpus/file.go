package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/courserec/internal/domain"
)

// FileLoader reads a JSON snapshot of course records with embeddings.
// The snapshot is an array of CourseRecord objects.
type FileLoader struct {
	path string
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader for the given snapshot file.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// LoadAll reads and decodes the snapshot.
func (l *FileLoader) LoadAll(_ context.Context) ([]domain.CourseRecord, error) {
	data, err := os.ReadFile(filepath.Clean(l.path))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", l.path, err)
	}

	var records []domain.CourseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", l.path, err)
	}

	for i := range records {
		if records[i].ID == "" {
			return nil, fmt.Errorf("snapshot %s: record %d has no id", l.path, i)
		}
	}

	return records, nil
}
