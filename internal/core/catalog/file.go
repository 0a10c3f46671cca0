// Package catalog loads the AI tool catalog from a YAML file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
)

type document struct {
	Tools []domain.ToolCatalogEntry `yaml:"tools"`
}

// FileStore reads the catalog file on every load, so edits are picked up on refresh.
type FileStore struct {
	path string
}

var _ ports.CatalogStore = (*FileStore)(nil)

// NewFileStore creates a store for the YAML file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadToolCatalog reads and validates the catalog file.
func (s *FileStore) LoadToolCatalog(_ context.Context) ([]domain.ToolCatalogEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read tool catalog %s: %w", s.path, errors.Join(errors.ErrStorage, err))
	}

	return Parse(data)
}

// Parse decodes a catalog document. Entries keep file order, which is the order fuzzy
// matching tries them in.
func Parse(data []byte) ([]domain.ToolCatalogEntry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse tool catalog: %v", errors.ErrInvalidInput, err)
	}

	seen := make(map[string]struct{}, len(doc.Tools))
	entries := make([]domain.ToolCatalogEntry, 0, len(doc.Tools))

	for i, t := range doc.Tools {
		t.ID = strings.TrimSpace(t.ID)
		t.Name = strings.TrimSpace(t.Name)

		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("%w: tool %d needs an id and a name", errors.ErrInvalidInput, i)
		}

		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tool id %q", errors.ErrInvalidInput, t.ID)
		}

		seen[t.ID] = struct{}{}

		entries = append(entries, t)
	}

	return entries, nil
}
