package db

import (
	"context"
	"encoding/json"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
)

// CatalogStore reads the tool catalog from the tool_catalog table.
type CatalogStore struct {
	db *DB
}

var _ ports.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore creates a catalog store over db.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// LoadToolCatalog returns every catalog entry in position order.
func (s *CatalogStore) LoadToolCatalog(ctx context.Context) ([]domain.ToolCatalogEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, aliases, metadata
		FROM tool_catalog
		ORDER BY position, id
	`)
	if err != nil {
		return nil, storageError("query tool catalog", err)
	}
	defer rows.Close()

	entries := make([]domain.ToolCatalogEntry, 0)

	for rows.Next() {
		var (
			entry    domain.ToolCatalogEntry
			metadata []byte
		)

		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Aliases, &metadata); err != nil {
			return nil, storageError("scan tool catalog row", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, storageError("decode tool metadata", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterate tool catalog rows", err)
	}

	return entries, nil
}

// ReplaceToolCatalog swaps the stored catalog for entries in one transaction.
func (s *CatalogStore) ReplaceToolCatalog(ctx context.Context, entries []domain.ToolCatalogEntry) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return storageError("begin catalog replace", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM tool_catalog`); err != nil {
		return storageError("clear tool catalog", err)
	}

	for i, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return storageError("encode tool metadata", err)
		}

		aliases := e.Aliases
		if aliases == nil {
			aliases = []string{}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tool_catalog (id, name, aliases, metadata, position)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, e.Name, aliases, metadata, i); err != nil {
			return storageError("insert tool catalog entry", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit catalog replace", err)
	}

	return nil
}
