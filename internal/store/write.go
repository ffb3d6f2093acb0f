package store

import (
	"context"
	"fmt"
)

// NewDataset holds the caller-supplied fields of a dataset.
type NewDataset struct {
	Name        string
	Description string
	Metadata    map[string]any
}

// InsertDataset stores a dataset and returns it with its assigned id and
// timestamps. Names are unique; inserting a duplicate name fails.
func (s *Store) InsertDataset(ctx context.Context, nd NewDataset) (Dataset, error) {
	if nd.Name == "" {
		return Dataset{}, fmt.Errorf("insert dataset: name is required")
	}

	metaJSON, err := marshalMetadata(nd.Metadata)
	if err != nil {
		return Dataset{}, fmt.Errorf("insert dataset: %w", err)
	}

	now := formatTime(s.now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (name, description, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, nd.Name, nd.Description, metaJSON, now, now)
	if err != nil {
		return Dataset{}, fmt.Errorf("insert dataset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Dataset{}, fmt.Errorf("insert dataset: last insert id: %w", err)
	}

	return s.GetDataset(ctx, id)
}

// InsertDatasets stores several datasets in one transaction.
// Either all are stored or none are.
func (s *Store) InsertDatasets(ctx context.Context, batch []NewDataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO datasets (name, description, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, nd := range batch {
		if nd.Name == "" {
			return fmt.Errorf("datasets[%d]: name is required", i)
		}
		metaJSON, err := marshalMetadata(nd.Metadata)
		if err != nil {
			return fmt.Errorf("datasets[%d]: %w", i, err)
		}
		now := formatTime(s.now())
		if _, err := stmt.ExecContext(ctx, nd.Name, nd.Description, metaJSON, now, now); err != nil {
			return fmt.Errorf("datasets[%d]: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
