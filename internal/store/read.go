package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultListLimit is the page size used when a caller passes limit <= 0.
const DefaultListLimit = 10

// Dataset is a stored dataset row.
type Dataset struct {
	ID          int64
	Name        string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GlobalID returns the dataset's opaque global id.
func (d Dataset) GlobalID() string {
	return GlobalID(d.ID)
}

// DatasetPage is one page of ListDatasets.
// NextCursor is empty on the last page.
type DatasetPage struct {
	Datasets   []Dataset
	NextCursor string
}

// GetDataset retrieves a single dataset by row id.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetDataset(ctx context.Context, id int64) (Dataset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, metadata, created_at, updated_at
		FROM datasets
		WHERE id = ?
	`, id)
	return scanDataset(row)
}

// ListDatasets returns up to limit datasets, newest first, starting at
// cursor (inclusive). An empty cursor starts at the newest dataset.
// Returns ErrInvalidCursor (wrapped) for malformed cursors.
//
// Returns an empty slice (not nil) if no datasets remain.
func (s *Store) ListDatasets(ctx context.Context, cursor string, limit int) (DatasetPage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, name, description, metadata, created_at, updated_at
		FROM datasets
		ORDER BY id DESC
		LIMIT ?
	`
	args := []any{limit + 1}
	if cursor != "" {
		startID, err := ParseGlobalID(cursor)
		if err != nil {
			return DatasetPage{}, err
		}
		query = `
		SELECT id, name, description, metadata, created_at, updated_at
		FROM datasets
		WHERE id <= ?
		ORDER BY id DESC
		LIMIT ?
	`
		args = []any{startID, limit + 1}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return DatasetPage{}, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return DatasetPage{}, err
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		return DatasetPage{}, fmt.Errorf("iterate datasets: %w", err)
	}

	page := DatasetPage{Datasets: datasets}
	// The lookahead row starts the next page.
	if len(datasets) == limit+1 {
		page.NextCursor = datasets[limit].GlobalID()
		page.Datasets = datasets[:limit]
	}
	return page, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (Dataset, error) {
	var d Dataset
	var description sql.NullString
	var metaJSON, created, updated string

	if err := row.Scan(&d.ID, &d.Name, &description, &metaJSON, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return Dataset{}, err
		}
		return Dataset{}, fmt.Errorf("scan dataset: %w", err)
	}

	d.Description = description.String

	meta, err := unmarshalMetadata(metaJSON)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset %d: %w", d.ID, err)
	}
	d.Metadata = meta

	if d.CreatedAt, err = parseTime(created); err != nil {
		return Dataset{}, fmt.Errorf("dataset %d: %w", d.ID, err)
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return Dataset{}, fmt.Errorf("dataset %d: %w", d.ID, err)
	}

	return d, nil
}
