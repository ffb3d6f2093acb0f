package store

import (
	"context"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/record"
)

// Source returns a pager.Source over ListDatasets.
func (s *Store) Source() pager.Source {
	return pager.SourceFunc(func(ctx context.Context, cursor pager.Token, pageSize int) (pager.Page, error) {
		page, err := s.ListDatasets(ctx, string(cursor), pageSize)
		if err != nil {
			return pager.Page{}, err
		}

		records := make([]record.Record, len(page.Datasets))
		for i, d := range page.Datasets {
			records[i] = d.Record()
		}
		return pager.Page{
			Records:    records,
			NextCursor: pager.Token(page.NextCursor),
			HasMore:    page.NextCursor != "",
		}, nil
	})
}

// Record converts the dataset into a pager record keyed by global id.
// Field names match the list endpoint's JSON.
func (d Dataset) Record() record.Record {
	return record.New(d.GlobalID(), map[string]any{
		"id":          d.GlobalID(),
		"name":        d.Name,
		"description": d.Description,
		"metadata":    d.Metadata,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	})
}
