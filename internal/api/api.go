// Package api serves stored datasets over HTTP with cursor pagination.
//
//	GET /v1/datasets?cursor=<gid>&limit=<n>   → {"next_cursor": ..., "data": [...]}
//	GET /v1/datasets/{id}                     → dataset object
//
// Cursors are the opaque global ids handed out in next_cursor.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pageview/internal/store"
)

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 1000

// DatasetJSON is the wire form of a dataset.
type DatasetJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// ListResponse is the body of GET /v1/datasets.
type ListResponse struct {
	NextCursor *string       `json:"next_cursor"`
	Data       []DatasetJSON `json:"data"`
}

// Service exposes dataset endpoints.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates the dataset service.
func New(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// RegisterHTTP registers the dataset endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/v1/datasets", s.handleList)
	r.Get("/v1/datasets/{id}", s.handleGet)
}

// Handler returns a router with the service mounted.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Service) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("http server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			http.Error(w, fmt.Sprintf("Invalid limit: %s", raw), http.StatusBadRequest)
			return
		}
		limit = n
	}

	page, err := s.store.ListDatasets(r.Context(), cursor, limit)
	if errors.Is(err, store.ErrInvalidCursor) {
		http.Error(w, fmt.Sprintf("Invalid cursor format: %s", cursor), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		s.logger.Error("list datasets failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := ListResponse{Data: make([]DatasetJSON, len(page.Datasets))}
	for i, d := range page.Datasets {
		resp.Data[i] = toJSON(d)
	}
	if page.NextCursor != "" {
		next := page.NextCursor
		resp.NextCursor = &next
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	gid := chi.URLParam(r, "id")
	id, err := store.ParseGlobalID(gid)
	if err != nil {
		http.Error(w, fmt.Sprintf("Dataset with ID %s not found", gid), http.StatusNotFound)
		return
	}

	d, err := s.store.GetDataset(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, fmt.Sprintf("Dataset with ID %s not found", gid), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get dataset failed", "id", gid, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, toJSON(d))
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func toJSON(d store.Dataset) DatasetJSON {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return DatasetJSON{
		ID:          d.GlobalID(),
		Name:        d.Name,
		Description: d.Description,
		Metadata:    meta,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
