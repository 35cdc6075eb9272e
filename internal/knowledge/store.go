// Package knowledge stores guideline passages in PostgreSQL with pgvector
// and answers semantic queries against them. Passages come from the ingest
// pipeline; the assistant retrieves them to ground its answers.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
)

// ErrRetrievalUnavailable marks a search failure the caller may degrade on:
// the assistant can still answer from the rule table, flagging that the
// guideline index was unreachable.
var ErrRetrievalUnavailable = errors.New("knowledge: retrieval unavailable")

// Querier is the database surface Store needs. The consumer defines the
// interface; *PGQuerier implements it against pgx, tests implement it with
// an in-memory fake.
type Querier interface {
	UpsertPassage(ctx context.Context, arg UpsertPassageParams) error
	SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error)
	CountPassages(ctx context.Context) (int64, error)
	DeleteSource(ctx context.Context, source string) (int64, error)
}

// UpsertPassageParams carries one passage to insert or replace.
type UpsertPassageParams struct {
	ID        string
	Content   string
	Embedding *pgvector.Vector
	Metadata  []byte // JSON
	CreatedAt time.Time
}

// SearchPassagesParams carries one vector search.
type SearchPassagesParams struct {
	QueryEmbedding *pgvector.Vector
	FilterMetadata []byte // JSON containment filter, nil for unfiltered
	ResultLimit    int
}

// PassageRow is one search hit as it comes back from the database.
type PassageRow struct {
	ID         string
	Content    string
	Metadata   []byte
	CreatedAt  time.Time
	Similarity float32
}

// Store manages guideline passages: embedding on write, vector similarity
// on read. Safe for concurrent use.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: querier, embedder: embedder, logger: logger}
}

// Add embeds and upserts one passage. The passage ID is the caller's
// responsibility; the ingest pipeline derives it from a content hash so
// re-indexing the same document is idempotent.
func (s *Store) Add(ctx context.Context, p Passage) error {
	if p.ID == "" {
		return fmt.Errorf("knowledge: passage has no ID")
	}
	if p.Content == "" {
		return fmt.Errorf("knowledge: passage %q has no content", p.ID)
	}

	vec, err := s.embed(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("embed passage %q: %w", p.ID, err)
	}

	metadataJSON, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %q: %w", p.ID, err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if err := s.queries.UpsertPassage(ctx, UpsertPassageParams{
		ID:        p.ID,
		Content:   p.Content,
		Embedding: &vec,
		Metadata:  metadataJSON,
		CreatedAt: createdAt,
	}); err != nil {
		return fmt.Errorf("upsert passage %q: %w", p.ID, err)
	}

	s.logger.Debug("passage indexed", "id", p.ID, "bytes", len(p.Content))
	return nil
}

// Search returns the passages most similar to the query, best first.
// Failures of the embedder or the database wrap ErrRetrievalUnavailable so
// the caller can degrade instead of aborting the turn.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vec, err := s.embed(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrievalUnavailable, err)
	}

	var filterJSON []byte
	if len(cfg.filter) > 0 {
		// Filter values always go through json.Marshal; the querier binds
		// them as a parameter, never into SQL text.
		filterJSON, err = json.Marshal(cfg.filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
	}

	rows, err := s.queries.SearchPassages(queryCtx, SearchPassagesParams{
		QueryEmbedding: &vec,
		FilterMetadata: filterJSON,
		ResultLimit:    cfg.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				s.logger.Warn("passage has malformed metadata, skipping fields",
					"id", row.ID, "error", err)
				metadata = nil
			}
		}
		results = append(results, Result{
			Passage: Passage{
				ID:        row.ID,
				Content:   row.Content,
				Metadata:  metadata,
				CreatedAt: row.CreatedAt,
			},
			Similarity: row.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of indexed passages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.queries.CountPassages(ctx)
	if err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return n, nil
}

// DeleteSource removes every passage indexed from the named source
// document. Returns the number of passages removed.
func (s *Store) DeleteSource(ctx context.Context, source string) (int64, error) {
	n, err := s.queries.DeleteSource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("delete source %q: %w", source, err)
	}
	s.logger.Info("source removed from index", "source", source, "passages", n)
	return n, nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("embedder returned no vector")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
