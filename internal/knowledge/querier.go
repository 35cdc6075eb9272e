package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool that PGQuerier uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGQuerier implements Querier against PostgreSQL with the pgvector
// extension. The passages table is created by the db migrations.
type PGQuerier struct {
	db DB
}

// NewPGQuerier wraps a pgx pool (or transaction) in a Querier.
func NewPGQuerier(db DB) *PGQuerier {
	return &PGQuerier{db: db}
}

const upsertPassageSQL = `
INSERT INTO passages (id, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    metadata = EXCLUDED.metadata`

// UpsertPassage inserts or replaces one passage row.
func (q *PGQuerier) UpsertPassage(ctx context.Context, arg UpsertPassageParams) error {
	_, err := q.db.Exec(ctx, upsertPassageSQL,
		arg.ID, arg.Content, arg.Embedding, arg.Metadata, arg.CreatedAt)
	return err
}

// searchPassagesSQL orders by cosine distance; similarity = 1 - distance.
// $2 is a JSONB containment filter; NULL disables it.
const searchPassagesSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM passages
WHERE $2::jsonb IS NULL OR metadata @> $2::jsonb
ORDER BY embedding <=> $1
LIMIT $3`

// SearchPassages runs one vector similarity query.
func (q *PGQuerier) SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error) {
	var filter any
	if len(arg.FilterMetadata) > 0 {
		filter = arg.FilterMetadata
	}

	rows, err := q.db.Query(ctx, searchPassagesSQL,
		arg.QueryEmbedding, filter, arg.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var out []PassageRow
	for rows.Next() {
		var r PassageRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan passage row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountPassages returns the total number of indexed passages.
func (q *PGQuerier) CountPassages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM passages`).Scan(&n)
	return n, err
}

// DeleteSource removes all passages whose metadata names the source.
func (q *PGQuerier) DeleteSource(ctx context.Context, source string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM passages WHERE metadata->>'source' = $1`, source)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
