package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/kineticguard/kinetic/internal/knowledge"
)

// Store is the slice of knowledge.Store the pipeline writes to.
type Store interface {
	Add(ctx context.Context, p knowledge.Passage) error
	DeleteSource(ctx context.Context, source string) (int64, error)
}

// Result summarizes one ingestion run.
type Result struct {
	Files    int
	Chunks   int
	Skipped  int
	Duration time.Duration
}

// Pipeline ingests guideline documents from a directory. Input files are
// pre-extracted text (.txt or .md); cleaning assumes the noise patterns of
// NSCA journal PDFs.
type Pipeline struct {
	store   Store
	chunker *Chunker
	logger  *slog.Logger
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(store Store, chunkSize, chunkOverlap int, logger *slog.Logger) (*Pipeline, error) {
	chunker, err := NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, chunker: chunker, logger: logger}, nil
}

// Run ingests every .txt and .md file under dir. A lock file next to the
// directory keeps concurrent runs from interleaving writes; a second run
// fails fast instead of waiting.
func (p *Pipeline) Run(ctx context.Context, dir string) (Result, error) {
	start := time.Now()

	lock := flock.New(filepath.Join(dir, ".kinetic-index.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("another indexing run holds the lock for %q", dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("releasing index lock failed", "error", err)
		}
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read guideline directory %q: %w", dir, err)
	}

	var res Result
	for _, entry := range entries {
		if entry.IsDir() || !isTextFile(entry.Name()) {
			res.Skipped++
			continue
		}
		n, err := p.ingestFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return res, err
		}
		res.Files++
		res.Chunks += n
	}
	res.Duration = time.Since(start)

	p.logger.Info("ingestion complete",
		"files", res.Files, "chunks", res.Chunks,
		"skipped", res.Skipped, "duration", res.Duration)
	return res, nil
}

// ingestFile replaces the file's previous passages and indexes its
// cleaned chunks. Chunk IDs hash source and content, so unchanged chunks
// are idempotent upserts.
func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", path, err)
	}

	source := filepath.Base(path)
	cleaned := Clean(string(raw))
	chunks := p.chunker.Split(cleaned)
	if len(chunks) == 0 {
		p.logger.Warn("file produced no chunks", "file", source)
		return 0, nil
	}

	// Drop stale passages so removed sections do not linger in the index.
	if _, err := p.store.DeleteSource(ctx, source); err != nil {
		return 0, fmt.Errorf("clear previous passages of %q: %w", source, err)
	}

	for i, chunk := range chunks {
		passage := knowledge.Passage{
			ID:      chunkID(source, chunk),
			Content: chunk,
			Metadata: map[string]string{
				"source": source,
				"chunk":  fmt.Sprintf("%d", i),
			},
		}
		if err := p.store.Add(ctx, passage); err != nil {
			return i, fmt.Errorf("index chunk %d of %q: %w", i, source, err)
		}
	}

	p.logger.Debug("file indexed", "file", source, "chunks", len(chunks))
	return len(chunks), nil
}

// chunkID derives a stable passage ID from source name and chunk content.
func chunkID(source, content string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + content))
	return hex.EncodeToString(sum[:16])
}

func isTextFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
