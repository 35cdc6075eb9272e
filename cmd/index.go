package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/kineticguard/kinetic/internal/app"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/ingest"
	"github.com/kineticguard/kinetic/internal/log"
)

// runIndex ingests guideline text files from a directory into the vector
// store: clean, chunk, embed, upsert.
func runIndex(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kinetic index <dir>")
	}
	dir := args[0]

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	pipeline, err := ingest.New(a.Knowledge, cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, dir)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", dir, err)
	}

	color.Green("✓ %d archivos indexados (%d fragmentos) en %s",
		result.Files, result.Chunks, result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		color.Yellow("  %d archivos omitidos (solo se indexan .txt y .md)", result.Skipped)
	}

	total, err := a.Knowledge.Count(ctx)
	if err == nil {
		fmt.Printf("Pasajes en el índice: %d\n", total)
	}
	return nil
}
