package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"

	"github.com/kineticguard/kinetic/db"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/database"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/metrics"
)

// runSeed fills the daily_metrics table with synthetic athlete data. It
// talks only to PostgreSQL, so it works without any model API key.
func runSeed(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	athletes := fs.Int("athletes", 0, "number of athletes to generate (default 5)")
	days := fs.Int("days", 0, "days of history per athlete (default 31)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	store := metrics.NewStore(pool, logger)
	rows, err := store.Seed(ctx, metrics.SeedOptions{Athletes: *athletes, Days: *days})
	if err != nil {
		return fmt.Errorf("seeding metrics: %w", err)
	}

	color.Green("✓ %d registros de métricas generados", rows)
	fmt.Println("El último tramo de atleta_01 simula una tendencia de sobrecarga (sueño bajo, RPE alto).")
	return nil
}
