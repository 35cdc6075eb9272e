// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: Genkit, the
// database pool, the passage and metric stores, and the assistant. Setup
// builds them in dependency order and tears down whatever was already built
// when a later step fails.
package app

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kineticguard/kinetic/internal/assistant"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/knowledge"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/metrics"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Knowledge *knowledge.Store
	Metrics   *metrics.Store
	Assistant *assistant.Assistant

	otelCleanup func()
	cancel      context.CancelFunc
}

// Close gracefully shuts down all resources. Safe to call on a partially
// constructed App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Debug("database pool closed")
		}
	}

	// Flush pending trace spans last so the shutdown itself is captured.
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
