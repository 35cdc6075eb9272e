package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kineticguard/kinetic/internal/app"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/session"
)

// runAsk answers a single question and exits.
func runAsk(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: kinetic ask \"<question>\"")
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	resp, err := a.Assistant.Respond(ctx, session.New(), question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(resp.FinalText)
	return nil
}
