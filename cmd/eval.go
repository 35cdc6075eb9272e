package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kineticguard/kinetic/internal/app"
	"github.com/kineticguard/kinetic/internal/assistant"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/eval"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/session"
)

// assistantAnswerer adapts the assistant to the eval harness. Each query
// runs in a fresh session so replayed questions never see each other's
// history.
type assistantAnswerer struct {
	assistant *assistant.Assistant
}

func (a *assistantAnswerer) Answer(ctx context.Context, query string) (eval.Answer, error) {
	resp, err := a.assistant.Respond(ctx, session.New(), query)
	if err != nil {
		return eval.Answer{}, err
	}

	contexts := make([]string, 0, len(resp.Passages))
	for _, res := range resp.Passages {
		contexts = append(contexts, res.Passage.Content)
	}
	return eval.Answer{Text: resp.FinalText, Contexts: contexts}, nil
}

// runEval replays a query file through the full pipeline and writes a
// timestamped JSON report.
func runEval(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	file := fs.String("file", "", "path to the queries JSON file (required)")
	out := fs.String("out", "evaluations", "directory for the JSON report")
	parallel := fs.Int("parallel", 1, "number of queries answered concurrently")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return fmt.Errorf("eval: --file is required")
	}

	queries, err := eval.LoadQueries(*file)
	if err != nil {
		return err
	}
	logger.Info("queries loaded", "file", *file, "count", len(queries))

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	runner, err := eval.NewRunner(&assistantAnswerer{assistant: a.Assistant}, *parallel, logger)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, queries)
	if err != nil {
		return err
	}

	path, err := eval.WriteReport(*out, report)
	if err != nil {
		return err
	}

	eval.Summary(os.Stdout, report)
	fmt.Printf("Reporte: %s\n", path)
	return nil
}
