package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/firebase/genkit/go/ai"

	"github.com/kineticguard/kinetic/internal/app"
	"github.com/kineticguard/kinetic/internal/assistant"
	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/session"
	"github.com/kineticguard/kinetic/internal/ui"
)

// responder is the assistant surface the chat loop needs; tests drive
// the loop with a fake.
type responder interface {
	RespondStream(ctx context.Context, sess *session.Session, input string, callback assistant.StreamCallback) (*assistant.Response, error)
}

// runChat starts the interactive conversation loop. A failed turn is
// reported and the loop continues; only EOF or an exit word ends it.
func runChat(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("application close error", "error", closeErr)
		}
	}()

	ui.PrintWithInfo(AppVersion, cfg.FullModelName())
	fmt.Println("Escribe tu pregunta. Sal con \"q\", \"exit\" o Ctrl+D.")
	fmt.Println()

	return chatLoop(ctx, a.Assistant, os.Stdin, os.Stdout)
}

func chatLoop(ctx context.Context, r responder, in io.Reader, out io.Writer) error {
	sess := session.New()
	promptLine := color.New(color.FgCyan, color.Bold)
	errLine := color.New(color.FgRed)
	warnLine := color.New(color.FgYellow)

	scanner := bufio.NewScanner(in)
	for {
		promptLine.Fprint(out, "entrenador> ")

		if !scanner.Scan() {
			fmt.Fprintln(out, "\nHasta luego.")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Fprintln(out, "Escribe una pregunta, o sal con \"q\" o \"exit\".")
			continue
		}
		if input == "q" || input == "exit" {
			fmt.Fprintln(out, "Hasta luego.")
			break
		}

		streamed := false
		resp, err := r.RespondStream(ctx, sess, input,
			func(_ context.Context, chunk *ai.ModelResponseChunk) error {
				streamed = true
				fmt.Fprint(out, chunk.Text())
				return nil
			})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, assistant.ErrCircuitOpen) {
				errLine.Fprintln(out, "El modelo no está disponible en este momento. Intenta de nuevo en unos segundos.")
			} else {
				errLine.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		// Fallback answers never stream; print them whole.
		if !streamed {
			fmt.Fprint(out, resp.FinalText)
		}
		fmt.Fprintln(out)
		if resp.Degraded {
			warnLine.Fprintln(out, "(aviso: la base de conocimiento no estuvo disponible en esta respuesta)")
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
