// Package cmd contains the CLI entry point and command routing.
//
// Following the pattern of kubectl and hugo, all application logic lives
// here; main.go stays a minimal shim.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kineticguard/kinetic/internal/config"
	"github.com/kineticguard/kinetic/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the kinetic CLI.
func Execute(args []string) error {
	// version/help work even when configuration is broken
	command := "chat"
	var rest []string
	if len(args) > 1 {
		command = args[1]
		rest = args[2:]
	}

	switch command {
	case "version", "--version", "-v":
		return printVersionInfo()
	case "help", "--help", "-h":
		printHelp()
		return nil
	case "chat", "ask", "eval", "index", "seed":
		// handled below, after initialization
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", command)
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "chat":
		if err := checkRequiredEnv(cfg); err != nil {
			return err
		}
		return runChat(ctx, cfg, logger)
	case "ask":
		if err := checkRequiredEnv(cfg); err != nil {
			return err
		}
		return runAsk(ctx, cfg, logger, rest)
	case "eval":
		if err := checkRequiredEnv(cfg); err != nil {
			return err
		}
		return runEval(ctx, cfg, logger, rest)
	case "index":
		if err := checkRequiredEnv(cfg); err != nil {
			return err
		}
		return runIndex(ctx, cfg, logger, rest)
	case "seed":
		// Seeding only touches PostgreSQL; no model API key needed.
		return runSeed(ctx, cfg, logger, rest)
	}
	return nil
}

// initLogger initializes the structured logger.
// DEBUG env var (any value) enables debug level. Logs go to stderr so
// answers on stdout stay pipeable.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, log.Config{Level: level})
}

// checkRequiredEnv verifies the model API key for the configured provider.
func checkRequiredEnv(cfg *config.Config) error {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY environment variable not set")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "  export OPENAI_API_KEY=your-api-key")
			return fmt.Errorf("%w: OPENAI_API_KEY not set", config.ErrMissingAPIKey)
		}
	case config.ProviderOllama:
		// Local server, no key.
	default: // gemini
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "kinetic requires a Gemini API key to answer questions.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
			return fmt.Errorf("%w: GEMINI_API_KEY not set", config.ErrMissingAPIKey)
		}
	}
	return nil
}

func printVersionInfo() error {
	fmt.Printf("kinetic v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
	return nil
}

func printHelp() {
	fmt.Println("kinetic - asistente de fuerza y acondicionamiento para entrenadores")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kinetic                     Start interactive chat (default)")
	fmt.Println("  kinetic ask \"<question>\"    One-shot question")
	fmt.Println("  kinetic eval --file <queries.json> [--out <dir>] [--parallel <n>]")
	fmt.Println("                              Replay queries and write a JSON report")
	fmt.Println("  kinetic index <dir>         Clean, chunk, embed and index guideline texts")
	fmt.Println("  kinetic seed                Seed the athlete metrics table with demo data")
	fmt.Println("  kinetic version             Show version information")
	fmt.Println("  kinetic help                Show this help")
	fmt.Println()
	fmt.Println("Interactive commands:")
	fmt.Println("  q, exit                     Leave the chat")
	fmt.Println("  Ctrl+D                      Leave the chat")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  GEMINI_API_KEY              Required for the default provider")
	fmt.Println("  DEBUG                       Enable debug logging")
}
