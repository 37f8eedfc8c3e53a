package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"polyglot-agent/gateway"
	"polyglot-agent/registry"
	"polyglot-agent/taskflow"
)

const chatUsage = `Usage:
  polyglot-agent chat --config <path> [--model <key>] [--verbose]

Flags:
  --config  string   Path to YAML configuration file (required)
  --model   string   Endpoint key to converse with (default from config)
  --verbose          Print the reasoning trace after each turn`

func chat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, chatUsage)
	}

	var cfgPath, modelKey string
	var verbose bool
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.StringVar(&modelKey, "model", "", "endpoint key")
	fs.BoolVar(&verbose, "verbose", false, "print reasoning trace")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse chat flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("chat command requires --config <path>")
	}

	reg, _, err := registry.Load(cfgPath)
	if err != nil {
		return err
	}

	if modelKey == "" {
		modelKey = reg.DefaultModel()
	}
	ep, ok := reg.GetEndpoint(modelKey)
	if !ok {
		return fmt.Errorf("unknown model %q; run 'polyglot-agent models' to list endpoints", modelKey)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	gw := gateway.New(gateway.WithLogger(logger))
	eng := taskflow.NewEngine(gw, ep,
		taskflow.WithToolSet(buildToolSet()),
		taskflow.WithEngineLogger(logger),
	)

	sessionID := uuid.New().String()
	fmt.Printf("Chatting with %s. Type 'exit' to quit, 'clear' to reset the session.\n\n", modelKey)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			eng.Clear(sessionID)
			fmt.Println("session cleared")
			continue
		}

		reply, err := eng.Chat(ctx, line, sessionID)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n\n", reply)

		if verbose {
			for _, step := range eng.GetReasoningTrace(sessionID) {
				fmt.Fprintf(os.Stderr, "  trace: %s\n", step)
			}
		}
	}
}
