package cmd

import (
	"context"
	"fmt"
	"strings"
)

const usage = `polyglot-agent routes conversational turns across heterogeneous
model endpoints and orchestrates multi-step research tasks.

Usage:
  polyglot-agent serve [flags]
  polyglot-agent chat  [flags]
  polyglot-agent models [flags]

Commands:
  serve    Start the HTTP server
  chat     Interactive terminal conversation
  models   List configured model endpoints

Flags:
  -h, --help  Show this help message`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "chat":
		return chat(ctx, args[1:])
	case "models":
		return models(ctx, args[1:])
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage() error {
	fmt.Println(strings.TrimSpace(usage))
	return nil
}
