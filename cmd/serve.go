package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"polyglot-agent/gateway"
	"polyglot-agent/registry"
	"polyglot-agent/server"
	"polyglot-agent/taskflow"
	"polyglot-agent/tools"
)

const serveUsage = `Usage:
  polyglot-agent serve --config <path> [--port <port>]

Flags:
  --config string   Path to YAML configuration file (required)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("serve command requires --config <path>")
	}

	reg, cfg, err := registry.Load(cfgPath)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		port = overridePort
	}
	if port == 0 {
		port = 8080
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gw := gateway.New(gateway.WithLogger(logger))
	srv, err := server.New(reg, gw, port,
		server.WithToolSet(buildToolSet()),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// buildToolSet assembles the default collaborators. Tavily is only wired
// when a key is present in the environment; DuckDuckGo needs none and
// always serves as the fallback engine.
func buildToolSet() *taskflow.ToolSet {
	ts := &taskflow.ToolSet{Calculator: tools.Calculator{}}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		ts.Searchers = append(ts.Searchers, tools.TavilySearch{APIKey: key})
	}
	ts.Searchers = append(ts.Searchers, tools.DuckDuckGoSearch{})
	ts.Extras = append(ts.Extras, tools.StockInfo{})
	return ts
}
