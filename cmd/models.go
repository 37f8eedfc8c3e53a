package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"polyglot-agent/registry"
)

const modelsUsage = `Usage:
  polyglot-agent models --config <path>

Flags:
  --config string   Path to YAML configuration file (required)`

func models(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, modelsUsage)
	}

	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse models flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("models command requires --config <path>")
	}

	reg, cfg, err := registry.Load(cfgPath)
	if err != nil {
		return err
	}

	def := reg.DefaultModel()
	fmt.Printf("%-20s %-12s %-10s %s\n", "KEY", "VENDOR", "READY", "MODEL")
	for key, ec := range cfg.Endpoints {
		ready := "no"
		if reg.IsAvailable(key) {
			ready = "yes"
		}
		marker := ""
		if key == def {
			marker = " (default)"
		}
		fmt.Printf("%-20s %-12s %-10s %s%s\n", key, ec.Vendor, ready, ec.ModelID, marker)
	}
	return nil
}
