package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/versiontracker/internal/app"
	"github.com/jgivc/versiontracker/internal/config"
	"github.com/mattn/go-isatty"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	outputDir := flag.String("o", "", "Output directory for all data files, overrides config")
	flag.Parse()

	cfg := config.MustLoad(*cfgFileName)
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.New(cfg, app.NewLogger(cfg.LogLevel)).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot update versions: %s\n", err)
		stop()
		os.Exit(1)
	}

	switch res.Outcome {
	case app.OutcomeUnchanged:
		fmt.Printf("Previous version %s is the same, not going to fetch versions\n", res.Previous)
	case app.OutcomeChanged:
		fmt.Print(app.Summary(res, isatty.IsTerminal(os.Stdout.Fd())))
		fmt.Printf("Finished writing versions %s\n", res.Fingerprint)
	}
}
