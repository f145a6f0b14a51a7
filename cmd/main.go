package main

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/desertthunder/qbx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "qbx",
		Usage:    "Manage Qobuz playlists and favorites from declarative text documents",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
