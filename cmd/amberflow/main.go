package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gookit/color"

	"github.com/vk/amberflow/internal/app"
	"github.com/vk/amberflow/internal/cli"
	"github.com/vk/amberflow/internal/pipeline"
)

// main is the entrypoint for the amberflow workflow driver.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		if exitErr, ok := err.(*cli.ExitError); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	driver := app.NewApp(outW, cfg, pipeline.NewExecRunner())
	return driver.Run(context.Background())
}
