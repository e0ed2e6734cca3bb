package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/gookit/color"

	"github.com/vk/amberflow/internal/ctxlog"
	"github.com/vk/amberflow/internal/pipeline"
	"github.com/vk/amberflow/internal/rebuild"
)

// main is the entrypoint for the amberrebuild reconfigurator. It takes no
// flags: everything it needs is probed from the environment.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	tool := rebuild.New(pipeline.NewExecRunner(), os.Getenv, runtime.NumCPU, os.Stderr)
	if err := tool.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		os.Exit(1)
	}
}
