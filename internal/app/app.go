package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/vk/amberflow/internal/engine"
	"github.com/vk/amberflow/internal/pipeline"
)

// App encapsulates the workflow driver's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	runner pipeline.Runner

	// Environment probes, overridable in tests.
	Getenv engine.GetenvFunc
	Stat   engine.StatFunc
}

// NewApp is the constructor for the driver. The runner performs all external
// process work; production code passes pipeline.NewExecRunner().
func NewApp(outW io.Writer, cfg *Config, runner pipeline.Runner) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		runner: runner,
		Getenv: os.Getenv,
		Stat:   os.Stat,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
