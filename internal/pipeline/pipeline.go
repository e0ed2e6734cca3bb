// Package pipeline runs the fixed simulation stage chain. Stages are plain
// descriptors consumed by one generic run-until-failure loop: each stage
// invokes exactly one external process, then its expected output files are
// checked before the next stage may start. There is no retry, no rollback,
// and no cleanup of earlier artifacts on failure.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/amberflow/internal/ctxlog"
)

// Stage describes one link of the chain. Outputs are paths relative to the
// run directory; a missing or empty output after a zero exit is still a
// stage failure. Prepare, when set, runs immediately before the process is
// invoked (the preparation stage uses it to write its tleap script).
type Stage struct {
	Name    string
	Desc    string
	Command string
	Args    []string
	LogFile string
	Outputs []string
	Prepare func(dir string) error
}

// StageError reports which stage failed and where the external tool's own
// log lives, for the operator's post-mortem.
type StageError struct {
	Stage   string
	LogPath string
	Err     error
}

func (e *StageError) Error() string {
	if e.LogPath != "" {
		return fmt.Sprintf("stage %s failed: %v (see %s)", e.Stage, e.Err, e.LogPath)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Sequencer drives the stage chain inside one run directory.
type Sequencer struct {
	dir    string
	runner Runner
	stages []Stage
}

// NewSequencer builds a sequencer over an ordered stage list.
func NewSequencer(dir string, runner Runner, stages []Stage) *Sequencer {
	return &Sequencer{dir: dir, runner: runner, stages: stages}
}

// Plan returns the ordered stage names, as reported in dry-run mode.
func (s *Sequencer) Plan() []string {
	names := make([]string, len(s.stages))
	for i, st := range s.stages {
		names[i] = st.Name
	}
	return names
}

// Run executes the stages in order, halting at the first failure. The
// returned error is always a *StageError identifying the failed stage.
func (s *Sequencer) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for i, stage := range s.stages {
		stageLogger := logger.With("stage", stage.Name)
		stageLogger.Info("▶️ Starting stage.", "position", fmt.Sprintf("%d/%d", i+1, len(s.stages)), "desc", stage.Desc)
		start := time.Now()

		if stage.Prepare != nil {
			if err := stage.Prepare(s.dir); err != nil {
				return &StageError{Stage: stage.Name, Err: err}
			}
		}

		err := s.runner.Run(ctx, Command{
			Dir:     s.dir,
			LogPath: stage.LogFile,
			Name:    stage.Command,
			Args:    stage.Args,
		})
		logPath := ""
		if stage.LogFile != "" {
			logPath = filepath.Join(s.dir, stage.LogFile)
		}
		if err != nil {
			return &StageError{Stage: stage.Name, LogPath: logPath, Err: err}
		}

		if err := s.checkOutputs(stage); err != nil {
			return &StageError{Stage: stage.Name, LogPath: logPath, Err: err}
		}

		stageLogger.Info("✅ Stage finished.", "duration", time.Since(start).Round(time.Millisecond))
	}
	logger.Info("🏁 All stages finished.")
	return nil
}

// checkOutputs verifies every expected output exists and is non-empty.
func (s *Sequencer) checkOutputs(stage Stage) error {
	for _, out := range stage.Outputs {
		path := filepath.Join(s.dir, out)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("expected output %s is missing", out)
		}
		if info.Size() == 0 {
			return fmt.Errorf("expected output %s is empty", out)
		}
	}
	return nil
}
