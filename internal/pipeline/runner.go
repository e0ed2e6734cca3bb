package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Command describes one external process invocation. Env entries are
// appended to the inherited environment. LogPath, when set, receives the
// process's combined stdout and stderr so the tool's own log survives a
// failure.
type Command struct {
	Dir     string
	Env     []string
	LogPath string
	Name    string
	Args    []string
}

// Runner executes external processes and probes for executables. The
// concrete implementation wraps os/exec; tests substitute a fake.
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, cmd Command) error
}

// execRunner is the os/exec-backed Runner used outside of tests.
type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return &execRunner{}
}

func (r *execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *execRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	if cmd.LogPath != "" {
		logPath := cmd.LogPath
		if !filepath.IsAbs(logPath) {
			logPath = filepath.Join(cmd.Dir, logPath)
		}
		logFile, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("failed to create log file %s: %w", cmd.LogPath, err)
		}
		defer logFile.Close()
		c.Stdout = logFile
		c.Stderr = logFile
	}

	if err := c.Run(); err != nil {
		return fmt.Errorf("%s exited with an error: %w", cmd.Name, err)
	}
	return nil
}
