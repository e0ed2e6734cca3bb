// Package testutil provides shared test doubles: a thread-safe log buffer
// and a scriptable fake process runner.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/amberflow/internal/pipeline"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// FakeRunner records every command instead of executing it. Available maps
// executable names to fake paths for LookPath. FailOn maps a command name to
// the error its invocation returns. OnRun, when set, runs for each command
// and can fabricate the output files a stage is expected to produce.
type FakeRunner struct {
	mu        sync.Mutex
	Available map[string]string
	FailOn    map[string]error
	OnRun     func(cmd pipeline.Command) error
	Commands  []pipeline.Command
}

// NewFakeRunner returns a FakeRunner with the given executables available.
func NewFakeRunner(available ...string) *FakeRunner {
	m := make(map[string]string, len(available))
	for _, name := range available {
		m[name] = filepath.Join("/fake/bin", name)
	}
	return &FakeRunner{Available: m, FailOn: make(map[string]error)}
}

// LookPath implements pipeline.Runner.
func (r *FakeRunner) LookPath(file string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path, ok := r.Available[file]; ok {
		return path, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

// Run implements pipeline.Runner.
func (r *FakeRunner) Run(ctx context.Context, cmd pipeline.Command) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	failErr := r.FailOn[cmd.Name]
	onRun := r.OnRun
	r.mu.Unlock()

	if failErr != nil {
		return failErr
	}
	if onRun != nil {
		return onRun(cmd)
	}
	return nil
}

// CommandNames returns the names of all recorded commands, in order.
func (r *FakeRunner) CommandNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		names[i] = c.Name
	}
	return names
}

// TouchOutputs returns an OnRun hook that creates the given files (relative
// to the command directory) with placeholder contents, simulating a stage
// that produced its documented outputs.
func TouchOutputs(files ...string) func(cmd pipeline.Command) error {
	return func(cmd pipeline.Command) error {
		for _, f := range files {
			path := filepath.Join(cmd.Dir, f)
			if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
				return err
			}
		}
		return nil
	}
}
