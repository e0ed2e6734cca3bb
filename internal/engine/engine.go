// Package engine selects which Amber simulation executable a run will use
// and probes the environment for the Amber installation itself. Selection is
// a priority-ordered availability check: the CUDA build when present and not
// disabled, then the optimized CPU build, then the universal sander fallback.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/amberflow/internal/ctxlog"
)

// Executable names probed in priority order.
const (
	GPUBinary      = "pmemd.cuda"
	CPUBinary      = "pmemd"
	FallbackBinary = "sander"
)

// LookPathFunc resolves an executable name to a full path, mirroring
// exec.LookPath. Tests substitute their own to stub availability.
type LookPathFunc func(file string) (string, error)

// Selection is the outcome of the executable probe.
type Selection struct {
	Binary   string
	Path     string
	GPU      bool
	Fallback bool
}

// Select probes for simulation executables in priority order. It never
// fails: sander is assumed present in any usable Amber installation, and a
// missing sander surfaces later as a stage failure with its own diagnostics.
func Select(ctx context.Context, lookPath LookPathFunc, cpuOnly bool) Selection {
	logger := ctxlog.FromContext(ctx)

	if !cpuOnly {
		if path, err := lookPath(GPUBinary); err == nil {
			logger.Info("Selected GPU simulation engine.", "binary", GPUBinary, "path", path)
			return Selection{Binary: GPUBinary, Path: path, GPU: true}
		}
		logger.Debug("GPU engine not found, falling back to CPU.", "binary", GPUBinary)
	}

	if path, err := lookPath(CPUBinary); err == nil {
		logger.Info("Selected CPU simulation engine.", "binary", CPUBinary, "path", path)
		return Selection{Binary: CPUBinary, Path: path}
	}

	path, _ := lookPath(FallbackBinary)
	logger.Warn("Neither pmemd.cuda nor pmemd found; using sander. Expect much slower runs.", "binary", FallbackBinary)
	return Selection{Binary: FallbackBinary, Path: path, Fallback: true}
}

// StatFunc reports on a file, mirroring os.Stat. Tests substitute their own.
type StatFunc func(name string) (os.FileInfo, error)

// GetenvFunc reads an environment variable, mirroring os.Getenv.
type GetenvFunc func(key string) string

// FindActivation locates the Amber environment activation script. It checks
// $AMBERHOME/amber.sh first, then $CONDA_PREFIX/amber.sh. A missing script is
// a prerequisite error: nothing has been written yet when it is reported.
func FindActivation(getenv GetenvFunc, stat StatFunc) (string, error) {
	var probed []string
	for _, prefix := range []string{getenv("AMBERHOME"), getenv("CONDA_PREFIX")} {
		if prefix == "" {
			continue
		}
		script := filepath.Join(prefix, "amber.sh")
		if info, err := stat(script); err == nil && !info.IsDir() {
			return script, nil
		}
		probed = append(probed, script)
	}
	if len(probed) == 0 {
		return "", fmt.Errorf("amber environment not found: neither AMBERHOME nor CONDA_PREFIX is set")
	}
	return "", fmt.Errorf("amber activation script not found (probed %v)", probed)
}
