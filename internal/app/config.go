package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/amberflow/internal/forcefield"
)

// Config holds the fully resolved parameters of one driver run.
type Config struct {
	StructurePath string // absolute after NewConfig
	JobName       string
	Nanoseconds   int
	TemperatureK  float64
	PaddingA      float64
	SaltMolarity  float64
	ForceField    string
	WaterModel    string
	CPUOnly       bool
	DryRun        bool
	OutputDir     string // absolute after NewConfig

	LogFormat string
	LogLevel  string
}

// NewConfig validates a raw configuration and fills in the derived defaults.
// Validation happens before any directory or file is created, so every error
// it returns leaves the filesystem untouched.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.StructurePath == "" {
		return nil, errors.New("a structure file is required")
	}

	absStructure, err := filepath.Abs(cfg.StructurePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve structure path: %w", err)
	}
	info, err := os.Stat(absStructure)
	if err != nil {
		return nil, fmt.Errorf("structure file %s does not exist", cfg.StructurePath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("structure path %s is a directory, not a file", cfg.StructurePath)
	}
	cfg.StructurePath = absStructure

	if cfg.JobName == "" {
		base := filepath.Base(absStructure)
		cfg.JobName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if cfg.Nanoseconds <= 0 {
		return nil, fmt.Errorf("simulation length must be a positive nanosecond count, got %d", cfg.Nanoseconds)
	}
	if cfg.TemperatureK <= 0 {
		return nil, fmt.Errorf("temperature must be positive, got %g", cfg.TemperatureK)
	}
	if cfg.PaddingA <= 0 {
		return nil, fmt.Errorf("solvent box padding must be positive, got %g", cfg.PaddingA)
	}
	if cfg.SaltMolarity < 0 {
		return nil, fmt.Errorf("salt concentration cannot be negative, got %g", cfg.SaltMolarity)
	}

	// Closed-set validation; both resolvers enumerate valid names on failure.
	if _, err := forcefield.ResolveForceField(cfg.ForceField); err != nil {
		return nil, err
	}
	if _, err := forcefield.ResolveWaterModel(cfg.WaterModel); err != nil {
		return nil, err
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.JobName + "_md"
	}
	absOut, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	cfg.OutputDir = absOut

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}
