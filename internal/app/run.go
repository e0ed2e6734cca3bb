package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vk/amberflow/internal/ctxlog"
	"github.com/vk/amberflow/internal/engine"
	"github.com/vk/amberflow/internal/forcefield"
	"github.com/vk/amberflow/internal/mdin"
	"github.com/vk/amberflow/internal/pipeline"
	"github.com/vk/amberflow/internal/tleap"
)

// Run executes the driver lifecycle: prerequisite checks, engine selection,
// control-file generation, then the stage chain (or the dry-run plan).
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.cfg

	// Already validated by NewConfig; resolving again cannot fail.
	ff, err := forcefield.ResolveForceField(cfg.ForceField)
	if err != nil {
		return err
	}
	water, err := forcefield.ResolveWaterModel(cfg.WaterModel)
	if err != nil {
		return err
	}

	activation, err := engine.FindActivation(a.Getenv, a.Stat)
	if err != nil {
		return err
	}
	a.logger.Info("Amber environment found.", "activation", activation)

	sel := engine.Select(ctx, a.runner.LookPath, cfg.CPUOnly)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	params := mdin.Params{TemperatureK: cfg.TemperatureK, Nanoseconds: cfg.Nanoseconds}
	if _, err := mdin.WriteAll(cfg.OutputDir, params); err != nil {
		return err
	}
	a.logger.Info("Control files written.", "dir", cfg.OutputDir, "production_steps", mdin.ProductionSteps(cfg.Nanoseconds))

	seq := pipeline.NewSequencer(cfg.OutputDir, a.runner, a.buildStages(ff, water, sel))

	if cfg.DryRun {
		a.logger.Info("Dry run requested; no external process will be invoked.", "plan", seq.Plan())
		return nil
	}

	return seq.Run(ctx)
}

// buildStages assembles the fixed PREP → MIN1 → MIN2 → HEAT → EQUIL → PROD
// chain. Every simulation stage reads the previous stage's restart file as
// its input coordinates; the restrained stages reference it for -ref too.
func (a *App) buildStages(ff forcefield.ForceField, water forcefield.WaterModel, sel engine.Selection) []pipeline.Stage {
	cfg := a.cfg
	prmtop := cfg.JobName + ".prmtop"
	initial := cfg.JobName + ".rst7"

	prep := pipeline.Stage{
		Name:    "PREP",
		Desc:    "build topology and solvated coordinates with tleap",
		Command: "tleap",
		Args:    []string{"-f", tleap.ScriptName},
		LogFile: "tleap.out",
		Outputs: []string{prmtop, initial},
		Prepare: func(dir string) error {
			_, err := tleap.WriteScript(dir, tleap.Params{
				JobName:       cfg.JobName,
				StructurePath: cfg.StructurePath,
				ForceField:    ff,
				WaterModel:    water,
				PaddingA:      cfg.PaddingA,
				SaltMolarity:  cfg.SaltMolarity,
			})
			return err
		},
	}

	md := func(name, desc, incrd string, restrained, trajectory bool) pipeline.Stage {
		args := []string{
			"-O",
			"-i", name + ".in",
			"-o", name + ".out",
			"-p", prmtop,
			"-c", incrd,
			"-r", name + ".rst7",
		}
		if restrained {
			args = append(args, "-ref", incrd)
		}
		if trajectory {
			args = append(args, "-x", name+".nc")
		}
		return pipeline.Stage{
			Name:    strings.ToUpper(name),
			Desc:    desc,
			Command: sel.Binary,
			Args:    args,
			LogFile: name + ".log",
			Outputs: []string{name + ".rst7"},
		}
	}

	return []pipeline.Stage{
		prep,
		md("min1", "restrained minimization", initial, true, false),
		md("min2", "unrestrained minimization", "min1.rst7", false, false),
		md("heat", "NVT heating ramp", "min2.rst7", true, true),
		md("equil", "NPT equilibration", "heat.rst7", false, true),
		md("prod", "NPT production", "equil.rst7", false, true),
	}
}
