// Package cli translates command-line arguments into a validated app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/amberflow/internal/app"
	"github.com/vk/amberflow/internal/forcefield"
	"github.com/vk/amberflow/internal/jobfile"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a validated Config, a
// boolean indicating the program should exit cleanly (help requested), or an
// ExitError. Every error path is reached before any file is created.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("amberflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
amberflow - drive an Amber MD workflow from a PDB structure to production.

Usage:
  amberflow [options] <structure.pdb>

Stages: tleap preparation, restrained and unrestrained minimization,
heating, NPT equilibration, NPT production. The chain halts at the first
stage that fails or does not produce its documented output.

Options:
`)
		flagSet.PrintDefaults()
	}

	nameFlag := flagSet.String("name", "", "job name (default: structure file basename)")
	nsFlag := flagSet.Int("ns", 100, "production length in nanoseconds")
	tempFlag := flagSet.Float64("temp", 300.0, "target temperature in Kelvin")
	paddingFlag := flagSet.Float64("padding", 12.0, "solvent box padding in Angstrom")
	saltFlag := flagSet.Float64("salt", 0.15, "salt concentration in mol/L")
	ffFlag := flagSet.String("ff", "ff14SB", "force field, one of: "+strings.Join(forcefield.ForceFieldNames(), ", "))
	waterFlag := flagSet.String("water", "tip3p", "water model, one of: "+strings.Join(forcefield.WaterModelNames(), ", "))
	cpuFlag := flagSet.Bool("cpu", false, "never select the GPU engine")
	dryRunFlag := flagSet.Bool("dry-run", false, "write control files, report the stage plan, and exit")
	outFlag := flagSet.String("out", "", "output directory (default: <name>_md)")
	jobFlag := flagSet.String("job", "", "HCL job file; explicit flags override its values")
	logFormatFlag := flagSet.String("log-format", "text", "log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 1, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 1, Message: "missing required <structure.pdb> argument"}
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 1, Message: fmt.Sprintf("unexpected extra arguments: %v", flagSet.Args()[1:])}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 1, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 1, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := app.Config{
		StructurePath: flagSet.Arg(0),
		JobName:       *nameFlag,
		Nanoseconds:   *nsFlag,
		TemperatureK:  *tempFlag,
		PaddingA:      *paddingFlag,
		SaltMolarity:  *saltFlag,
		ForceField:    *ffFlag,
		WaterModel:    *waterFlag,
		CPUOnly:       *cpuFlag,
		DryRun:        *dryRunFlag,
		OutputDir:     *outFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}

	if *jobFlag != "" {
		job, err := jobfile.Load(*jobFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 1, Message: err.Error()}
		}
		explicit := make(map[string]bool)
		flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := job.Apply(&cfg, explicit); err != nil {
			return nil, false, &ExitError{Code: 1, Message: err.Error()}
		}
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 1, Message: err.Error()}
	}
	return validated, false, nil
}
