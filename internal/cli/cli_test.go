package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStructure(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protein.pdb")
	require.NoError(t, os.WriteFile(path, []byte("ATOM\nEND\n"), 0644))
	return path
}

func TestParseDefaults(t *testing.T) {
	structure := writeStructure(t)
	var out bytes.Buffer

	cfg, exit, err := Parse([]string{structure}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "protein", cfg.JobName)
	assert.Equal(t, 100, cfg.Nanoseconds)
	assert.Equal(t, 300.0, cfg.TemperatureK)
	assert.Equal(t, 12.0, cfg.PaddingA)
	assert.Equal(t, 0.15, cfg.SaltMolarity)
	assert.Equal(t, "ff14SB", cfg.ForceField)
	assert.Equal(t, "tip3p", cfg.WaterModel)
	assert.False(t, cfg.CPUOnly)
	assert.False(t, cfg.DryRun)
	assert.True(t, filepath.IsAbs(cfg.StructurePath))
	assert.True(t, filepath.IsAbs(cfg.OutputDir))
	assert.Equal(t, "protein_md", filepath.Base(cfg.OutputDir))
}

func TestParseMissingStructureArgument(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse(nil, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseNonexistentStructure(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"/no/such/file.pdb"}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, "does not exist")
}

func TestParseUnsupportedForceField(t *testing.T) {
	structure := writeStructure(t)
	var out bytes.Buffer
	_, _, err := Parse([]string{"-ff", "ff99", structure}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, `unsupported force field "ff99"`)
	assert.Contains(t, exitErr.Message, "ff14SB, ff19SB")
}

func TestParseUnknownFlag(t *testing.T) {
	structure := writeStructure(t)
	var out bytes.Buffer
	_, _, err := Parse([]string{"-bogus", structure}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestParseHelp(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}

func TestParseJobFileMerge(t *testing.T) {
	structure := writeStructure(t)
	jobPath := filepath.Join(t.TempDir(), "job.hcl")
	require.NoError(t, os.WriteFile(jobPath, []byte(`
job {
  nanoseconds = 500
  temperature = 310
  water_model = "opc"
}
`), 0644))

	var out bytes.Buffer
	// -ns on the command line must beat the job file; temperature and
	// water_model come from the file.
	cfg, _, err := Parse([]string{"-ns", "10", "-job", jobPath, structure}, &out)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Nanoseconds)
	assert.Equal(t, 310.0, cfg.TemperatureK)
	assert.Equal(t, "opc", cfg.WaterModel)
}

func TestParseRejectsBadJobFile(t *testing.T) {
	structure := writeStructure(t)
	jobPath := filepath.Join(t.TempDir(), "job.hcl")
	require.NoError(t, os.WriteFile(jobPath, []byte(`job { bogus = 1 }`), 0644))

	var out bytes.Buffer
	_, _, err := Parse([]string{"-job", jobPath, structure}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, "unsupported job attribute")
}

func TestParseInvalidLogLevel(t *testing.T) {
	structure := writeStructure(t)
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-level", "loud", structure}, &out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-level")
}
