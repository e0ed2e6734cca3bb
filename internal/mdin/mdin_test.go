package mdin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionSteps(t *testing.T) {
	assert.Equal(t, 5000000, ProductionSteps(10))
	assert.Equal(t, 50000000, ProductionSteps(100))
	assert.Equal(t, 500000, ProductionSteps(1))
}

func TestFilesRendersFiveStagesInOrder(t *testing.T) {
	files := Files(Params{TemperatureK: 300, Nanoseconds: 10})
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"min1.in", "min2.in", "heat.in", "equil.in", "prod.in"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("stage file order mismatch (-want +got):\n%s", diff)
	}
}

func TestTemperatureSubstitution(t *testing.T) {
	files := Files(Params{TemperatureK: 310, Nanoseconds: 10})
	byName := make(map[string]string)
	for _, f := range files {
		byName[f.Name] = f.Contents
	}

	assert.Contains(t, byName["heat.in"], "temp0=310.00")
	assert.Contains(t, byName["equil.in"], "temp0=310.00")
	assert.Contains(t, byName["prod.in"], "temp0=310.00")

	// The heating ramp targets the same temperature.
	assert.Contains(t, byName["heat.in"], "value2=310.00")
}

func TestProductionHasNoRestraint(t *testing.T) {
	files := Files(Params{TemperatureK: 300, Nanoseconds: 25})
	prod := files[4]
	require.Equal(t, "prod.in", prod.Name)
	assert.Contains(t, prod.Contents, "ntr=0")
	assert.NotContains(t, prod.Contents, "ntr=1")
	assert.Contains(t, prod.Contents, "nstlim=12500000")
}

func TestRestrainedStagesCarryTheMask(t *testing.T) {
	files := Files(Params{TemperatureK: 300, Nanoseconds: 1})
	assert.Contains(t, files[0].Contents, "ntr=1")
	assert.Contains(t, files[0].Contents, "restraintmask")
	assert.Contains(t, files[2].Contents, "ntr=1")
	assert.NotContains(t, files[1].Contents, "ntr=1")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, Params{TemperatureK: 300, Nanoseconds: 10})
	require.NoError(t, err)
	require.Len(t, paths, 5)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	contents, err := os.ReadFile(filepath.Join(dir, "heat.in"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(contents), "temp0=300.00"))
}
