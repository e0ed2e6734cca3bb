package rebuild_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/amberflow/internal/ctxlog"
	"github.com/vk/amberflow/internal/pipeline"
	"github.com/vk/amberflow/internal/rebuild"
	"github.com/vk/amberflow/internal/testutil"
)

// fakePrefix lays out a minimal prior Amber installation: a build tree with
// CMake state and an install bin directory.
func fakePrefix(t *testing.T) string {
	t.Helper()
	prefix := t.TempDir()
	buildDir := filepath.Join(prefix, "build")
	require.NoError(t, os.MkdirAll(filepath.Join(buildDir, "CMakeFiles"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "CMakeCache.txt"), []byte("stale"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "bin"), 0755))
	return prefix
}

func stubEnv(prefix string) func(string) string {
	return func(key string) string {
		if key == "AMBERHOME" {
			return prefix
		}
		return ""
	}
}

func testContext(buf *testutil.SafeBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestRunFailsWithoutToolchain(t *testing.T) {
	prefix := fakePrefix(t)
	runner := testutil.NewFakeRunner() // no nvcc
	logBuf := &testutil.SafeBuffer{}
	out := &testutil.SafeBuffer{}

	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 8 }, out)
	err := tool.Run(testContext(logBuf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA compiler toolchain not found")

	// Nothing was invoked and the build tree was not touched.
	assert.Empty(t, runner.Commands)
	_, statErr := os.Stat(filepath.Join(prefix, "build", "CMakeCache.txt"))
	assert.NoError(t, statErr)
}

func TestRunFailsWithoutBuildTree(t *testing.T) {
	prefix := t.TempDir() // no build/ dir
	runner := testutil.NewFakeRunner("nvcc")
	out := &testutil.SafeBuffer{}

	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 8 }, out)
	err := tool.Run(testContext(&testutil.SafeBuffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no existing build tree")
	assert.Empty(t, runner.Commands)
}

func TestRunFailsWithoutAnyPrefix(t *testing.T) {
	runner := testutil.NewFakeRunner("nvcc")
	tool := rebuild.New(runner, func(string) string { return "" }, func() int { return 8 }, &testutil.SafeBuffer{})
	err := tool.Run(testContext(&testutil.SafeBuffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither AMBERHOME nor CONDA_PREFIX")
}

func TestRunHappyPath(t *testing.T) {
	prefix := fakePrefix(t)
	runner := testutil.NewFakeRunner("nvcc")
	runner.OnRun = func(cmd pipeline.Command) error {
		if cmd.Name == "make" {
			// Simulate the install producing the GPU binaries.
			for _, bin := range []string{"pmemd.cuda", "pmemd.cuda_SPFP"} {
				if err := os.WriteFile(filepath.Join(prefix, "bin", bin), []byte("x"), 0755); err != nil {
					return err
				}
			}
		}
		return nil
	}
	out := &testutil.SafeBuffer{}

	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 8 }, out)
	require.NoError(t, tool.Run(testContext(&testutil.SafeBuffer{})))

	require.Equal(t, []string{"cmake", "make"}, runner.CommandNames())

	cmake := runner.Commands[0]
	assert.Equal(t, filepath.Join(prefix, "build"), cmake.Dir)
	joined := strings.Join(cmake.Args, " ")
	assert.Contains(t, joined, "-DCUDA=TRUE")
	assert.Contains(t, joined, "-DBLAS_LIBRARIES="+filepath.Join(prefix, "lib", "libopenblas.so"))
	assert.Contains(t, joined, "-DNetCDF_LIBRARIES_F90="+filepath.Join(prefix, "lib", "libnetcdff.so"))
	assert.Contains(t, joined, "-DMPI_Fortran_COMPILER="+filepath.Join(prefix, "bin", "mpif90"))

	make := runner.Commands[1]
	assert.Equal(t, []string{"install", "-j", "8"}, make.Args)
	assert.Contains(t, make.Env, "AMBERHOME="+prefix)

	// Prior CMake state was wiped before configuring.
	_, err := os.Stat(filepath.Join(prefix, "build", "CMakeCache.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(prefix, "build", "CMakeFiles"))
	assert.True(t, os.IsNotExist(err))

	// No warning on the happy path.
	assert.NotContains(t, out.String(), "warning")
}

func TestRunDefaultsParallelismWhenDetectionFails(t *testing.T) {
	prefix := fakePrefix(t)
	runner := testutil.NewFakeRunner("nvcc")
	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 0 }, &testutil.SafeBuffer{})
	require.NoError(t, tool.Run(testContext(&testutil.SafeBuffer{})))

	make := runner.Commands[1]
	assert.Equal(t, []string{"install", "-j", "4"}, make.Args)
}

func TestRunWarnsOnMissingGPUBinaries(t *testing.T) {
	prefix := fakePrefix(t)
	runner := testutil.NewFakeRunner("nvcc") // install "succeeds" but writes nothing
	out := &testutil.SafeBuffer{}

	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 8 }, out)
	err := tool.Run(testContext(&testutil.SafeBuffer{}))

	// Warning only: install exiting zero is the authoritative signal.
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pmemd.cuda")
}

func TestRunFailsWhenConfigureFails(t *testing.T) {
	prefix := fakePrefix(t)
	runner := testutil.NewFakeRunner("nvcc")
	runner.FailOn["cmake"] = os.ErrPermission

	tool := rebuild.New(runner, stubEnv(prefix), func() int { return 8 }, &testutil.SafeBuffer{})
	err := tool.Run(testContext(&testutil.SafeBuffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration failed")
	assert.Equal(t, []string{"cmake"}, runner.CommandNames())
}
