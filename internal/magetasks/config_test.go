package magetasks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_CreatesBinDir(t *testing.T) {
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	tmpDir := t.TempDir()
	require.NoError(t, os.Chdir(tmpDir))

	require.NoError(t, Initialize())

	assert.DirExists(t, filepath.Join(tmpDir, "bin"))
	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	assert.Equal(t, expectedRoot, actualRoot)
}

func TestBinaries_BuildBothCommands(t *testing.T) {
	var pkgs []string
	for _, b := range Binaries {
		pkgs = append(pkgs, b.Package)
	}
	assert.Equal(t, []string{"./cmd/structra", "./cmd/example"}, pkgs)
	assert.Equal(t, filepath.Join("bin", "structra"), BinPath("structra"))
}

func TestLDFlags_TargetVersionPackage(t *testing.T) {
	flags := LDFlags("v1.2.0", "abc123", "2026-01-01T00:00:00Z")

	for _, want := range []string{
		"github.com/structra/assignment/internal/version.Version=v1.2.0",
		"github.com/structra/assignment/internal/version.CommitHash=abc123",
		"github.com/structra/assignment/internal/version.BuildDate=2026-01-01T00:00:00Z",
	} {
		assert.True(t, strings.Contains(flags, want), want)
	}
}
