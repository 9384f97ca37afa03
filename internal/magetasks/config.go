package magetasks

import (
	"os"
	"path/filepath"
)

// Binary is a main package built by BuildAll.
type Binary struct {
	Name    string
	Package string
}

var (
	// ModulePath is the Go module path.
	ModulePath = "github.com/structra/assignment"

	// BinDir receives the built binaries.
	BinDir = "./bin"

	// Binaries lists the main packages built by BuildAll.
	Binaries = []Binary{
		{Name: "structra", Package: "./cmd/structra"},
		{Name: "example", Package: "./cmd/example"},
	}

	// ProjectRoot is the root directory of the project.
	ProjectRoot string
)

// BinPath returns the output path of the named binary.
func BinPath(name string) string {
	return filepath.Join(BinDir, name)
}

// Initialize sets up the magetasks package.
// Call this from the Magefile init() function.
func Initialize() error {
	var err error
	ProjectRoot, err = os.Getwd()
	if err != nil {
		return err
	}

	// Ensure bin directory exists
	return os.MkdirAll(filepath.Join(ProjectRoot, "bin"), 0o750)
}
