package magetasks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// LDFlags returns the linker flags stamping version information into
// internal/version.
func LDFlags(version, commit, date string) string {
	return fmt.Sprintf("-s -w -X '%s/internal/version.Version=%s' -X '%s/internal/version.CommitHash=%s' -X '%s/internal/version.BuildDate=%s'",
		ModulePath, version, ModulePath, commit, ModulePath, date)
}

// BuildAll builds all binaries
func BuildAll() error {
	PrintH2Header("Build")

	ldflags := LDFlags(getGitVersion(), getGitCommit(), time.Now().UTC().Format(time.RFC3339))

	for _, bin := range Binaries {
		out := BinPath(bin.Name)
		if err := Run("Build "+bin.Name, "go", "build", "-ldflags", ldflags, "-o", out, bin.Package); err != nil {
			PrintError("Build failed: " + bin.Name)
			return err
		}
		PrintSuccess(fmt.Sprintf("Built: %s", out))
	}
	return nil
}

// Clean removes build artifacts
func Clean() error {
	PrintH2Header("Clean")

	for _, dir := range []string{BinDir, "out"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	_ = exec.CommandContext(context.Background(), "go", "clean", "-cache").Run()

	PrintSuccess("Cleaned build artifacts")
	return nil
}

func getGitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty", "--match=v*").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func getGitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
