package classpath

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/structra/assignment/internal/failure"
)

// UnitKind tells the launcher how to start a resolved entry point.
type UnitKind int

const (
	// Native units are executables run directly.
	Native UnitKind = iota
	// JVM units are classes run by a Java launcher.
	JVM
)

func (k UnitKind) String() string {
	if k == JVM {
		return "jvm"
	}
	return "native"
}

// Unit is a resolved entry point.
type Unit struct {
	ID    string
	Kind  UnitKind
	Entry string // classpath entry that holds the unit
	Path  string // executable path for native units
}

// Resolve finds the executable unit named by the dotted identifier id.
// Entries are searched in order and the first hit wins; entries that do not
// exist are skipped.
func Resolve(entries []string, id string) (Unit, error) {
	rel, err := relPath(id)
	if err != nil {
		return Unit{}, failure.New(failure.KindEntryPointNotFound, "", err)
	}

	for _, entry := range entries {
		info, err := os.Stat(entry)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if u, ok := inDir(entry, rel, id); ok {
				return u, nil
			}
			continue
		}
		if isArchive(entry) && inArchive(entry, rel+".class") {
			return Unit{ID: id, Kind: JVM, Entry: entry}, nil
		}
	}

	return Unit{}, failure.New(failure.KindEntryPointNotFound, "",
		fmt.Errorf("%s does not resolve on a classpath of %d entries", id, len(entries)))
}

// relPath maps a.b.C to a/b/C.
func relPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty entry point identifier")
	}
	if strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid entry point identifier %q", id)
	}
	parts := strings.Split(id, ".")
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid entry point identifier %q", id)
		}
	}
	return strings.Join(parts, "/"), nil
}

func inDir(dir, rel, id string) (Unit, bool) {
	base := filepath.Join(dir, filepath.FromSlash(rel))

	native := base
	if runtime.GOOS == "windows" {
		native += ".exe"
	}
	if info, err := os.Stat(native); err == nil && info.Mode().IsRegular() && executable(info) {
		return Unit{ID: id, Kind: Native, Entry: dir, Path: native}, true
	}

	if info, err := os.Stat(base + ".class"); err == nil && info.Mode().IsRegular() {
		return Unit{ID: id, Kind: JVM, Entry: dir}, true
	}
	return Unit{}, false
}

func executable(info os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

func isArchive(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jar", ".zip":
		return true
	}
	return false
}

func inArchive(archive, name string) bool {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return false
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
