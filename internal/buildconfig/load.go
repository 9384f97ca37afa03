package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileNames lists the build file names searched in each directory, in
// order of preference.
var FileNames = []string{"structra.yaml", "structra.yml", "structra.toml", "structra.hcl"}

// ErrNotFound is returned by Find when no build file exists in the start
// directory or any of its parents.
var ErrNotFound = errors.New("no build file found")

// Default returns the reference configuration rooted at dir.
func Default(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir: %w", err)
	}
	return build(defaultDocument(), "", abs)
}

// Find looks for a build file in start and its parent directories.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or its parents", ErrNotFound, start)
		}
		dir = parent
	}
}

// Load reads and validates the build file at path. The project directory
// is the directory holding the file.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(abs) // #nosec G304 - build file path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("reading build file: %w", err)
	}
	return Parse(data, abs)
}

// Parse decodes data using the format implied by path's extension.
func Parse(data []byte, path string) (*Config, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	case ".hcl":
		d, err := decodeHCL(data, path, dir)
		if err != nil {
			return nil, err
		}
		doc = d
	default:
		return nil, fmt.Errorf("%w: unsupported build file format %q", ErrInvalidConfig, name)
	}

	return build(doc, path, dir)
}

// MarshalYAML renders c as a YAML build file.
func (c *Config) MarshalYAML() (any, error) {
	doc := document{
		Project: projectDoc{Group: c.group, Name: c.name, Version: c.version},
		Java:    javaDoc{Release: c.release},
		Test:    testDoc{Engine: c.testEngine},
	}
	for _, r := range c.repositories {
		doc.Repositories = append(doc.Repositories, repositoryDoc(r))
	}
	for _, d := range c.dependencies {
		doc.Dependencies = append(doc.Dependencies, dependencyDoc{
			Notation: d.Notation(), Scope: d.Scope.String(), Platform: d.Platform,
		})
	}
	doc.SourceSets = make(map[string]sourceSetDoc, len(c.sourceSets))
	for name, s := range c.sourceSets {
		doc.SourceSets[name] = sourceSetDoc{Dirs: s.Dirs, Output: s.Output, Resources: s.Resources, Extra: s.Extra}
	}
	doc.Tasks = make(map[string]taskDoc, len(c.tasks))
	for name, t := range c.tasks {
		doc.Tasks[name] = t.document()
	}
	return doc, nil
}

func (t Task) document() taskDoc {
	td := taskDoc{
		Type:        t.Type.String(),
		Group:       t.Group,
		Description: t.Description,
		DependsOn:   t.DependsOn,
		FinalizedBy: t.FinalizedBy,
	}
	if cmd := t.Command; cmd != nil {
		td.Command = cmd.Command
		td.Args = cmd.Args
		td.Dir = cmd.Dir
		td.Env = cmd.Env
		td.Report = string(cmd.Report)
		td.ReportsDir = cmd.ReportsDir
		if cmd.Failure != 0 {
			td.Failure = failureSpelling(cmd.Failure.String())
		}
	}
	if ep := t.EntryPoint; ep != nil {
		td.Main = ep.Main
		td.SourceSet = ep.SourceSet
		td.Launcher = string(ep.Launcher)
		td.JavaHome = ep.JavaHome
		td.RunOn = string(ep.RunOn)
		if ep.Timeout > 0 {
			td.Timeout = ep.Timeout.String()
		}
	}
	return td
}

func failureSpelling(kind string) string {
	switch kind {
	case "CompilationFailure":
		return "compilation"
	case "TestFailure":
		return "test"
	case "DependencyResolutionFailure":
		return "dependency-resolution"
	}
	return "generic"
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func baseName(dir string) string {
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return "project"
	}
	return name
}
