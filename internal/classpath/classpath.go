// Package classpath assembles the runtime classpath of a source set and
// resolves entry-point identifiers against it.
package classpath

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/structra/assignment/internal/buildconfig"
	"github.com/structra/assignment/internal/failure"
)

// Runtime returns the ordered runtime classpath of the named source set:
// its output directory, its resources directory when present, every
// implementation artifact found in a repository cache, then extra entries.
func Runtime(cfg *buildconfig.Config, sourceSet string) ([]string, error) {
	ss, ok := cfg.SourceSet(sourceSet)
	if !ok {
		return nil, fmt.Errorf("unknown source set %q", sourceSet)
	}

	var entries []string
	entries = append(entries, cfg.Abs(ss.Output))
	if ss.Resources != "" {
		res := cfg.Abs(ss.Resources)
		if info, err := os.Stat(res); err == nil && info.IsDir() {
			entries = append(entries, res)
		}
	}

	repos := cfg.Repositories()
	for _, dep := range cfg.DependenciesIn(buildconfig.ScopeImplementation) {
		artifact, err := locate(cfg, repos, dep)
		if err != nil {
			return nil, err
		}
		entries = append(entries, artifact)
	}

	for _, extra := range ss.Extra {
		entries = append(entries, cfg.Abs(extra))
	}
	return dedupe(entries), nil
}

// ArtifactPath is the Maven local layout path of dep below cache.
func ArtifactPath(cache string, dep buildconfig.Dependency) string {
	group := strings.ReplaceAll(dep.Group, ".", "/")
	file := dep.Name + "-" + dep.Version + ".jar"
	return filepath.Join(cache, filepath.FromSlash(path.Join(group, dep.Name, dep.Version, file)))
}

func locate(cfg *buildconfig.Config, repos []buildconfig.Repository, dep buildconfig.Dependency) (string, error) {
	var searched []string
	for _, repo := range repos {
		if repo.Cache == "" {
			continue
		}
		candidate := ArtifactPath(cfg.Abs(repo.Cache), dep)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		searched = append(searched, repo.Name)
	}
	return "", failure.New(failure.KindDependencyResolution, "",
		fmt.Errorf("could not find %s in repositories %v", dep.Notation(), searched))
}

// Join renders entries with the platform's list separator.
func Join(entries []string) string {
	return strings.Join(entries, string(os.PathListSeparator))
}

func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
