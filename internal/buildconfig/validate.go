package buildconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/structra/assignment/internal/failure"
)

// ErrInvalidConfig wraps every validation problem found in a build file.
var ErrInvalidConfig = errors.New("invalid build configuration")

// build validates doc and freezes it into a Config rooted at dir.
func build(doc document, path, dir string) (*Config, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	cfg := &Config{
		path:       path,
		dir:        dir,
		group:      strings.TrimSpace(doc.Project.Group),
		name:       strings.TrimSpace(doc.Project.Name),
		version:    strings.TrimSpace(doc.Project.Version),
		release:    doc.Java.Release,
		sourceSets: make(map[string]SourceSet, len(doc.SourceSets)),
		tasks:      make(map[string]Task, len(doc.Tasks)),
		testEngine: doc.Test.Engine,
	}
	if cfg.group == "" {
		addf("project.group is required")
	}
	if cfg.version == "" {
		addf("project.version is required")
	}
	if cfg.name == "" {
		cfg.name = baseName(dir)
	}
	if cfg.release < 0 {
		addf("java.release must be positive, got %d", cfg.release)
	}
	if cfg.testEngine == "" {
		cfg.testEngine = DefaultTestEngine
	}

	for i, r := range doc.Repositories {
		if r.Name == "" {
			addf("repositories[%d]: name is required", i)
			continue
		}
		cfg.repositories = append(cfg.repositories, Repository{Name: r.Name, URL: r.URL, Cache: r.Cache})
	}

	for i, d := range doc.Dependencies {
		group, name, version, ok := splitNotation(d.Notation)
		if !ok {
			addf("dependencies[%d]: malformed notation %q", i, d.Notation)
			continue
		}
		scope, ok := parseScope(d.Scope)
		if !ok {
			addf("dependencies[%d]: unknown scope %q", i, d.Scope)
			continue
		}
		if d.Platform && version == "" {
			addf("dependencies[%d]: platform %s:%s needs a version", i, group, name)
			continue
		}
		cfg.dependencies = append(cfg.dependencies, Dependency{
			Group: group, Name: name, Version: version, Scope: scope, Platform: d.Platform,
		})
	}
	if err := pinVersions(cfg.dependencies); err != nil {
		return nil, err
	}

	for name, s := range doc.SourceSets {
		output := s.Output
		if output == "" {
			output = "build/classes/" + name
		}
		cfg.sourceSets[name] = SourceSet{
			Name:      name,
			Dirs:      s.Dirs,
			Output:    output,
			Resources: s.Resources,
			Extra:     s.Extra,
		}
	}

	for _, name := range sortedKeys(doc.Tasks) {
		task, err := buildTask(name, doc.Tasks[name], cfg.sourceSets)
		if err != nil {
			addf("%v", err)
			continue
		}
		cfg.tasks[name] = task
	}

	problems = append(problems, checkGraph(cfg.tasks)...)

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return cfg, nil
}

func buildTask(name string, td taskDoc, sourceSets map[string]SourceSet) (Task, error) {
	t := Task{
		Name:        name,
		Group:       td.Group,
		Description: td.Description,
		DependsOn:   td.DependsOn,
		FinalizedBy: td.FinalizedBy,
	}

	switch td.Type {
	case "command":
		t.Type = TaskCommand
		if td.Command == "" {
			return t, fmt.Errorf("task %s: command is required", name)
		}
		kind, err := failure.ParseKind(td.Failure)
		if err != nil {
			return t, fmt.Errorf("task %s: %w", name, err)
		}
		report := ReportFormat(td.Report)
		switch report {
		case ReportNone, ReportGoTestJSON:
		case ReportJUnitXML:
			if td.ReportsDir == "" {
				return t, fmt.Errorf("task %s: junit-xml report needs reports_dir", name)
			}
		default:
			return t, fmt.Errorf("task %s: unknown report format %q", name, td.Report)
		}
		t.Command = &CommandSpec{
			Command:    td.Command,
			Args:       td.Args,
			Dir:        td.Dir,
			Env:        td.Env,
			Failure:    kind,
			Report:     report,
			ReportsDir: td.ReportsDir,
		}
	case "lifecycle":
		t.Type = TaskLifecycle
	case "entrypoint":
		t.Type = TaskEntryPoint
		ep, err := buildEntryPoint(name, td, sourceSets)
		if err != nil {
			return t, err
		}
		t.EntryPoint = ep
	default:
		return t, fmt.Errorf("task %s: unknown type %q", name, td.Type)
	}
	return t, nil
}

func buildEntryPoint(name string, td taskDoc, sourceSets map[string]SourceSet) (*EntryPointSpec, error) {
	if td.Main == "" {
		return nil, fmt.Errorf("task %s: main is required", name)
	}
	ep := &EntryPointSpec{
		Main:      td.Main,
		SourceSet: td.SourceSet,
		Launcher:  Launcher(td.Launcher),
		JavaHome:  td.JavaHome,
		RunOn:     RunOn(td.RunOn),
	}
	if ep.SourceSet == "" {
		ep.SourceSet = "main"
	}
	if _, ok := sourceSets[ep.SourceSet]; !ok {
		return nil, fmt.Errorf("task %s: unknown source set %q", name, ep.SourceSet)
	}
	if td.Timeout != "" {
		d, err := time.ParseDuration(td.Timeout)
		if err != nil {
			return nil, fmt.Errorf("task %s: timeout: %w", name, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("task %s: timeout must not be negative", name)
		}
		ep.Timeout = d
	}
	switch ep.Launcher {
	case "":
		ep.Launcher = LauncherAuto
	case LauncherAuto, LauncherNative, LauncherJVM:
	default:
		return nil, fmt.Errorf("task %s: unknown launcher %q", name, td.Launcher)
	}
	if ep.RunOn == "" {
		ep.RunOn = RunOnSuccess
	} else if _, ok := ParseRunOn(td.RunOn); !ok {
		return nil, fmt.Errorf("task %s: unknown run_on policy %q", name, td.RunOn)
	}
	return ep, nil
}

// checkGraph reports dangling references, self-finalizers and ordering
// cycles through depends_on and finalized_by.
func checkGraph(tasks map[string]Task) []string {
	var problems []string
	for _, name := range sortedKeys(tasks) {
		t := tasks[name]
		for _, dep := range t.DependsOn {
			if _, ok := tasks[dep]; !ok {
				problems = append(problems, fmt.Sprintf("task %s: depends_on unknown task %q", name, dep))
			}
		}
		for _, fin := range t.FinalizedBy {
			if _, ok := tasks[fin]; !ok {
				problems = append(problems, fmt.Sprintf("task %s: finalized_by unknown task %q", name, fin))
			}
			if fin == name {
				problems = append(problems, fmt.Sprintf("task %s: cannot finalize itself", name))
			}
		}
	}
	if len(problems) > 0 {
		return problems
	}

	const (
		unvisited = iota
		visiting
		done
	)
	// A finalizer waits for the tasks it finalizes, so those count as its
	// predecessors alongside depends_on.
	finalizes := make(map[string][]string)
	for _, name := range sortedKeys(tasks) {
		for _, fin := range tasks[name].FinalizedBy {
			finalizes[fin] = append(finalizes[fin], name)
		}
	}

	state := make(map[string]int, len(tasks))
	var visit func(name string, path []string) []string
	visit = func(name string, path []string) []string {
		switch state[name] {
		case visiting:
			return append(path, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range tasks[name].DependsOn {
			if cycle := visit(dep, append(path, name)); cycle != nil {
				return cycle
			}
		}
		for _, finalized := range finalizes[name] {
			if cycle := visit(finalized, append(path, name)); cycle != nil {
				return cycle
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range sortedKeys(tasks) {
		if cycle := visit(name, nil); cycle != nil {
			return []string{"dependency cycle: " + strings.Join(cycle, " -> ")}
		}
	}
	return nil
}

// pinVersions fills versionless dependencies from a platform declared in
// the same scope whose group equals, or is a dot-boundary prefix of, theirs.
func pinVersions(deps []Dependency) error {
	for i := range deps {
		d := &deps[i]
		if d.Version != "" || d.Platform {
			continue
		}
		for _, p := range deps {
			if !p.Platform || p.Scope != d.Scope {
				continue
			}
			if p.Group == d.Group || strings.HasPrefix(d.Group, p.Group+".") {
				d.Version = p.Version
				break
			}
		}
		if d.Version == "" {
			return failure.New(failure.KindDependencyResolution, "",
				fmt.Errorf("%s: no version declared and no platform pins it", d.Notation()))
		}
	}
	return nil
}
