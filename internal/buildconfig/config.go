package buildconfig

import (
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/structra/assignment/internal/failure"
)

// Scope is the configuration a dependency is declared in.
type Scope int

const (
	ScopeImplementation Scope = iota
	ScopeAnnotationProcessor
	ScopeTestImplementation
)

var scopeNames = map[Scope]string{
	ScopeImplementation:      "implementation",
	ScopeAnnotationProcessor: "annotationProcessor",
	ScopeTestImplementation:  "testImplementation",
}

func (s Scope) String() string { return scopeNames[s] }

func parseScope(s string) (Scope, bool) {
	for scope, name := range scopeNames {
		if name == s {
			return scope, true
		}
	}
	return ScopeImplementation, false
}

// Dependency is one declared artifact coordinate.
type Dependency struct {
	Group    string
	Name     string
	Version  string
	Scope    Scope
	Platform bool
}

// Notation renders the coordinate as group:name:version.
func (d Dependency) Notation() string {
	if d.Version == "" {
		return d.Group + ":" + d.Name
	}
	return d.Group + ":" + d.Name + ":" + d.Version
}

// Repository is a source for dependency resolution. Cache is the local
// directory, in Maven layout, that the external build tool populates.
type Repository struct {
	Name  string
	URL   string
	Cache string
}

// SourceSet groups source directories with their compiled output.
type SourceSet struct {
	Name      string
	Dirs      []string
	Output    string
	Resources string
	Extra     []string
}

// TaskType selects what a task does when executed.
type TaskType int

const (
	TaskCommand TaskType = iota
	TaskLifecycle
	TaskEntryPoint
)

var taskTypeNames = map[TaskType]string{
	TaskCommand:    "command",
	TaskLifecycle:  "lifecycle",
	TaskEntryPoint: "entrypoint",
}

func (t TaskType) String() string { return taskTypeNames[t] }

// ReportFormat selects how a command task's test results are read.
type ReportFormat string

const (
	ReportNone       ReportFormat = ""
	ReportGoTestJSON ReportFormat = "go-test-json"
	ReportJUnitXML   ReportFormat = "junit-xml"
)

// Launcher selects how an entry point is started.
type Launcher string

const (
	LauncherAuto   Launcher = "auto"
	LauncherNative Launcher = "native"
	LauncherJVM    Launcher = "jvm"
)

// RunOn decides which upstream outcomes a finalizer honours.
type RunOn string

const (
	RunOnSuccess RunOn = "success"
	RunOnAlways  RunOn = "always"
)

// ParseRunOn validates a run-on policy spelling.
func ParseRunOn(s string) (RunOn, bool) {
	switch RunOn(s) {
	case RunOnSuccess, RunOnAlways:
		return RunOn(s), true
	}
	return "", false
}

// CommandSpec delegates work to an external process.
type CommandSpec struct {
	Command    string
	Args       []string
	Dir        string
	Env        map[string]string
	Failure    failure.Kind
	Report     ReportFormat
	ReportsDir string
}

// EntryPointSpec configures the post-build runner.
type EntryPointSpec struct {
	Main      string
	SourceSet string
	Timeout   time.Duration
	Launcher  Launcher
	JavaHome  string
	RunOn     RunOn
}

// Task is a node of the build's task graph.
type Task struct {
	Name        string
	Type        TaskType
	Group       string
	Description string
	DependsOn   []string
	FinalizedBy []string
	Command     *CommandSpec
	EntryPoint  *EntryPointSpec
}

func (t Task) clone() Task {
	c := t
	c.DependsOn = slices.Clone(t.DependsOn)
	c.FinalizedBy = slices.Clone(t.FinalizedBy)
	if t.Command != nil {
		cmd := *t.Command
		cmd.Args = slices.Clone(t.Command.Args)
		cmd.Env = maps.Clone(t.Command.Env)
		c.Command = &cmd
	}
	if t.EntryPoint != nil {
		ep := *t.EntryPoint
		c.EntryPoint = &ep
	}
	return c
}

func (s SourceSet) clone() SourceSet {
	c := s
	c.Dirs = slices.Clone(s.Dirs)
	c.Extra = slices.Clone(s.Extra)
	return c
}

// Config is the loaded build configuration. It is read, never mutated:
// every accessor returns a copy.
type Config struct {
	path         string
	dir          string
	group        string
	name         string
	version      string
	release      int
	repositories []Repository
	dependencies []Dependency
	sourceSets   map[string]SourceSet
	tasks        map[string]Task
	testEngine   string
}

// Path is the build file the config was read from, or "" for defaults.
func (c *Config) Path() string { return c.path }

// Dir is the absolute project directory.
func (c *Config) Dir() string { return c.dir }

func (c *Config) Group() string   { return c.group }
func (c *Config) Name() string    { return c.name }
func (c *Config) Version() string { return c.version }

// Release is the target language-version floor.
func (c *Config) Release() int { return c.release }

func (c *Config) TestEngine() string { return c.testEngine }

func (c *Config) Repositories() []Repository { return slices.Clone(c.repositories) }

func (c *Config) Dependencies() []Dependency { return slices.Clone(c.dependencies) }

// DependenciesIn returns the dependencies declared in scope, platforms excluded.
func (c *Config) DependenciesIn(scope Scope) []Dependency {
	var out []Dependency
	for _, d := range c.dependencies {
		if d.Scope == scope && !d.Platform {
			out = append(out, d)
		}
	}
	return out
}

// SourceSet returns the named source set.
func (c *Config) SourceSet(name string) (SourceSet, bool) {
	s, ok := c.sourceSets[name]
	if !ok {
		return SourceSet{}, false
	}
	return s.clone(), true
}

// SourceSets returns all source sets sorted by name.
func (c *Config) SourceSets() []SourceSet {
	out := make([]SourceSet, 0, len(c.sourceSets))
	for _, name := range sortedKeys(c.sourceSets) {
		out = append(out, c.sourceSets[name].clone())
	}
	return out
}

// Task returns the named task.
func (c *Config) Task(name string) (Task, bool) {
	t, ok := c.tasks[name]
	if !ok {
		return Task{}, false
	}
	return t.clone(), true
}

// Tasks returns all tasks sorted by group, then name.
func (c *Config) Tasks() []Task {
	out := make([]Task, 0, len(c.tasks))
	for _, name := range sortedKeys(c.tasks) {
		out = append(out, c.tasks[name].clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// Abs resolves p against the project directory.
func (c *Config) Abs(p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.dir, p)
}

// Overrides replaces entry point settings for every entrypoint task.
// Nil fields are left untouched.
type Overrides struct {
	Timeout *time.Duration
	RunOn   *RunOn
}

// WithOverrides returns a copy of c with o applied. c is unchanged.
func (c *Config) WithOverrides(o Overrides) *Config {
	out := *c
	out.repositories = slices.Clone(c.repositories)
	out.dependencies = slices.Clone(c.dependencies)
	out.sourceSets = make(map[string]SourceSet, len(c.sourceSets))
	for k, v := range c.sourceSets {
		out.sourceSets[k] = v.clone()
	}
	out.tasks = make(map[string]Task, len(c.tasks))
	for k, v := range c.tasks {
		t := v.clone()
		if t.EntryPoint != nil {
			if o.Timeout != nil {
				t.EntryPoint.Timeout = *o.Timeout
			}
			if o.RunOn != nil {
				t.EntryPoint.RunOn = *o.RunOn
			}
		}
		out.tasks[k] = t
	}
	return &out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitNotation(notation string) (group, name, version string, ok bool) {
	parts := strings.Split(notation, ":")
	switch len(parts) {
	case 2:
		group, name = parts[0], parts[1]
	case 3:
		group, name, version = parts[0], parts[1], parts[2]
	default:
		return "", "", "", false
	}
	if group == "" || name == "" {
		return "", "", "", false
	}
	return group, name, version, true
}
