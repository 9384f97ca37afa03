package buildconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/structra/assignment/internal/failure"
)

const sampleYAML = `
project:
  group: org.structra
  version: 1.0-SNAPSHOT
java:
  release: 17
repositories:
  - name: local
    cache: cache
dependencies:
  - notation: org.junit:junit-bom:5.10.0
    scope: testImplementation
    platform: true
  - notation: org.junit.jupiter:junit-jupiter
    scope: testImplementation
  - notation: com.google.code.gson:gson:2.10.1
    scope: implementation
source_sets:
  main:
    dirs: [src/main/java]
    output: out/main
tasks:
  build:
    type: lifecycle
    finalized_by: [runMainMethod]
  runMainMethod:
    type: entrypoint
    group: application
    main: structra.assignment.task.impl.Example
    timeout: 30s
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_ReproducesReferenceBuild(t *testing.T) {
	cfg, err := Default(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "org.structra", cfg.Group())
	assert.Equal(t, "assignment", cfg.Name())
	assert.Equal(t, "1.0-SNAPSHOT", cfg.Version())
	assert.Equal(t, 17, cfg.Release())
	assert.Equal(t, "junit-platform", cfg.TestEngine())

	deps := cfg.DependenciesIn(ScopeTestImplementation)
	require.Len(t, deps, 1)
	assert.Equal(t, "org.junit.jupiter:junit-jupiter:5.10.0", deps[0].Notation(), "bom pins the jupiter version")

	impl := cfg.DependenciesIn(ScopeImplementation)
	require.Len(t, impl, 2)
	assert.Equal(t, "com.google.code.gson:gson:2.10.1", impl[0].Notation())
	assert.Equal(t, "org.projectlombok:lombok:1.18.30", impl[1].Notation())
	require.Len(t, cfg.DependenciesIn(ScopeAnnotationProcessor), 1)

	main, ok := cfg.SourceSet("main")
	require.True(t, ok)
	assert.Equal(t, []string{"src/main/java"}, main.Dirs)

	build, ok := cfg.Task(DefaultBuildTask)
	require.True(t, ok)
	assert.Equal(t, []string{DefaultRunTask}, build.FinalizedBy)

	run, ok := cfg.Task(DefaultRunTask)
	require.True(t, ok)
	require.NotNil(t, run.EntryPoint)
	assert.Equal(t, "application", run.Group)
	assert.Equal(t, DefaultEntryPoint, run.EntryPoint.Main)
	assert.Equal(t, RunOnSuccess, run.EntryPoint.RunOn)
	assert.Equal(t, time.Duration(0), run.EntryPoint.Timeout)
}

func TestConfig_AccessorsReturnCopies(t *testing.T) {
	cfg, err := Default(t.TempDir())
	require.NoError(t, err)

	build, _ := cfg.Task(DefaultBuildTask)
	build.FinalizedBy[0] = "mutated"
	build.DependsOn = append(build.DependsOn, "extra")

	again, _ := cfg.Task(DefaultBuildTask)
	assert.Equal(t, []string{DefaultRunTask}, again.FinalizedBy)
	assert.Equal(t, []string{"compileJava", "test"}, again.DependsOn)

	deps := cfg.Dependencies()
	deps[0].Version = "0.0.0"
	assert.Equal(t, "5.10.0", cfg.Dependencies()[0].Version)
}

func TestWithOverrides_LeavesOriginalUntouched(t *testing.T) {
	cfg, err := Default(t.TempDir())
	require.NoError(t, err)

	timeout := 5 * time.Second
	always := RunOnAlways
	overridden := cfg.WithOverrides(Overrides{Timeout: &timeout, RunOn: &always})

	run, _ := overridden.Task(DefaultRunTask)
	assert.Equal(t, timeout, run.EntryPoint.Timeout)
	assert.Equal(t, RunOnAlways, run.EntryPoint.RunOn)

	orig, _ := cfg.Task(DefaultRunTask)
	assert.Equal(t, time.Duration(0), orig.EntryPoint.Timeout)
	assert.Equal(t, RunOnSuccess, orig.EntryPoint.RunOn)
}

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "structra.yaml", sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Base(dir), cfg.Name(), "name defaults to the project directory")
	assert.Equal(t, filepath.Join(dir, "out/main"), cfg.Abs("out/main"))

	run, ok := cfg.Task("runMainMethod")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, run.EntryPoint.Timeout)
	assert.Equal(t, "main", run.EntryPoint.SourceSet)
	assert.Equal(t, LauncherAuto, run.EntryPoint.Launcher)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "structra.toml", `
[project]
group = "org.structra"
version = "1.0-SNAPSHOT"

[java]
release = 17

[source_sets.main]
output = "out/main"

[tasks.build]
type = "lifecycle"
finalized_by = ["run"]

[tasks.run]
type = "entrypoint"
main = "a.b.C"
run_on = "always"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	run, ok := cfg.Task("run")
	require.True(t, ok)
	assert.Equal(t, RunOnAlways, run.EntryPoint.RunOn)
	assert.Equal(t, 17, cfg.Release())
}

func TestLoad_ParsesHCLWithEvalContext(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STRUCTRA_TEST_CACHE", "/var/cache/m2")
	path := writeFile(t, dir, "structra.hcl", `
project {
  group   = "org.structra"
  version = "1.0-SNAPSHOT"
}

java {
  release = 17
}

repository "local" {
  cache = env.STRUCTRA_TEST_CACHE
}

dependency "com.google.code.gson:gson:2.10.1" {
  scope = "implementation"
}

source_set "main" {
  output = "${project_dir}/out/main"
}

task "build" {
  type         = "lifecycle"
  finalized_by = ["runMainMethod"]
}

task "runMainMethod" {
  type    = "entrypoint"
  main    = "structra.assignment.task.impl.Example"
  timeout = "1m"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	repos := cfg.Repositories()
	require.Len(t, repos, 1)
	assert.Equal(t, "/var/cache/m2", repos[0].Cache)

	main, ok := cfg.SourceSet("main")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "out/main"), main.Output)

	run, _ := cfg.Task("runMainMethod")
	assert.Equal(t, time.Minute, run.EntryPoint.Timeout)
}

func TestLoad_RejectsDuplicateHCLTask(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "structra.hcl", `
project {
  group   = "g"
  version = "1"
}
task "a" {
  type = "lifecycle"
}
task "a" {
  type = "lifecycle"
}
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_ReportsValidationProblems(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing group",
			body:    "project: {version: '1'}\n",
			wantMsg: "project.group is required",
		},
		{
			name:    "unknown task type",
			body:    "project: {group: g, version: '1'}\ntasks:\n  a: {type: shell}\n",
			wantMsg: `unknown type "shell"`,
		},
		{
			name:    "dangling finalizer",
			body:    "project: {group: g, version: '1'}\ntasks:\n  a: {type: lifecycle, finalized_by: [ghost]}\n",
			wantMsg: `finalized_by unknown task "ghost"`,
		},
		{
			name:    "self finalizer",
			body:    "project: {group: g, version: '1'}\ntasks:\n  a: {type: lifecycle, finalized_by: [a]}\n",
			wantMsg: "cannot finalize itself",
		},
		{
			name:    "cycle",
			body:    "project: {group: g, version: '1'}\ntasks:\n  a: {type: lifecycle, depends_on: [b]}\n  b: {type: lifecycle, depends_on: [a]}\n",
			wantMsg: "dependency cycle: a -> b -> a",
		},
		{
			name:    "depends on its own finalizer",
			body:    "project: {group: g, version: '1'}\ntasks:\n  a: {type: lifecycle, depends_on: [f], finalized_by: [f]}\n  f: {type: lifecycle}\n",
			wantMsg: "dependency cycle: a -> f -> a",
		},
		{
			name:    "entrypoint without main",
			body:    "project: {group: g, version: '1'}\nsource_sets: {main: {}}\ntasks:\n  run: {type: entrypoint}\n",
			wantMsg: "main is required",
		},
		{
			name:    "unknown source set",
			body:    "project: {group: g, version: '1'}\ntasks:\n  run: {type: entrypoint, main: a.B}\n",
			wantMsg: `unknown source set "main"`,
		},
		{
			name:    "negative timeout",
			body:    "project: {group: g, version: '1'}\nsource_sets: {main: {}}\ntasks:\n  run: {type: entrypoint, main: a.B, timeout: -1s}\n",
			wantMsg: "timeout must not be negative",
		},
		{
			name:    "unknown run_on",
			body:    "project: {group: g, version: '1'}\nsource_sets: {main: {}}\ntasks:\n  run: {type: entrypoint, main: a.B, run_on: sometimes}\n",
			wantMsg: `unknown run_on policy "sometimes"`,
		},
		{
			name:    "unknown scope",
			body:    "project: {group: g, version: '1'}\ndependencies:\n  - {notation: 'a:b:1', scope: runtime}\n",
			wantMsg: `unknown scope "runtime"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "structra.yaml", tt.body)
			_, err := Load(path)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_UnpinnedDependencyIsResolutionFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "structra.yaml", `
project: {group: g, version: '1'}
dependencies:
  - notation: org.junit:junit-bom:5.10.0
    scope: testImplementation
    platform: true
  - notation: org.junit.jupiter:junit-jupiter
    scope: implementation
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrDependencyResolution), "platform scope must match")
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "structra.yaml", "project: {group: g, version: '1'}\nplugins: [java]\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestParse_RejectsUnsupportedExtension(t *testing.T) {
	_, err := Parse([]byte("{}"), "/tmp/structra.json")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFind_WalksUpToParent(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	want := writeFile(t, root, "structra.toml", "")

	got, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_PrefersYAMLWithinDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "structra.hcl", "")
	want := writeFile(t, root, "structra.yaml", "")

	got, err := Find(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_ReturnsErrNotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarshalYAML_RoundTripsThroughLoad(t *testing.T) {
	cfg, err := Default(t.TempDir())
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	path := writeFile(t, t.TempDir(), "structra.yaml", string(out))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Dependencies(), loaded.Dependencies())
	assert.Equal(t, cfg.Tasks(), loaded.Tasks())
}
