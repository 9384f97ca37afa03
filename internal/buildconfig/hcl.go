package buildconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the top-level structure of a structra.hcl file.
type hclFile struct {
	Project      hclProject      `hcl:"project,block"`
	Java         *hclJava        `hcl:"java,block"`
	Test         *hclTest        `hcl:"test,block"`
	Repositories []hclRepository `hcl:"repository,block"`
	Dependencies []hclDependency `hcl:"dependency,block"`
	SourceSets   []hclSourceSet  `hcl:"source_set,block"`
	Tasks        []hclTask       `hcl:"task,block"`
}

type hclProject struct {
	Group   string `hcl:"group"`
	Name    string `hcl:"name,optional"`
	Version string `hcl:"version"`
}

type hclJava struct {
	Release int `hcl:"release"`
}

type hclTest struct {
	Engine string `hcl:"engine,optional"`
}

type hclRepository struct {
	Name  string `hcl:"name,label"`
	URL   string `hcl:"url,optional"`
	Cache string `hcl:"cache,optional"`
}

type hclDependency struct {
	Notation string `hcl:"notation,label"`
	Scope    string `hcl:"scope"`
	Platform bool   `hcl:"platform,optional"`
}

type hclSourceSet struct {
	Name      string   `hcl:"name,label"`
	Dirs      []string `hcl:"dirs,optional"`
	Output    string   `hcl:"output,optional"`
	Resources string   `hcl:"resources,optional"`
	Extra     []string `hcl:"extra,optional"`
}

type hclTask struct {
	Name        string   `hcl:"name,label"`
	Type        string   `hcl:"type"`
	Group       string   `hcl:"group,optional"`
	Description string   `hcl:"description,optional"`
	DependsOn   []string `hcl:"depends_on,optional"`
	FinalizedBy []string `hcl:"finalized_by,optional"`

	Command    string            `hcl:"command,optional"`
	Args       []string          `hcl:"args,optional"`
	Dir        string            `hcl:"dir,optional"`
	Env        map[string]string `hcl:"env,optional"`
	Failure    string            `hcl:"failure,optional"`
	Report     string            `hcl:"report,optional"`
	ReportsDir string            `hcl:"reports_dir,optional"`

	Main      string `hcl:"main,optional"`
	SourceSet string `hcl:"source_set,optional"`
	Timeout   string `hcl:"timeout,optional"`
	Launcher  string `hcl:"launcher,optional"`
	JavaHome  string `hcl:"java_home,optional"`
	RunOn     string `hcl:"run_on,optional"`
}

// evalContext exposes project_dir and the process environment to
// expressions in the build file.
func evalContext(dir string) *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"project_dir": cty.StringVal(dir),
			"env":         envVal,
		},
	}
}

func decodeHCL(data []byte, path, dir string) (document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return document{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(dir), &parsed)
	if diags.HasErrors() {
		return document{}, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return parsed.document()
}

func (f hclFile) document() (document, error) {
	doc := document{
		Project: projectDoc{Group: f.Project.Group, Name: f.Project.Name, Version: f.Project.Version},
	}
	if f.Java != nil {
		doc.Java.Release = f.Java.Release
	}
	if f.Test != nil {
		doc.Test.Engine = f.Test.Engine
	}
	for _, r := range f.Repositories {
		doc.Repositories = append(doc.Repositories, repositoryDoc{Name: r.Name, URL: r.URL, Cache: r.Cache})
	}
	for _, d := range f.Dependencies {
		doc.Dependencies = append(doc.Dependencies, dependencyDoc{Notation: d.Notation, Scope: d.Scope, Platform: d.Platform})
	}

	if len(f.SourceSets) > 0 {
		doc.SourceSets = make(map[string]sourceSetDoc, len(f.SourceSets))
	}
	for _, s := range f.SourceSets {
		if _, dup := doc.SourceSets[s.Name]; dup {
			return document{}, fmt.Errorf("%w: duplicate source_set %q", ErrInvalidConfig, s.Name)
		}
		doc.SourceSets[s.Name] = sourceSetDoc{Dirs: s.Dirs, Output: s.Output, Resources: s.Resources, Extra: s.Extra}
	}

	if len(f.Tasks) > 0 {
		doc.Tasks = make(map[string]taskDoc, len(f.Tasks))
	}
	for _, t := range f.Tasks {
		if _, dup := doc.Tasks[t.Name]; dup {
			return document{}, fmt.Errorf("%w: duplicate task %q", ErrInvalidConfig, t.Name)
		}
		doc.Tasks[t.Name] = taskDoc{
			Type:        t.Type,
			Group:       t.Group,
			Description: t.Description,
			DependsOn:   t.DependsOn,
			FinalizedBy: t.FinalizedBy,
			Command:     t.Command,
			Args:        t.Args,
			Dir:         t.Dir,
			Env:         t.Env,
			Failure:     t.Failure,
			Report:      t.Report,
			ReportsDir:  t.ReportsDir,
			Main:        t.Main,
			SourceSet:   t.SourceSet,
			Timeout:     t.Timeout,
			Launcher:    t.Launcher,
			JavaHome:    t.JavaHome,
			RunOn:       t.RunOn,
		}
	}
	return doc, nil
}
