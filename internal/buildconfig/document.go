package buildconfig

// document is the on-disk shape of a YAML or TOML build file. HCL files are
// decoded into hclDocument and converted to this shape.
type document struct {
	Project      projectDoc              `yaml:"project" toml:"project"`
	Java         javaDoc                 `yaml:"java,omitempty" toml:"java,omitempty"`
	Repositories []repositoryDoc         `yaml:"repositories,omitempty" toml:"repositories,omitempty"`
	Dependencies []dependencyDoc         `yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	SourceSets   map[string]sourceSetDoc `yaml:"source_sets,omitempty" toml:"source_sets,omitempty"`
	Tasks        map[string]taskDoc      `yaml:"tasks,omitempty" toml:"tasks,omitempty"`
	Test         testDoc                 `yaml:"test,omitempty" toml:"test,omitempty"`
}

type projectDoc struct {
	Group   string `yaml:"group" toml:"group"`
	Name    string `yaml:"name,omitempty" toml:"name,omitempty"`
	Version string `yaml:"version" toml:"version"`
}

type javaDoc struct {
	Release int `yaml:"release,omitempty" toml:"release,omitempty"`
}

type repositoryDoc struct {
	Name  string `yaml:"name" toml:"name"`
	URL   string `yaml:"url,omitempty" toml:"url,omitempty"`
	Cache string `yaml:"cache,omitempty" toml:"cache,omitempty"`
}

type dependencyDoc struct {
	Notation string `yaml:"notation" toml:"notation"`
	Scope    string `yaml:"scope" toml:"scope"`
	Platform bool   `yaml:"platform,omitempty" toml:"platform,omitempty"`
}

type sourceSetDoc struct {
	Dirs      []string `yaml:"dirs,omitempty" toml:"dirs,omitempty"`
	Output    string   `yaml:"output,omitempty" toml:"output,omitempty"`
	Resources string   `yaml:"resources,omitempty" toml:"resources,omitempty"`
	Extra     []string `yaml:"extra,omitempty" toml:"extra,omitempty"`
}

type taskDoc struct {
	Type        string   `yaml:"type" toml:"type"`
	Group       string   `yaml:"group,omitempty" toml:"group,omitempty"`
	Description string   `yaml:"description,omitempty" toml:"description,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	FinalizedBy []string `yaml:"finalized_by,omitempty" toml:"finalized_by,omitempty"`

	// command
	Command    string            `yaml:"command,omitempty" toml:"command,omitempty"`
	Args       []string          `yaml:"args,omitempty" toml:"args,omitempty"`
	Dir        string            `yaml:"dir,omitempty" toml:"dir,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`
	Failure    string            `yaml:"failure,omitempty" toml:"failure,omitempty"`
	Report     string            `yaml:"report,omitempty" toml:"report,omitempty"`
	ReportsDir string            `yaml:"reports_dir,omitempty" toml:"reports_dir,omitempty"`

	// entrypoint
	Main      string `yaml:"main,omitempty" toml:"main,omitempty"`
	SourceSet string `yaml:"source_set,omitempty" toml:"source_set,omitempty"`
	Timeout   string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Launcher  string `yaml:"launcher,omitempty" toml:"launcher,omitempty"`
	JavaHome  string `yaml:"java_home,omitempty" toml:"java_home,omitempty"`
	RunOn     string `yaml:"run_on,omitempty" toml:"run_on,omitempty"`
}

type testDoc struct {
	Engine string `yaml:"engine,omitempty" toml:"engine,omitempty"`
}

// Default entry point and task names of the reference build.
const (
	DefaultEntryPoint = "structra.assignment.task.impl.Example"
	DefaultRunTask    = "runMainMethod"
	DefaultBuildTask  = "build"
	DefaultTestEngine = "junit-platform"
)

// defaultDocument mirrors the reference Gradle build: org.structra
// 1.0-SNAPSHOT targeting release 17, with build finalized by runMainMethod.
func defaultDocument() document {
	return document{
		Project: projectDoc{Group: "org.structra", Name: "assignment", Version: "1.0-SNAPSHOT"},
		Java:    javaDoc{Release: 17},
		Repositories: []repositoryDoc{
			{Name: "mavenCentral", URL: "https://repo.maven.apache.org/maven2", Cache: "~/.m2/repository"},
		},
		Dependencies: []dependencyDoc{
			{Notation: "org.junit:junit-bom:5.10.0", Scope: "testImplementation", Platform: true},
			{Notation: "org.junit.jupiter:junit-jupiter", Scope: "testImplementation"},
			{Notation: "com.google.code.gson:gson:2.10.1", Scope: "implementation"},
			{Notation: "org.projectlombok:lombok:1.18.30", Scope: "implementation"},
			{Notation: "org.projectlombok:lombok:1.18.30", Scope: "annotationProcessor"},
		},
		SourceSets: map[string]sourceSetDoc{
			"main": {
				Dirs:      []string{"src/main/java"},
				Output:    "build/classes/java/main",
				Resources: "build/resources/main",
			},
		},
		Tasks: map[string]taskDoc{
			"compileJava": {
				Type:        "command",
				Group:       "build",
				Description: "Compiles main Java source.",
				Command:     "gradle",
				Args:        []string{"compileJava", "--quiet"},
				Failure:     "compilation",
			},
			"test": {
				Type:        "command",
				Group:       "verification",
				Description: "Runs the test suite on the JUnit platform.",
				DependsOn:   []string{"compileJava"},
				Command:     "gradle",
				Args:        []string{"test", "--quiet"},
				Failure:     "test",
				Report:      string(ReportJUnitXML),
				ReportsDir:  "build/test-results/test",
			},
			DefaultBuildTask: {
				Type:        "lifecycle",
				Group:       "build",
				Description: "Assembles and tests this project.",
				DependsOn:   []string{"compileJava", "test"},
				FinalizedBy: []string{DefaultRunTask},
			},
			DefaultRunTask: {
				Type:        "entrypoint",
				Group:       "application",
				Description: "Runs " + DefaultEntryPoint + " on the main runtime classpath.",
				Main:        DefaultEntryPoint,
				SourceSet:   "main",
				Launcher:    string(LauncherAuto),
				RunOn:       string(RunOnSuccess),
			},
		},
		Test: testDoc{Engine: DefaultTestEngine},
	}
}
