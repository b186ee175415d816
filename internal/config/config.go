// Package config loads cotton project configuration from cotton.json or
// cotton.yaml.
//
// The route table is kept in declaration order: the matcher resolves
// overlapping patterns by first-declared-wins, so the order keys appear
// in the configuration file is part of the routing contract and must
// survive parsing.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cotton-web/cotton/internal/errors"
	"github.com/cotton-web/cotton/pkg/router"
)

const (
	// ConfigFileJSON is the JSON configuration file name.
	ConfigFileJSON = "cotton.json"

	// ConfigFileYAML is the YAML configuration file name.
	ConfigFileYAML = "cotton.yaml"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultSrc is the default source directory modules live under.
	DefaultSrc = "src"

	// DefaultStatic is the default static files directory.
	DefaultStatic = "public"
)

// Config is the complete cotton project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Port is the server port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Paths configures project directories.
	Paths PathsConfig `json:"paths,omitempty" yaml:"paths,omitempty"`

	// Routes is the route table in declaration order.
	Routes RouteTable `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Dev configures the development server.
	Dev DevConfig `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Build configures the production build.
	Build BuildConfig `json:"build,omitempty" yaml:"build,omitempty"`

	// configPath is where the config was loaded from.
	configPath string
}

// PathsConfig configures project directories.
type PathsConfig struct {
	// Src is the directory module paths are relative to.
	Src string `json:"src,omitempty" yaml:"src,omitempty"`

	// Static is the static files directory.
	Static string `json:"static,omitempty" yaml:"static,omitempty"`
}

// DevConfig configures the development server.
type DevConfig struct {
	// Port overrides the server port during development.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host overrides the host during development.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Watch lists directories to watch for changes.
	Watch []string `json:"watch,omitempty" yaml:"watch,omitempty"`

	// Ignore lists glob patterns excluded from watching.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// DebounceMS is the delay before a change triggers a rebuild.
	DebounceMS int `json:"debounceMs,omitempty" yaml:"debounceMs,omitempty"`
}

// BuildConfig configures the production build.
type BuildConfig struct {
	// Output is the build output directory.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Fingerprint enables content-hashed asset file names.
	Fingerprint bool `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	// Deploy configures the optional S3 deploy step.
	Deploy DeployConfig `json:"deploy,omitempty" yaml:"deploy,omitempty"`
}

// DeployConfig configures uploading the build output to S3.
type DeployConfig struct {
	// Bucket is the target S3 bucket.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is the key prefix inside the bucket.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the AWS region. Empty uses the SDK default chain.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Port:    DefaultPort,
		Host:    DefaultHost,
		Paths: PathsConfig{
			Src:    DefaultSrc,
			Static: DefaultStatic,
		},
		Dev: DevConfig{
			Watch:      []string{DefaultSrc, DefaultStatic},
			DebounceMS: 100,
		},
		Build: BuildConfig{
			Output:      DefaultOutput,
			Fingerprint: true,
		},
	}
}

// Load reads configuration from a project directory, trying cotton.json
// then cotton.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileJSON, ConfigFileYAML} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("C101").
		WithDetail("Looked in " + dir + ".").
		WithSuggestion("Create cotton.json with at least a routes table.")
}

// LoadFromWorkingDir loads configuration from the current directory.
func LoadFromWorkingDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.New("C101").Wrap(err)
	}
	return Load(dir)
}

// LoadFile reads configuration from a specific file. The format is
// picked by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C101").WithDetail("No config at " + path + ".")
		}
		return nil, errors.New("C102").Wrap(err)
	}

	cfg := New()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("C102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Table builds the ordered route table for the matcher.
func (c *Config) Table() (*router.Table, error) {
	table := router.NewTable()
	for _, entry := range c.Routes {
		if err := table.Add(entry.Key, entry.Route); err != nil {
			return nil, errors.New("C103").Wrap(err)
		}
	}
	return table, nil
}

// Validate checks the configuration for mistakes that would only
// surface at request time.
func (c *Config) Validate() error {
	if _, err := c.Table(); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Newf(errors.CategoryConfig, "port %d out of range", c.Port)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Paths.Src == "" {
		c.Paths.Src = DefaultSrc
	}
	if c.Paths.Static == "" {
		c.Paths.Static = DefaultStatic
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = c.Port
	}
	if c.Dev.Host == "" {
		c.Dev.Host = c.Host
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{c.Paths.Src, c.Paths.Static}
	}
	if c.Dev.DebounceMS == 0 {
		c.Dev.DebounceMS = 100
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
}
