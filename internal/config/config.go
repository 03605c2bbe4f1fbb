package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// AllFieldsPreset is the name of the built-in preset that disables filtering.
const AllFieldsPreset = "All fields"

// Config represents the complete configuration for jsonlens
type Config struct {
	Presets       []Preset     `yaml:"presets" validate:"unique=Name,dive"`
	DefaultPreset string       `yaml:"default_preset"`
	TestCasesDir  string       `yaml:"testcases_dir" validate:"required"`
	Output        OutputConfig `yaml:"output"`
	Server        ServerConfig `yaml:"server"`
	Dev           DevConfig    `yaml:"dev"`
}

// Preset is a named list of dotted field paths. An empty list means no
// filtering.
type Preset struct {
	Name   string   `yaml:"name" validate:"required"`
	Fields []string `yaml:"fields"`
}

// OutputConfig controls where and how generated pages are written
type OutputConfig struct {
	Dir          string `yaml:"dir" validate:"required"`
	Prefix       string `yaml:"prefix"`
	Minify       bool   `yaml:"minify"`
	SlugifyNames bool   `yaml:"slugify_names"`
}

// ServerConfig controls the interactive server
type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	MaxSessions int    `yaml:"max_sessions" validate:"min=1"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

var validate = validator.New()

// DefaultPresets returns the presets used when no config file defines any.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: AllFieldsPreset, Fields: []string{}},
		{Name: "Order Summary", Fields: []string{"order.id", "order.items", "customer.email"}},
		{Name: "Customer Only", Fields: []string{"customer"}},
		{Name: "Metadata Only", Fields: []string{"metadata"}},
	}
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Presets:       DefaultPresets(),
		DefaultPreset: AllFieldsPreset,
		TestCasesDir:  ".",
		Output: OutputConfig{
			Dir:          ".",
			Prefix:       "viewer_",
			Minify:       true,
			SlugifyNames: false,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxSessions: 64,
		},
		Dev: DevConfig{
			Debug:   false,
			Verbose: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()
	cfg.DefaultPreset = ""

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Without an explicit default the first preset is selected.
	if cfg.DefaultPreset == "" && len(cfg.Presets) > 0 {
		cfg.DefaultPreset = cfg.Presets[0].Name
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %s", describeValidation(err))
	}
	if c.DefaultPreset != "" {
		if _, ok := c.FindPreset(c.DefaultPreset); !ok {
			return fmt.Errorf("invalid config: default_preset %q is not a defined preset", c.DefaultPreset)
		}
	}
	for _, p := range c.Presets {
		for _, field := range p.Fields {
			if strings.TrimSpace(field) == "" {
				return fmt.Errorf("invalid config: preset %q contains an empty field path", p.Name)
			}
		}
	}
	return nil
}

func describeValidation(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "unique":
			msgs = append(msgs, fmt.Sprintf("%s must have unique names", e.Namespace()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", e.Namespace(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", e.Namespace()))
		}
	}
	return strings.Join(msgs, "; ")
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonlens.yml", ".jsonlens.yaml", "jsonlens.yml", "jsonlens.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// FindPreset returns the preset called name.
func (c *Config) FindPreset(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames returns preset names in configuration order.
func (c *Config) PresetNames() []string {
	names := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		names[i] = p.Name
	}
	return names
}

// OutputFileName returns the file name of the page generated for a test
// case: the configured prefix, the case name (kebab-cased when
// slugify_names is set) and ".html".
func (c *Config) OutputFileName(caseName string) string {
	name := caseName
	if c.Output.SlugifyNames {
		name = strcase.ToKebab(caseName)
	}
	return c.Output.Prefix + name + ".html"
}

// Overrides holds values given on the command line. Zero values leave the
// loaded configuration untouched.
type Overrides struct {
	TestCasesDir string
	OutputDir    string
	Addr         string
	NoMinify     bool
	Debug        bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if o.TestCasesDir != "" {
		cfg.TestCasesDir = o.TestCasesDir
	}
	if o.OutputDir != "" {
		cfg.Output.Dir = o.OutputDir
	}
	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.NoMinify {
		cfg.Output.Minify = false
	}
	if o.Debug {
		cfg.Dev.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
