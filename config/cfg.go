package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"bpc/css"
	"bpc/semantic"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// DefaultDestination is where Blueprint distribution lives. Custom styles are
// only picked up when output goes somewhere else.
const DefaultDestination = "blueprint"

type (
	LayoutConfig struct {
		ColumnCount int `yaml:"column_count" validate:"min=1"`
		ColumnWidth int `yaml:"column_width" validate:"min=1"`
		GutterWidth int `yaml:"gutter_width" validate:"min=0"`
	}

	GridImageConfig struct {
		Generate   bool `yaml:"generate"`
		LineHeight int  `yaml:"line_height" validate:"min=1"`
	}

	TestsConfig struct {
		Rewrite          bool     `yaml:"rewrite"`
		Path             string   `yaml:"path,omitempty" sanitize:"path_clean"`
		Files            []string `yaml:"files" validate:"dive,required"`
		KnownClassesOnly bool     `yaml:"known_classes_only"`
	}

	ProjectConfig struct {
		Namespace       string              `yaml:"namespace"`
		SourcePath      string              `yaml:"source_path,omitempty" sanitize:"path_clean"`
		Destination     string              `yaml:"destination,omitempty" sanitize:"path_clean"`
		SettingsFile    string              `yaml:"settings_file,omitempty" sanitize:"path_clean"`
		Style           css.Style           `yaml:"style"`
		Layout          LayoutConfig        `yaml:"layout"`
		GridImage       GridImageConfig     `yaml:"grid_image"`
		CustomCSS       map[string]string   `yaml:"custom_css,omitempty"`
		SemanticClasses semantic.Assignment `yaml:"semantic_classes,omitempty"`
		SemanticTarget  string              `yaml:"semantic_target" validate:"required"`
		Plugins         []string            `yaml:"plugins,omitempty" validate:"dive,required"`
		PluginsPath     string              `yaml:"plugins_path,omitempty" sanitize:"path_clean"`
		Tests           TestsConfig         `yaml:"tests"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Project   ProjectConfig  `yaml:"project"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
