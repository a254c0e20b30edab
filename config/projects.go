package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/maruel/natural"
	yaml "gopkg.in/yaml.v3"

	"bpc/semantic"
)

// LayoutOverride holds grid values set by a project, absent values keep
// whatever was configured before.
type LayoutOverride struct {
	ColumnCount *int `yaml:"column_count"`
	ColumnWidth *int `yaml:"column_width"`
	GutterWidth *int `yaml:"gutter_width"`
}

// Project is a single entry of Blueprint settings file.
type Project struct {
	Namespace       *string             `yaml:"namespace"`
	Path            string              `yaml:"path"`
	CustomCSS       map[string]string   `yaml:"custom_css"`
	CustomLayout    *LayoutOverride     `yaml:"custom_layout"`
	SemanticClasses semantic.Assignment `yaml:"semantic_classes"`
	Plugins         []string            `yaml:"plugins"`
}

// Projects maps project name to its settings.
type Projects map[string]*Project

// Names returns project names in natural order.
func (p Projects) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// LoadProjects reads settings file.
func LoadProjects(path string) (Projects, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	projects, err := parseProjects(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process settings file '%s': %w", path, err)
	}
	return projects, nil
}

func parseProjects(data []byte) (Projects, error) {
	projects := make(Projects)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&projects); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for name, p := range projects {
		if p == nil {
			projects[name] = &Project{}
		}
	}
	return projects, nil
}
