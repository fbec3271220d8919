package server

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// Content is the static UI copy served by the meta endpoint. It ships
// inside the binary so the chat surface needs no extra assets.
type Content struct {
	Title          string   `yaml:"title"`
	Subtitle       string   `yaml:"subtitle"`
	ExampleQueries []string `yaml:"example_queries"`
	DataSources    []string `yaml:"data_sources"`
}

// LoadContent parses the embedded content file.
func LoadContent() (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(contentYAML, &c); err != nil {
		return nil, fmt.Errorf("parse embedded content: %w", err)
	}
	return &c, nil
}
