package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape:
//
//	models:
//	  - id: gpt-4o
//	    name: GPT-4o
//	    provider: openai
//	    tier: pro
//	    max_tokens: 128000
//	    capabilities: [code, math, creative, general]
type catalogFile struct {
	Models []Model `yaml:"models"`
}

// Load reads a catalog from a YAML file. The returned catalog is immutable;
// changing the file after start-up has no effect on a running process.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("catalog file lists no models")
	}
	return New(file.Models)
}
