package corpus

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed demo_docs.yaml
var demoDocs []byte

// Document is one source text of the corpus with free-form metadata.
type Document struct {
	Text     string         `yaml:"text"`
	Metadata map[string]any `yaml:"metadata"`
}

type file struct {
	Documents []Document `yaml:"documents"`
}

// Default returns the built-in demo corpus.
func Default() []Document {
	docs, err := Parse(demoDocs)
	if err != nil {
		panic(fmt.Sprintf("embedded corpus is invalid: %v", err))
	}
	return docs
}

// Load reads a corpus file, or the built-in corpus when path is empty.
func Load(path string) ([]Document, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	docs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return docs, nil
}

// Parse decodes a YAML corpus. Every document needs non-blank text.
func Parse(data []byte) ([]Document, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	for i, doc := range f.Documents {
		if strings.TrimSpace(doc.Text) == "" {
			return nil, fmt.Errorf("document %d has no text", i)
		}
		if doc.Metadata == nil {
			f.Documents[i].Metadata = map[string]any{}
		}
	}
	return f.Documents, nil
}
