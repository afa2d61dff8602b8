// Package modelcard parses the YAML frontmatter of a model card (README.md).
// Publishing treats an invalid card as a warning, never a fatal error.
package modelcard

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("modelcard: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("modelcard: malformed frontmatter")
)

// Metric is one reported evaluation result.
type Metric struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Card is the frontmatter block of a model card.
type Card struct {
	License string   `yaml:"license"`
	Library string   `yaml:"library_name,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Metrics []Metric `yaml:"metrics,omitempty"`
}

// Parse extracts the card and body from a document that starts with `---`
// YAML fences.
func Parse(content []byte) (Card, []byte, error) {
	if len(content) == 0 {
		return Card{}, nil, ErrMissingFrontMatter
	}
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Card{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Card{}, nil, ErrMalformedFrontMatter
	}
	var card Card
	if err := yaml.Unmarshal(parts[0], &card); err != nil {
		return Card{}, nil, fmt.Errorf("modelcard: parse frontmatter: %w", err)
	}
	card.normalize()
	return card, parts[1], nil
}

// Render produces a document with the card as frontmatter above body.
func Render(card Card, body []byte) ([]byte, error) {
	card.normalize()
	if err := card.Validate(); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("modelcard: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

func (c *Card) normalize() {
	c.License = strings.TrimSpace(c.License)
	c.Library = strings.TrimSpace(c.Library)
	if len(c.Tags) > 0 {
		tags := make([]string, 0, len(c.Tags))
		for _, tag := range c.Tags {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
		c.Tags = tags
	}
}

// Validate checks the card carries the fields the hub expects.
func (c Card) Validate() error {
	if c.License == "" {
		return fmt.Errorf("modelcard: license is required")
	}
	for i, metric := range c.Metrics {
		if strings.TrimSpace(metric.Name) == "" {
			return fmt.Errorf("modelcard: metrics[%d]: name is required", i)
		}
	}
	return nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
