// Package seed creates approved demo submissions from a YAML manifest. It is
// an offline maintenance task and never runs in the request path.
package seed

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSubmitterName  = "Gallery Demo"
	DefaultSubmitterEmail = "demo@example.org"
	// DefaultAuthenticity is formatted with the style name.
	DefaultAuthenticity = "AI-generated demonstration of the %s design style, created to showcase key visual characteristics and principles."
)

type Submitter struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Authenticity string `yaml:"authenticity"`
}

type Demo struct {
	Style string `yaml:"style"`
	URL   string `yaml:"url"`
	// Screenshot overrides the slug-derived lookup name, without extension.
	Screenshot string `yaml:"screenshot,omitempty"`
}

// Slug is the screenshot name for the demo: the explicit override or the
// lower-cased style with whitespace runs replaced by dashes.
func (d Demo) Slug() string {
	if d.Screenshot != "" {
		return d.Screenshot
	}
	return Slugify(d.Style)
}

type Manifest struct {
	Submitter Submitter `yaml:"submitter"`
	Demos     []Demo    `yaml:"demos"`
}

var whitespace = regexp.MustCompile(`\s+`)

func Slugify(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a manifest, filling submitter defaults.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if m.Submitter.Name == "" {
		m.Submitter.Name = DefaultSubmitterName
	}
	if m.Submitter.Email == "" {
		m.Submitter.Email = DefaultSubmitterEmail
	}
	if m.Submitter.Authenticity == "" {
		m.Submitter.Authenticity = DefaultAuthenticity
	}

	var errs []error
	for i, d := range m.Demos {
		if strings.TrimSpace(d.Style) == "" {
			errs = append(errs, fmt.Errorf("demo %d: style is required", i+1))
		}
		if strings.TrimSpace(d.URL) == "" {
			errs = append(errs, fmt.Errorf("demo %d: url is required", i+1))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}
