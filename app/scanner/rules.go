package scanner

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// defaultKeyPattern matches a UUID-shaped token, optionally carrying the
// RGAPI credential marker. Matching is case-insensitive.
const defaultKeyPattern = `(?:RGAPI-)?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

type Pattern struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

type rulesFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// LoadPatterns compiles the built-in credential pattern plus any additional
// patterns from the optional YAML rules file.
func LoadPatterns(path string) ([]*regexp.Regexp, error) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`(?i)` + defaultKeyPattern)}

	if path == "" {
		return patterns, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}

	var rules rulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse patterns file: %w", err)
	}

	for _, p := range rules.Patterns {
		compiled, err := regexp.Compile(`(?i)` + p.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p.Name, err)
		}
		patterns = append(patterns, compiled)
	}

	return patterns, nil
}
