package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Speech is a single spoken reply and the optional reprompt played when the
// user stays silent.
type Speech struct {
	Speech   string `yaml:"speech"`
	Reprompt string `yaml:"reprompt"`
}

// Prompts is the top-level speech configuration loaded from YAML.
type Prompts struct {
	Launch          Speech `yaml:"launch"`
	Help            Speech `yaml:"help"`
	Stop            Speech `yaml:"stop"`
	Cancel          Speech `yaml:"cancel"`
	AskFood         Speech `yaml:"ask_food"`
	Confirm         Speech `yaml:"confirm"`
	AskQuantity     Speech `yaml:"ask_quantity"`
	NextCandidate   Speech `yaml:"next_candidate"`
	NotFound        Speech `yaml:"not_found"`
	OutOfOptions    Speech `yaml:"out_of_options"`
	Logged          Speech `yaml:"logged"`
	SearchFailed    Speech `yaml:"search_failed"`
	LogFailed       Speech `yaml:"log_failed"`
	// LogAmountFailed replaces LogFailed while the dialogue waits for a quantity.
	LogAmountFailed Speech `yaml:"log_amount_failed"`
	AuthFailed      Speech `yaml:"auth_failed"`
	Error           Speech `yaml:"error"`
}

// DefaultPrompts parses the prompts compiled into the binary.
func DefaultPrompts() (*Prompts, error) {
	return parsePrompts(defaultPromptsYAML)
}

// LoadPrompts reads and parses a YAML prompt configuration file.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*Prompts, error) {
	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}
	return &prompts, nil
}

// RenderPrompt executes Go template interpolation on a prompt string.
// The data map provides values for placeholders like {{.Name}}.
func RenderPrompt(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
