// Package prompts loads the embedded command definitions that hold the
// system prompt and argument documentation for each command.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// ErrUnknownDefinition is returned by Load for names with no definition file.
var ErrUnknownDefinition = errors.New("unknown command definition")

// Argument documents one input a command accepts.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// Definition is one parsed command definition.
type Definition struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	SystemPrompt string     `yaml:"system_prompt"`
	Arguments    []Argument `yaml:"arguments"`
}

// Load returns the definition with the given name.
func Load(name string) (Definition, error) {
	data, err := definitions.ReadFile(path.Join("definitions", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Definition{}, fmt.Errorf("%w: %s", ErrUnknownDefinition, name)
		}
		return Definition{}, fmt.Errorf("read definition %s: %w", name, err)
	}
	return Parse(data)
}

// Parse decodes a definition and checks it carries a system prompt.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse definition: %w", err)
	}
	def.SystemPrompt = strings.TrimSpace(def.SystemPrompt)
	if def.SystemPrompt == "" {
		return Definition{}, fmt.Errorf("definition %q: no system prompt", def.Name)
	}
	return def, nil
}

// Usage renders the argument list for command help output.
func (d Definition) Usage() string {
	var sb strings.Builder
	for _, arg := range d.Arguments {
		marker := ""
		if arg.Required {
			marker = " (required)"
		}
		fmt.Fprintf(&sb, "  %-10s %s%s\n", arg.Name, arg.Description, marker)
	}
	return sb.String()
}
