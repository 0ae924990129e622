package persona

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Persona is a named agent role.
type Persona struct {
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role"`
}

// Prompt is an example system description offered to the user.
type Prompt struct {
	Label  string `yaml:"label" json:"label"`
	Tier   string `yaml:"tier" json:"tier"`
	Help   string `yaml:"help" json:"help"`
	Prompt string `yaml:"prompt" json:"prompt"`
}

// Catalog holds the reserved ethicist persona, optional preset personas and
// the example prompts.
type Catalog struct {
	Ethicist Persona   `yaml:"ethicist"`
	Presets  []Persona `yaml:"presets"`
	Prompts  []Prompt  `yaml:"prompts"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}
	c.Ethicist.Role = strings.TrimSpace(c.Ethicist.Role)
	for i := range c.Presets {
		c.Presets[i].Role = strings.TrimSpace(c.Presets[i].Role)
	}
	return &c, nil
}

// Load builds the catalog from the built-in defaults, then applies the
// catalog file (YAML) and the ethicist role file (plain text) when present.
// Missing files keep the defaults.
func Load(catalogPath, ethicistRolePath string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if catalogPath != "" {
		data, err := os.ReadFile(catalogPath)
		switch {
		case err == nil:
			override, err := parse(data)
			if err != nil {
				return nil, err
			}
			merge(c, override)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read persona catalog %s: %w", catalogPath, err)
		}
	}

	if ethicistRolePath != "" {
		role, err := ReadRoleFile(ethicistRolePath)
		switch {
		case err == nil:
			c.Ethicist.Role = role
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	return c, nil
}

func merge(dst, src *Catalog) {
	if src.Ethicist.Name != "" {
		dst.Ethicist.Name = src.Ethicist.Name
	}
	if src.Ethicist.Role != "" {
		dst.Ethicist.Role = src.Ethicist.Role
	}
	if len(src.Presets) > 0 {
		dst.Presets = src.Presets
	}
	if len(src.Prompts) > 0 {
		dst.Prompts = src.Prompts
	}
}

// ReadRoleFile reads a plain-text role description. Only .txt files are
// accepted, like the upload form.
func ReadRoleFile(path string) (string, error) {
	if err := checkRoleFilename(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParseRoleFile(filepath.Base(path), data)
}

// ParseRoleFile returns the role held by an uploaded role file.
func ParseRoleFile(filename string, data []byte) (string, error) {
	if err := checkRoleFilename(filename); err != nil {
		return "", err
	}
	role := strings.TrimSpace(string(data))
	if role == "" {
		return "", fmt.Errorf("role file %s is empty", filename)
	}
	return role, nil
}

func checkRoleFilename(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".txt") {
		return fmt.Errorf("role file %s: only .txt files are supported", name)
	}
	return nil
}
