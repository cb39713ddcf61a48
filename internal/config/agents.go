package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentmux/agentmux/internal/agent"
)

// LoadAgentDefinitions reads every *.yaml and *.yml file in dir as a custom
// agent definition, keyed by agent ID. Files are read in name order so
// duplicate IDs resolve deterministically: the first definition wins.
func LoadAgentDefinitions(dir string) (map[string]agent.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read agents directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	defs := make(map[string]agent.Definition, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		def, err := loadAgentDefinition(path)
		if err != nil {
			return nil, err
		}
		if _, exists := defs[def.ID]; exists {
			continue
		}
		defs[def.ID] = def
	}
	return defs, nil
}

func loadAgentDefinition(path string) (agent.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return agent.Definition{}, fmt.Errorf("read agent definition %s: %w", path, err)
	}

	var def agent.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return agent.Definition{}, fmt.Errorf("parse agent definition %s: %w", path, err)
	}

	if def.ID == "" {
		return agent.Definition{}, fmt.Errorf("agent definition %s has no id", path)
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	return def, nil
}
