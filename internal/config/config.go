package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/orchestrator"
	"github.com/agentmux/agentmux/internal/router"
)

// Config is the resolved runtime configuration.
type Config struct {
	// ActivationThreshold is the minimum score an agent needs to be
	// selected for a task.
	ActivationThreshold float64 `json:"activationThreshold,omitempty"`

	// MaxParallelAgents bounds concurrent subtask execution.
	MaxParallelAgents int `json:"maxParallelAgents,omitempty"`

	// CoordinationStrategy is the default strategy for orchestrated runs:
	// parallel, sequential, or collaborative.
	CoordinationStrategy string `json:"coordinationStrategy,omitempty"`

	// EnableOrchestration gates multi-agent runs. When false, tasks are
	// routed to a single agent only.
	EnableOrchestration *bool `json:"enableOrchestration,omitempty"`

	// LogLevel is the minimum log level: debug, info, warn, or error.
	LogLevel string `json:"logLevel,omitempty"`

	// WorkspaceRoot scopes all agent file and command operations.
	// Defaults to the working directory.
	WorkspaceRoot string `json:"workspaceRoot,omitempty"`

	// AgentsDir holds YAML custom agent definitions, loaded in addition
	// to the inline Agents map.
	AgentsDir string `json:"agentsDir,omitempty"`

	// Agents maps agent IDs to inline custom agent definitions.
	Agents map[string]agent.Definition `json:"agents,omitempty"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	enabled := true
	return &Config{
		ActivationThreshold:  router.DefaultThreshold,
		MaxParallelAgents:    orchestrator.DefaultMaxParallel,
		CoordinationStrategy: string(orchestrator.StrategyParallel),
		EnableOrchestration:  &enabled,
		LogLevel:             "info",
		Agents:               make(map[string]agent.Definition),
	}
}

// OrchestrationEnabled reports the effective orchestration gate.
func (c *Config) OrchestrationEnabled() bool {
	return c.EnableOrchestration == nil || *c.EnableOrchestration
}

// Strategy returns the configured coordination strategy.
func (c *Config) Strategy() orchestrator.Strategy {
	return orchestrator.Strategy(c.CoordinationStrategy)
}

// Validate rejects values the runtime cannot honor.
func (c *Config) Validate() error {
	if c.ActivationThreshold < 0 || c.ActivationThreshold > 1 {
		return fmt.Errorf("activation threshold %v is outside [0, 1]", c.ActivationThreshold)
	}
	if c.MaxParallelAgents < 0 {
		return fmt.Errorf("max parallel agents must not be negative")
	}
	switch orchestrator.Strategy(c.CoordinationStrategy) {
	case orchestrator.StrategyParallel, orchestrator.StrategySequential, orchestrator.StrategyCollaborative, "":
	default:
		return fmt.Errorf("unknown coordination strategy %q", c.CoordinationStrategy)
	}
	return nil
}

// Load resolves configuration from multiple sources (priority order):
//  1. Global config (~/.config/agentmux/)
//  2. Project config (agentmux.json[c] or .agentmux/ in the directory)
//  3. AGENTMUX_CONFIG file
//  4. AGENTMUX_CONFIG_CONTENT inline JSON
//  5. Environment variables
//
// A .env file in the directory is loaded first so it can feed both the
// {env:...} placeholders and the override variables.
func Load(directory string) (*Config, error) {
	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	config := Default()

	loaded := make(map[string]bool)
	loadOnce := func(path, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "agentmux.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "agentmux.jsonc"), globalPath)

	// 2. Project config
	if directory != "" {
		projectDir := filepath.Join(directory, ".agentmux")
		loadOnce(filepath.Join(directory, "agentmux.json"), directory)
		loadOnce(filepath.Join(directory, "agentmux.jsonc"), directory)
		loadOnce(filepath.Join(projectDir, "agentmux.json"), projectDir)
		loadOnce(filepath.Join(projectDir, "agentmux.jsonc"), projectDir)
	}

	// 3. AGENTMUX_CONFIG file override
	if configPath := os.Getenv("AGENTMUX_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 4. AGENTMUX_CONFIG_CONTENT inline JSON
	if content := os.Getenv("AGENTMUX_CONFIG_CONTENT"); content != "" {
		var inline Config
		if err := json.Unmarshal([]byte(content), &inline); err == nil {
			mergeConfig(config, &inline)
		}
	}

	// 5. Environment variables (highest priority)
	applyEnvOverrides(config)

	if config.WorkspaceRoot == "" {
		config.WorkspaceRoot = directory
	}

	if config.AgentsDir != "" {
		defs, err := LoadAgentDefinitions(config.AgentsDir)
		if err != nil {
			return nil, err
		}
		for id, def := range defs {
			if _, exists := config.Agents[id]; !exists {
				config.Agents[id] = def
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match
		}

		escaped := strings.ReplaceAll(string(content), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return escaped
	})

	return []byte(str)
}

// mergeConfig merges source into target. Later sources win field by field.
func mergeConfig(target, source *Config) {
	if source.ActivationThreshold != 0 {
		target.ActivationThreshold = source.ActivationThreshold
	}
	if source.MaxParallelAgents != 0 {
		target.MaxParallelAgents = source.MaxParallelAgents
	}
	if source.CoordinationStrategy != "" {
		target.CoordinationStrategy = source.CoordinationStrategy
	}
	if source.EnableOrchestration != nil {
		target.EnableOrchestration = source.EnableOrchestration
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.WorkspaceRoot != "" {
		target.WorkspaceRoot = source.WorkspaceRoot
	}
	if source.AgentsDir != "" {
		target.AgentsDir = source.AgentsDir
	}

	if source.Agents != nil {
		if target.Agents == nil {
			target.Agents = make(map[string]agent.Definition)
		}
		for k, v := range source.Agents {
			target.Agents[k] = v
		}
	}
}

// applyEnvOverrides applies AGENTMUX_* environment variables.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("AGENTMUX_ACTIVATION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.ActivationThreshold = f
		}
	}
	if v := os.Getenv("AGENTMUX_MAX_PARALLEL_AGENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxParallelAgents = n
		}
	}
	if v := os.Getenv("AGENTMUX_COORDINATION_STRATEGY"); v != "" {
		config.CoordinationStrategy = v
	}
	if v := os.Getenv("AGENTMUX_ENABLE_ORCHESTRATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.EnableOrchestration = &b
		}
	}
	if v := os.Getenv("AGENTMUX_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("AGENTMUX_WORKSPACE_ROOT"); v != "" {
		config.WorkspaceRoot = v
	}
	if v := os.Getenv("AGENTMUX_AGENTS_DIR"); v != "" {
		config.AgentsDir = v
	}
}

// Save writes the configuration to a file.
func Save(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
