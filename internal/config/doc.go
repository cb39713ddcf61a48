// Package config loads agentmux configuration from layered sources.
//
// Sources are merged in priority order: the global config under
// ~/.config/agentmux, the project's agentmux.json[c] (top level or inside
// .agentmux/), a file named by AGENTMUX_CONFIG, inline JSON in
// AGENTMUX_CONFIG_CONTENT, and finally AGENTMUX_* environment variables.
// JSONC comments are allowed in config files, and string values support
// {env:VAR} and {file:path} placeholders.
//
// Custom agents come from two places: the agents map inside the config, and
// YAML definition files in the directory named by agentsDir. Inline
// definitions win on ID conflicts.
package config
