package commands

import (
	"os"
	"sort"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/config"
	"github.com/agentmux/agentmux/internal/execpolicy"
	"github.com/agentmux/agentmux/internal/logging"
	"github.com/agentmux/agentmux/internal/orchestrator"
	"github.com/agentmux/agentmux/internal/router"
	"github.com/agentmux/agentmux/internal/toolkit"
)

// runtime bundles the wired subsystems one command invocation uses.
type runtime struct {
	cfg          *config.Config
	router       *router.Router
	orchestrator *orchestrator.Orchestrator
}

// buildRuntime loads configuration and wires the router and orchestrator.
// Built-in agents register first, then custom agents in sorted ID order, so
// routing ties resolve the same way on every run.
func buildRuntime(workDir string) (*runtime, error) {
	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logging.Config{
		Level:  logging.ParseLevel(level),
		Output: os.Stderr,
		Pretty: true,
	})

	r := router.New(cfg.ActivationThreshold)
	if err := r.Register(agent.NewReviewAgent()); err != nil {
		return nil, err
	}
	if err := r.Register(agent.NewSecurityAgent()); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cfg.Agents))
	for id := range cfg.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := r.Register(agent.NewCustomAgent(cfg.Agents[id])); err != nil {
			return nil, err
		}
	}

	o := orchestrator.New(orchestrator.Config{
		Router:        r,
		WorkspaceRoot: cfg.WorkspaceRoot,
		Policy:        execpolicy.NewClassifier(),
		Tools:         toolkit.DefaultRegistry(),
		MaxParallel:   cfg.MaxParallelAgents,
	})

	return &runtime{cfg: cfg, router: r, orchestrator: o}, nil
}
