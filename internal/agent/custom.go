package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/agentmux/agentmux/internal/permission"
)

// Definition is the registry/config-loader tuple a custom agent is built
// from: identity, permissions, persona, and the activation signals the
// keyword scorer uses.
type Definition struct {
	ID            string                      `json:"id" yaml:"id"`
	Name          string                      `json:"name" yaml:"name"`
	Description   string                      `json:"description" yaml:"description"`
	SystemPrompt  string                      `json:"systemPrompt" yaml:"system_prompt"`
	Keywords      []string                    `json:"keywords" yaml:"keywords"`
	KeywordWeight float64                     `json:"keywordWeight,omitempty" yaml:"keyword_weight"`
	FileTypes     []string                    `json:"fileTypes,omitempty" yaml:"file_types"`
	Permissions   permission.AgentPermissions `json:"permissions" yaml:"permissions"`
}

// CustomAgent is a config-defined agent. It scores by the definition's
// keywords and file types and reports an analysis summarizing the matched
// context; it exists so deployments can route domain intents to scoped
// permission sets without writing Go.
type CustomAgent struct {
	def Definition
}

// NewCustomAgent builds an agent from a loaded definition. Missing fields
// get conservative defaults.
func NewCustomAgent(def Definition) *CustomAgent {
	if def.KeywordWeight == 0 {
		def.KeywordWeight = 0.25
	}
	if def.Permissions.MaxIterations == 0 {
		def.Permissions.MaxIterations = 5
	}
	return &CustomAgent{def: def}
}

func (a *CustomAgent) Identity() Identity {
	return Identity{
		ID:           a.def.ID,
		Name:         a.def.Name,
		Description:  a.def.Description,
		SystemPrompt: a.def.SystemPrompt,
	}
}

func (a *CustomAgent) CanHandle(ctx TaskContext) ActivationScore {
	keywords := make([]string, len(a.def.Keywords))
	for i, k := range a.def.Keywords {
		keywords[i] = strings.ToLower(k)
	}
	score := KeywordScore(ctx.UserIntent, keywords, a.def.KeywordWeight)
	if len(a.def.FileTypes) > 0 {
		score += FileTypeScore(ctx.FilePaths, a.def.FileTypes, 0.1)
	}
	return NewScore(score)
}

func (a *CustomAgent) Permissions() permission.AgentPermissions {
	return a.def.Permissions
}

func (a *CustomAgent) Execute(ctx context.Context, task Task, tk Toolkit) (Result, error) {
	details := []Detail{
		{Key: "agent", Value: a.def.ID},
		{Key: "intent", Value: task.Context.UserIntent},
	}

	read := 0
	for _, path := range task.Context.FilePaths {
		if _, ok := task.Context.FileContents[path]; ok {
			read++
			continue
		}
		if _, err := tk.ReadFile(ctx, path); err == nil {
			read++
		} else if IsBudgetExhausted(err) {
			return Result{}, err
		}
	}
	if len(task.Context.FilePaths) > 0 {
		details = append(details, Detail{Key: "files_examined", Value: strconv.Itoa(read)})
	}

	summary := a.def.Name + " handled: " + task.Context.UserIntent
	return NewAnalysis(summary, details), nil
}
