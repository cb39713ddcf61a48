package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/config"
	"github.com/agentmux/agentmux/internal/orchestrator"
	"github.com/agentmux/agentmux/internal/storage"
	"github.com/agentmux/agentmux/internal/vcs"
)

var (
	runFiles    []string
	runAgent    string
	runStrategy string
	runFormat   string
	runDir      string
	runGit      bool
	runNoSave   bool
)

var runCmd = &cobra.Command{
	Use:   "run [intent...]",
	Short: "Execute a task through the agent pool",
	Long: `Execute a task. The intent is decomposed into subtasks, each subtask is
routed to the best-scoring agent, and the outcomes are combined.

Examples:
  agentmux run "review this code" -f main.go
  agentmux run --strategy sequential "lint the handlers and then audit security"
  agentmux run --agent security "check for injection flaws" -f handler.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "File(s) to attach to the task")
	runCmd.Flags().StringVar(&runAgent, "agent", "", "Run a specific agent instead of routing")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "Coordination strategy (parallel|sequential|collaborative)")
	runCmd.Flags().StringVar(&runFormat, "format", "default", "Output format (default|json)")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
	runCmd.Flags().BoolVar(&runGit, "git", false, "Attach git context (branch, diff, changed files)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not record the run in history")
}

func runTask(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(workDir)
	if err != nil {
		return err
	}

	task, err := buildTask(strings.Join(args, " "), runFiles)
	if err != nil {
		return err
	}
	if runGit {
		task.Context.Git = vcs.Snapshot(workDir)
	}

	ctx := context.Background()

	// A named agent bypasses routing but not permission checks.
	if runAgent != "" {
		a, ok := rt.router.Get(runAgent)
		if !ok {
			if hint := rt.router.ClosestID(runAgent); hint != "" {
				return fmt.Errorf("unknown agent %q (did you mean %q?)", runAgent, hint)
			}
			return fmt.Errorf("unknown agent %q", runAgent)
		}
		result, err := rt.orchestrator.Delegate(ctx, runAgent, task, a.Permissions())
		if err != nil {
			return err
		}
		return printResult(result)
	}

	if !rt.cfg.OrchestrationEnabled() {
		selected, score := rt.router.SelectAgent(task.Context)
		if selected == nil {
			return fmt.Errorf("no agent met the activation threshold %.2f", rt.router.Threshold())
		}
		fmt.Fprintf(os.Stderr, "selected %s (score %.2f)\n", selected.Identity().ID, float64(score))
		result, err := rt.orchestrator.Delegate(ctx, selected.Identity().ID, task, selected.Permissions())
		if err != nil {
			return err
		}
		return printResult(result)
	}

	strategy := rt.cfg.Strategy()
	if runStrategy != "" {
		strategy = orchestrator.Strategy(runStrategy)
	}

	run, err := rt.orchestrator.Run(ctx, task, strategy)
	if err != nil {
		return err
	}

	if !runNoSave {
		paths := config.GetPaths()
		if err := paths.EnsurePaths(); err == nil {
			store := storage.NewRunStore(paths.Data)
			if err := store.Save(run); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to record run: %v\n", err)
			}
		}
	}
	return printRun(run)
}

// buildTask assembles the task context, attaching each file's content so
// agents can work without extra reads.
func buildTask(intent string, files []string) (agent.Task, error) {
	ctx := agent.TaskContext{
		UserIntent: intent,
		Mode:       agent.ModeInteractive,
	}

	if len(files) > 0 {
		ctx.FileContents = make(map[string]string, len(files))
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return agent.Task{}, fmt.Errorf("failed to read file %s: %w", file, err)
			}
			ctx.FilePaths = append(ctx.FilePaths, file)
			ctx.FileContents[file] = string(data)
		}
	}

	task := agent.Task{Context: ctx}
	if err := task.Context.Validate(); err != nil {
		return agent.Task{}, err
	}
	return task, nil
}

func printResult(result agent.Result) error {
	if runFormat == "json" {
		return printJSON(result)
	}

	fmt.Println(result.Summary())
	switch result.Kind {
	case agent.ResultCodeReview:
		for _, f := range result.CodeReview.Findings {
			if f.File != "" {
				fmt.Printf("  [%s] %s:%d %s\n", f.Severity, f.File, f.Line, f.Message)
			} else {
				fmt.Printf("  [%s] %s\n", f.Severity, f.Message)
			}
		}
	case agent.ResultAnalysis:
		for _, d := range result.Analysis.Details {
			fmt.Printf("  %s: %s\n", d.Key, d.Value)
		}
	case agent.ResultSuggestions:
		for _, s := range result.Suggestions.Items {
			fmt.Printf("  - %s: %s\n", s.Title, s.Description)
		}
	}
	return nil
}

func printRun(run *orchestrator.RunResult) error {
	if runFormat == "json" {
		return printJSON(run)
	}

	fmt.Printf("run %s: %s (%d subtasks, %d failed)\n",
		run.ID, run.State, len(run.Outcomes), run.Failed)
	if run.AbortReason != "" {
		fmt.Printf("aborted: %s\n", run.AbortReason)
	}
	for i, out := range run.Outcomes {
		fmt.Printf("%d. [%s] %s\n", i+1, out.Subtask.AgentID, out.Subtask.Description)
		if out.Err != "" {
			fmt.Printf("   failed: %s\n", out.Err)
			continue
		}
		if out.Result != nil {
			fmt.Printf("   %s\n", out.Result.Summary())
		}
	}
	if len(run.Messages) > 0 {
		fmt.Printf("%d messages exchanged\n", len(run.Messages))
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
