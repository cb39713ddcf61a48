package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/vcs"
)

var (
	routeFiles []string
	routeDir   string
	routeTop   int
	routeGit   bool
)

var routeCmd = &cobra.Command{
	Use:   "route [intent...]",
	Short: "Show which agents would activate for a task",
	Long: `Score every registered agent against a task without executing anything.

Example:
  agentmux route "audit the auth flow" -f auth.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: routeTask,
}

func init() {
	routeCmd.Flags().StringArrayVarP(&routeFiles, "file", "f", nil, "File(s) to attach to the task")
	routeCmd.Flags().StringVar(&routeDir, "directory", "", "Working directory")
	routeCmd.Flags().IntVar(&routeTop, "top", 5, "Maximum candidates to show")
	routeCmd.Flags().BoolVar(&routeGit, "git", false, "Attach git context (branch, diff, changed files)")
}

func routeTask(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(routeDir)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(workDir)
	if err != nil {
		return err
	}

	task, err := buildTask(strings.Join(args, " "), routeFiles)
	if err != nil {
		return err
	}
	if routeGit {
		task.Context.Git = vcs.Snapshot(workDir)
	}

	candidates := rt.router.SuggestAgents(task.Context, routeTop)
	if len(candidates) == 0 {
		fmt.Println("no agent activates for this task")
		return nil
	}

	threshold := rt.router.Threshold()
	for _, c := range candidates {
		marker := " "
		if float64(c.Score) >= threshold {
			marker = "*"
		}
		fmt.Printf("%s %-12s %.2f  %s\n", marker, c.Agent.Identity().ID, float64(c.Score), c.Agent.Identity().Description)
	}
	fmt.Printf("(* at or above the %.2f activation threshold)\n", threshold)
	return nil
}
