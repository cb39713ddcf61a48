package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var agentsDir string

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List registered agents and their permissions",
	RunE:  listAgents,
}

func init() {
	agentsCmd.Flags().StringVar(&agentsDir, "directory", "", "Working directory")
}

func listAgents(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(agentsDir)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(workDir)
	if err != nil {
		return err
	}

	for _, a := range rt.router.Agents() {
		id := a.Identity()
		perms := a.Permissions()

		fmt.Printf("%s (%s)\n", id.ID, id.Name)
		if id.Description != "" {
			fmt.Printf("  %s\n", id.Description)
		}
		fmt.Printf("  file access: %s", perms.FileAccess)
		if len(perms.AllowPatterns) > 0 {
			fmt.Printf(" (allow: %v)", perms.AllowPatterns)
		}
		if len(perms.DenyPatterns) > 0 {
			fmt.Printf(" (deny: %v)", perms.DenyPatterns)
		}
		fmt.Println()
		fmt.Printf("  shell: %t, network: %t, delegate: %t, max iterations: %d\n",
			perms.ShellExecution, perms.NetworkAccess, perms.CanDelegate, perms.MaxIterations)
		if len(perms.AllowedTools) > 0 {
			fmt.Printf("  tools: %v\n", perms.AllowedTools)
		}
	}
	return nil
}
