package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentmux/agentmux/internal/config"
	"github.com/agentmux/agentmux/internal/orchestrator"
	"github.com/agentmux/agentmux/internal/storage"
)

var (
	runsShow   string
	runsFormat string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or inspect recorded orchestration runs",
	Long: `List recorded runs, or show one in full.

Examples:
  agentmux runs
  agentmux runs --show latest
  agentmux runs --show 01JD2S8Y1B3K4M5N6P7Q8R9S0T --format json`,
	RunE: showRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsShow, "show", "", "Run ID to show in full, or 'latest'")
	runsCmd.Flags().StringVar(&runsFormat, "format", "default", "Output format (default|json)")
	rootCmd.AddCommand(runsCmd)
}

func showRuns(cmd *cobra.Command, args []string) error {
	store := storage.NewRunStore(config.GetPaths().Data)

	if runsShow == "" {
		ids, err := store.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}
		for _, id := range ids {
			run, err := store.Get(id)
			if err != nil {
				continue
			}
			fmt.Printf("%s  %-13s %-9s %d subtasks, %d failed\n",
				run.ID, run.Strategy, run.State, len(run.Outcomes), run.Failed)
		}
		return nil
	}

	run, err := lookupRun(store, runsShow)
	if err != nil {
		return err
	}

	if runsFormat == "json" {
		return printJSON(run)
	}
	return printRun(run)
}

func lookupRun(store *storage.RunStore, key string) (*orchestrator.RunResult, error) {
	if key == "latest" {
		run, err := store.Latest()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no recorded runs")
		}
		return run, err
	}
	run, err := store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no run with id %q", key)
	}
	return run, err
}
