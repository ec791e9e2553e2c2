package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jadnhm/volvo-usb-verifier/internal/report"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past scan runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(cmdCtx))
	historyCmd.AddCommand(newHistoryShowCommand(cmdCtx))
	historyCmd.AddCommand(newHistoryPruneCommand(cmdCtx))

	return historyCmd
}

func newHistoryListCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cmdCtx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scans recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Root,
					fmt.Sprintf("%d", run.TotalAudioFiles),
					fmt.Sprintf("%d", run.ErrorCount),
					fmt.Sprintf("%d", run.WarningCount),
					yesNo(run.Passed),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Table(
				[]string{"Run", "Started", "Root", "Files", "Errors", "Warnings", "Passed"},
				rows, 3, 4, 5))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cmdCtx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Run", run.RunID},
				{"Root", run.Root},
				{"Started", run.StartedAt.Local().Format(time.DateTime)},
				{"Duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()},
				{"Audio files", fmt.Sprintf("%d", run.TotalAudioFiles)},
				{"Folders", fmt.Sprintf("%d", run.TotalFolders)},
				{"Root folders", fmt.Sprintf("%d", run.RootFolders)},
				{"Max depth", fmt.Sprintf("%d", run.MaxDepth)},
				{"Errors", fmt.Sprintf("%d", run.ErrorCount)},
				{"Warnings", fmt.Sprintf("%d", run.WarningCount)},
				{"Passed", yesNo(run.Passed)},
			}
			if run.ExportPath != "" {
				rows = append(rows, []string{"Defect list", run.ExportPath})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Table([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}

func newHistoryPruneCommand(cmdCtx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if keep < 0 {
				keep = cfg.History.KeepRuns
			}

			store, err := cmdCtx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s), kept the newest %d.\n", removed, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", -1, "Runs to keep (default from config history.keep_runs)")
	return cmd
}
