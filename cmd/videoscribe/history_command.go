package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videoscribe/internal/history"
)

func newHistoryCommand(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past transcription runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(global)
			if err != nil {
				return err
			}
			historyPath := cfg.GetHistoryPath()
			if historyPath == "" {
				return fmt.Errorf("no history database configured, set history.path or VIDEOSCRIBE_HISTORY_PATH")
			}

			store, err := history.Open(historyPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transcription runs recorded yet.")
				return nil
			}

			rows := make([]table.Row, 0, len(entries))
			for _, entry := range entries {
				status := "ok"
				if !entry.Success {
					status = entry.ErrorKind
					if status == "" {
						status = "failed"
					}
				}
				rows = append(rows, table.Row{
					entry.CreatedAt.Local().Format("2006-01-02 15:04"),
					entry.Source,
					entry.Language,
					entry.Format,
					entry.Device,
					fmt.Sprintf("%.1fs", entry.DurationS),
					entry.SegmentCount,
					status,
				})
			}
			headers := table.Row{"Time", "Source", "Lang", "Format", "Device", "Duration", "Segments", "Status"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 6, 7))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}
