package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hnt4499/transval/internal/config"
	"github.com/hnt4499/transval/internal/history"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded validation passes",
	}

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// historyDBPath resolves the history database path from the flag or config.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		return dbPath, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return "", err
	}
	if saveDir, _ := cmd.Flags().GetString("save-dir"); saveDir != "" {
		return filepath.Join(saveDir, "history.db"), nil
	}
	return cfg.History.DBPath, nil
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List recent validation passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := historyDBPath(cmd)
			if err != nil {
				return err
			}

			store, err := history.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			passes, err := store.RecentPasses(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(passes) == 0 {
				fmt.Fprintln(out, "No validation passes recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-19s  %8s  %8s  %7s  %10s\n",
				"RUN", "COMPLETED", "BATCHES", "RESULTS", "SAMPLES", "BLEU")
			for _, p := range passes {
				fmt.Fprintf(out, "%-36s  %-19s  %8d  %8d  %7d  %10.4f\n",
					p.RunID,
					p.CompletedAt.Format("2006-01-02 15:04:05"),
					p.Batches,
					p.Results,
					p.SamplesPrinted,
					p.CorpusBLEU,
				)
			}

			return nil
		},
	}

	cmd.Flags().String("db", "", "Path to the history database (default from config)")
	cmd.Flags().String("save-dir", "", "Save directory whose history.db should be read")
	cmd.Flags().Int("limit", 10, "Maximum number of passes to list")

	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete recorded validation passes",
		Long: `Delete recorded validation passes.

With --keep-days N, passes older than N days are removed. Without it,
all passes are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := historyDBPath(cmd)
			if err != nil {
				return err
			}

			store, err := history.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open history database: %w", err)
			}
			defer store.Close()

			keepDays, _ := cmd.Flags().GetInt("keep-days")
			start := time.Now()
			removed, err := store.Prune(cmd.Context(), keepDays)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d pass(es) in %s.\n",
				removed, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().String("db", "", "Path to the history database (default from config)")
	cmd.Flags().String("save-dir", "", "Save directory whose history.db should be cleared")
	cmd.Flags().Int("keep-days", 0, "Keep passes newer than this many days (0 = remove all)")

	return cmd
}
