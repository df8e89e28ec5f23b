package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-autosync/internal/export"
	"github.com/sells-group/crm-autosync/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect extraction run history",
	Long:  "Commands for listing, viewing, and exporting past extraction runs.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List extraction runs, most recent first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		query, _ := cmd.Flags().GetString("query")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs := env.Orch.Ledger().Search(query, status)
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		if limit > 0 && len(runs) > limit {
			runs = runs[:limit]
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its entry snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		run, ok := env.Orch.Ledger().Get(args[0])
		if !ok {
			return eris.Errorf("history show: run %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- history export --

var historyExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export run history to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		query, _ := cmd.Flags().GetString("query")
		status, _ := cmd.Flags().GetString("status")

		runs := env.Orch.Ledger().Search(query, status)
		if err := export.SaveHistory(args[0], runs); err != nil {
			return eris.Wrap(err, "history export")
		}
		fmt.Fprintf(os.Stderr, "Exported %d runs to %s\n", len(runs), args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().String("query", "", "match run status or any entry's contact or deal name")
		c.Flags().String("status", "", "filter by run status")
	}
	historyListCmd.Flags().Int("limit", 50, "max number of runs to display")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.ProcessingRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tEMAILS\tENTRIES\tOK\tFAILED\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t--\t------\t------")

	for _, r := range runs {
		date := r.Date
		if t := r.Time(); !t.IsZero() {
			date = t.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID,
			date,
			r.EmailCount,
			r.EntriesCreated,
			r.SuccessCount,
			r.FailureCount,
			r.Status,
		)
	}
	_ = w.Flush()
}
