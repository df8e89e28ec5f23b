package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-autosync/internal/model"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show lifetime processing metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEnv(cmd.Context(), "local")
		if err != nil {
			return err
		}
		defer env.Close()

		formatMetrics(os.Stdout, env.Orch.Metrics().Snapshot())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func formatMetrics(out io.Writer, m model.Metrics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Emails processed:\t%d\n", m.TotalEmailsProcessed)
	_, _ = fmt.Fprintf(w, "Entries created:\t%d\n", m.TotalEntriesCreated)
	_, _ = fmt.Fprintf(w, "Push errors:\t%d\n", m.TotalErrors)
	_, _ = fmt.Fprintf(w, "Error rate:\t%s\n", m.ErrorRate())
	_, _ = fmt.Fprintf(w, "Pending review:\t%d\n", m.PendingReview)
	_ = w.Flush()
}
