package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-autosync/internal/model"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents taking part in the pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		formatAgents(os.Stdout, model.Agents, cfg.Agent.ExtractionAgentID, cfg.Agent.PushAgentID)
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

// formatAgents lists agents, marking the ones invoked directly.
func formatAgents(out io.Writer, agents []model.Agent, extractionID, pushID string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tROLE\tPURPOSE")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-------")
	for _, a := range agents {
		role := ""
		switch a.ID {
		case extractionID:
			role = "extract"
		case pushID:
			role = "push"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, role, a.Purpose)
	}
	_ = w.Flush()
}
