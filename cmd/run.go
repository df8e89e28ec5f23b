package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/pipeline"
)

var runFlags struct {
	senderDomain string
	keywords     string
	dateFrom     string
	dateTo       string
	useDefaults  bool
	push         string
	jsonOut      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract CRM entries from email once, optionally pushing them",
	Long:  "Runs one extraction with the given filters and prints the entries. With --push, selects every entry matching the given status and pushes them in the same process.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var pushFilter model.StatusFilter
		if runFlags.push != "" {
			f, err := model.ParseStatusFilter(runFlags.push)
			if err != nil {
				return err
			}
			pushFilter = f
		}

		env, err := initEnv(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		filters := pipeline.ExtractFilters{
			SenderDomain: runFlags.senderDomain,
			Keywords:     runFlags.keywords,
			DateFrom:     runFlags.dateFrom,
			DateTo:       runFlags.dateTo,
		}
		if runFlags.useDefaults {
			filters = withDefaults(filters, env.Orch.Settings().Get())
		}

		out, err := env.Orch.Extract(ctx, filters)
		if err != nil {
			return userError(err)
		}
		fmt.Fprintln(os.Stderr, out.Message)

		if pushFilter != "" {
			rv := env.Orch.Review()
			rv.SetFilter(pushFilter)
			rv.ToggleAll()

			res, err := env.Orch.Push(ctx)
			switch {
			case errors.Is(err, pipeline.ErrNothingSelected):
				fmt.Fprintln(os.Stderr, "No entries match the push filter.")
			case err != nil:
				return userError(err)
			default:
				fmt.Fprintln(os.Stderr, res.Message)
			}
		}

		if runFlags.jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Entries     []model.CRMEntry   `json:"entries"`
				PushResults []model.PushResult `json:"push_results,omitempty"`
			}{env.Orch.Review().Entries(), env.Orch.Review().PushResults()})
		}

		formatEntries(os.Stdout, env.Orch.Review().Entries())
		if results := env.Orch.Review().PushResults(); len(results) > 0 {
			fmt.Fprintln(os.Stdout)
			formatPushResults(os.Stdout, results)
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.senderDomain, "sender-domain", "", "only emails from this sender domain")
	f.StringVar(&runFlags.keywords, "keywords", "", "only emails containing these keywords")
	f.StringVar(&runFlags.dateFrom, "from", "", "earliest email date (YYYY-MM-DD)")
	f.StringVar(&runFlags.dateTo, "to", "", "latest email date (YYYY-MM-DD)")
	f.BoolVar(&runFlags.useDefaults, "defaults", false, "fill empty sender domain and keywords from saved settings")
	f.StringVar(&runFlags.push, "push", "", "push entries with this status after extraction (all, validated, flagged, incomplete)")
	f.BoolVar(&runFlags.jsonOut, "json", false, "print entries as JSON")
	rootCmd.AddCommand(runCmd)
}

// withDefaults fills blank sender domain and keyword filters from settings.
func withDefaults(f pipeline.ExtractFilters, s model.Settings) pipeline.ExtractFilters {
	if f.SenderDomain == "" {
		f.SenderDomain = s.DefaultSenderDomains
	}
	if f.Keywords == "" {
		f.Keywords = s.DefaultKeywords
	}
	return f
}

// userError surfaces the user-facing message of a failed phase.
func userError(err error) error {
	var pe *pipeline.PhaseError
	if errors.As(err, &pe) {
		return eris.New(pe.Message)
	}
	return err
}

// formatEntries writes a tabular list of entries to w.
func formatEntries(out io.Writer, entries []model.CRMEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries extracted.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tCONTACT\tCOMPANY\tDEAL\tVALUE\tCONFIDENCE\tSTATUS")
	_, _ = fmt.Fprintln(w, "-\t-------\t-------\t----\t-----\t----------\t------")
	for i, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d (%s)\t%s\n",
			i,
			truncate(e.ContactName, 24),
			truncate(e.Company, 24),
			truncate(e.DealName, 30),
			model.FormatCurrency(e.DealValue),
			e.ConfidenceScore,
			model.ConfidenceBand(e.ConfidenceScore),
			e.ValidationStatus,
		)
	}
	_ = w.Flush()
}

// formatPushResults writes one line per pushed entry to w.
func formatPushResults(out io.Writer, results []model.PushResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CONTACT\tSTATUS\tCONTACT_ID\tDEAL_ID\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t------\t----------\t-------\t-----")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(r.ContactName, 24),
			r.Status,
			r.HubspotContactID,
			r.HubspotDealID,
			r.ErrorMessage,
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
