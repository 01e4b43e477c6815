package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ppms/internal/app"
	"ppms/internal/audit"
	"ppms/internal/models"
	"ppms/internal/query"

	"github.com/spf13/cobra"
)

var (
	auditLimit  int
	auditTable  string
	auditUser   string
	auditAction string
	auditText   string
	auditFrom   string
	auditTo     string
	auditOut    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the latest audit entries",
	Long: `Show the latest audit entries, newest first.

Examples:
  ppmsctl audit tail -n 50
  ppmsctl audit tail --table work_orders --user system`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
		f, err := auditFilter()
		if err != nil {
			return err
		}
		res, err := a.Audit.Query(cmd.Context(), f, query.Page{Limit: auditLimit})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), res)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTABLE\tRECORD\tACTION\tFIELD\tOLD\tNEW\tUSER")
		for _, e := range res.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.UTC().Format(time.DateTime), e.Table, e.RecordID, e.Action,
				orDash(e.FieldName), orDash(e.OldValue), orDash(e.NewValue), e.Actor())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(res.Entries), res.Total)
		return nil
	}),
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching audit entries as CSV",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
		f, err := auditFilter()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if auditOut != "" && auditOut != "-" {
			file, err := os.Create(auditOut)
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		return a.Audit.ExportCSV(cmd.Context(), f, w)
	}),
}

func auditFilter() (audit.Filter, error) {
	f := audit.Filter{
		Table:         auditTable,
		ActorUsername: auditUser,
		Action:        models.AuditAction(auditAction),
		Text:          auditText,
	}
	if f.Action != "" && !f.Action.Valid() {
		return f, fmt.Errorf("unknown action %q", auditAction)
	}
	var err error
	if f.From, err = parseDay(auditFrom); err != nil {
		return f, err
	}
	if f.To, err = parseDay(auditTo); err != nil {
		return f, err
	}
	return f, nil
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	for _, c := range []*cobra.Command{auditTailCmd, auditExportCmd} {
		c.Flags().StringVar(&auditTable, "table", "", "only entries of this table")
		c.Flags().StringVar(&auditUser, "user", "", `only entries by this username ("system" for unattributed)`)
		c.Flags().StringVar(&auditAction, "action", "", "CREATE, UPDATE or DELETE")
		c.Flags().StringVar(&auditText, "grep", "", "record id or value substring")
		c.Flags().StringVar(&auditFrom, "from", "", "first day, YYYY-MM-DD")
		c.Flags().StringVar(&auditTo, "to", "", "last day, YYYY-MM-DD")
	}
	auditTailCmd.Flags().IntVarP(&auditLimit, "lines", "n", 20, "number of entries")
	auditExportCmd.Flags().StringVarP(&auditOut, "out", "o", "", "output file (default stdout)")

	auditCmd.AddCommand(auditTailCmd, auditExportCmd)
	rootCmd.AddCommand(auditCmd)
}
