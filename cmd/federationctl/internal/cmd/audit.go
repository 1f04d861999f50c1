package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listAuditCmd = &cobra.Command{
	Use:   "list-audit",
	Short: "List audit log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		limit = d.cfg.Server.ClampLimit(limit)
		page = d.cfg.Server.ClampPage(page)
		offset := (page - 1) * limit

		result, err := d.audit.GetEntries(cmd.Context(), nil, limit, offset)
		if err != nil {
			return fmt.Errorf("list audit entries: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UUID\tTYPE\tMESSAGE\tCREATED")
		for _, e := range result.Entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.UUID, e.Type, e.Message, e.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\npage %d, %d total\n", page, result.Total)
		return nil
	},
}

func init() {
	listAuditCmd.Flags().Int("limit", 0, "Page size (defaults to max_items_per_kind)")
	listAuditCmd.Flags().Int("page", 1, "Page number")
}
