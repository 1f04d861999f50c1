package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// maintenanceCmd runs the scheduled cleanup operations on demand: trimming
// audit log entries older than Maintenance.CleanAuditLogsDays and lifting
// blacklist records older than Maintenance.CleanBlacklistDays (spec.md §6,
// §4.9). A CleanBlacklistDays of 0 means blacklist cleanup is skipped, same
// as the daemon's scheduled run.
var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run scheduled cleanup (audit log trim, blacklist expiry sweep)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !d.cfg.Maintenance.Enabled {
			fmt.Println("maintenance disabled (FEDERATION_MAINTENANCE_ENABLED=false), nothing to do")
			return nil
		}

		if d.cfg.Maintenance.CleanAuditLogsDays > 0 {
			removed, err := d.audit.CleanEntries(cmd.Context(), d.cfg.Maintenance.CleanAuditLogsDays)
			if err != nil {
				return fmt.Errorf("clean audit entries: %w", err)
			}
			fmt.Printf("removed %d audit entries older than %d days\n", removed, d.cfg.Maintenance.CleanAuditLogsDays)
		}

		if d.cfg.Maintenance.CleanBlacklistDays > 0 {
			removed, err := d.blacklist.CleanEntries(cmd.Context(), d.cfg.Maintenance.CleanBlacklistDays)
			if err != nil {
				return fmt.Errorf("clean blacklist entries: %w", err)
			}
			fmt.Printf("removed %d expired blacklist entries older than %d days\n", removed, d.cfg.Maintenance.CleanBlacklistDays)
		}

		return nil
	},
}
