package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// initCmd bootstraps the schema. PersistentPreRunE already ran
// store.Bootstrap before this RunE fires (Bootstrap is idempotent,
// CREATE TABLE IF NOT EXISTS throughout), so this command mostly exists
// to give operators an explicit, nameable first step.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("schema bootstrapped")
		return nil
	},
}
