package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/federationserver/federationserver/internal/operator"
)

var createOperatorCmd = &cobra.Command{
	Use:   "create-operator",
	Short: "Create a new operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		manageOperators, _ := cmd.Flags().GetBool("manage-operators")
		manageBlacklist, _ := cmd.Flags().GetBool("manage-blacklist")
		isClient, _ := cmd.Flags().GetBool("is-client")

		if name == "" {
			return fmt.Errorf("--name is required")
		}

		o, err := d.operators.CreateOperator(cmd.Context(), name, manageOperators, manageBlacklist, isClient)
		if err != nil {
			return fmt.Errorf("create operator: %w", err)
		}

		fmt.Printf("Created operator: %s\n", o.Name)
		fmt.Printf("UUID: %s\n", o.UUID)
		fmt.Println()
		fmt.Println("API key (save this, it is not shown again via this command):")
		fmt.Printf("  %s\n", o.APIKey)
		return nil
	},
}

var getOperatorCmd = &cobra.Command{
	Use:   "get-operator [uuid]",
	Short: "Show an operator's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("uuid: %w", err)
		}
		o, err := d.operators.GetOperator(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get operator: %w", err)
		}
		printOperator(*o)
		return nil
	},
}

var deleteOperatorCmd = &cobra.Command{
	Use:   "delete-operator [uuid]",
	Short: "Delete an operator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("uuid: %w", err)
		}
		if err := d.operators.DeleteOperator(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete operator: %w", err)
		}
		fmt.Printf("Deleted operator: %s\n", id)
		return nil
	},
}

var editOperatorCmd = &cobra.Command{
	Use:   "edit-operator [uuid]",
	Short: "Change an operator's permissions or enabled state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("uuid: %w", err)
		}

		existing, err := d.operators.GetOperator(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get operator: %w", err)
		}

		manageOperators := existing.ManageOperators
		manageBlacklist := existing.ManageBlacklist
		isClient := existing.IsClient

		if cmd.Flags().Changed("manage-operators") {
			manageOperators, _ = cmd.Flags().GetBool("manage-operators")
		}
		if cmd.Flags().Changed("manage-blacklist") {
			manageBlacklist, _ = cmd.Flags().GetBool("manage-blacklist")
		}
		if cmd.Flags().Changed("is-client") {
			isClient, _ = cmd.Flags().GetBool("is-client")
		}

		o, err := d.operators.SetPermissions(cmd.Context(), id, manageOperators, manageBlacklist, isClient)
		if err != nil {
			return fmt.Errorf("set permissions: %w", err)
		}

		if enable, _ := cmd.Flags().GetBool("enable"); enable {
			o, err = d.operators.EnableOperator(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("enable operator: %w", err)
			}
		}
		if disable, _ := cmd.Flags().GetBool("disable"); disable {
			o, err = d.operators.DisableOperator(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("disable operator: %w", err)
			}
		}

		printOperator(*o)
		return nil
	},
}

var listOperatorsCmd = &cobra.Command{
	Use:   "list-operators",
	Short: "List operators",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		limit = d.cfg.Server.ClampLimit(limit)
		page = d.cfg.Server.ClampPage(page)
		offset := (page - 1) * limit

		result, err := d.operators.ListOperators(cmd.Context(), limit, offset)
		if err != nil {
			return fmt.Errorf("list operators: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "UUID\tNAME\tMANAGE_OPERATORS\tMANAGE_BLACKLIST\tIS_CLIENT\tDISABLED")
		for _, o := range result.Operators {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%t\t%t\n",
				o.UUID, o.Name, o.ManageOperators, o.ManageBlacklist, o.IsClient, o.Disabled)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\npage %d, %d total\n", page, result.Total)
		return nil
	},
}

var refreshOperatorAPIKeyCmd = &cobra.Command{
	Use:   "refresh-operator-api-key [uuid]",
	Short: "Rotate an operator's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("uuid: %w", err)
		}
		o, err := d.operators.RefreshAPIKey(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("refresh api key: %w", err)
		}
		fmt.Printf("New API key for %s:\n", o.Name)
		fmt.Printf("  %s\n", o.APIKey)
		return nil
	},
}

func printOperator(o operator.Operator) {
	fmt.Printf("UUID:             %s\n", o.UUID)
	fmt.Printf("Name:             %s\n", o.Name)
	fmt.Printf("Manage Operators: %t\n", o.ManageOperators)
	fmt.Printf("Manage Blacklist: %t\n", o.ManageBlacklist)
	fmt.Printf("Is Client:        %t\n", o.IsClient)
	fmt.Printf("Disabled:         %t\n", o.Disabled)
	fmt.Printf("Created:          %s\n", o.Created.Format("2006-01-02T15:04:05Z07:00"))
}

func init() {
	createOperatorCmd.Flags().StringP("name", "n", "", "Operator name (required)")
	createOperatorCmd.Flags().Bool("manage-operators", false, "Grant manage_operators")
	createOperatorCmd.Flags().Bool("manage-blacklist", false, "Grant manage_blacklist")
	createOperatorCmd.Flags().Bool("is-client", false, "Grant is_client (evidence/attachment submission)")

	editOperatorCmd.Flags().Bool("manage-operators", false, "Set manage_operators")
	editOperatorCmd.Flags().Bool("manage-blacklist", false, "Set manage_blacklist")
	editOperatorCmd.Flags().Bool("is-client", false, "Set is_client")
	editOperatorCmd.Flags().Bool("enable", false, "Re-enable the operator")
	editOperatorCmd.Flags().Bool("disable", false, "Disable the operator")

	listOperatorsCmd.Flags().Int("limit", 0, "Page size (defaults to max_items_per_kind)")
	listOperatorsCmd.Flags().Int("page", 1, "Page number")
}
