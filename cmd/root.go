package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workorders",
	Short: "Field work order service",
	Long:  `Backend for field-service work order management: role-gated CRUD, notes, attachments, and reference data.`,
}

// Execute runs the selected subcommand
func Execute() error {
	return rootCmd.Execute()
}
