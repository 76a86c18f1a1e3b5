package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect authorization decisions made by the server",
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
