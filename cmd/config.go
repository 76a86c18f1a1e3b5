package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with server configuration files",
}

func init() {
	rootCmd.AddCommand(configCmd)
}
